package handlers

import (
	"storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /v1/products/:id/availability
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.Inv.CheckAvailability(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, a)
}

// GET /v1/admin/inventory
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	rows, err := h.Inv.List(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, rows)
}

type stockBody struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

// PUT /v1/products/:id/stock (admin)
func (h *InventoryHandler) SetStock(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in stockBody
	if err := bind(c, &in); err != nil {
		return err
	}
	a, err := h.Inv.SetStock(c.UserContext(), id, *in.Stock)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.inventory.save", map[string]any{"product_id": id, "qty": *in.Stock})
	return ok(c, a, "stock updated")
}
