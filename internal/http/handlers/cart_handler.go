package handlers

import (
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

type addCartBody struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity" validate:"omitempty,min=1"`
}

type updateCartBody struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// GET /v1/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	v, err := h.Cart.View(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, v)
}

// POST /v1/cart
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in addCartBody
	if err := bind(c, &in); err != nil {
		return err
	}
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	v, err := h.Cart.Add(c.UserContext(), currentUserID(c), in.ProductID, qty)
	if err != nil {
		return err
	}
	return ok(c, v, "added to cart")
}

// PUT /v1/cart/:id
func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in updateCartBody
	if err := bind(c, &in); err != nil {
		return err
	}
	v, err := h.Cart.Update(c.UserContext(), currentUserID(c), id, in.Quantity)
	if err != nil {
		return err
	}
	return ok(c, v, "cart updated")
}

// DELETE /v1/cart/:id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.Cart.Remove(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return err
	}
	return ok(c, v, "item removed")
}

// DELETE /v1/cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	v, err := h.Cart.Clear(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, v, "cart cleared")
}
