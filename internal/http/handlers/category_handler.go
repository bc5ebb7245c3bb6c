package handlers

import (
	"storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /v1/categories
func (h *CategoryHandler) Tree(c *fiber.Ctx) error {
	tree, err := h.Catalog.CategoryTree(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, tree)
}

// POST /v1/categories (admin)
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), in)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.category.create", map[string]any{"category_id": cat.ID})
	return ok(c, cat, "category created")
}

// GET /v1/categories/:id
func (h *CategoryHandler) Detail(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.Catalog.Category(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, n)
}

// PUT /v1/categories/:id (admin)
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.CategoryUpdateInput
	if err := bind(c, &in); err != nil {
		return err
	}
	cat, err := h.Catalog.UpdateCategory(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.category.update", map[string]any{"category_id": id})
	return ok(c, cat, "category updated")
}

// DELETE /v1/categories/:id (admin)
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	log.Audit(c, "admin.category.delete", map[string]any{"category_id": id})
	return ok(c, nil, "category deleted")
}
