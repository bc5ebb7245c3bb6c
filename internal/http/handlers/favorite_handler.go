package handlers

import (
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type FavoriteHandler struct {
	Favorites *services.FavoriteService
}

// POST /v1/favorites/:product_id toggles the favorite.
func (h *FavoriteHandler) Toggle(c *fiber.Ctx) error {
	id, err := paramID(c, "product_id")
	if err != nil {
		return err
	}
	saved, err := h.Favorites.Toggle(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return err
	}
	msg := "removed from favorites"
	if saved {
		msg = "added to favorites"
	}
	return ok(c, fiber.Map{"is_favorite": saved}, msg)
}

// GET /v1/favorites/:product_id/check
func (h *FavoriteHandler) Check(c *fiber.Ctx) error {
	id, err := paramID(c, "product_id")
	if err != nil {
		return err
	}
	saved, err := h.Favorites.Has(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"is_favorite": saved})
}

// GET /v1/favorites
func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	p := pageQuery(c)
	list, total, err := h.Favorites.List(c.UserContext(), currentUserID(c), p.limit, p.offset)
	if err != nil {
		return err
	}
	return ok(c, p.wrap(list, total))
}
