package handlers

import (
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	Dashboard *services.DashboardService
}

// GET /v1/admin/dashboard
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	d, err := h.Dashboard.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, d)
}
