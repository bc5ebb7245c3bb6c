package handlers

import (
	"strconv"

	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	Notes *services.NotificationService
}

// GET /v1/notifications
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	p := pageQuery(c)
	unread, _ := strconv.ParseBool(c.Query("unread_only"))
	list, total, err := h.Notes.List(c.UserContext(), currentUserID(c), unread, p.limit, p.offset)
	if err != nil {
		return err
	}
	return ok(c, p.wrap(list, total))
}

// GET /v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.Notes.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"count": n})
}

// PUT /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Notes.MarkRead(c.UserContext(), currentUserID(c), id); err != nil {
		return err
	}
	return ok(c, nil, "marked as read")
}

// PUT /v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	if err := h.Notes.MarkAllRead(c.UserContext(), currentUserID(c)); err != nil {
		return err
	}
	return ok(c, nil, "all marked as read")
}
