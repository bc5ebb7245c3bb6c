package handlers

import (
	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type RefundHandler struct {
	Refunds *services.RefundService
}

type notesBody struct {
	AdminNotes string `json:"admin_notes" validate:"max=500"`
}

// GET /v1/refunds (own tickets)
func (h *RefundHandler) Mine(c *fiber.Ctx) error {
	p := pageQuery(c)
	list, total, err := h.Refunds.List(c.UserContext(), services.RefundQuery{
		UserID: currentUserID(c), Status: domain.RefundStatus(c.Query("status")), Limit: p.limit, Offset: p.offset,
	})
	if err != nil {
		return err
	}
	return ok(c, p.wrap(list, total))
}

// GET /v1/admin/refunds
func (h *RefundHandler) List(c *fiber.Ctx) error {
	p := pageQuery(c)
	list, total, err := h.Refunds.List(c.UserContext(), services.RefundQuery{
		Status: domain.RefundStatus(c.Query("status")), Limit: p.limit, Offset: p.offset,
	})
	if err != nil {
		return err
	}
	return ok(c, p.wrap(list, total))
}

// notes tolerates an empty body; admin_notes is optional.
func notes(c *fiber.Ctx) (string, error) {
	var in notesBody
	if len(c.Body()) == 0 {
		return "", nil
	}
	if err := bind(c, &in); err != nil {
		return "", err
	}
	return in.AdminNotes, nil
}

// PUT /v1/admin/refunds/:id/approve
func (h *RefundHandler) Approve(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	n, err := notes(c)
	if err != nil {
		return err
	}
	r, err := h.Refunds.Approve(c.UserContext(), id, n)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.refund.approve", map[string]any{"refund_id": id, "order_id": r.OrderID})
	return ok(c, r, "refund approved")
}

// PUT /v1/admin/refunds/:id/reject
func (h *RefundHandler) Reject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	n, err := notes(c)
	if err != nil {
		return err
	}
	r, err := h.Refunds.Reject(c.UserContext(), id, n)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.refund.reject", map[string]any{"refund_id": id, "order_id": r.OrderID})
	return ok(c, r, "refund rejected")
}
