package handlers

import (
	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Orders  *services.OrderService
	Refunds *services.RefundService
}

type reasonBody struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// POST /v1/orders
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var in services.CheckoutInput
	if err := bind(c, &in); err != nil {
		return err
	}
	res, err := h.Orders.Checkout(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "order.create", map[string]any{
		"order_id": res.Order.ID, "order_number": res.Order.OrderNumber, "total": res.Order.TotalAmount,
	})
	return ok(c, res, "order created")
}

// GET /v1/orders
func (h *OrderHandler) List(c *fiber.Ctx) error {
	p := pageQuery(c)
	list, total, err := h.Orders.List(c.UserContext(), currentUserID(c), services.OrderQuery{
		Status: domain.OrderStatus(c.Query("status")), Limit: p.limit, Offset: p.offset,
	})
	if err != nil {
		return err
	}
	return ok(c, p.wrap(list, total))
}

// GET /v1/orders/:id
func (h *OrderHandler) Detail(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.Orders.Detail(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return err
	}
	return ok(c, v)
}

// GET /v1/orders/all (admin)
func (h *OrderHandler) AdminList(c *fiber.Ctx) error {
	p := pageQuery(c)
	list, total, err := h.Orders.AdminList(c.UserContext(), services.OrderQuery{
		Status:      domain.OrderStatus(c.Query("status")),
		OrderNumber: c.Query("order_number"),
		Limit:       p.limit,
		Offset:      p.offset,
	})
	if err != nil {
		return err
	}
	return ok(c, p.wrap(list, total))
}

// GET /v1/orders/admin/:id (admin)
func (h *OrderHandler) AdminDetail(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.Orders.AdminDetail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, v)
}

// PUT /v1/orders/:id/pay
func (h *OrderHandler) Pay(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.Orders.Pay(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return err
	}
	log.Audit(c, "order.pay", map[string]any{"order_id": id})
	return ok(c, v, "payment successful")
}

// PUT /v1/orders/:id/cancel
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in reasonBody
	if err := bind(c, &in); err != nil {
		return err
	}
	v, err := h.Orders.Cancel(c.UserContext(), currentUserID(c), id, in.Reason)
	if err != nil {
		return err
	}
	log.Audit(c, "order.cancel", map[string]any{"order_id": id})
	return ok(c, v, "order cancelled")
}

// PUT /v1/orders/:id/refund
func (h *OrderHandler) Refund(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in reasonBody
	if err := bind(c, &in); err != nil {
		return err
	}
	v, err := h.Orders.RequestRefund(c.UserContext(), currentUserID(c), id, in.Reason)
	if err != nil {
		return err
	}
	log.Audit(c, "order.refund", map[string]any{"order_id": id})
	return ok(c, v, "order refunded")
}

// PUT /v1/orders/:id/confirm
func (h *OrderHandler) Confirm(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.Orders.Confirm(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return err
	}
	log.Audit(c, "order.confirm", map[string]any{"order_id": id})
	return ok(c, v, "receipt confirmed")
}

// PUT /v1/orders/:id/status (admin)
func (h *OrderHandler) SetStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.StatusInput
	if err := bind(c, &in); err != nil {
		return err
	}
	v, err := h.Orders.SetStatus(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": in.Status})
	return ok(c, v, "order status updated")
}

// POST /v1/orders/:id/refunds
func (h *OrderHandler) OpenRefund(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.RefundInput
	if err := bind(c, &in); err != nil {
		return err
	}
	r, err := h.Refunds.Open(c.UserContext(), currentUserID(c), id, in)
	if err != nil {
		return err
	}
	log.Audit(c, "refund.request", map[string]any{"order_id": id, "refund_id": r.ID})
	return ok(c, r, "refund request submitted")
}
