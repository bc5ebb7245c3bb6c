package handlers

import (
	"strconv"

	"storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

// GET /v1/products/:id/reviews
func (h *ReviewHandler) ForProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	rating := 0
	if raw := c.Query("rating"); raw != "" {
		rating, err = strconv.Atoi(raw)
		if err != nil || rating < 1 || rating > 5 {
			return services.Invalid("rating must be between 1 and 5")
		}
	}
	p := pageQuery(c)
	res, err := h.Reviews.ForProduct(c.UserContext(), id, currentUserID(c), rating, p.limit, p.offset)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{
		"summary":    res.Summary,
		"list":       res.List,
		"pagination": p.wrap(nil, res.Total).Pagination,
	})
}

// POST /v1/products/:id/reviews
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.ReviewInput
	if err := bind(c, &in); err != nil {
		return err
	}
	v, err := h.Reviews.Create(c.UserContext(), currentUserID(c), id, in)
	if err != nil {
		return err
	}
	log.Audit(c, "review.create", map[string]any{"review_id": v.ID, "product_id": id})
	return ok(c, v, "review posted")
}

// GET /v1/reviews/me
func (h *ReviewHandler) Mine(c *fiber.Ctx) error {
	p := pageQuery(c)
	list, total, err := h.Reviews.Mine(c.UserContext(), currentUserID(c), p.limit, p.offset)
	if err != nil {
		return err
	}
	return ok(c, p.wrap(list, total))
}

// GET /v1/reviews/pending lists received items not yet reviewed.
func (h *ReviewHandler) Pending(c *fiber.Ctx) error {
	items, err := h.Reviews.Pending(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, items)
}

// POST /v1/reviews/:id/like
func (h *ReviewHandler) Like(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Reviews.Like(c.UserContext(), currentUserID(c), id); err != nil {
		return err
	}
	return ok(c, nil, "liked")
}

// DELETE /v1/reviews/:id/like
func (h *ReviewHandler) Unlike(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Reviews.Unlike(c.UserContext(), currentUserID(c), id); err != nil {
		return err
	}
	return ok(c, nil, "like removed")
}

// GET /v1/admin/reviews
func (h *ReviewHandler) AdminList(c *fiber.Ctx) error {
	p := pageQuery(c)
	q := services.AdminReviewQuery{Limit: p.limit, Offset: p.offset}
	if raw := c.Query("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return services.Invalid("invalid product_id")
		}
		q.ProductID = id
	}
	if raw := c.Query("is_approved"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return services.Invalid("invalid is_approved")
		}
		q.Approved = &b
	}
	list, total, err := h.Reviews.AdminList(c.UserContext(), q)
	if err != nil {
		return err
	}
	return ok(c, p.wrap(list, total))
}

func (h *ReviewHandler) setApproved(c *fiber.Ctx, approved bool) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Reviews.SetApproved(c.UserContext(), id, approved); err != nil {
		return err
	}
	log.Audit(c, "admin.review.moderate", map[string]any{"review_id": id, "approved": approved})
	if approved {
		return ok(c, nil, "review approved")
	}
	return ok(c, nil, "review hidden")
}

// PUT /v1/admin/reviews/:id/approve
func (h *ReviewHandler) Approve(c *fiber.Ctx) error { return h.setApproved(c, true) }

// PUT /v1/admin/reviews/:id/reject
func (h *ReviewHandler) Reject(c *fiber.Ctx) error { return h.setApproved(c, false) }

// DELETE /v1/admin/reviews/:id
func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Reviews.Delete(c.UserContext(), id); err != nil {
		return err
	}
	log.Audit(c, "admin.review.delete", map[string]any{"review_id": id})
	return ok(c, nil, "review deleted")
}
