package handlers

import (
	"storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Users *services.UserService
}

// GET /v1/users/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	return ok(c, services.NewUserView(currentUser(c)))
}

// PUT /v1/users/me
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := bind(c, &in); err != nil {
		return err
	}
	v, err := h.Users.UpdateProfile(c.UserContext(), currentUser(c), in)
	if err != nil {
		return err
	}
	return ok(c, v, "profile updated")
}

// GET /v1/users (admin)
func (h *UserHandler) List(c *fiber.Ctx) error {
	p := pageQuery(c)
	list, total, err := h.Users.List(c.UserContext(), p.limit, p.offset)
	if err != nil {
		return err
	}
	return ok(c, p.wrap(list, total))
}

// PUT /v1/users/:id (admin)
func (h *UserHandler) AdminUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.AdminUserInput
	if err := bind(c, &in); err != nil {
		return err
	}
	v, err := h.Users.AdminUpdate(c.UserContext(), currentUser(c), id, in)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.users.update", map[string]any{"target": id})
	return ok(c, v, "user updated")
}

// DELETE /v1/users/:id (admin)
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	deleted, err := h.Users.Delete(c.UserContext(), currentUser(c), id)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.users.delete", map[string]any{"target": id, "deleted": deleted})
	if !deleted {
		return ok(c, nil, "user has orders and was deactivated")
	}
	return ok(c, nil, "user deleted")
}
