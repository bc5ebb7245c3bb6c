package handlers

import (
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AddressHandler struct {
	Addresses *services.AddressService
}

func (h *AddressHandler) List(c *fiber.Ctx) error {
	list, err := h.Addresses.List(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, list)
}

func (h *AddressHandler) Create(c *fiber.Ctx) error {
	var in services.AddressInput
	if err := bind(c, &in); err != nil {
		return err
	}
	a, err := h.Addresses.Create(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return err
	}
	return ok(c, a, "address added")
}

func (h *AddressHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.AddressInput
	if err := bind(c, &in); err != nil {
		return err
	}
	a, err := h.Addresses.Update(c.UserContext(), currentUserID(c), id, in)
	if err != nil {
		return err
	}
	return ok(c, a, "address updated")
}

func (h *AddressHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Addresses.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return err
	}
	return ok(c, nil, "address deleted")
}

func (h *AddressHandler) SetDefault(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Addresses.SetDefault(c.UserContext(), currentUserID(c), id); err != nil {
		return err
	}
	return ok(c, nil, "default address set")
}
