package handlers

import (
	"strings"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

const localUser = "user"

func bearer(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func attach(c *fiber.Ctx, u *domain.User) {
	c.Locals(localUser, u)
	c.Locals(applog.LocalUserID, u.ID)
}

func authenticate(c *fiber.Ctx, auth *services.AuthService) (*domain.User, error) {
	if u := currentUser(c); u != nil {
		return u, nil
	}
	tok := bearer(c)
	if tok == "" {
		return nil, services.Unauthorized("missing bearer token")
	}
	u, err := auth.Authenticate(c.UserContext(), tok)
	if err != nil {
		return nil, err
	}
	attach(c, u)
	return u, nil
}

// RequireUser resolves the bearer token to an active user or fails with 401/403.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := authenticate(c, auth); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAdmin is RequireUser plus the ADMIN role.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := authenticate(c, auth)
		if err != nil {
			return err
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", nil)
			return services.Forbidden("admin access required")
		}
		return c.Next()
	}
}

// OptionalUser attaches the caller when a valid token is present and
// otherwise continues anonymously.
func OptionalUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tok := bearer(c); tok != "" {
			if u, err := auth.Authenticate(c.UserContext(), tok); err == nil {
				attach(c, u)
			}
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(localUser).(*domain.User)
	return u
}

func currentUserID(c *fiber.Ctx) int64 {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return 0
}
