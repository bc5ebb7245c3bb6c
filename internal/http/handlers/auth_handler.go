package handlers

import (
	"storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
	// Debug echoes reset tokens in the response when no mailer is set.
	Debug bool
}

type loginBody struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=64"`
}

type resetRequestBody struct {
	Email string `json:"email" validate:"required,email,max=100"`
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	log.Audit(c, "auth.register", map[string]any{"user_id": u.ID, "username": u.Username})
	return ok(c, services.NewUserView(u), "registered")
}

// POST /v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginBody
	if err := bind(c, &in); err != nil {
		return err
	}
	u, pair, err := h.Auth.Login(c.UserContext(), in.Username, in.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"username": in.Username})
		return err
	}
	c.Locals(log.LocalUserID, u.ID)
	log.Audit(c, "auth.login.success", nil)
	return ok(c, fiber.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
		"user":          services.NewUserView(u),
	}, "login successful")
}

// POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var in refreshBody
	if err := bind(c, &in); err != nil {
		return err
	}
	pair, err := h.Auth.Refresh(c.UserContext(), in.RefreshToken)
	if err != nil {
		return err
	}
	return ok(c, pair)
}

// PUT /v1/users/me/password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var in services.PasswordInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := h.Auth.ChangePassword(c.UserContext(), currentUser(c), in); err != nil {
		log.Security(c, "auth.password.change.fail", nil)
		return err
	}
	log.Audit(c, "auth.password.change", nil)
	return ok(c, nil, "password updated")
}

// POST /v1/auth/password-reset-request answers the same way whether or
// not the email is registered.
func (h *AuthHandler) RequestReset(c *fiber.Ctx) error {
	var in resetRequestBody
	if err := bind(c, &in); err != nil {
		return err
	}
	token, err := h.Auth.RequestPasswordReset(c.UserContext(), in.Email)
	if err != nil {
		return err
	}
	log.Audit(c, "auth.password.reset.request", map[string]any{"issued": token != ""})
	data := fiber.Map{"email": in.Email}
	if h.Debug && h.Auth.Mail == nil && token != "" {
		data["reset_token"] = token
	}
	return ok(c, data, "if the email is registered, a reset link has been sent")
}

// POST /v1/auth/password-reset
func (h *AuthHandler) Reset(c *fiber.Ctx) error {
	var in services.ResetInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := h.Auth.ResetPassword(c.UserContext(), in); err != nil {
		log.Security(c, "auth.password.reset.fail", nil)
		return err
	}
	log.Audit(c, "auth.password.reset", nil)
	return ok(c, nil, "password has been reset, please sign in")
}
