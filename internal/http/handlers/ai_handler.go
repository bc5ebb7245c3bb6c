package handlers

import (
	"storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AIHandler struct {
	AI *services.AIService
}

// POST /v1/ai/chat always answers 200; upstream failures become an apology.
func (h *AIHandler) Chat(c *fiber.Ctx) error {
	var in services.ChatInput
	if err := bind(c, &in); err != nil {
		return err
	}
	reply, err := h.AI.Reply(c.UserContext(), currentUserID(c), in)
	if err != nil {
		log.Error(c, "ai.chat.fail", err, nil)
	}
	return ok(c, fiber.Map{"reply": reply})
}

// POST /v1/ai/sessions
func (h *AIHandler) CreateSession(c *fiber.Ctx) error {
	var in services.SessionInput
	if len(c.Body()) > 0 {
		if err := bind(c, &in); err != nil {
			return err
		}
	}
	sess, err := h.AI.CreateSession(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return err
	}
	return ok(c, sess)
}

// GET /v1/ai/sessions
func (h *AIHandler) Sessions(c *fiber.Ctx) error {
	list, err := h.AI.Sessions(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, list)
}

// DELETE /v1/ai/sessions/:token
func (h *AIHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.AI.DeleteSession(c.UserContext(), currentUserID(c), c.Params("token")); err != nil {
		return err
	}
	return ok(c, nil, "session deleted")
}

// GET /v1/ai/sessions/:token/messages
func (h *AIHandler) Messages(c *fiber.Ctx) error {
	list, err := h.AI.Messages(c.UserContext(), currentUserID(c), c.Params("token"))
	if err != nil {
		return err
	}
	return ok(c, list)
}

// POST /v1/ai/sessions/:token/messages stores the question and the reply;
// upstream failures are stored as the apology text.
func (h *AIHandler) Converse(c *fiber.Ctx) error {
	var in services.TurnInput
	if err := bind(c, &in); err != nil {
		return err
	}
	turn, err := h.AI.Converse(c.UserContext(), currentUserID(c), c.Params("token"), in)
	if err != nil {
		return err
	}
	if turn.Fallback != nil {
		log.Error(c, "ai.chat.fail", turn.Fallback, nil)
	}
	return ok(c, turn.Reply)
}
