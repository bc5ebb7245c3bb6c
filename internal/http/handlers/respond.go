package handlers

import (
	"errors"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// Envelope wraps every response body.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type Page struct {
	List       any        `json:"list"`
	Pagination Pagination `json:"pagination"`
}

func ok(c *fiber.Ctx, data any, msg ...string) error {
	m := "success"
	if len(msg) > 0 {
		m = msg[0]
	}
	return c.Status(fiber.StatusOK).JSON(Envelope{Code: fiber.StatusOK, Message: m, Data: data})
}

type paging struct {
	limit, offset, page int
}

func pageQuery(c *fiber.Ctx) paging {
	limit, offset, p := validate.Page(c.Query("page"), c.Query("page_size"), 100)
	return paging{limit: limit, offset: offset, page: p}
}

func (p paging) wrap(list any, total int) Page {
	pages := 0
	if p.limit > 0 {
		pages = (total + p.limit - 1) / p.limit
	}
	return Page{List: list, Pagination: Pagination{Page: p.page, PageSize: p.limit, Total: total, TotalPages: pages}}
}

// bind parses a JSON body into dst and runs its validate tags.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"reason": "body"})
		return services.Invalid("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"reason": err.Error()})
		return services.Invalid(err.Error())
	}
	return nil
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, good := validate.ID(c.Params(name))
	if !good {
		applog.Security(c, "validation.fail", map[string]any{"field": name})
		return 0, services.Invalid("invalid " + name)
	}
	return id, nil
}

func statusOf(k services.Kind) int {
	switch k {
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindInvalid:
		return fiber.StatusBadRequest
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindUnauthorized:
		return fiber.StatusUnauthorized
	case services.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

const genericError = "internal server error"

// ErrorHandler turns any returned error into an envelope. Internal
// failures are logged and answered generically unless debug is set.
func ErrorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, msg := fiber.StatusInternalServerError, genericError
		var se *services.Error
		var fe *fiber.Error
		switch {
		case errors.As(err, &se):
			code, msg = statusOf(se.Kind), se.Msg
		case errors.As(err, &fe):
			code, msg = fe.Code, fe.Message
		}
		switch {
		case code >= fiber.StatusInternalServerError:
			c.Status(code)
			applog.Error(c, "server.error", err, nil)
			msg = genericError
			if debug {
				msg = err.Error()
			}
		case code == fiber.StatusUnauthorized || code == fiber.StatusForbidden:
			c.Status(code)
			applog.Security(c, "access.denied", map[string]any{"reason": msg})
		}
		return c.Status(code).JSON(Envelope{Code: code, Message: msg})
	}
}
