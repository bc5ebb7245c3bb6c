package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/require"

	"storefront/internal/http/handlers"
	"storefront/internal/services"
)

func errorApp(debug bool) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(debug)})
	app.Use(requestid.New())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fmt.Errorf("query orders: %w", errors.New("db timeout: secret trace"))
	})
	app.Get("/invalid", func(c *fiber.Ctx) error { return services.Invalid(services.MsgCartEmpty) })
	app.Get("/missing", func(c *fiber.Ctx) error { return services.NotFound(services.MsgOrderNotFound) })
	app.Get("/conflict", func(c *fiber.Ctx) error { return services.Conflict("already pending") })
	app.Get("/forbidden", func(c *fiber.Ctx) error { return services.Forbidden("admin access required") })
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.ErrMethodNotAllowed })
	return app
}

func getEnvelope(t *testing.T, app *fiber.App, path string) (int, handlers.Envelope) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env handlers.Envelope
	require.NoError(t, json.Unmarshal(body, &env), "body=%s", body)
	return resp.StatusCode, env
}

func TestErrorHandlerHidesInternalDetails(t *testing.T) {
	status, env := getEnvelope(t, errorApp(false), "/boom")
	require.Equal(t, fiber.StatusInternalServerError, status)
	require.Equal(t, fiber.StatusInternalServerError, env.Code)
	require.Equal(t, "internal server error", env.Message)
	require.NotContains(t, env.Message, "secret")
	require.Nil(t, env.Data)

	_, env = getEnvelope(t, errorApp(true), "/boom")
	require.Contains(t, env.Message, "db timeout")
}

func TestErrorHandlerMapsKinds(t *testing.T) {
	app := errorApp(false)
	cases := []struct {
		path string
		code int
		msg  string
	}{
		{"/invalid", fiber.StatusBadRequest, "cart is empty"},
		{"/missing", fiber.StatusNotFound, "order not found"},
		{"/conflict", fiber.StatusConflict, "already pending"},
		{"/forbidden", fiber.StatusForbidden, "admin access required"},
		{"/fiber", fiber.StatusMethodNotAllowed, "Method Not Allowed"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			status, env := getEnvelope(t, app, tc.path)
			require.Equal(t, tc.code, status)
			require.Equal(t, tc.code, env.Code)
			require.Equal(t, tc.msg, env.Message)
		})
	}
}
