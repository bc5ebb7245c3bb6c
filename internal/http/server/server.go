package server

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/storage"
)

// bodyLimit leaves headroom over the upload cap for multipart framing.
const bodyLimit = services.MaxUploadBytes + 1<<20

// New builds the fiber app with middleware and every /v1 route.
func New(cfg config.Config, db *sqlx.DB, store storage.Store) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		BodyLimit:    bodyLimit,
		ErrorHandler: handlers.ErrorHandler(cfg.Debug),
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/media/") || p == "/health"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(handlers.Envelope{
				Code: fiber.StatusTooManyRequests, Message: "too many requests",
			})
		},
	}))

	if cfg.Storage.Driver != "s3" {
		mountMedia(app, cfg.MediaDir)
	}

	deps := handlers.NewDeps(db, cfg, store)
	routes(app, deps)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(handlers.Envelope{Code: fiber.StatusNotFound, Message: "not found"})
	})
	return app
}

// mountMedia serves locally stored uploads and refuses traversal.
func mountMedia(app *fiber.App, dir string) {
	if !filepath.IsAbs(dir) {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}
	log.Printf("[static] /media -> %s", dir)

	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	})
}

func routes(app *fiber.App, d *handlers.Deps) {
	user := handlers.RequireUser(d.Auth)
	admin := handlers.RequireAdmin(d.Auth)
	optional := handlers.OptionalUser(d.Auth)

	v1 := app.Group("/v1")

	// Auth (login throttled)
	auth := v1.Group("/auth")
	auth.Post("/register", d.AuthHandler.Register)
	auth.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(handlers.Envelope{
				Code: fiber.StatusTooManyRequests, Message: "too many login attempts, try again later",
			})
		},
	}), d.AuthHandler.Login)
	auth.Post("/refresh", d.AuthHandler.Refresh)
	auth.Post("/password-reset-request", limiter.New(limiter.Config{
		Max:        3,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.reset.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(handlers.Envelope{
				Code: fiber.StatusTooManyRequests, Message: "too many reset requests, try again later",
			})
		},
	}), d.AuthHandler.RequestReset)
	auth.Post("/password-reset", d.AuthHandler.Reset)

	// Users
	v1.Get("/users/me", user, d.UserHandler.Me)
	v1.Put("/users/me", user, d.UserHandler.UpdateMe)
	v1.Put("/users/me/password", user, d.AuthHandler.ChangePassword)
	v1.Get("/users", admin, d.UserHandler.List)
	v1.Put("/users/:id", admin, d.UserHandler.AdminUpdate)
	v1.Delete("/users/:id", admin, d.UserHandler.Delete)

	// Addresses
	addr := v1.Group("/addresses", user)
	addr.Get("/", d.AddressHandler.List)
	addr.Post("/", d.AddressHandler.Create)
	addr.Put("/:id", d.AddressHandler.Update)
	addr.Delete("/:id", d.AddressHandler.Delete)
	addr.Put("/:id/default", d.AddressHandler.SetDefault)

	// Catalog
	v1.Get("/categories", d.CategoryHandler.Tree)
	v1.Post("/categories", admin, d.CategoryHandler.Create)
	v1.Get("/categories/:id", d.CategoryHandler.Detail)
	v1.Put("/categories/:id", admin, d.CategoryHandler.Update)
	v1.Delete("/categories/:id", admin, d.CategoryHandler.Delete)
	v1.Get("/products", optional, d.ProductHandler.List)
	v1.Post("/products", admin, d.ProductHandler.Create)
	v1.Get("/products/:id", optional, d.ProductHandler.Detail)
	v1.Get("/products/:id/related", d.ProductHandler.Related)
	v1.Put("/products/:id", admin, d.ProductHandler.Update)
	v1.Delete("/products/:id", admin, d.ProductHandler.Delete)
	v1.Get("/products/:id/availability", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(handlers.Envelope{
				Code: fiber.StatusTooManyRequests, Message: "rate limit exceeded, retry soon",
			})
		},
	}), d.InventoryHandler.Check)
	v1.Put("/products/:id/stock", admin, d.InventoryHandler.SetStock)

	// Reviews
	v1.Get("/products/:id/reviews", optional, d.ReviewHandler.ForProduct)
	v1.Post("/products/:id/reviews", user, d.ReviewHandler.Create)
	v1.Get("/reviews/me", user, d.ReviewHandler.Mine)
	v1.Get("/reviews/pending", user, d.ReviewHandler.Pending)
	v1.Post("/reviews/:id/like", user, d.ReviewHandler.Like)
	v1.Delete("/reviews/:id/like", user, d.ReviewHandler.Unlike)

	// Cart
	cart := v1.Group("/cart", user)
	cart.Get("/", d.CartHandler.View)
	cart.Post("/", d.CartHandler.Add)
	cart.Delete("/", d.CartHandler.Clear)
	cart.Put("/:id", d.CartHandler.Update)
	cart.Delete("/:id", d.CartHandler.Remove)

	// Orders; the admin paths go first so "all" and "admin" never reach :id.
	orders := v1.Group("/orders")
	orders.Get("/all", admin, d.OrderHandler.AdminList)
	orders.Get("/admin/:id", admin, d.OrderHandler.AdminDetail)
	orders.Put("/:id/status", admin, d.OrderHandler.SetStatus)
	orders.Post("/", user, d.OrderHandler.Checkout)
	orders.Get("/", user, d.OrderHandler.List)
	orders.Get("/:id", user, d.OrderHandler.Detail)
	orders.Put("/:id/pay", user, d.OrderHandler.Pay)
	orders.Put("/:id/cancel", user, d.OrderHandler.Cancel)
	orders.Put("/:id/refund", user, d.OrderHandler.Refund)
	orders.Put("/:id/confirm", user, d.OrderHandler.Confirm)
	orders.Post("/:id/refunds", user, d.OrderHandler.OpenRefund)
	v1.Get("/refunds", user, d.RefundHandler.Mine)

	// Favorites
	fav := v1.Group("/favorites", user)
	fav.Get("/", d.FavoriteHandler.List)
	fav.Post("/:product_id", d.FavoriteHandler.Toggle)
	fav.Get("/:product_id/check", d.FavoriteHandler.Check)

	// Notifications
	notes := v1.Group("/notifications", user)
	notes.Get("/", d.NotificationHandler.List)
	notes.Get("/unread-count", d.NotificationHandler.UnreadCount)
	notes.Put("/read-all", d.NotificationHandler.MarkAllRead)
	notes.Put("/:id/read", d.NotificationHandler.MarkRead)

	// Upload & AI
	v1.Post("/upload", admin, d.UploadHandler.Image)
	v1.Post("/ai/chat", optional, d.AIHandler.Chat)
	ai := v1.Group("/ai/sessions", user)
	ai.Post("/", d.AIHandler.CreateSession)
	ai.Get("/", d.AIHandler.Sessions)
	ai.Delete("/:token", d.AIHandler.DeleteSession)
	ai.Get("/:token/messages", d.AIHandler.Messages)
	ai.Post("/:token/messages", d.AIHandler.Converse)

	// Admin back-office
	adm := v1.Group("/admin", admin)
	adm.Get("/dashboard", d.DashboardHandler.Stats)
	adm.Get("/inventory", d.InventoryHandler.List)
	adm.Get("/refunds", d.RefundHandler.List)
	adm.Put("/refunds/:id/approve", d.RefundHandler.Approve)
	adm.Put("/refunds/:id/reject", d.RefundHandler.Reject)
	adm.Get("/reviews", d.ReviewHandler.AdminList)
	adm.Put("/reviews/:id/approve", d.ReviewHandler.Approve)
	adm.Put("/reviews/:id/reject", d.ReviewHandler.Reject)
	adm.Delete("/reviews/:id", d.ReviewHandler.Delete)
}
