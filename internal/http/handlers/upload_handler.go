package handlers

import (
	"storefront/internal/log"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	Uploads *services.UploadService
}

// POST /v1/upload (admin, multipart field "file")
func (h *UploadHandler) Image(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return services.Invalid("file is required")
	}
	if fh.Size > services.MaxUploadBytes {
		log.Security(c, "upload.too_large", map[string]any{"size": fh.Size})
		return services.Invalid("file exceeds 5 MB")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	url, err := h.Uploads.Image(c.UserContext(), f, fh.Size, fh.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return err
	}
	log.Audit(c, "upload.image", map[string]any{"url": url, "size": fh.Size})
	return ok(c, fiber.Map{"url": url}, "uploaded")
}
