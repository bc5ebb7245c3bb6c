package handlers

import (
	"strconv"

	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /v1/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	p := pageQuery(c)
	q := services.ProductQuery{
		Sort:   c.Query("sort"),
		Status: domain.ProductPublished,
		Limit:  p.limit,
		Offset: p.offset,
	}
	if raw := c.Query("keyword"); raw != "" {
		kw, good := validate.Keyword(raw)
		if !good {
			log.Security(c, "validation.fail", map[string]any{"field": "keyword"})
			return services.Invalid("invalid keyword")
		}
		q.Keyword = kw
	}
	if raw := c.Query("category_id"); raw != "" {
		id, good := validate.ID(raw)
		if !good {
			return services.Invalid("invalid category_id")
		}
		q.CategoryID = id
	}
	q.TopOnly, _ = strconv.ParseBool(c.Query("is_top"))
	if u := currentUser(c); u.IsAdmin() {
		q.Status = domain.ProductStatus(c.Query("status"))
	}
	list, total, err := h.Catalog.ListProducts(c.UserContext(), q)
	if err != nil {
		return err
	}
	return ok(c, p.wrap(list, total))
}

// GET /v1/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.Catalog.Product(c.UserContext(), id, currentUser(c).IsAdmin())
	if err != nil {
		return err
	}
	return ok(c, v)
}

// GET /v1/products/:id/related?limit=4
func (h *ProductHandler) Related(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	limit := 4
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 20 {
			return services.Invalid("limit must be between 1 and 20")
		}
		limit = n
	}
	list, err := h.Catalog.Related(c.UserContext(), id, limit)
	if err != nil {
		return err
	}
	return ok(c, list)
}

// POST /v1/products (admin)
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	v, err := h.Catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.product.create", map[string]any{"product_id": v.ID})
	return ok(c, v, "product created")
}

// PUT /v1/products/:id (admin)
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	v, err := h.Catalog.UpdateProduct(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.product.update", map[string]any{"product_id": id})
	return ok(c, v, "product updated")
}

// DELETE /v1/products/:id (admin) unpublishes.
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.Unpublish(c.UserContext(), id); err != nil {
		return err
	}
	log.Audit(c, "admin.product.unpublish", map[string]any{"product_id": id})
	return ok(c, nil, "product unpublished")
}
