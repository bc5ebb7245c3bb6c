package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"storefront/internal/domain"
	"storefront/internal/repos"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CatalogService struct {
	DB *sqlx.DB
}

func NewCatalogService(db *sqlx.DB) *CatalogService { return &CatalogService{DB: db} }

func money(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }

type CategoryNode struct {
	domain.Category
	Children []*CategoryNode `json:"children"`
}

// CategoryTree nests active categories under their parents. Categories
// whose parent is missing are treated as roots.
func (s *CatalogService) CategoryTree(ctx context.Context) ([]*CategoryNode, error) {
	cats, err := repos.NewCategoryRepo(s.DB).List(ctx)
	if err != nil {
		return nil, err
	}
	nodes := make(map[int64]*CategoryNode, len(cats))
	for _, c := range cats {
		nodes[c.ID] = &CategoryNode{Category: c, Children: []*CategoryNode{}}
	}
	roots := []*CategoryNode{}
	for _, c := range cats {
		n := nodes[c.ID]
		if parent, ok := nodes[c.ParentID]; ok && c.ParentID != c.ID {
			parent.Children = append(parent.Children, n)
			continue
		}
		roots = append(roots, n)
	}
	return roots, nil
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=200"`
	ParentID    int64  `json:"parent_id" validate:"gte=0"`
	SortOrder   int    `json:"sort_order"`
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	cats := repos.NewCategoryRepo(s.DB)
	if in.ParentID > 0 {
		if _, err := cats.Get(ctx, in.ParentID); err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return domain.Category{}, NotFound("parent category not found")
			}
			return domain.Category{}, err
		}
	}
	id, err := cats.Create(ctx, domain.Category{
		Name: in.Name, Description: in.Description, ParentID: in.ParentID, SortOrder: in.SortOrder,
	})
	if err != nil {
		if repos.IsUniqueViolation(err) {
			return domain.Category{}, Conflict("category name already exists")
		}
		return domain.Category{}, err
	}
	return cats.Get(ctx, id)
}

func (s *CatalogService) getCategory(ctx context.Context, cats *repos.CategoryRepo, id int64) (domain.Category, error) {
	c, err := cats.Get(ctx, id)
	if err != nil && errors.Is(err, repos.ErrNotFound) {
		return c, NotFound("category not found")
	}
	return c, err
}

// Category returns one category with its direct children.
func (s *CatalogService) Category(ctx context.Context, id int64) (CategoryNode, error) {
	cats := repos.NewCategoryRepo(s.DB)
	c, err := s.getCategory(ctx, cats, id)
	if err != nil {
		return CategoryNode{}, err
	}
	children, err := cats.Children(ctx, id)
	if err != nil {
		return CategoryNode{}, err
	}
	n := CategoryNode{Category: c, Children: make([]*CategoryNode, 0, len(children))}
	for _, ch := range children {
		n.Children = append(n.Children, &CategoryNode{Category: ch, Children: []*CategoryNode{}})
	}
	return n, nil
}

type CategoryUpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=200"`
	ParentID    *int64  `json:"parent_id" validate:"omitempty,gte=0"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateCategory applies the given fields. A category cannot be moved
// under itself or under one of its descendants.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, in CategoryUpdateInput) (domain.Category, error) {
	var out domain.Category
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		cats := repos.NewCategoryRepo(tx)
		c, err := s.getCategory(ctx, cats, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			c.Name = *in.Name
		}
		if in.Description != nil {
			c.Description = *in.Description
		}
		if in.SortOrder != nil {
			c.SortOrder = *in.SortOrder
		}
		if in.IsActive != nil {
			c.Active = *in.IsActive
		}
		if in.ParentID != nil && *in.ParentID != c.ParentID {
			for p := *in.ParentID; p > 0; {
				if p == id {
					return Invalid("a category cannot be nested under itself")
				}
				parent, err := cats.Get(ctx, p)
				if err != nil {
					if errors.Is(err, repos.ErrNotFound) {
						return NotFound("parent category not found")
					}
					return err
				}
				p = parent.ParentID
			}
			c.ParentID = *in.ParentID
		}
		if err := cats.Update(ctx, c); err != nil {
			if repos.IsUniqueViolation(err) {
				return Conflict("category name already exists")
			}
			return err
		}
		out, err = cats.Get(ctx, id)
		return err
	})
	return out, err
}

// DeleteCategory removes an empty leaf category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		cats := repos.NewCategoryRepo(tx)
		if _, err := s.getCategory(ctx, cats, id); err != nil {
			return err
		}
		children, err := cats.ChildIDs(ctx, id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return Invalid("delete the sub-categories first")
		}
		n, err := cats.ProductCount(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return Invalid("category still has products")
		}
		return cats.Delete(ctx, id)
	})
}

type ProductView struct {
	ID               int64                 `json:"id"`
	Name             string                `json:"name"`
	Description      string                `json:"description,omitempty"`
	ShortDescription string                `json:"short_description"`
	Price            float64               `json:"price"`
	OriginalPrice    *float64              `json:"original_price"`
	Stock            int                   `json:"stock"`
	CategoryID       int64                 `json:"category_id"`
	MainImageURL     string                `json:"main_image_url"`
	ImageURLs        []string              `json:"image_urls"`
	IsTop            bool                  `json:"is_top"`
	Status           domain.ProductStatus  `json:"status"`
	SalesCount       int                   `json:"sales_count"`
	ViewCount        int                   `json:"view_count"`
	CreatedAt        string                `json:"created_at"`
	Params           []domain.ProductParam `json:"params,omitempty"`
	Tags             []domain.Tag          `json:"tags,omitempty"`
	ReviewSummary    *domain.ReviewSummary `json:"review_summary,omitempty"`
}

func parseURLs(raw string) []string {
	out := []string{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &out)
	}
	return out
}

func encodeURLs(urls []string) string {
	if urls == nil {
		urls = []string{}
	}
	b, _ := json.Marshal(urls)
	return string(b)
}

func NewProductView(p domain.Product) ProductView {
	v := ProductView{
		ID: p.ID, Name: p.Name, ShortDescription: p.ShortDescription,
		Price: money(p.Price), Stock: p.Stock, CategoryID: p.CategoryID,
		MainImageURL: p.MainImageURL, ImageURLs: parseURLs(p.ImageURLsJSON),
		IsTop: p.IsTop, Status: p.Status, SalesCount: p.SalesCount, ViewCount: p.ViewCount,
		CreatedAt: p.CreatedAt,
	}
	if p.OriginalPrice.Valid {
		op := money(p.OriginalPrice.Decimal)
		v.OriginalPrice = &op
	}
	return v
}

type ProductQuery struct {
	Keyword    string
	CategoryID int64
	TopOnly    bool
	Sort       string
	Status     domain.ProductStatus
	Limit      int
	Offset     int
}

// ListProducts pages through products. A category filter includes its
// direct children.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) ([]ProductView, int, error) {
	f := repos.ProductFilter{
		Keyword: q.Keyword, TopOnly: q.TopOnly, Sort: q.Sort, Status: q.Status,
		Limit: q.Limit, Offset: q.Offset,
	}
	if q.CategoryID > 0 {
		children, err := repos.NewCategoryRepo(s.DB).ChildIDs(ctx, q.CategoryID)
		if err != nil {
			return nil, 0, err
		}
		f.CategoryIDs = append([]int64{q.CategoryID}, children...)
	}
	rows, total, err := repos.NewProductRepo(s.DB).List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProductView, 0, len(rows))
	for _, p := range rows {
		out = append(out, NewProductView(p))
	}
	return out, total, nil
}

// Product returns the full detail view. Unpublished products are only
// visible to admins.
func (s *CatalogService) Product(ctx context.Context, id int64, admin bool) (ProductView, error) {
	prods := repos.NewProductRepo(s.DB)
	p, err := prods.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return ProductView{}, NotFound(MsgProductNotFound)
		}
		return ProductView{}, err
	}
	if !p.Published() && !admin {
		return ProductView{}, NotFound(MsgProductNotFound)
	}
	_ = prods.IncrementViews(ctx, id)

	v := NewProductView(p)
	v.Description = p.Description
	if v.Params, err = prods.Params(ctx, id); err != nil {
		return ProductView{}, err
	}
	if v.Tags, err = prods.Tags(ctx, id); err != nil {
		return ProductView{}, err
	}
	sum, err := repos.NewReviewRepo(s.DB).Summary(ctx, id)
	if err != nil {
		return ProductView{}, err
	}
	sum.AverageRating = math.Round(sum.AverageRating*10) / 10
	v.ReviewSummary = &sum
	return v, nil
}

// Related suggests up to limit published products for a product page,
// filling from other categories when its own runs short.
func (s *CatalogService) Related(ctx context.Context, id int64, limit int) ([]ProductView, error) {
	prods := repos.NewProductRepo(s.DB)
	p, err := prods.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, NotFound(MsgProductNotFound)
		}
		return nil, err
	}
	rows, err := prods.Related(ctx, p, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ProductView, 0, len(rows))
	for _, r := range rows {
		out = append(out, NewProductView(r))
	}
	return out, nil
}

type ParamInput struct {
	Name  string `json:"name" validate:"required,max=50"`
	Value string `json:"value" validate:"required,max=200"`
}

type ProductInput struct {
	Name             string               `json:"name" validate:"required,max=200"`
	Description      string               `json:"description"`
	ShortDescription string               `json:"short_description" validate:"max=500"`
	Price            decimal.Decimal      `json:"price"`
	OriginalPrice    decimal.NullDecimal  `json:"original_price"`
	Stock            int                  `json:"stock" validate:"gte=0"`
	CategoryID       int64                `json:"category_id" validate:"required,gt=0"`
	MainImageURL     string               `json:"main_image_url" validate:"max=500"`
	ImageURLs        []string             `json:"image_urls" validate:"max=20"`
	IsTop            bool                 `json:"is_top"`
	Status           domain.ProductStatus `json:"status"`
	Params           []ParamInput         `json:"params" validate:"dive"`
	TagIDs           []int64              `json:"tag_ids"`
}

func (in *ProductInput) check() error {
	if !in.Price.IsPositive() {
		return Invalid("price must be greater than 0")
	}
	if in.OriginalPrice.Valid && in.OriginalPrice.Decimal.IsNegative() {
		return Invalid("original_price must not be negative")
	}
	if in.Status == "" {
		in.Status = domain.ProductPublished
	}
	if !in.Status.Valid() {
		return Invalid("status must be published or unpublished")
	}
	return nil
}

func (in ProductInput) product() domain.Product {
	return domain.Product{
		Name: in.Name, Description: in.Description, ShortDescription: in.ShortDescription,
		Price: in.Price, OriginalPrice: in.OriginalPrice, Stock: in.Stock, CategoryID: in.CategoryID,
		MainImageURL: in.MainImageURL, ImageURLsJSON: encodeURLs(in.ImageURLs),
		IsTop: in.IsTop, Status: in.Status,
	}
}

func (in ProductInput) params() []domain.ProductParam {
	out := make([]domain.ProductParam, 0, len(in.Params))
	for _, p := range in.Params {
		out = append(out, domain.ProductParam{Name: p.Name, Value: p.Value})
	}
	return out
}

func (s *CatalogService) categoryExists(ctx context.Context, ext sqlx.ExtContext, id int64) error {
	if _, err := repos.NewCategoryRepo(ext).Get(ctx, id); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return NotFound("category not found")
		}
		return err
	}
	return nil
}

// CreateProduct stores a product; a published one is announced to every
// user through a global notification.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (ProductView, error) {
	if err := in.check(); err != nil {
		return ProductView{}, err
	}
	var id int64
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if err := s.categoryExists(ctx, tx, in.CategoryID); err != nil {
			return err
		}
		prods := repos.NewProductRepo(tx)
		var err error
		if id, err = prods.Create(ctx, in.product()); err != nil {
			return err
		}
		if err := prods.ReplaceParams(ctx, id, in.params()); err != nil {
			return err
		}
		if err := prods.ReplaceTags(ctx, id, in.TagIDs); err != nil {
			return err
		}
		if in.Status == domain.ProductPublished {
			return notify(ctx, tx, domain.Notification{
				Type:         domain.NotifyNewProduct,
				Title:        "New arrival",
				Content:      in.Name + " is now available",
				RelatedID:    &id,
				RelatedImage: in.MainImageURL,
			})
		}
		return nil
	})
	if err != nil {
		return ProductView{}, err
	}
	return s.Product(ctx, id, true)
}

// UpdateProduct replaces the editable fields. Stock is left alone; use
// SetStock.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (ProductView, error) {
	if err := in.check(); err != nil {
		return ProductView{}, err
	}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		prods := repos.NewProductRepo(tx)
		if _, err := prods.Get(ctx, id); err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return NotFound(MsgProductNotFound)
			}
			return err
		}
		if err := s.categoryExists(ctx, tx, in.CategoryID); err != nil {
			return err
		}
		p := in.product()
		p.ID = id
		if err := prods.Update(ctx, p); err != nil {
			return err
		}
		if in.Params != nil {
			if err := prods.ReplaceParams(ctx, id, in.params()); err != nil {
				return err
			}
		}
		if in.TagIDs != nil {
			return prods.ReplaceTags(ctx, id, in.TagIDs)
		}
		return nil
	})
	if err != nil {
		return ProductView{}, err
	}
	return s.Product(ctx, id, true)
}

// Unpublish hides a product. Rows are never deleted so order items keep a
// valid reference.
func (s *CatalogService) Unpublish(ctx context.Context, id int64) error {
	ok, err := repos.NewProductRepo(s.DB).SetStatus(ctx, id, domain.ProductUnpublished)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound(MsgProductNotFound)
	}
	return nil
}
