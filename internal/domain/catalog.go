package domain

import "github.com/shopspring/decimal"

type ProductStatus string

const (
	ProductPublished   ProductStatus = "published"
	ProductUnpublished ProductStatus = "unpublished"
)

func (s ProductStatus) Valid() bool { return s == ProductPublished || s == ProductUnpublished }

type Category struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	ParentID    int64  `db:"parent_id" json:"parent_id"`
	SortOrder   int    `db:"sort_order" json:"sort_order"`
	Active      bool   `db:"is_active" json:"is_active"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}

type Tag struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Color string `db:"color" json:"color"`
}

type Product struct {
	ID               int64               `db:"id"`
	Name             string              `db:"name"`
	Description      string              `db:"description"`
	ShortDescription string              `db:"short_description"`
	Price            decimal.Decimal     `db:"price"`
	OriginalPrice    decimal.NullDecimal `db:"original_price"`
	Stock            int                 `db:"stock"`
	CategoryID       int64               `db:"category_id"`
	MainImageURL     string              `db:"main_image_url"`
	ImageURLsJSON    string              `db:"image_urls"`
	IsTop            bool                `db:"is_top"`
	Status           ProductStatus       `db:"status"`
	SalesCount       int                 `db:"sales_count"`
	ViewCount        int                 `db:"view_count"`
	CreatedAt        string              `db:"created_at"`
	UpdatedAt        string              `db:"updated_at"`
}

func (p Product) Published() bool { return p.Status == ProductPublished }

type ProductParam struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"-"`
	Name      string `db:"name" json:"name"`
	Value     string `db:"value" json:"value"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}
