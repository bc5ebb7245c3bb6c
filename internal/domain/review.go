package domain

type Review struct {
	ID            int64  `db:"id"`
	UserID        int64  `db:"user_id"`
	Username      string `db:"username"`
	AvatarURL     string `db:"avatar_url"`
	ProductID     int64  `db:"product_id"`
	ProductName   string `db:"product_name"`
	ProductImage  string `db:"product_image"`
	OrderID       int64  `db:"order_id"`
	Rating        int    `db:"rating"`
	Content       string `db:"content"`
	ImageURLsJSON string `db:"image_urls"`
	Approved      bool   `db:"is_approved"`
	LikeCount     int    `db:"like_count"`
	Liked         bool   `db:"liked"`
	CreatedAt     string `db:"created_at"`
}

type ReviewSummary struct {
	Total         int     `json:"total"`
	AverageRating float64 `json:"average_rating"`
	Rating5       int     `json:"rating_5"`
	Rating4       int     `json:"rating_4"`
	Rating3       int     `json:"rating_3"`
	Rating2       int     `json:"rating_2"`
	Rating1       int     `json:"rating_1"`
}

type Notification struct {
	ID           int64  `db:"id" json:"id"`
	UserID       *int64 `db:"user_id" json:"-"`
	Type         string `db:"type" json:"type"`
	Title        string `db:"title" json:"title"`
	Content      string `db:"content" json:"content"`
	RelatedID    *int64 `db:"related_id" json:"related_id"`
	RelatedImage string `db:"related_image" json:"related_image"`
	Read         bool   `db:"is_read" json:"is_read"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

const (
	NotifyNewProduct  = "new_product"
	NotifyOrderStatus = "order_status"
	NotifyRefund      = "refund"
)
