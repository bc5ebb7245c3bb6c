package domain

import "github.com/shopspring/decimal"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

var statusText = map[OrderStatus]string{
	OrderPending:   "awaiting payment",
	OrderPaid:      "awaiting shipment",
	OrderShipped:   "awaiting receipt",
	OrderCompleted: "completed",
	OrderCancelled: "cancelled",
	OrderRefunded:  "refunded",
}

func (s OrderStatus) Valid() bool {
	_, ok := statusText[s]
	return ok
}

func (s OrderStatus) Text() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return "unknown"
}

type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Province      string `json:"province"`
	City          string `json:"city"`
	District      string `json:"district"`
	DetailAddress string `json:"detail_address"`
}

type Order struct {
	ID              int64           `db:"id"`
	OrderNumber     string          `db:"order_number"`
	UserID          int64           `db:"user_id"`
	Username        string          `db:"username"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Status          OrderStatus     `db:"status"`
	PaymentMethod   string          `db:"payment_method"`
	ShippingAddress string          `db:"shipping_address"` // JSON snapshot
	ShippingFee     decimal.Decimal `db:"shipping_fee"`
	Note            string          `db:"note"`
	TrackingNumber  string          `db:"tracking_number"`
	PaidAt          *string         `db:"paid_at"`
	ShippedAt       *string         `db:"shipped_at"`
	CompletedAt     *string         `db:"completed_at"`
	CancelledAt     *string         `db:"cancelled_at"`
	RestockedAt     *string         `db:"restocked_at"`
	CreatedAt       string          `db:"created_at"`
	UpdatedAt       string          `db:"updated_at"`

	Items []OrderItem `db:"-"`
}

type OrderItem struct {
	ID           int64           `db:"id"`
	OrderID      int64           `db:"order_id"`
	ProductID    int64           `db:"product_id"`
	ProductName  string          `db:"product_name"`
	ProductImage string          `db:"product_image"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	Quantity     int             `db:"quantity"`
	Subtotal     decimal.Decimal `db:"subtotal"`
}

type RefundStatus string

const (
	RefundPending  RefundStatus = "pending"
	RefundApproved RefundStatus = "approved"
	RefundRejected RefundStatus = "rejected"
)

type Refund struct {
	ID           int64           `db:"id"`
	OrderID      int64           `db:"order_id"`
	OrderNumber  string          `db:"order_number"`
	UserID       int64           `db:"user_id"`
	Username     string          `db:"username"`
	RefundAmount decimal.Decimal `db:"refund_amount"`
	Reason       string          `db:"reason"`
	Description  string          `db:"description"`
	Status       RefundStatus    `db:"status"`
	AdminNotes   string          `db:"admin_notes"`
	CreatedAt    string          `db:"created_at"`
	ProcessedAt  *string         `db:"processed_at"`
}
