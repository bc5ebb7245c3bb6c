package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repos"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const (
	timeLayout        = time.RFC3339
	orderNumberTries  = 5
	paymentWindow     = 30 * time.Minute
	maxOrderNoteChars = 500
)

// NewOrderNumber renders SJ + timestamp to the second + 4 random digits.
func NewOrderNumber(t time.Time) string {
	return "SJ" + t.Format("20060102150405") + strconv.Itoa(rand.Intn(9000)+1000)
}

type OrderService struct {
	DB             *sqlx.DB
	PaymentBaseURL string
	Now            func() time.Time
	OrderNumber    func(time.Time) string
}

func NewOrderService(db *sqlx.DB, paymentBaseURL string) *OrderService {
	return &OrderService{DB: db, PaymentBaseURL: paymentBaseURL, Now: time.Now, OrderNumber: NewOrderNumber}
}

func (s *OrderService) stamp() string { return s.Now().UTC().Format(timeLayout) }

type OrderItemView struct {
	ID           int64   `json:"id"`
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image"`
	UnitPrice    float64 `json:"unit_price"`
	Quantity     int     `json:"quantity"`
	Subtotal     float64 `json:"subtotal"`
}

type TimelineEntry struct {
	Status     string `json:"status"`
	StatusText string `json:"status_text"`
	Time       string `json:"time"`
}

type OrderView struct {
	ID              int64                   `json:"id"`
	OrderNumber     string                  `json:"order_number"`
	UserID          int64                   `json:"user_id"`
	Username        string                  `json:"username,omitempty"`
	TotalAmount     float64                 `json:"total_amount"`
	Status          domain.OrderStatus      `json:"status"`
	StatusText      string                  `json:"status_text"`
	PaymentMethod   string                  `json:"payment_method"`
	ShippingAddress *domain.ShippingAddress `json:"shipping_address"`
	ShippingFee     float64                 `json:"shipping_fee"`
	Note            string                  `json:"note"`
	TrackingNumber  string                  `json:"tracking_number"`
	Items           []OrderItemView         `json:"items"`
	Timelines       []TimelineEntry         `json:"timelines"`
	CreatedAt       string                  `json:"created_at"`
	PaidAt          *string                 `json:"paid_at"`
	ShippedAt       *string                 `json:"shipped_at"`
	CompletedAt     *string                 `json:"completed_at"`
	CancelledAt     *string                 `json:"cancelled_at"`
}

func timeline(o domain.Order) []TimelineEntry {
	out := []TimelineEntry{{Status: "created", StatusText: "order created", Time: o.CreatedAt}}
	add := func(at *string, status, text string) {
		if at != nil {
			out = append(out, TimelineEntry{Status: status, StatusText: text, Time: *at})
		}
	}
	add(o.PaidAt, "paid", "paid")
	add(o.ShippedAt, "shipped", "shipped")
	add(o.CompletedAt, "completed", "completed")
	add(o.CancelledAt, "cancelled", "cancelled")
	return out
}

func NewOrderView(o domain.Order) OrderView {
	v := OrderView{
		ID: o.ID, OrderNumber: o.OrderNumber, UserID: o.UserID, Username: o.Username,
		TotalAmount: money(o.TotalAmount), Status: o.Status, StatusText: o.Status.Text(),
		PaymentMethod: o.PaymentMethod, ShippingFee: money(o.ShippingFee), Note: o.Note,
		TrackingNumber: o.TrackingNumber, Items: make([]OrderItemView, 0, len(o.Items)),
		Timelines: timeline(o), CreatedAt: o.CreatedAt, PaidAt: o.PaidAt, ShippedAt: o.ShippedAt,
		CompletedAt: o.CompletedAt, CancelledAt: o.CancelledAt,
	}
	if o.ShippingAddress != "" {
		var addr domain.ShippingAddress
		if json.Unmarshal([]byte(o.ShippingAddress), &addr) == nil {
			v.ShippingAddress = &addr
		}
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, OrderItemView{
			ID: it.ID, ProductID: it.ProductID, ProductName: it.ProductName, ProductImage: it.ProductImage,
			UnitPrice: money(it.UnitPrice), Quantity: it.Quantity, Subtotal: money(it.Subtotal),
		})
	}
	return v
}

type CheckoutInput struct {
	CartItemIDs   []int64 `json:"cart_item_ids"`
	AddressID     int64   `json:"address_id" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=alipay wechat unionpay"`
	Note          string  `json:"note" validate:"max=500"`
}

type PaymentInfo struct {
	PaymentURL string `json:"payment_url"`
	ExpireAt   string `json:"expire_at"`
}

type CheckoutResult struct {
	Order   OrderView   `json:"order"`
	Payment PaymentInfo `json:"payment"`
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Checkout turns the selected cart lines into a pending order. Every check
// runs before the first write and the whole operation is one transaction:
// on any failure no order exists, stock is untouched and the cart is
// unchanged.
func (s *OrderService) Checkout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutResult, error) {
	ids := uniqueIDs(in.CartItemIDs)
	if len(ids) == 0 {
		return CheckoutResult{}, Invalid(MsgCartEmpty)
	}
	var orderID int64
	var number string
	now := s.Now()
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := repos.NewCartRepo(tx)
		lines, err := carts.LinesByIDs(ctx, userID, ids)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return Invalid(MsgCartEmpty)
		}
		addr, err := repos.NewAddressRepo(tx).Get(ctx, userID, in.AddressID)
		if err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return NotFound(MsgAddressNotFound)
			}
			return err
		}

		total := decimal.Zero
		items := make([]domain.OrderItem, 0, len(lines))
		for _, l := range lines {
			if l.Status != domain.ProductPublished {
				return Invalidf("%s is no longer available", l.Name)
			}
			if l.Stock < l.Quantity {
				return Invalidf("insufficient stock for %s", l.Name)
			}
			sub := l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			total = total.Add(sub)
			items = append(items, domain.OrderItem{
				ProductID: l.ProductID, ProductName: l.Name, ProductImage: l.MainImageURL,
				UnitPrice: l.Price, Quantity: l.Quantity, Subtotal: sub,
			})
		}

		snap, err := json.Marshal(addr.Snapshot())
		if err != nil {
			return err
		}
		ts := now.UTC().Format(timeLayout)
		o := domain.Order{
			UserID: userID, TotalAmount: total, Status: domain.OrderPending,
			PaymentMethod: in.PaymentMethod, ShippingAddress: string(snap),
			ShippingFee: decimal.Zero, Note: strings.TrimSpace(in.Note), CreatedAt: ts, UpdatedAt: ts,
		}
		orders := repos.NewOrderRepo(tx)
		for try := 0; ; try++ {
			o.OrderNumber = s.OrderNumber(now)
			orderID, err = orders.Create(ctx, o)
			if err == nil {
				break
			}
			if !repos.IsUniqueViolation(err) || try+1 >= orderNumberTries {
				return fmt.Errorf("create order: %w", err)
			}
		}
		number = o.OrderNumber

		inv := repos.NewInventoryRepo(tx)
		for _, it := range items {
			it.OrderID = orderID
			if err := orders.InsertItem(ctx, it); err != nil {
				return err
			}
			if err := inv.Decrement(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, repos.ErrInsufficientStock) {
					return Invalidf("insufficient stock for %s", it.ProductName)
				}
				return err
			}
		}
		consumed := make([]int64, 0, len(lines))
		for _, l := range lines {
			consumed = append(consumed, l.ID)
		}
		return carts.DeleteIDs(ctx, userID, consumed)
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	o, err := repos.NewOrderRepo(s.DB).Get(ctx, orderID)
	if err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{
		Order: NewOrderView(o),
		Payment: PaymentInfo{
			PaymentURL: s.PaymentBaseURL + number,
			ExpireAt:   now.Add(paymentWindow).UTC().Format(timeLayout),
		},
	}, nil
}

type OrderQuery struct {
	Status      domain.OrderStatus
	OrderNumber string
	Limit       int
	Offset      int
}

func (q OrderQuery) check() error {
	if q.Status != "" && !q.Status.Valid() {
		return Invalid("unknown order status")
	}
	return nil
}

func views(rows []domain.Order) []OrderView {
	out := make([]OrderView, 0, len(rows))
	for _, o := range rows {
		out = append(out, NewOrderView(o))
	}
	return out
}

// List pages through the caller's own orders.
func (s *OrderService) List(ctx context.Context, userID int64, q OrderQuery) ([]OrderView, int, error) {
	if err := q.check(); err != nil {
		return nil, 0, err
	}
	rows, total, err := repos.NewOrderRepo(s.DB).List(ctx, repos.OrderFilter{
		UserID: userID, Status: q.Status, Limit: q.Limit, Offset: q.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	return views(rows), total, nil
}

func (s *OrderService) AdminList(ctx context.Context, q OrderQuery) ([]OrderView, int, error) {
	if err := q.check(); err != nil {
		return nil, 0, err
	}
	rows, total, err := repos.NewOrderRepo(s.DB).List(ctx, repos.OrderFilter{
		Status: q.Status, OrderNumber: strings.TrimSpace(q.OrderNumber), Limit: q.Limit, Offset: q.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	return views(rows), total, nil
}

// load fetches an order; a userID > 0 also requires ownership. Someone
// else's order is reported as missing.
func load(ctx context.Context, ext sqlx.ExtContext, userID, id int64) (domain.Order, error) {
	o, err := repos.NewOrderRepo(ext).Get(ctx, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return o, NotFound(MsgOrderNotFound)
		}
		return o, err
	}
	if userID > 0 && o.UserID != userID {
		return domain.Order{}, NotFound(MsgOrderNotFound)
	}
	return o, nil
}

func (s *OrderService) Detail(ctx context.Context, userID, id int64) (OrderView, error) {
	o, err := load(ctx, s.DB, userID, id)
	if err != nil {
		return OrderView{}, err
	}
	return NewOrderView(o), nil
}

func (s *OrderService) AdminDetail(ctx context.Context, id int64) (OrderView, error) {
	return s.Detail(ctx, 0, id)
}

// restock puts an order's units back at most once over its lifetime.
func restock(ctx context.Context, ext sqlx.ExtContext, o domain.Order, now string) error {
	first, err := repos.NewOrderRepo(ext).MarkRestocked(ctx, o.ID, now)
	if err != nil || !first {
		return err
	}
	inv := repos.NewInventoryRepo(ext)
	for _, it := range o.Items {
		if err := inv.Restore(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func orderNotice(o domain.Order, to domain.OrderStatus) domain.Notification {
	uid := o.UserID
	oid := o.ID
	img := ""
	if len(o.Items) > 0 {
		img = o.Items[0].ProductImage
	}
	return domain.Notification{
		UserID:       &uid,
		Type:         domain.NotifyOrderStatus,
		Title:        "Order update",
		Content:      fmt.Sprintf("Order %s is now %s", o.OrderNumber, to.Text()),
		RelatedID:    &oid,
		RelatedImage: img,
	}
}

type move struct {
	from, to domain.OrderStatus
	restock  bool
	noteTag  string // prefix for the reason line appended to note
	guardMsg string
}

var (
	movePay     = move{from: domain.OrderPending, to: domain.OrderPaid, guardMsg: "only orders awaiting payment can be paid"}
	moveCancel  = move{from: domain.OrderPending, to: domain.OrderCancelled, restock: true, noteTag: "cancel reason", guardMsg: "only orders awaiting payment can be cancelled"}
	moveRefund  = move{from: domain.OrderPaid, to: domain.OrderRefunded, restock: true, noteTag: "refund reason", guardMsg: "only paid orders can be refunded"}
	moveConfirm = move{from: domain.OrderShipped, to: domain.OrderCompleted, guardMsg: "only shipped orders can be confirmed"}
)

// apply runs one guarded user transition on an owned order.
func (s *OrderService) apply(ctx context.Context, userID, id int64, m move, reason string) (OrderView, error) {
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		o, err := load(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if o.Status != m.from {
			return Invalid(m.guardMsg)
		}
		orders := repos.NewOrderRepo(tx)
		ok, err := orders.Transition(ctx, id, m.from, m.to, true, s.stamp())
		if err != nil {
			return err
		}
		if !ok {
			return Invalid(m.guardMsg)
		}
		if m.restock {
			if err := restock(ctx, tx, o, s.stamp()); err != nil {
				return err
			}
		}
		if m.noteTag != "" {
			if err := orders.AppendNote(ctx, id, m.noteTag+": "+reason); err != nil {
				return err
			}
		}
		return notify(ctx, tx, orderNotice(o, m.to))
	})
	if err != nil {
		return OrderView{}, err
	}
	return s.Detail(ctx, userID, id)
}

// Pay simulates payment capture.
func (s *OrderService) Pay(ctx context.Context, userID, id int64) (OrderView, error) {
	return s.apply(ctx, userID, id, movePay, "")
}

func (s *OrderService) Cancel(ctx context.Context, userID, id int64, reason string) (OrderView, error) {
	return s.apply(ctx, userID, id, moveCancel, clip(reason))
}

// RequestRefund is the self-service path: a paid order is refunded at once
// and its stock restored.
func (s *OrderService) RequestRefund(ctx context.Context, userID, id int64, reason string) (OrderView, error) {
	return s.apply(ctx, userID, id, moveRefund, clip(reason))
}

func (s *OrderService) Confirm(ctx context.Context, userID, id int64) (OrderView, error) {
	return s.apply(ctx, userID, id, moveConfirm, "")
}

func clip(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxOrderNoteChars {
		s = string(r[:maxOrderNoteChars])
	}
	return s
}

// stampedMoves are the pairs for which an admin status change also sets
// the matching timestamp column.
var stampedMoves = map[[2]domain.OrderStatus]bool{
	{domain.OrderPending, domain.OrderPaid}:      true,
	{domain.OrderPending, domain.OrderCancelled}: true,
	{domain.OrderPaid, domain.OrderShipped}:      true,
	{domain.OrderShipped, domain.OrderCompleted}: true,
}

type StatusInput struct {
	Status         domain.OrderStatus `json:"status" validate:"required"`
	TrackingNumber *string            `json:"tracking_number" validate:"omitempty,max=100"`
}

// SetStatus is the admin override. Any valid target is accepted; stock is
// never touched here.
func (s *OrderService) SetStatus(ctx context.Context, id int64, in StatusInput) (OrderView, error) {
	if !in.Status.Valid() {
		return OrderView{}, Invalid("unknown order status")
	}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		o, err := load(ctx, tx, 0, id)
		if err != nil {
			return err
		}
		orders := repos.NewOrderRepo(tx)
		stamp := stampedMoves[[2]domain.OrderStatus{o.Status, in.Status}]
		if _, err := orders.Transition(ctx, id, o.Status, in.Status, stamp, s.stamp()); err != nil {
			return err
		}
		if in.TrackingNumber != nil {
			if err := orders.SetTracking(ctx, id, strings.TrimSpace(*in.TrackingNumber)); err != nil {
				return err
			}
		}
		if o.Status == in.Status {
			return nil
		}
		return notify(ctx, tx, orderNotice(o, in.Status))
	})
	if err != nil {
		return OrderView{}, err
	}
	return s.AdminDetail(ctx, id)
}
