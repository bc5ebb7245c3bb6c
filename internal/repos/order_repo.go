package repos

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{db: db} }

const orderSelect = `
	SELECT o.id, o.order_number, o.user_id, COALESCE(u.username,'') AS username, o.total_amount,
	       o.status, o.payment_method, o.shipping_address, o.shipping_fee, o.note, o.tracking_number,
	       o.paid_at, o.shipped_at, o.completed_at, o.cancelled_at, o.restocked_at, o.created_at, o.updated_at
	FROM orders o LEFT JOIN users u ON u.id = o.user_id`

// Create inserts the order header and returns its id. A clash on
// order_number surfaces as a unique violation.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO orders(order_number,user_id,total_amount,status,payment_method,shipping_address,
		                   shipping_fee,note,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?)`,
		o.OrderNumber, o.UserID, o.TotalAmount, o.Status, o.PaymentMethod, o.ShippingAddress,
		o.ShippingFee, o.Note, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *OrderRepo) InsertItem(ctx context.Context, it domain.OrderItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_items(order_id,product_id,product_name,product_image,unit_price,quantity,subtotal)
		VALUES(?,?,?,?,?,?,?)`,
		it.OrderID, it.ProductID, it.ProductName, it.ProductImage, it.UnitPrice, it.Quantity, it.Subtotal)
	return err
}

// Get loads an order with its items.
func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, r.db, &o, orderSelect+` WHERE o.id = ?`, id); err != nil {
		return o, err
	}
	items, err := r.Items(ctx, id)
	o.Items = items
	return o, err
}

func (r *OrderRepo) Items(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	out := []domain.OrderItem{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT id,order_id,product_id,product_name,product_image,unit_price,quantity,subtotal
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	return out, err
}

type OrderFilter struct {
	UserID      int64 // 0 = any
	Status      domain.OrderStatus
	OrderNumber string // substring match
	Limit       int
	Offset      int
}

// List returns a page of orders, newest first, with items attached.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]domain.Order, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.UserID > 0 {
		where = append(where, "o.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, f.Status)
	}
	if f.OrderNumber != "" {
		where = append(where, "o.order_number LIKE ?")
		args = append(args, "%"+f.OrderNumber+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM orders o WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	out := []domain.Order{}
	if err := sqlx.SelectContext(ctx, r.db, &out, orderSelect+`
		WHERE `+cond+`
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset)...); err != nil {
		return nil, 0, err
	}
	for i := range out {
		items, err := r.Items(ctx, out[i].ID)
		if err != nil {
			return nil, 0, err
		}
		out[i].Items = items
	}
	return out, total, nil
}

// stampColumns maps a target status to the timestamp column it sets.
var stampColumns = map[domain.OrderStatus]string{
	domain.OrderPaid:      "paid_at",
	domain.OrderShipped:   "shipped_at",
	domain.OrderCompleted: "completed_at",
	domain.OrderCancelled: "cancelled_at",
}

// Transition moves an order from one status to another, stamping the
// matching timestamp column when stamp is true. It reports false when the
// order was no longer in from.
func (r *OrderRepo) Transition(ctx context.Context, id int64, from, to domain.OrderStatus, stamp bool, now string) (bool, error) {
	set := "status = ?, updated_at = ?"
	args := []any{to, now}
	if col, ok := stampColumns[to]; ok && stamp {
		set += fmt.Sprintf(", %s = ?", col)
		args = append(args, now)
	}
	args = append(args, id, from)
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET `+set+` WHERE id = ? AND status = ?`, args...)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

// MarkRestocked stamps restocked_at once. It reports false when the
// order's stock was already put back.
func (r *OrderRepo) MarkRestocked(ctx context.Context, id int64, now string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET restocked_at = ? WHERE id = ? AND restocked_at IS NULL`, now, id)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (r *OrderRepo) AppendNote(ctx context.Context, id int64, line string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET note = CASE WHEN note = '' THEN ? ELSE note || char(10) || ? END
		WHERE id = ?`, line, line, id)
	return err
}

func (r *OrderRepo) SetTracking(ctx context.Context, id int64, tracking string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET tracking_number = ? WHERE id = ?`, tracking, id)
	return err
}

// ContainsProduct reports whether the order has a line for productID.
func (r *OrderRepo) ContainsProduct(ctx context.Context, orderID, productID int64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `
		SELECT COUNT(*) FROM order_items WHERE order_id = ? AND product_id = ?`, orderID, productID)
	return n > 0, err
}

type ReviewableItem struct {
	OrderID      int64  `db:"order_id" json:"order_id"`
	OrderNumber  string `db:"order_number" json:"order_number"`
	ProductID    int64  `db:"product_id" json:"product_id"`
	ProductName  string `db:"product_name" json:"product_name"`
	ProductImage string `db:"product_image" json:"product_image"`
}

// ReviewableItems lists shipped or completed order lines of a user that
// have no review yet.
func (r *OrderRepo) ReviewableItems(ctx context.Context, userID int64) ([]ReviewableItem, error) {
	out := []ReviewableItem{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT DISTINCT o.id AS order_id, o.order_number, oi.product_id, oi.product_name, oi.product_image
		FROM orders o JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = ? AND o.status IN ('shipped','completed')
		  AND NOT EXISTS (
		    SELECT 1 FROM product_reviews r
		    WHERE r.user_id = o.user_id AND r.product_id = oi.product_id AND r.order_id = o.id)
		ORDER BY o.id DESC`, userID)
	return out, err
}

// RecentForUser is used to give the assistant order context.
func (r *OrderRepo) RecentForUser(ctx context.Context, userID int64, limit int) ([]domain.Order, error) {
	out, _, err := r.List(ctx, OrderFilter{UserID: userID, Limit: limit})
	return out, err
}

func (r *OrderRepo) ByNumber(ctx context.Context, number string) (domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, r.db, &o, orderSelect+` WHERE o.order_number = ?`, number); err != nil {
		return o, err
	}
	items, err := r.Items(ctx, o.ID)
	o.Items = items
	return o, err
}
