package repos

import (
	"context"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CartRepo struct{ db sqlx.ExtContext }

func NewCartRepo(db sqlx.ExtContext) *CartRepo { return &CartRepo{db: db} }

// CartLine is a cart row joined with the live product it points at.
type CartLine struct {
	ID           int64                `db:"id"`
	ProductID    int64                `db:"product_id"`
	Quantity     int                  `db:"quantity"`
	AddedAt      string               `db:"added_at"`
	Name         string               `db:"name"`
	MainImageURL string               `db:"main_image_url"`
	Price        decimal.Decimal      `db:"price"`
	Stock        int                  `db:"stock"`
	Status       domain.ProductStatus `db:"status"`
}

const cartLineSelect = `
	SELECT ci.id, ci.product_id, ci.quantity, ci.added_at,
	       p.name, p.main_image_url, p.price, p.stock, p.status
	FROM cart_items ci JOIN products p ON p.id = ci.product_id`

// Add inserts a line or merges qty into the existing line for the product.
func (r *CartRepo) Add(ctx context.Context, userID, productID int64, qty int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(user_id,product_id,quantity,added_at)
		VALUES(?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(user_id,product_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity`, userID, productID, qty)
	return err
}

func (r *CartRepo) Lines(ctx context.Context, userID int64) ([]CartLine, error) {
	out := []CartLine{}
	err := sqlx.SelectContext(ctx, r.db, &out, cartLineSelect+`
		WHERE ci.user_id = ? ORDER BY ci.added_at DESC, ci.id DESC`, userID)
	return out, err
}

// LinesByIDs returns only the lines among ids that belong to userID.
func (r *CartRepo) LinesByIDs(ctx context.Context, userID int64, ids []int64) ([]CartLine, error) {
	out := []CartLine{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(cartLineSelect+` WHERE ci.user_id = ? AND ci.id IN (?) ORDER BY ci.id`, userID, ids)
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, r.db, &out, q, args...)
	return out, err
}

func (r *CartRepo) Line(ctx context.Context, userID, id int64) (CartLine, error) {
	var l CartLine
	err := sqlx.GetContext(ctx, r.db, &l, cartLineSelect+` WHERE ci.user_id = ? AND ci.id = ?`, userID, id)
	return l, err
}

func (r *CartRepo) LineQty(ctx context.Context, userID, productID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `
		SELECT COALESCE(SUM(quantity),0) FROM cart_items WHERE user_id=? AND product_id=?`, userID, productID)
	return n, err
}

func (r *CartRepo) SetQty(ctx context.Context, userID, id int64, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity=? WHERE id=? AND user_id=?`, qty, id, userID)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (r *CartRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (r *CartRepo) DeleteIDs(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM cart_items WHERE user_id = ? AND id IN (?)`, userID, ids)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

func (r *CartRepo) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	return err
}

func (r *CartRepo) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `
		SELECT COALESCE(SUM(quantity),0) FROM cart_items WHERE user_id = ?`, userID)
	return n, err
}
