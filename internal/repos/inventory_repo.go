package repos

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrInsufficientStock is returned by Decrement when the row holds fewer
// units than requested.
var ErrInsufficientStock = errors.New("insufficient stock")

type InventoryRepo struct{ db sqlx.ExtContext }

func NewInventoryRepo(db sqlx.ExtContext) *InventoryRepo { return &InventoryRepo{db: db} }

// InventoryRow is used by the admin stock listing.
type InventoryRow struct {
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Status    string `db:"status" json:"status"`
	Qty       int    `db:"qty" json:"qty"`
}

func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := sqlx.SelectContext(ctx, r.db, &rows, `
		SELECT id AS product_id, name, status, stock AS qty
		FROM products ORDER BY stock, name`)
	return rows, err
}

// Qty returns current stock for a product, or sql.ErrNoRows.
func (r *InventoryRepo) Qty(ctx context.Context, productID int64) (int, error) {
	var qty int
	err := sqlx.GetContext(ctx, r.db, &qty, `SELECT stock FROM products WHERE id = ?`, productID)
	return qty, err
}

// Decrement subtracts by units only if enough stock exists and bumps
// sales_count by the same amount.
func (r *InventoryRepo) Decrement(ctx context.Context, productID int64, by int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, sales_count = sales_count + ?
		WHERE id = ? AND stock >= ?`, by, by, productID, by)
	if err != nil {
		return err
	}
	if affected(res) == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Restore puts units back after a cancellation or refund.
func (r *InventoryRepo) Restore(ctx context.Context, productID int64, by int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + ?, sales_count = MAX(sales_count - ?, 0)
		WHERE id = ?`, by, by, productID)
	return err
}

func (r *InventoryRepo) SetQty(ctx context.Context, productID int64, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET stock = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, qty, productID)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}
