package repos

import (
	"context"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type FavoriteRepo struct{ db sqlx.ExtContext }

func NewFavoriteRepo(db sqlx.ExtContext) *FavoriteRepo { return &FavoriteRepo{db: db} }

func (r *FavoriteRepo) Add(ctx context.Context, userID, productID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites(user_id, product_id, created_at)
		VALUES(?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, product_id) DO NOTHING`, userID, productID)
	return err
}

func (r *FavoriteRepo) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id=? AND product_id=?`, userID, productID)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (r *FavoriteRepo) Has(ctx context.Context, userID, productID int64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `
		SELECT COUNT(*) FROM favorites WHERE user_id=? AND product_id=?`, userID, productID)
	return n > 0, err
}

// List returns the favorited products, most recent first.
func (r *FavoriteRepo) List(ctx context.Context, userID int64, limit, offset int) ([]domain.Product, int, error) {
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM favorites WHERE user_id=?`, userID); err != nil {
		return nil, 0, err
	}
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT p.id,p.name,p.description,p.short_description,p.price,p.original_price,p.stock,p.category_id,
		       p.main_image_url,p.image_urls,p.is_top,p.status,p.sales_count,p.view_count,p.created_at,p.updated_at
		FROM favorites f JOIN products p ON p.id = f.product_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
	return out, total, err
}
