package repos

import (
	"context"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ReviewRepo struct{ db sqlx.ExtContext }

func NewReviewRepo(db sqlx.ExtContext) *ReviewRepo { return &ReviewRepo{db: db} }

// reviewSelect takes the viewer id as its first bind argument; 0 never
// matches a like.
const reviewSelect = `
	SELECT r.id, r.user_id, COALESCE(u.username,'') AS username, COALESCE(u.avatar_url,'') AS avatar_url,
	       r.product_id, COALESCE(p.name,'') AS product_name, COALESCE(p.main_image_url,'') AS product_image,
	       r.order_id, r.rating, r.content, r.image_urls, r.is_approved, r.like_count,
	       EXISTS(SELECT 1 FROM review_likes l WHERE l.review_id = r.id AND l.user_id = ?) AS liked,
	       r.created_at
	FROM product_reviews r
	LEFT JOIN users u ON u.id = r.user_id
	LEFT JOIN products p ON p.id = r.product_id`

func (r *ReviewRepo) Create(ctx context.Context, rv domain.Review) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO product_reviews(user_id,product_id,order_id,rating,content,image_urls,is_approved)
		VALUES(?,?,?,?,?,?,?)`,
		rv.UserID, rv.ProductID, rv.OrderID, rv.Rating, rv.Content, rv.ImageURLsJSON, rv.Approved)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *ReviewRepo) Exists(ctx context.Context, userID, productID, orderID int64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `
		SELECT COUNT(*) FROM product_reviews WHERE user_id=? AND product_id=? AND order_id=?`,
		userID, productID, orderID)
	return n > 0, err
}

func (r *ReviewRepo) Get(ctx context.Context, id, viewerID int64) (domain.Review, error) {
	var rv domain.Review
	err := sqlx.GetContext(ctx, r.db, &rv, reviewSelect+` WHERE r.id = ?`, viewerID, id)
	return rv, err
}

type ReviewFilter struct {
	ProductID int64
	UserID    int64
	Rating    int
	Approved  *bool
	ViewerID  int64
	Limit     int
	Offset    int
}

func (r *ReviewRepo) List(ctx context.Context, f ReviewFilter) ([]domain.Review, int, error) {
	cond := "1=1"
	args := []any{}
	if f.ProductID > 0 {
		cond += " AND r.product_id = ?"
		args = append(args, f.ProductID)
	}
	if f.UserID > 0 {
		cond += " AND r.user_id = ?"
		args = append(args, f.UserID)
	}
	if f.Rating > 0 {
		cond += " AND r.rating = ?"
		args = append(args, f.Rating)
	}
	if f.Approved != nil {
		cond += " AND r.is_approved = ?"
		args = append(args, *f.Approved)
	}
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM product_reviews r WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	out := []domain.Review{}
	q := reviewSelect + ` WHERE ` + cond + ` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
	all := append([]any{f.ViewerID}, args...)
	err := sqlx.SelectContext(ctx, r.db, &out, q, append(all, f.Limit, f.Offset)...)
	return out, total, err
}

// Summary aggregates approved reviews of a product.
func (r *ReviewRepo) Summary(ctx context.Context, productID int64) (domain.ReviewSummary, error) {
	var rows []struct {
		Rating int `db:"rating"`
		N      int `db:"n"`
	}
	var s domain.ReviewSummary
	if err := sqlx.SelectContext(ctx, r.db, &rows, `
		SELECT rating, COUNT(*) AS n FROM product_reviews
		WHERE product_id = ? AND is_approved = 1
		GROUP BY rating`, productID); err != nil {
		return s, err
	}
	sum := 0
	for _, row := range rows {
		s.Total += row.N
		sum += row.Rating * row.N
		switch row.Rating {
		case 5:
			s.Rating5 = row.N
		case 4:
			s.Rating4 = row.N
		case 3:
			s.Rating3 = row.N
		case 2:
			s.Rating2 = row.N
		case 1:
			s.Rating1 = row.N
		}
	}
	if s.Total > 0 {
		s.AverageRating = float64(sum) / float64(s.Total)
	}
	return s, nil
}

func (r *ReviewRepo) SetApproved(ctx context.Context, id int64, approved bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE product_reviews SET is_approved = ? WHERE id = ?`, approved, id)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM product_reviews WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

// Like records a like and bumps the counter. It reports false when the
// user had already liked the review.
func (r *ReviewRepo) Like(ctx context.Context, reviewID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO review_likes(review_id,user_id) VALUES(?,?) ON CONFLICT DO NOTHING`, reviewID, userID)
	if err != nil {
		return false, err
	}
	if affected(res) == 0 {
		return false, nil
	}
	_, err = r.db.ExecContext(ctx, `UPDATE product_reviews SET like_count = like_count + 1 WHERE id = ?`, reviewID)
	return true, err
}

// Unlike reports false when there was no like to remove.
func (r *ReviewRepo) Unlike(ctx context.Context, reviewID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM review_likes WHERE review_id = ? AND user_id = ?`, reviewID, userID)
	if err != nil {
		return false, err
	}
	if affected(res) == 0 {
		return false, nil
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE product_reviews SET like_count = MAX(like_count - 1, 0) WHERE id = ?`, reviewID)
	return true, err
}

func (r *ReviewRepo) CountUnapproved(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM product_reviews WHERE is_approved = 0`)
	return n, err
}
