package repos

import (
	"context"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type RefundRepo struct{ db sqlx.ExtContext }

func NewRefundRepo(db sqlx.ExtContext) *RefundRepo { return &RefundRepo{db: db} }

const refundSelect = `
	SELECT r.id, r.order_id, o.order_number, r.user_id, COALESCE(u.username,'') AS username,
	       r.refund_amount, r.reason, r.description, r.status, r.admin_notes, r.created_at, r.processed_at
	FROM refunds r
	JOIN orders o ON o.id = r.order_id
	LEFT JOIN users u ON u.id = r.user_id`

func (r *RefundRepo) Create(ctx context.Context, rf domain.Refund) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO refunds(order_id,user_id,refund_amount,reason,description,status,created_at)
		VALUES(?,?,?,?,?,?,?)`,
		rf.OrderID, rf.UserID, rf.RefundAmount, rf.Reason, rf.Description, domain.RefundPending, rf.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *RefundRepo) Get(ctx context.Context, id int64) (domain.Refund, error) {
	var rf domain.Refund
	err := sqlx.GetContext(ctx, r.db, &rf, refundSelect+` WHERE r.id = ?`, id)
	return rf, err
}

func (r *RefundRepo) HasPending(ctx context.Context, orderID int64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `
		SELECT COUNT(*) FROM refunds WHERE order_id = ? AND status = 'pending'`, orderID)
	return n > 0, err
}

type RefundFilter struct {
	UserID int64
	Status domain.RefundStatus
	Limit  int
	Offset int
}

func (r *RefundRepo) List(ctx context.Context, f RefundFilter) ([]domain.Refund, int, error) {
	cond := "1=1"
	args := []any{}
	if f.UserID > 0 {
		cond += " AND r.user_id = ?"
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		cond += " AND r.status = ?"
		args = append(args, f.Status)
	}
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM refunds r WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	out := []domain.Refund{}
	err := sqlx.SelectContext(ctx, r.db, &out, refundSelect+`
		WHERE `+cond+` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...)
	return out, total, err
}

// Resolve closes a pending ticket. It reports false when the ticket was
// already processed.
func (r *RefundRepo) Resolve(ctx context.Context, id int64, status domain.RefundStatus, notes, now string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refunds SET status = ?, admin_notes = ?, processed_at = ?
		WHERE id = ? AND status = 'pending'`, status, notes, now, id)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}
