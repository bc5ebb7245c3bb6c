package repos

import (
	"context"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type NotificationRepo struct{ db sqlx.ExtContext }

func NewNotificationRepo(db sqlx.ExtContext) *NotificationRepo { return &NotificationRepo{db: db} }

// visible limits rows to the user's own plus global ones; is_read for a
// global row comes from notification_reads. Binds: userID, userID.
const notificationSelect = `
	SELECT n.id, n.user_id, n.type, n.title, n.content, n.related_id, n.related_image,
	       CASE WHEN n.user_id IS NULL
	            THEN EXISTS(SELECT 1 FROM notification_reads nr WHERE nr.notification_id = n.id AND nr.user_id = ?)
	            ELSE n.is_read END AS is_read,
	       n.created_at
	FROM notifications n
	WHERE (n.user_id = ? OR n.user_id IS NULL)`

// Create stores a notification; a nil userID makes it global.
func (r *NotificationRepo) Create(ctx context.Context, n domain.Notification) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications(user_id,type,title,content,related_id,related_image)
		VALUES(?,?,?,?,?,?)`, n.UserID, n.Type, n.Title, n.Content, n.RelatedID, n.RelatedImage)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *NotificationRepo) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]domain.Notification, int, error) {
	inner := notificationSelect
	outer := `SELECT * FROM (` + inner + `) x`
	if unreadOnly {
		outer += ` WHERE x.is_read = 0`
	}
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM (`+outer+`)`, userID, userID); err != nil {
		return nil, 0, err
	}
	out := []domain.Notification{}
	err := sqlx.SelectContext(ctx, r.db, &out, outer+` ORDER BY x.created_at DESC, x.id DESC LIMIT ? OFFSET ?`,
		userID, userID, limit, offset)
	return out, total, err
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `
		SELECT COUNT(*) FROM (`+notificationSelect+`) x WHERE x.is_read = 0`, userID, userID)
	return n, err
}

// MarkRead marks one visible notification read. It reports false when the
// notification is not visible to the user.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id int64) (bool, error) {
	var owner *int64
	err := sqlx.GetContext(ctx, r.db, &owner, `
		SELECT user_id FROM notifications WHERE id = ? AND (user_id = ? OR user_id IS NULL)`, id, userID)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if owner == nil {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO notification_reads(notification_id,user_id) VALUES(?,?) ON CONFLICT DO NOTHING`, id, userID)
	} else {
		_, err = r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	}
	return err == nil, err
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_reads(notification_id,user_id)
		SELECT id, ? FROM notifications WHERE user_id IS NULL
		ON CONFLICT DO NOTHING`, userID)
	return err
}
