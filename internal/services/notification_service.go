package services

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repos"

	"github.com/jmoiron/sqlx"
)

// notify appends a notification using whatever handle the caller is on, so
// workflows can emit it inside their own transaction.
func notify(ctx context.Context, ext sqlx.ExtContext, n domain.Notification) error {
	_, err := repos.NewNotificationRepo(ext).Create(ctx, n)
	return err
}

type NotificationService struct {
	DB *sqlx.DB
}

func NewNotificationService(db *sqlx.DB) *NotificationService { return &NotificationService{DB: db} }

func (s *NotificationService) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]domain.Notification, int, error) {
	return repos.NewNotificationRepo(s.DB).List(ctx, userID, unreadOnly, limit, offset)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return repos.NewNotificationRepo(s.DB).UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	ok, err := repos.NewNotificationRepo(s.DB).MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		return repos.NewNotificationRepo(tx).MarkAllRead(ctx, userID)
	})
}
