package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repos"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// RefundService handles admin-mediated refund tickets. It is separate from
// OrderService.RequestRefund, which refunds a paid order immediately.
type RefundService struct {
	DB  *sqlx.DB
	Now func() time.Time
}

func NewRefundService(db *sqlx.DB) *RefundService { return &RefundService{DB: db, Now: time.Now} }

type RefundView struct {
	ID           int64               `json:"id"`
	OrderID      int64               `json:"order_id"`
	OrderNumber  string              `json:"order_number"`
	UserID       int64               `json:"user_id"`
	Username     string              `json:"username"`
	RefundAmount float64             `json:"refund_amount"`
	Reason       string              `json:"reason"`
	Description  string              `json:"description"`
	Status       domain.RefundStatus `json:"status"`
	AdminNotes   string              `json:"admin_notes"`
	CreatedAt    string              `json:"created_at"`
	ProcessedAt  *string             `json:"processed_at"`
}

func NewRefundView(r domain.Refund) RefundView {
	return RefundView{
		ID: r.ID, OrderID: r.OrderID, OrderNumber: r.OrderNumber, UserID: r.UserID, Username: r.Username,
		RefundAmount: money(r.RefundAmount), Reason: r.Reason, Description: r.Description,
		Status: r.Status, AdminNotes: r.AdminNotes, CreatedAt: r.CreatedAt, ProcessedAt: r.ProcessedAt,
	}
}

type RefundInput struct {
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Reason       string          `json:"reason" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=1000"`
}

var refundable = map[domain.OrderStatus]bool{
	domain.OrderPaid:      true,
	domain.OrderShipped:   true,
	domain.OrderCompleted: true,
}

// Open files a pending ticket against one of the caller's orders.
func (s *RefundService) Open(ctx context.Context, userID, orderID int64, in RefundInput) (RefundView, error) {
	if !in.RefundAmount.IsPositive() {
		return RefundView{}, Invalid("refund amount must be greater than 0")
	}
	var id int64
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		o, err := load(ctx, tx, userID, orderID)
		if err != nil {
			return err
		}
		if !refundable[o.Status] {
			return Invalid("this order cannot be refunded")
		}
		if in.RefundAmount.GreaterThan(o.TotalAmount) {
			return Invalid("refund amount exceeds order total")
		}
		refunds := repos.NewRefundRepo(tx)
		pending, err := refunds.HasPending(ctx, orderID)
		if err != nil {
			return err
		}
		if pending {
			return Conflict("a refund request for this order is already pending")
		}
		id, err = refunds.Create(ctx, domain.Refund{
			OrderID: orderID, UserID: userID, RefundAmount: in.RefundAmount,
			Reason: strings.TrimSpace(in.Reason), Description: strings.TrimSpace(in.Description),
			CreatedAt: s.Now().UTC().Format(timeLayout),
		})
		return err
	})
	if err != nil {
		return RefundView{}, err
	}
	return s.get(ctx, s.DB, id)
}

func (s *RefundService) get(ctx context.Context, ext sqlx.ExtContext, id int64) (RefundView, error) {
	r, err := repos.NewRefundRepo(ext).Get(ctx, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return RefundView{}, NotFound(MsgRefundNotFound)
		}
		return RefundView{}, err
	}
	return NewRefundView(r), nil
}

type RefundQuery struct {
	UserID int64
	Status domain.RefundStatus
	Limit  int
	Offset int
}

func (s *RefundService) List(ctx context.Context, q RefundQuery) ([]RefundView, int, error) {
	switch q.Status {
	case "", domain.RefundPending, domain.RefundApproved, domain.RefundRejected:
	default:
		return nil, 0, Invalid("unknown refund status")
	}
	rows, total, err := repos.NewRefundRepo(s.DB).List(ctx, repos.RefundFilter{
		UserID: q.UserID, Status: q.Status, Limit: q.Limit, Offset: q.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]RefundView, 0, len(rows))
	for _, r := range rows {
		out = append(out, NewRefundView(r))
	}
	return out, total, nil
}

// Approve resolves a pending ticket and forces the order to refunded.
// Stock is restored only if no earlier cancel or refund restored it.
func (s *RefundService) Approve(ctx context.Context, id int64, notes string) (RefundView, error) {
	return s.resolve(ctx, id, domain.RefundApproved, notes)
}

// Reject resolves a pending ticket. An order already marked refunded is
// put back to completed.
func (s *RefundService) Reject(ctx context.Context, id int64, notes string) (RefundView, error) {
	return s.resolve(ctx, id, domain.RefundRejected, notes)
}

func (s *RefundService) resolve(ctx context.Context, id int64, to domain.RefundStatus, notes string) (RefundView, error) {
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		refunds := repos.NewRefundRepo(tx)
		r, err := refunds.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return NotFound(MsgRefundNotFound)
			}
			return err
		}
		if r.Status != domain.RefundPending {
			return Invalid("refund request has already been processed")
		}
		now := s.Now().UTC().Format(timeLayout)
		ok, err := refunds.Resolve(ctx, id, to, strings.TrimSpace(notes), now)
		if err != nil {
			return err
		}
		if !ok {
			return Invalid("refund request has already been processed")
		}

		o, err := load(ctx, tx, 0, r.OrderID)
		if err != nil {
			return err
		}
		orders := repos.NewOrderRepo(tx)
		var next domain.OrderStatus
		switch {
		case to == domain.RefundApproved && o.Status != domain.OrderRefunded:
			next = domain.OrderRefunded
			if err := restock(ctx, tx, o, now); err != nil {
				return err
			}
		case to == domain.RefundRejected && o.Status == domain.OrderRefunded:
			next = domain.OrderCompleted
		}
		if next != "" {
			if _, err := orders.Transition(ctx, o.ID, o.Status, next, false, now); err != nil {
				return err
			}
		}

		uid, oid := r.UserID, r.OrderID
		verdict := "approved"
		if to == domain.RefundRejected {
			verdict = "rejected"
		}
		return notify(ctx, tx, domain.Notification{
			UserID:    &uid,
			Type:      domain.NotifyRefund,
			Title:     "Refund " + verdict,
			Content:   fmt.Sprintf("Your refund request for order %s was %s", r.OrderNumber, verdict),
			RelatedID: &oid,
		})
	})
	if err != nil {
		return RefundView{}, err
	}
	return s.get(ctx, s.DB, id)
}
