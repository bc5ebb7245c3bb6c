package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type DashboardRepo struct{ db sqlx.ExtContext }

func NewDashboardRepo(db sqlx.ExtContext) *DashboardRepo { return &DashboardRepo{db: db} }

// Totals are store-wide counters. Sales only counts orders that were paid
// and not cancelled or refunded.
type Totals struct {
	Users           int             `db:"users"`
	Products        int             `db:"products"`
	Orders          int             `db:"orders"`
	Sales           decimal.Decimal `db:"sales"`
	PendingShipment int             `db:"pending_shipment"`
	PendingRefunds  int             `db:"pending_refunds"`
	Unapproved      int             `db:"unapproved"`
}

func (r *DashboardRepo) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := sqlx.GetContext(ctx, r.db, &t, `
		SELECT
		  (SELECT COUNT(*) FROM users)                                     AS users,
		  (SELECT COUNT(*) FROM products WHERE status = 'published')        AS products,
		  (SELECT COUNT(*) FROM orders)                                    AS orders,
		  (SELECT COALESCE(SUM(total_amount),0) FROM orders
		     WHERE status IN ('paid','shipped','completed'))               AS sales,
		  (SELECT COUNT(*) FROM orders WHERE status = 'paid')               AS pending_shipment,
		  (SELECT COUNT(*) FROM refunds WHERE status = 'pending')           AS pending_refunds,
		  (SELECT COUNT(*) FROM product_reviews WHERE is_approved = 0)      AS unapproved`)
	return t, err
}

type DayPoint struct {
	Day    string          `db:"day"`
	Orders int             `db:"orders"`
	Sales  decimal.Decimal `db:"sales"`
}

// Daily groups orders created on or after since (YYYY-MM-DD) by day.
func (r *DashboardRepo) Daily(ctx context.Context, since string) ([]DayPoint, error) {
	out := []DayPoint{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT substr(created_at,1,10) AS day,
		       COUNT(*) AS orders,
		       COALESCE(SUM(CASE WHEN status IN ('paid','shipped','completed') THEN total_amount ELSE 0 END),0) AS sales
		FROM orders
		WHERE substr(created_at,1,10) >= ?
		GROUP BY day ORDER BY day`, since)
	return out, err
}

type TopProduct struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	SalesCount int    `db:"sales_count" json:"sales_count"`
	Stock      int    `db:"stock" json:"stock"`
}

func (r *DashboardRepo) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	out := []TopProduct{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT id, name, sales_count, stock FROM products
		ORDER BY sales_count DESC, id LIMIT ?`, limit)
	return out, err
}
