package services

import (
	"context"
	"time"

	"storefront/internal/repos"

	"github.com/jmoiron/sqlx"
)

type DashboardService struct {
	DB  *sqlx.DB
	Now func() time.Time
}

func NewDashboardService(db *sqlx.DB) *DashboardService { return &DashboardService{DB: db, Now: time.Now} }

type DayStat struct {
	Date   string  `json:"date"`
	Orders int     `json:"orders"`
	Sales  float64 `json:"sales"`
}

type Dashboard struct {
	TotalUsers      int                `json:"total_users"`
	TotalProducts   int                `json:"total_products"`
	TotalOrders     int                `json:"total_orders"`
	TotalSales      float64            `json:"total_sales"`
	PendingShipment int                `json:"pending_shipment"`
	PendingRefunds  int                `json:"pending_refunds"`
	PendingReviews  int                `json:"pending_reviews"`
	Last7Days       []DayStat          `json:"last_7_days"`
	TopProducts     []repos.TopProduct `json:"top_products"`
}

// Stats builds the admin overview. The daily series always has seven
// entries, oldest first, with zero days filled in.
func (s *DashboardService) Stats(ctx context.Context) (Dashboard, error) {
	dash := repos.NewDashboardRepo(s.DB)
	t, err := dash.Totals(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	today := s.Now().UTC()
	since := today.AddDate(0, 0, -6).Format("2006-01-02")
	points, err := dash.Daily(ctx, since)
	if err != nil {
		return Dashboard{}, err
	}
	byDay := make(map[string]repos.DayPoint, len(points))
	for _, p := range points {
		byDay[p.Day] = p
	}
	series := make([]DayStat, 0, 7)
	for i := 6; i >= 0; i-- {
		d := today.AddDate(0, 0, -i).Format("2006-01-02")
		p := byDay[d]
		series = append(series, DayStat{Date: d, Orders: p.Orders, Sales: money(p.Sales)})
	}
	top, err := dash.TopProducts(ctx, 5)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		TotalUsers: t.Users, TotalProducts: t.Products, TotalOrders: t.Orders,
		TotalSales: money(t.Sales), PendingShipment: t.PendingShipment,
		PendingRefunds: t.PendingRefunds, PendingReviews: t.Unapproved,
		Last7Days: series, TopProducts: top,
	}, nil
}
