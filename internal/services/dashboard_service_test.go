package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storefront/internal/services"
)

func TestDashboardStats(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	orders := orderService(db)
	paid := placeOrder(t, db, orders, alice, oakTable, 2)
	_, err := orders.Pay(ctx, alice, paid.ID)
	require.NoError(t, err)
	placeOrder(t, db, orders, alice, sofa, 1) // pending, no sales

	dash := services.NewDashboardService(db)
	dash.Now = func() time.Time { return fixedNow }
	d, err := dash.Stats(ctx)
	require.NoError(t, err)

	require.Equal(t, 2, d.TotalUsers)
	require.Equal(t, 3, d.TotalProducts)
	require.Equal(t, 2, d.TotalOrders)
	require.Equal(t, 2598.0, d.TotalSales)
	require.Equal(t, 1, d.PendingShipment)

	require.Len(t, d.Last7Days, 7)
	require.Equal(t, "2025-03-08", d.Last7Days[0].Date)
	today := d.Last7Days[6]
	require.Equal(t, "2025-03-14", today.Date)
	require.Equal(t, 2, today.Orders)
	require.Equal(t, 2598.0, today.Sales)
	require.Zero(t, d.Last7Days[5].Orders)

	require.Equal(t, oakTable, d.TopProducts[0].ID)
	require.Equal(t, 2, d.TopProducts[0].SalesCount)
}
