package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/services"
)

func TestGlobalNotificationReadStateIsPerUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	notes := services.NewNotificationService(db)

	_, err := services.NewCatalogService(db).CreateProduct(ctx, services.ProductInput{
		Name: "Rattan Armchair", Price: decimal.NewFromInt(899), Stock: 4, CategoryID: 3,
	})
	require.NoError(t, err)

	for _, uid := range []int64{alice, adminID} {
		n, err := notes.UnreadCount(ctx, uid)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	}

	list, total, err := notes.List(ctx, alice, true, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, domain.NotifyNewProduct, list[0].Type)

	require.NoError(t, notes.MarkRead(ctx, alice, list[0].ID))
	n, err := notes.UnreadCount(ctx, alice)
	require.NoError(t, err)
	require.Zero(t, n)
	n, err = notes.UnreadCount(ctx, adminID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	list, _, err = notes.List(ctx, alice, false, 10, 0)
	require.NoError(t, err)
	require.True(t, list[0].Read)
}

func TestMarkAllReadCoversPersonalAndGlobal(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	notes := services.NewNotificationService(db)
	_, err := services.NewCatalogService(db).CreateProduct(ctx, services.ProductInput{
		Name: "Floor Lamp", Price: decimal.NewFromInt(199), Stock: 10, CategoryID: 1,
	})
	require.NoError(t, err)
	orders := orderService(db)
	o := placeOrder(t, db, orders, alice, oakTable, 1)
	_, err = orders.Pay(ctx, alice, o.ID)
	require.NoError(t, err)

	n, err := notes.UnreadCount(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, notes.MarkAllRead(ctx, alice))
	n, err = notes.UnreadCount(ctx, alice)
	require.NoError(t, err)
	require.Zero(t, n)

	// personal notifications of others stay invisible
	err = notes.MarkRead(ctx, adminID, personalID(t, notes, alice))
	requireKind(t, err, services.KindNotFound)
}

func personalID(t *testing.T, notes *services.NotificationService, userID int64) int64 {
	t.Helper()
	list, _, err := notes.List(context.Background(), userID, false, 50, 0)
	require.NoError(t, err)
	for _, n := range list {
		if n.Type == domain.NotifyOrderStatus {
			return n.ID
		}
	}
	t.Fatal("no personal notification")
	return 0
}
