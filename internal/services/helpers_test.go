package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/services"
)

// seeded accounts and products (see repos.seedUsers / seedIfEmpty)
const (
	alice   int64 = 1
	adminID int64 = 2

	oakTable int64 = 1 // 1299.00, stock 20
	sofa     int64 = 2 // 4599.00, stock 5
	bedFrame int64 = 3 // 6899.00, stock 3
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func orderService(db *sqlx.DB) *services.OrderService {
	svc := services.NewOrderService(db, "https://pay.test/order/")
	svc.Now = func() time.Time { return fixedNow }
	return svc
}

func addAddress(t *testing.T, db *sqlx.DB, userID int64) int64 {
	t.Helper()
	a, err := services.NewAddressService(db).Create(context.Background(), userID, services.AddressInput{
		RecipientName: "Alice Doe",
		Phone:         "+1 555 0100",
		Province:      "MD",
		City:          "College Park",
		District:      "Prince George's",
		DetailAddress: "8223 Paint Branch Dr",
	})
	require.NoError(t, err)
	return a.ID
}

// addToCart puts qty of a product in the cart and returns the line id.
func addToCart(t *testing.T, db *sqlx.DB, userID, productID int64, qty int) int64 {
	t.Helper()
	v, err := services.NewCartService(db).Add(context.Background(), userID, productID, qty)
	require.NoError(t, err)
	for _, it := range v.Items {
		if it.ProductID == productID {
			return it.ID
		}
	}
	t.Fatalf("product %d not in cart", productID)
	return 0
}

func stockOf(t *testing.T, db *sqlx.DB, productID int64) int {
	t.Helper()
	n, err := repos.NewInventoryRepo(db).Qty(context.Background(), productID)
	require.NoError(t, err)
	return n
}

func countOrders(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM orders`))
	return n
}

// placeOrder checks out qty units of one product for the user.
func placeOrder(t *testing.T, db *sqlx.DB, svc *services.OrderService, userID, productID int64, qty int) services.OrderView {
	t.Helper()
	addr := addAddress(t, db, userID)
	line := addToCart(t, db, userID, productID, qty)
	res, err := svc.Checkout(context.Background(), userID, services.CheckoutInput{
		CartItemIDs: []int64{line}, AddressID: addr, PaymentMethod: "alipay",
	})
	require.NoError(t, err)
	return res.Order
}

// shipOrder pays an order as its owner and ships it as admin.
func shipOrder(t *testing.T, svc *services.OrderService, userID, orderID int64) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Pay(ctx, userID, orderID)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, orderID, services.StatusInput{Status: domain.OrderShipped})
	require.NoError(t, err)
}

func requireKind(t *testing.T, err error, kind services.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, services.KindOf(err), "unexpected error: %v", err)
}
