package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func TestCheckoutDecrementsStockAndConsumesSelectedLines(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := orderService(db)
	addr := addAddress(t, db, alice)
	oak := addToCart(t, db, alice, oakTable, 2)
	addToCart(t, db, alice, sofa, 1)

	res, err := svc.Checkout(ctx, alice, services.CheckoutInput{
		CartItemIDs: []int64{oak}, AddressID: addr, PaymentMethod: "wechat", Note: " leave at door ",
	})
	require.NoError(t, err)

	o := res.Order
	require.Equal(t, domain.OrderPending, o.Status)
	require.Equal(t, "awaiting payment", o.StatusText)
	require.Equal(t, 2598.0, o.TotalAmount)
	require.Equal(t, "leave at door", o.Note)
	require.Len(t, o.Items, 1)
	require.Equal(t, 1299.0, o.Items[0].UnitPrice)
	require.Equal(t, 2598.0, o.Items[0].Subtotal)
	require.NotNil(t, o.ShippingAddress)
	require.Equal(t, "Alice Doe", o.ShippingAddress.RecipientName)
	require.True(t, strings.HasPrefix(o.OrderNumber, "SJ20250314092653"))
	require.Len(t, o.OrderNumber, 20)

	require.Equal(t, "https://pay.test/order/"+o.OrderNumber, res.Payment.PaymentURL)
	require.Equal(t, fixedNow.Add(30*time.Minute).Format(time.RFC3339), res.Payment.ExpireAt)

	require.Equal(t, 18, stockOf(t, db, oakTable))
	require.Equal(t, 5, stockOf(t, db, sofa))

	cart, err := services.NewCartService(db).View(ctx, alice)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, sofa, cart.Items[0].ProductID)
}

func TestCheckoutIsAllOrNothing(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := orderService(db)
	addr := addAddress(t, db, alice)
	oak := addToCart(t, db, alice, oakTable, 2)
	bed := addToCart(t, db, alice, bedFrame, 3)

	// stock drops below the cart quantity after the line was added
	_, err := db.Exec(`UPDATE products SET stock = 1 WHERE id = ?`, bedFrame)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, alice, services.CheckoutInput{
		CartItemIDs: []int64{oak, bed}, AddressID: addr, PaymentMethod: "alipay",
	})
	requireKind(t, err, services.KindInvalid)
	require.Contains(t, err.Error(), "insufficient stock")

	require.Zero(t, countOrders(t, db))
	require.Equal(t, 20, stockOf(t, db, oakTable))
	require.Equal(t, 1, stockOf(t, db, bedFrame))
	n, err := repos.NewCartRepo(db).Count(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestCheckoutRejectsEmptyOrForeignSelection(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := orderService(db)
	addr := addAddress(t, db, alice)

	_, err := svc.Checkout(ctx, alice, services.CheckoutInput{AddressID: addr, PaymentMethod: "alipay"})
	requireKind(t, err, services.KindInvalid)
	require.Equal(t, services.MsgCartEmpty, err.Error())

	// lines owned by someone else are not part of the caller's selection
	adminLine := addToCart(t, db, adminID, oakTable, 1)
	_, err = svc.Checkout(ctx, alice, services.CheckoutInput{
		CartItemIDs: []int64{adminLine}, AddressID: addr, PaymentMethod: "alipay",
	})
	requireKind(t, err, services.KindInvalid)
	require.Equal(t, services.MsgCartEmpty, err.Error())
	require.Zero(t, countOrders(t, db))
	require.Equal(t, 20, stockOf(t, db, oakTable))
}

func TestCheckoutRequiresOwnAddress(t *testing.T) {
	db := testDB(t)
	svc := orderService(db)
	adminAddr := addAddress(t, db, adminID)
	line := addToCart(t, db, alice, oakTable, 1)

	_, err := svc.Checkout(context.Background(), alice, services.CheckoutInput{
		CartItemIDs: []int64{line}, AddressID: adminAddr, PaymentMethod: "alipay",
	})
	requireKind(t, err, services.KindNotFound)
	require.Zero(t, countOrders(t, db))
}

func TestOrderPricesAreFrozenAtCheckout(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := orderService(db)
	_, err := db.Exec(`UPDATE products SET price = 100 WHERE id = ?`, oakTable)
	require.NoError(t, err)

	o := placeOrder(t, db, svc, alice, oakTable, 2)
	require.Equal(t, 200.0, o.TotalAmount)

	_, err = db.Exec(`UPDATE products SET price = 50 WHERE id = ?`, oakTable)
	require.NoError(t, err)

	got, err := svc.Detail(ctx, alice, o.ID)
	require.NoError(t, err)
	require.Equal(t, 200.0, got.TotalAmount)
	require.Equal(t, 100.0, got.Items[0].UnitPrice)
	require.Equal(t, 200.0, got.Items[0].Subtotal)
}

func TestCheckoutRetriesOrderNumberCollision(t *testing.T) {
	db := testDB(t)
	svc := orderService(db)
	numbers := []string{"SJ202503140926531111", "SJ202503140926531111", "SJ202503140926532222"}
	svc.OrderNumber = func(time.Time) string {
		n := numbers[0]
		if len(numbers) > 1 {
			numbers = numbers[1:]
		}
		return n
	}

	first := placeOrder(t, db, svc, alice, oakTable, 1)
	second := placeOrder(t, db, svc, alice, sofa, 1)
	require.Equal(t, "SJ202503140926531111", first.OrderNumber)
	require.Equal(t, "SJ202503140926532222", second.OrderNumber)
}

func TestCheckoutGivesUpAfterRepeatedCollisions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := orderService(db)
	svc.OrderNumber = func(time.Time) string { return "SJ202503140926530000" }
	placeOrder(t, db, svc, alice, oakTable, 1)

	line := addToCart(t, db, alice, sofa, 1)
	addr := addAddress(t, db, alice)
	_, err := svc.Checkout(ctx, alice, services.CheckoutInput{
		CartItemIDs: []int64{line}, AddressID: addr, PaymentMethod: "alipay",
	})
	requireKind(t, err, services.KindInternal)
	require.Equal(t, 1, countOrders(t, db))
	require.Equal(t, 5, stockOf(t, db, sofa))
}

func TestCancelRestoresStockOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := orderService(db)
	o := placeOrder(t, db, svc, alice, oakTable, 3)
	require.Equal(t, 17, stockOf(t, db, oakTable))

	v, err := svc.Cancel(ctx, alice, o.ID, "changed my mind")
	require.NoError(t, err)
	require.Equal(t, domain.OrderCancelled, v.Status)
	require.NotNil(t, v.CancelledAt)
	require.Contains(t, v.Note, "cancel reason: changed my mind")
	require.Equal(t, 20, stockOf(t, db, oakTable))

	_, err = svc.Cancel(ctx, alice, o.ID, "again")
	requireKind(t, err, services.KindInvalid)
	require.Equal(t, 20, stockOf(t, db, oakTable))
}

func TestUserTransitionsAreGuarded(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := orderService(db)
	o := placeOrder(t, db, svc, alice, sofa, 1)

	_, err := svc.Confirm(ctx, alice, o.ID)
	requireKind(t, err, services.KindInvalid)
	_, err = svc.RequestRefund(ctx, alice, o.ID, "too late")
	requireKind(t, err, services.KindInvalid)

	paid, err := svc.Pay(ctx, alice, o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = svc.Pay(ctx, alice, o.ID)
	requireKind(t, err, services.KindInvalid)
	_, err = svc.Cancel(ctx, alice, o.ID, "nope")
	requireKind(t, err, services.KindInvalid)

	shipped, err := svc.SetStatus(ctx, o.ID, services.StatusInput{Status: domain.OrderShipped})
	require.NoError(t, err)
	require.Equal(t, "awaiting receipt", shipped.StatusText)
	require.NotNil(t, shipped.ShippedAt)

	done, err := svc.Confirm(ctx, alice, o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	require.Len(t, done.Timelines, 4)

	_, err = svc.Cancel(ctx, alice, o.ID, "nope")
	requireKind(t, err, services.KindInvalid)
}

func TestRequestRefundOnPaidOrderRestocks(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := orderService(db)
	o := placeOrder(t, db, svc, alice, sofa, 2)
	_, err := svc.Pay(ctx, alice, o.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stockOf(t, db, sofa))

	v, err := svc.RequestRefund(ctx, alice, o.ID, "damaged box")
	require.NoError(t, err)
	require.Equal(t, domain.OrderRefunded, v.Status)
	require.Contains(t, v.Note, "refund reason: damaged box")
	require.Equal(t, 5, stockOf(t, db, sofa))
}

func TestOtherUsersOrdersAreNotFound(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := orderService(db)
	o := placeOrder(t, db, svc, alice, oakTable, 1)

	_, err := svc.Detail(ctx, adminID, o.ID)
	requireKind(t, err, services.KindNotFound)
	_, err = svc.Cancel(ctx, adminID, o.ID, "not mine")
	requireKind(t, err, services.KindNotFound)

	v, err := svc.AdminDetail(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", v.Username)
}

func TestAdminSetStatusStoresTrackingAndNeverTouchesStock(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := orderService(db)
	o := placeOrder(t, db, svc, alice, oakTable, 4)
	require.Equal(t, 16, stockOf(t, db, oakTable))

	tracking := " SF1234567890 "
	v, err := svc.SetStatus(ctx, o.ID, services.StatusInput{Status: domain.OrderCancelled, TrackingNumber: &tracking})
	require.NoError(t, err)
	require.Equal(t, domain.OrderCancelled, v.Status)
	require.Equal(t, "SF1234567890", v.TrackingNumber)
	require.NotNil(t, v.CancelledAt)
	require.Equal(t, 16, stockOf(t, db, oakTable))

	// a move outside the stamped pairs changes status only
	v, err = svc.SetStatus(ctx, o.ID, services.StatusInput{Status: domain.OrderCompleted})
	require.NoError(t, err)
	require.Equal(t, domain.OrderCompleted, v.Status)
	require.Nil(t, v.CompletedAt)

	_, err = svc.SetStatus(ctx, o.ID, services.StatusInput{Status: "lost"})
	requireKind(t, err, services.KindInvalid)

	n, err := services.NewNotificationService(db).UnreadCount(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestListFiltersByStatus(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := orderService(db)
	a := placeOrder(t, db, svc, alice, oakTable, 1)
	placeOrder(t, db, svc, alice, sofa, 1)
	_, err := svc.Pay(ctx, alice, a.ID)
	require.NoError(t, err)

	list, total, err := svc.List(ctx, alice, services.OrderQuery{Status: domain.OrderPaid, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, a.ID, list[0].ID)

	_, total, err = svc.AdminList(ctx, services.OrderQuery{OrderNumber: a.OrderNumber, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	_, _, err = svc.List(ctx, alice, services.OrderQuery{Status: "bogus", Limit: 10})
	requireKind(t, err, services.KindInvalid)
}
