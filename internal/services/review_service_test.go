package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/internal/services"
)

func TestReviewRequiresReceivedPurchase(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	orders := orderService(db)
	reviews := services.NewReviewService(db)
	o := placeOrder(t, db, orders, alice, oakTable, 1)
	in := services.ReviewInput{OrderID: o.ID, Rating: 5, Content: "Sturdy and beautiful"}

	_, err := reviews.Create(ctx, alice, oakTable, in)
	requireKind(t, err, services.KindInvalid)

	shipOrder(t, orders, alice, o.ID)

	_, err = reviews.Create(ctx, alice, sofa, in)
	requireKind(t, err, services.KindInvalid) // not in this order
	_, err = reviews.Create(ctx, adminID, oakTable, in)
	requireKind(t, err, services.KindInvalid) // not the owner

	pending, err := reviews.Pending(ctx, alice)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	v, err := reviews.Create(ctx, alice, oakTable, in)
	require.NoError(t, err)
	require.Equal(t, "alice", v.User.Username)
	require.True(t, v.IsApproved)

	_, err = reviews.Create(ctx, alice, oakTable, services.ReviewInput{OrderID: o.ID, Rating: 2, Content: "Wobbles after a week"})
	requireKind(t, err, services.KindInvalid)
	require.Equal(t, "this product has already been reviewed for this order", err.Error())

	pending, err = reviews.Pending(ctx, alice)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestProductReviewsMaskNamesAndCountLikes(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	orders := orderService(db)
	reviews := services.NewReviewService(db)
	o := placeOrder(t, db, orders, alice, oakTable, 1)
	shipOrder(t, orders, alice, o.ID)
	r, err := reviews.Create(ctx, alice, oakTable, services.ReviewInput{OrderID: o.ID, Rating: 4, Content: "Good"})
	require.NoError(t, err)

	require.NoError(t, reviews.Like(ctx, adminID, r.ID))
	err = reviews.Like(ctx, adminID, r.ID)
	requireKind(t, err, services.KindInvalid)

	page, err := reviews.ForProduct(ctx, oakTable, adminID, 0, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "ali***", page.List[0].User.Username)
	require.Equal(t, 1, page.List[0].LikeCount)
	require.True(t, page.List[0].IsLiked)
	require.Equal(t, 4.0, page.Summary.AverageRating)
	require.Equal(t, 1, page.Summary.Rating4)

	require.NoError(t, reviews.Unlike(ctx, adminID, r.ID))
	err = reviews.Unlike(ctx, adminID, r.ID)
	requireKind(t, err, services.KindInvalid)

	// hidden reviews drop out of the public list and summary
	require.NoError(t, reviews.SetApproved(ctx, r.ID, false))
	page, err = reviews.ForProduct(ctx, oakTable, 0, 0, 10, 0)
	require.NoError(t, err)
	require.Zero(t, page.Total)
	require.Zero(t, page.Summary.Total)

	hidden := false
	list, total, err := reviews.AdminList(ctx, services.AdminReviewQuery{Approved: &hidden, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "alice", list[0].User.Username)

	require.NoError(t, reviews.Delete(ctx, r.ID))
	requireKind(t, reviews.Delete(ctx, r.ID), services.KindNotFound)
}

func TestMaskName(t *testing.T) {
	require.Equal(t, "ali***", services.MaskName("alice"))
	require.Equal(t, "bo***", services.MaskName("bo"))
	require.Equal(t, "王小明***", services.MaskName("王小明明"))
}
