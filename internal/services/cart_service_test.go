package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/internal/services"
)

func TestCartAddMergesIntoOneLine(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	cart := services.NewCartService(db)

	_, err := cart.Add(ctx, alice, oakTable, 2)
	require.NoError(t, err)
	v, err := cart.Add(ctx, alice, oakTable, 3)
	require.NoError(t, err)

	require.Len(t, v.Items, 1)
	require.Equal(t, 5, v.Items[0].Quantity)
	require.Equal(t, 5, v.TotalCount)
	require.Equal(t, 6495.0, v.TotalPrice)
}

func TestCartRespectsStockAndPublication(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	cart := services.NewCartService(db)

	_, err := cart.Add(ctx, alice, bedFrame, 2)
	require.NoError(t, err)
	_, err = cart.Add(ctx, alice, bedFrame, 2)
	requireKind(t, err, services.KindInvalid)

	_, err = cart.Add(ctx, alice, oakTable, 0)
	requireKind(t, err, services.KindInvalid)
	_, err = cart.Add(ctx, alice, 999, 1)
	requireKind(t, err, services.KindNotFound)

	require.NoError(t, services.NewCatalogService(db).Unpublish(ctx, sofa))
	_, err = cart.Add(ctx, alice, sofa, 1)
	requireKind(t, err, services.KindNotFound)
}

func TestCartUpdateRemoveClear(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	cart := services.NewCartService(db)
	line := addToCart(t, db, alice, oakTable, 1)
	addToCart(t, db, alice, sofa, 1)

	v, err := cart.Update(ctx, alice, line, 4)
	require.NoError(t, err)
	require.Equal(t, 5, v.TotalCount)

	_, err = cart.Update(ctx, alice, line, 21)
	requireKind(t, err, services.KindInvalid)
	_, err = cart.Update(ctx, adminID, line, 2)
	requireKind(t, err, services.KindNotFound)

	v, err = cart.Remove(ctx, alice, line)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	_, err = cart.Remove(ctx, alice, line)
	requireKind(t, err, services.KindNotFound)

	v, err = cart.Clear(ctx, alice)
	require.NoError(t, err)
	require.Empty(t, v.Items)
	require.Zero(t, v.TotalPrice)
}
