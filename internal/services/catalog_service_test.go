package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/services"
)

// seeded tree: 1 Living Room > {3 Sofas, 4 Coffee Tables}, 2 Bedroom
func TestCategoryDetailUpdateDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	catalog := services.NewCatalogService(db)
	str := func(s string) *string { return &s }
	id := func(n int64) *int64 { return &n }

	living, err := catalog.Category(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Living Room", living.Name)
	require.Len(t, living.Children, 2)
	_, err = catalog.Category(ctx, 99)
	requireKind(t, err, services.KindNotFound)

	_, err = catalog.UpdateCategory(ctx, 3, services.CategoryUpdateInput{Name: str("Bedroom")})
	requireKind(t, err, services.KindConflict)
	_, err = catalog.UpdateCategory(ctx, 1, services.CategoryUpdateInput{ParentID: id(4)})
	requireKind(t, err, services.KindInvalid) // 4 sits under 1
	_, err = catalog.UpdateCategory(ctx, 3, services.CategoryUpdateInput{ParentID: id(3)})
	requireKind(t, err, services.KindInvalid)
	_, err = catalog.UpdateCategory(ctx, 3, services.CategoryUpdateInput{ParentID: id(42)})
	requireKind(t, err, services.KindNotFound)

	moved, err := catalog.UpdateCategory(ctx, 3, services.CategoryUpdateInput{Name: str("Sofas & Chairs"), ParentID: id(2)})
	require.NoError(t, err)
	require.Equal(t, "Sofas & Chairs", moved.Name)
	require.Equal(t, int64(2), moved.ParentID)
	require.Equal(t, "Fabric and leather sofas", moved.Description)

	requireKind(t, catalog.DeleteCategory(ctx, 2), services.KindInvalid) // has children
	requireKind(t, catalog.DeleteCategory(ctx, 4), services.KindInvalid) // has the oak table
	requireKind(t, catalog.DeleteCategory(ctx, 99), services.KindNotFound)

	empty, err := catalog.CreateCategory(ctx, services.CategoryInput{Name: "Outdoor"})
	require.NoError(t, err)
	require.NoError(t, catalog.DeleteCategory(ctx, empty.ID))
	_, err = catalog.Category(ctx, empty.ID)
	requireKind(t, err, services.KindNotFound)
}

func TestRelatedProductsPreferSameCategory(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	catalog := services.NewCatalogService(db)

	rel, err := catalog.Related(ctx, oakTable, 4)
	require.NoError(t, err)
	require.Len(t, rel, 2)
	for _, p := range rel {
		require.NotEqual(t, oakTable, p.ID)
	}

	// a second coffee table outranks products of other categories
	second, err := catalog.CreateProduct(ctx, services.ProductInput{
		Name: "Round Oak Side Table", Price: decimal.NewFromInt(499), Stock: 4, CategoryID: 4,
	})
	require.NoError(t, err)
	rel, err = catalog.Related(ctx, oakTable, 1)
	require.NoError(t, err)
	require.Len(t, rel, 1)
	require.Equal(t, second.ID, rel[0].ID)

	require.NoError(t, catalog.Unpublish(ctx, second.ID))
	rel, err = catalog.Related(ctx, oakTable, 4)
	require.NoError(t, err)
	for _, p := range rel {
		require.Equal(t, domain.ProductPublished, p.Status)
	}

	_, err = catalog.Related(ctx, 999, 4)
	requireKind(t, err, services.KindNotFound)
}
