package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/internal/repos"
	"storefront/internal/services"
)

func TestDeleteUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := services.NewUserService(db)
	admin, err := repos.NewUserRepo(db).ByID(ctx, adminID)
	require.NoError(t, err)

	_, err = users.Delete(ctx, admin, adminID)
	requireKind(t, err, services.KindInvalid)
	_, err = users.Delete(ctx, admin, 999)
	requireKind(t, err, services.KindNotFound)

	// alice has an order, so she is deactivated and her owned rows go
	placeOrder(t, db, orderService(db), alice, oakTable, 1)
	addToCart(t, db, alice, sofa, 1)
	_, err = services.NewFavoriteService(db).Toggle(ctx, alice, sofa)
	require.NoError(t, err)

	deleted, err := users.Delete(ctx, admin, alice)
	require.NoError(t, err)
	require.False(t, deleted)
	u, err := repos.NewUserRepo(db).ByID(ctx, alice)
	require.NoError(t, err)
	require.False(t, u.Active)
	n, err := repos.NewCartRepo(db).Count(ctx, alice)
	require.NoError(t, err)
	require.Zero(t, n)
	addrs, err := repos.NewAddressRepo(db).List(ctx, alice)
	require.NoError(t, err)
	require.Empty(t, addrs)

	_, _, err = services.NewAuthService(db, services.NewTokenIssuer("s", 0, 0)).Login(ctx, "alice", "Passw0rd!")
	requireKind(t, err, services.KindForbidden)

	// a fresh account without orders is removed outright
	auth := services.NewAuthService(db, services.NewTokenIssuer("s", 0, 0))
	bob, err := auth.Register(ctx, services.RegisterInput{Username: "bob", Email: "bob@storefront.test", Password: "Sup3r$ecret"})
	require.NoError(t, err)
	addAddress(t, db, bob.ID)
	deleted, err = users.Delete(ctx, admin, bob.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	_, err = repos.NewUserRepo(db).ByID(ctx, bob.ID)
	require.ErrorIs(t, err, repos.ErrNotFound)
}

func TestAddressDefaultIsUnique(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	svc := services.NewAddressService(db)
	first := addAddress(t, db, alice)
	second := addAddress(t, db, alice)

	list, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
			require.Equal(t, first, a.ID)
		}
	}
	require.Equal(t, 1, defaults)

	require.NoError(t, svc.SetDefault(ctx, alice, second))
	list, err = svc.List(ctx, alice)
	require.NoError(t, err)
	for _, a := range list {
		require.Equal(t, a.ID == second, a.IsDefault)
	}

	requireKind(t, svc.SetDefault(ctx, adminID, second), services.KindNotFound)
	requireKind(t, svc.Delete(ctx, adminID, second), services.KindNotFound)
	require.NoError(t, svc.Delete(ctx, alice, second))
}

func TestAdminUpdateUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := services.NewUserService(db)
	admin, err := repos.NewUserRepo(db).ByID(ctx, adminID)
	require.NoError(t, err)
	str := func(s string) *string { return &s }
	off := false

	_, err = users.AdminUpdate(ctx, admin, alice, services.AdminUserInput{Username: str("admin")})
	requireKind(t, err, services.KindConflict)
	_, err = users.AdminUpdate(ctx, admin, adminID, services.AdminUserInput{IsActive: &off})
	requireKind(t, err, services.KindInvalid)
	_, err = users.AdminUpdate(ctx, admin, 999, services.AdminUserInput{Phone: str("+1 555 0199")})
	requireKind(t, err, services.KindNotFound)

	v, err := users.AdminUpdate(ctx, admin, alice, services.AdminUserInput{Username: str("alice_w"), Phone: str("+1 555 0199")})
	require.NoError(t, err)
	require.Equal(t, "alice_w", v.Username)
	require.Equal(t, "+1 555 0199", v.Phone)
	require.Equal(t, "alice@storefront.test", v.Email)
	require.True(t, v.IsActive)

	v, err = users.AdminUpdate(ctx, admin, alice, services.AdminUserInput{IsActive: &off})
	require.NoError(t, err)
	require.False(t, v.IsActive)
	require.Equal(t, "alice_w", v.Username)
}
