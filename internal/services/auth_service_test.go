package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storefront/internal/services"
)

func authService(t *testing.T) *services.AuthService {
	t.Helper()
	return services.NewAuthService(testDB(t), services.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour))
}

func TestLoginIssuesTypedTokens(t *testing.T) {
	ctx := context.Background()
	auth := authService(t)

	u, pair, err := auth.Login(ctx, "ALICE@storefront.test", "Passw0rd!")
	require.NoError(t, err)
	require.Equal(t, alice, u.ID)
	require.Equal(t, "bearer", pair.TokenType)

	got, err := auth.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	// tokens are not interchangeable
	_, err = auth.Authenticate(ctx, pair.RefreshToken)
	requireKind(t, err, services.KindUnauthorized)
	_, err = auth.Refresh(ctx, pair.AccessToken)
	requireKind(t, err, services.KindUnauthorized)

	next, err := auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, next.AccessToken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	auth := authService(t)

	_, _, err := auth.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, services.ErrBadCreds)
	_, _, err = auth.Login(ctx, "nobody", "Passw0rd!")
	require.ErrorIs(t, err, services.ErrBadCreds)
	_, err = auth.Authenticate(ctx, "not-a-jwt")
	requireKind(t, err, services.KindUnauthorized)
}

func TestTokensFromAnotherSecretAreRejected(t *testing.T) {
	other := services.NewTokenIssuer("other-secret", time.Hour, time.Hour)
	auth := authService(t)
	u, err := auth.CurrentUser(context.Background(), alice)
	require.NoError(t, err)
	pair, err := other.Issue(u)
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), pair.AccessToken)
	requireKind(t, err, services.KindUnauthorized)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	auth := authService(t)

	u, err := auth.Register(ctx, services.RegisterInput{Username: "bob_smith", Email: "bob@storefront.test", Password: "Sup3r$ecret"})
	require.NoError(t, err)
	require.Equal(t, "USER", u.Role)

	_, err = auth.Register(ctx, services.RegisterInput{Username: "bob_smith", Email: "bob2@storefront.test", Password: "Sup3r$ecret"})
	requireKind(t, err, services.KindConflict)
	_, err = auth.Register(ctx, services.RegisterInput{Username: "bobby", Email: "BOB@storefront.test", Password: "Sup3r$ecret"})
	requireKind(t, err, services.KindConflict)

	_, _, err = auth.Login(ctx, "bob_smith", "Sup3r$ecret")
	require.NoError(t, err)
}

func TestChangePasswordChecksOldPassword(t *testing.T) {
	ctx := context.Background()
	auth := authService(t)
	u, err := auth.CurrentUser(ctx, alice)
	require.NoError(t, err)

	err = auth.ChangePassword(ctx, u, services.PasswordInput{OldPassword: "wrong", NewPassword: "N3w$ecret"})
	requireKind(t, err, services.KindInvalid)

	require.NoError(t, auth.ChangePassword(ctx, u, services.PasswordInput{OldPassword: "Passw0rd!", NewPassword: "N3w$ecret"}))
	_, _, err = auth.Login(ctx, "alice", "Passw0rd!")
	require.ErrorIs(t, err, services.ErrBadCreds)
	_, _, err = auth.Login(ctx, "alice", "N3w$ecret")
	require.NoError(t, err)
}

type sentMail struct{ to, subject, body string }

type mailbox struct{ sent []sentMail }

func (m *mailbox) Send(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func TestPasswordResetTokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	auth := authService(t)
	box := &mailbox{}
	auth.Mail = box
	auth.ResetURL = "https://shop.test/reset?token="
	auth.Now = func() time.Time { return fixedNow }

	token, err := auth.RequestPasswordReset(ctx, "nobody@storefront.test")
	require.NoError(t, err)
	require.Empty(t, token)
	require.Empty(t, box.sent)

	token, err = auth.RequestPasswordReset(ctx, "ALICE@storefront.test")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Len(t, box.sent, 1)
	require.Equal(t, "alice@storefront.test", box.sent[0].to)
	require.True(t, strings.Contains(box.sent[0].body, "https://shop.test/reset?token="+token))

	err = auth.ResetPassword(ctx, services.ResetInput{Token: "bogus", NewPassword: "R3set$ecret"})
	requireKind(t, err, services.KindInvalid)

	require.NoError(t, auth.ResetPassword(ctx, services.ResetInput{Token: token, NewPassword: "R3set$ecret"}))
	_, _, err = auth.Login(ctx, "alice", "R3set$ecret")
	require.NoError(t, err)

	err = auth.ResetPassword(ctx, services.ResetInput{Token: token, NewPassword: "An0ther$ecret"})
	requireKind(t, err, services.KindInvalid)
}

func TestPasswordResetTokenExpires(t *testing.T) {
	ctx := context.Background()
	auth := authService(t)
	now := fixedNow
	auth.Now = func() time.Time { return now }

	token, err := auth.RequestPasswordReset(ctx, "alice@storefront.test")
	require.NoError(t, err)

	now = now.Add(31 * time.Minute)
	err = auth.ResetPassword(ctx, services.ResetInput{Token: token, NewPassword: "R3set$ecret"})
	requireKind(t, err, services.KindInvalid)
	_, _, err = auth.Login(ctx, "alice", "Passw0rd!")
	require.NoError(t, err)
}
