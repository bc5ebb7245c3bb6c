package mail

import (
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/internal/config"
)

func TestNewWithoutServerIsDisabled(t *testing.T) {
	require.Nil(t, New(config.MailConfig{From: "shop@example.com"}))
}

func TestNewWithServer(t *testing.T) {
	m := New(config.MailConfig{SMTPAddr: "smtp.example.com:587", SMTPHost: "smtp.example.com", User: "shop", Password: "pw", From: "shop@example.com"})
	require.NotNil(t, m)
	require.Equal(t, "smtp.example.com:587", m.addr)
	require.NotNil(t, m.auth)
}
