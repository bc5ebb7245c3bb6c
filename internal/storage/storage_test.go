package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storefront/internal/config"

	"github.com/stretchr/testify/require"
)

func TestLocalPutWritesUnderDir(t *testing.T) {
	dir := t.TempDir()
	st := NewLocal(dir, "/media/")

	url, err := st.Put(context.Background(), "uploads/a/b.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "/media/uploads/a/b.png", url)

	b, err := os.ReadFile(filepath.Join(dir, "uploads", "a", "b.png"))
	require.NoError(t, err)
	require.Equal(t, "png", string(b))
}

func TestLocalPutCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()
	st := NewLocal(dir, "/media")

	url, err := st.Put(context.Background(), "../../etc/x.png", strings.NewReader("x"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "/media/etc/x.png", url)
	_, err = os.Stat(filepath.Join(dir, "etc", "x.png"))
	require.NoError(t, err)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.Config{Storage: config.StorageConfig{Driver: "ftp"}})
	require.Error(t, err)
}
