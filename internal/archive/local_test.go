package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seoforge/seopipe/internal/signal"
)

func TestObjectNameDerivesStablePath(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()

	name, err := ObjectName("https://example.com/products/widgets", now)
	require.NoError(t, err)
	require.Equal(t, "example.com/products_widgets_1700000000.html", name)

	name, err = ObjectName("https://example.com/", now)
	require.NoError(t, err)
	require.Equal(t, "example.com/index_1700000000.html", name)

	_, err = ObjectName("not a url", now)
	require.Error(t, err)
}

func TestLocalStoreWritesBody(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Unix(1700000000, 0).UTC()
	l, err := NewLocal(LocalConfig{BaseDir: dir}, signal.FixedClock{T: now})
	require.NoError(t, err)

	require.NoError(t, l.Store(context.Background(), "https://example.com/about", []byte("<html></html>")))

	body, err := os.ReadFile(filepath.Join(dir, "example.com", "about_1700000000.html"))
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(body))
}

func TestNewLocalRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := NewLocal(LocalConfig{}, nil)
	require.Error(t, err)
}

func TestNewLocalCreatesMissingBaseDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "archive")
	_, err := NewLocal(LocalConfig{BaseDir: dir}, nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
