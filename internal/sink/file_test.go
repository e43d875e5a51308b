package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileSinkWrite(t *testing.T) {
	t.Parallel()

	s := New(filepath.Join(t.TempDir(), "valid_links.txt"), zap.NewNop())
	urls := []string{
		"https://example.com/a_20230101000000_0.opt",
		"https://example.com/a_20230101000002_0.opt",
	}
	require.NoError(t, s.Write(urls))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t,
		"https://example.com/a_20230101000000_0.opt\nhttps://example.com/a_20230101000002_0.opt\n",
		string(raw),
	)
}

// TestFileSinkIdempotent ensures the same accumulated state produces the same
// bytes no matter how often it is written.
func TestFileSinkIdempotent(t *testing.T) {
	t.Parallel()

	s := New(filepath.Join(t.TempDir(), "valid_links.txt"), zap.NewNop())
	urls := []string{"https://example.com/x_20230101120000_0.opt"}

	require.NoError(t, s.Write(urls))
	first, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	require.NoError(t, s.Write(urls))
	second, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFileSinkOverwritesPriorContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "valid_links.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0o600))

	s := New(path, zap.NewNop())
	require.NoError(t, s.Write(nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, string(raw))
}
