package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chessplay.toml")

	want := Config{
		Hash:           256,
		SyzygyPath:     "/var/lib/syzygy",
		BookPath:       "/var/lib/book.bin",
		MoveOverheadMs: 50,
	}
	require.NoError(t, want.Save(path))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestStoreGetPutDelete(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.Get("missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.Put("tb:123", []byte(`{"found":true,"wdl":2}`)))

	value, found, err := s.Get("tb:123")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `{"found":true,"wdl":2}`, string(value))

	require.NoError(t, s.Delete("tb:123"))
	_, found, err = s.Get("tb:123")
	require.NoError(t, err)
	require.False(t, found)
}

func TestPrefetchPrimesMissingKeysOnly(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("k0", []byte("cached")))

	var calls int32
	keys := []string{"k0", "k1", "k2", "k3"}
	fn := func(ctx context.Context, key string) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(fmt.Sprintf("computed-%s", key)), nil
	}

	require.NoError(t, s.Prefetch(context.Background(), keys, 2, fn))
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))

	value, found, err := s.Get("k0")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "cached", string(value))

	value, found, err = s.Get("k2")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "computed-k2", string(value))
}
