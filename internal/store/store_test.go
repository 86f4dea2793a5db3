package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drivers(t *testing.T) map[string]Options {
	t.Helper()
	fs, err := OpenFS(filepath.Join(t.TempDir(), "root"))
	require.NoError(t, err)
	return map[string]Options{
		"fs":     fs,
		"memory": NewMemory(),
	}
}

func TestOptions_GetSet(t *testing.T) {
	ctx := context.Background()
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			require.True(t, IsNotFound(err))

			require.NoError(t, s.Set(ctx, "opt", []byte(`{"a":1}`)))
			v, err := s.Get(ctx, "opt")
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(v))

			// sobrescribe
			require.NoError(t, s.Set(ctx, "opt", []byte("x\n y  ")))
			v, err = s.Get(ctx, "opt")
			require.NoError(t, err)
			assert.Equal(t, "x\n y  ", string(v))

			require.NoError(t, s.Ping(ctx))
			require.NoError(t, s.Close())
		})
	}
}

func TestOptions_RejectsBadNames(t *testing.T) {
	ctx := context.Background()
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Set(ctx, "../escape", []byte("x"))
			assert.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestFS_FilePermissions(t *testing.T) {
	root := t.TempDir()
	s, err := OpenFS(root)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "secret", []byte("pw")))

	info, err := os.Stat(filepath.Join(root, "options", "secret.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mongo"})
	assert.Error(t, err)
}
