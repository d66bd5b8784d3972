package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "deck.pptx", want: "deck.pptx"},
		{key: "./a/b.pptx", want: "a/b.pptx"},
		{key: "/abs/deck.pptx", want: "abs/deck.pptx"},
		{key: `win\style.pptx`, want: "win/style.pptx"},
		{key: "a/../b.pptx", want: "b.pptx"},
		{key: "", wantErr: true},
		{key: "   ", wantErr: true},
		{key: "..", wantErr: true},
		{key: "../escape.pptx", wantErr: true},
		{key: "a/../../escape.pptx", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			t.Parallel()
			got, err := sanitizeKey(tc.key)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFileStore_WriteOpenRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Write(ctx, "decks/q3.pptx", []byte("pptx-bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.BasePath(), "decks", "q3.pptx"), path)

	f, err := store.Open(ctx, path)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, "pptx-bytes", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, store.Remove(ctx, path))
	_, err = store.Open(ctx, path)
	assert.ErrorIs(t, err, ErrNotExist)
	assert.NoError(t, store.Remove(ctx, path), "removing twice is fine")
}

func TestFileStore_RefusesPathsOutsideRoot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFileStore(filepath.Join(root, "out"))
	require.NoError(t, err)

	outside := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("nope"), 0o600))

	for _, p := range []string{outside, filepath.Join(store.BasePath(), "..", "secret.txt"), store.BasePath(), ""} {
		_, err := store.Open(ctx, p)
		assert.Error(t, err, p)
		assert.Error(t, store.Remove(ctx, p), p)
	}

	_, err = store.Write(ctx, "../secret.txt", []byte("overwrite"))
	assert.ErrorIs(t, err, ErrInvalidKey)
	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "nope", string(data))
}

func TestFileStore_CancelledContext(t *testing.T) {
	t.Parallel()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Write(ctx, "x.pptx", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFileStore_RequiresPath(t *testing.T) {
	t.Parallel()
	_, err := NewFileStore(" ")
	assert.Error(t, err)
}
