package filestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/polidex/internal/core/apperr"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	path, err := store.Save(ctx, "doc.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "doc.txt", filepath.Base(path))

	data, err := store.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Remove(ctx, path))

	_, err = store.Read(ctx, path)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = store.Remove(ctx, path)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLocalStore_RejectsOutsidePaths(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	_, err = store.Save(ctx, "../escape.txt", []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = store.Read(ctx, filepath.Join(dir, "other.txt"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = store.Remove(ctx, filepath.Join(dir, "uploads", "..", "other.txt"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
