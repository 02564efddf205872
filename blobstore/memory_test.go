package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Open(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	src := []byte("abcdef")
	require.NoError(t, s.Put(ctx, "a/1", src))
	src[0] = 'X'

	w, err := s.Create(ctx, "a/2")
	require.NoError(t, err)
	_, err = w.Write([]byte("xyz"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	b, err := s.Open(ctx, "a/1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), b.Size())

	buf := make([]byte, 3)
	n, err := b.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]), "Put must copy the input")

	all, err := io.ReadAll(NewReader(ctx, b))
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(all))

	names, err := s.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/2"}, names)

	require.NoError(t, s.Delete(ctx, "a/1"))
	names, err = s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/2"}, names)
}
