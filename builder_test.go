package fuzzgram

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/fuzzgram/archive"
	"github.com/hupe1980/fuzzgram/blobstore"
	ifs "github.com/hupe1980/fuzzgram/internal/fs"
	"github.com/hupe1980/fuzzgram/trigram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Add(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add("spam", 1))
	require.NoError(t, b.Add("ham", 2))

	assert.Equal(t, 2, b.Len())
	assert.True(t, b.IDs().Contains(1))
	assert.True(t, b.IDs().Contains(2))
}

func TestBuilder_DuplicateID(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add("spam", 1))

	err := b.Add("eggs", 1)
	require.ErrorIs(t, err, ErrDuplicateID)

	// The rejected string left no trace.
	path := filepath.Join(t.TempDir(), "idx.trie")
	require.NoError(t, b.WriteFile(path))
	idx, err := Open(path)
	require.NoError(t, err)
	defer idx.Close()

	leaves, err := idx.LookupTrigram(context.Background(), "$eg")
	require.NoError(t, err)
	assert.Empty(t, leaves)
}

func TestBuilder_IDsIsACopy(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add("spam", 1))

	ids := b.IDs()
	ids.Add(99)

	assert.Equal(t, 1, b.Len())
	require.NoError(t, b.Add("eggs", 99))
}

func TestBuilder_WriteEmpty(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "empty.trie"))
	require.NoError(t, err)
	defer f.Close()

	_, err = NewBuilder().Write(f)
	require.ErrorIs(t, err, ErrEmptyIndex)
}

func TestBuilder_WriteNonEmptySink(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "dirty.trie"))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("junk"))
	require.NoError(t, err)

	b := NewBuilder()
	require.NoError(t, b.Add("spam", 1))

	_, err = b.Write(f)
	require.ErrorIs(t, err, ErrSinkNotEmpty)
}

func TestBuilder_FrozenAfterWrite(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder()
	require.NoError(t, b.Add("spam", 1))
	require.NoError(t, b.WriteFile(filepath.Join(dir, "a.trie")))

	require.ErrorIs(t, b.Add("ham", 2), ErrClosed)
	require.ErrorIs(t, b.AddTrigram(trigram.Trigram{'h', 'a', 'm'}, 2, 1, 5), ErrClosed)

	// A frozen builder can still be written again.
	require.NoError(t, b.WriteFile(filepath.Join(dir, "b.trie")))

	first, err := os.ReadFile(filepath.Join(dir, "a.trie"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "b.trie"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuilder_WriteSize(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "lb.trie"))
	require.NoError(t, err)
	defer f.Close()

	b := NewBuilder()
	require.NoError(t, b.Add("lb", 1))

	size, err := b.Write(f)
	require.NoError(t, err)

	fi, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, fi.Size(), size)
}

func TestBuilder_AddTrigramReplaces(t *testing.T) {
	ctx := context.Background()
	tr := trigram.Trigram{'a', 'b', 'c'}

	b := NewBuilder()
	require.NoError(t, b.AddTrigram(tr, 7, 1, 3))
	require.NoError(t, b.AddTrigram(tr, 7, 2, 9))

	idx := writeAndOpen(t, b)
	leaves, err := idx.Lookup(ctx, tr)
	require.NoError(t, err)
	assert.Equal(t, []Leaf{{ID: 7, Count: 2, TotalNgrams: 9}}, leaves)
}

func TestBuilder_WriteFileFault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx.trie")

	fsys := ifs.NewFaultyFS(ifs.Default)
	fsys.AddRule(".idx.trie-", ifs.Fault{FailAfterBytes: 8})

	b := NewBuilder(withFileSystem(fsys))
	require.NoError(t, b.Add("spam", 1))

	err := b.WriteFile(path)
	require.ErrorIs(t, err, ifs.ErrInjected)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial or temporary files remain")
}

func TestBuilder_WriteFileRenameFault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx.trie")

	fsys := ifs.NewFaultyFS(ifs.Default)
	fsys.FailRename(ifs.ErrInjected)

	b := NewBuilder(withFileSystem(fsys))
	require.NoError(t, b.Add("spam", 1))

	require.ErrorIs(t, b.WriteFile(path), ifs.ErrInjected)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuilder_WriteFileCompressed(t *testing.T) {
	ctx := context.Background()

	for _, ext := range []string{".zst", ".lz4"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "idx.trie"+ext)

			b := spamHamBuilder(t)
			require.NoError(t, b.WriteFile(path))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(raw), archive.MagicSize)
			assert.Equal(t, archive.KindFromName(path), archive.Detect(raw))

			idx, err := Open(path)
			require.NoError(t, err)
			defer idx.Close()

			results, err := idx.Search(ctx, "ham", 0.5)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, uint32(2), results[0].ID)
		})
	}
}

func TestBuilder_Publish(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	b := spamHamBuilder(t)
	require.NoError(t, b.Publish(ctx, store, "plain.trie"))
	require.NoError(t, b.Publish(ctx, store, "small.trie.zst"))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"plain.trie", "small.trie.zst"}, names)

	plain, err := store.Open(ctx, "plain.trie")
	require.NoError(t, err)
	defer plain.Close()

	f, err := os.Create(filepath.Join(t.TempDir(), "ref.trie"))
	require.NoError(t, err)
	defer f.Close()
	_, err = b.Write(f)
	require.NoError(t, err)
	want, err := os.ReadFile(f.Name())
	require.NoError(t, err)

	got := make([]byte, plain.Size())
	_, err = plain.ReadAt(ctx, got, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

type failingStore struct {
	*blobstore.MemoryStore
}

func (s failingStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	w, err := s.MemoryStore.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &failingBlob{WritableBlob: w}, nil
}

type failingBlob struct {
	blobstore.WritableBlob
}

func (w *failingBlob) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func (w *failingBlob) Abort() error {
	return w.WritableBlob.(blobstore.Abortable).Abort()
}

func TestBuilder_PublishAbortsOnFailure(t *testing.T) {
	ctx := context.Background()
	store := failingStore{blobstore.NewMemoryStore()}

	b := spamHamBuilder(t)
	err := b.Publish(ctx, store, "idx.trie")
	require.Error(t, err)

	_, err = store.Open(ctx, "idx.trie")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
