package fuzzgram

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/fuzzgram/archive"
	"github.com/hupe1980/fuzzgram/blobstore"
	ifs "github.com/hupe1980/fuzzgram/internal/fs"
	"github.com/hupe1980/fuzzgram/trie"
	"github.com/hupe1980/fuzzgram/trigram"
)

// Builder accumulates strings into an in-memory trigram trie and writes it
// out as an index file.
//
// A Builder is not safe for concurrent use. Once written it is frozen:
// further Add calls return ErrClosed, but it may be written again.
type Builder struct {
	opts   options
	trie   *trie.Builder
	ids    *roaring.Bitmap
	frozen bool
}

// NewBuilder returns an empty Builder.
func NewBuilder(optFns ...Option) *Builder {
	return &Builder{
		opts: applyOptions(optFns),
		trie: trie.NewBuilder(),
		ids:  roaring.New(),
	}
}

// Add indexes s under id. Each id may be added once; a repeated id returns
// ErrDuplicateID and leaves the builder unchanged.
func (b *Builder) Add(s string, id uint32) error {
	if b.frozen {
		return ErrClosed
	}
	if b.ids.Contains(id) {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}

	counts, total := trigram.Extract(s)
	totalNgrams := trigram.Saturate(total)

	for _, c := range counts {
		leaf := trie.Leaf{
			ID:          id,
			Count:       trigram.Saturate(c.Count),
			TotalNgrams: totalNgrams,
		}
		if err := b.trie.Insert(c.Trigram, leaf); err != nil {
			return err
		}
	}

	b.ids.Add(id)
	return nil
}

// AddTrigram stores a single posting, for callers that extract or weight
// trigrams themselves. A posting for the same trigram and id is replaced.
func (b *Builder) AddTrigram(t trigram.Trigram, id uint32, count, totalNgrams uint8) error {
	if b.frozen {
		return ErrClosed
	}
	if err := b.trie.Insert(t, trie.Leaf{ID: id, Count: count, TotalNgrams: totalNgrams}); err != nil {
		return err
	}
	b.ids.Add(id)
	return nil
}

// Len returns the number of distinct ids added.
func (b *Builder) Len() int {
	return int(b.ids.GetCardinality())
}

// IDs returns a copy of the set of ids added, usable with WithFilter.
func (b *Builder) IDs() *roaring.Bitmap {
	return b.ids.Clone()
}

// Write serializes the index to w, which must be empty and support seeking
// backwards. It returns the number of bytes written.
func (b *Builder) Write(w io.WriteSeeker) (int64, error) {
	return b.write(context.Background(), w)
}

func (b *Builder) write(ctx context.Context, w io.WriteSeeker) (size int64, err error) {
	start := time.Now()
	defer func() {
		b.opts.metricsCollector.RecordBuild(b.Len(), size, time.Since(start), err)
		b.opts.logger.LogBuild(ctx, b.Len(), b.trie.Len(), size, err)
	}()

	if b.trie.Len() == 0 {
		return 0, ErrEmptyIndex
	}

	end, err := w.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("fuzzgram: seek sink: %w", err)
	}
	if end != 0 {
		return 0, ErrSinkNotEmpty
	}

	if _, err := b.trie.Write(w); err != nil {
		return 0, err
	}

	size, err = w.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("fuzzgram: seek sink: %w", err)
	}

	b.frozen = true
	return size, nil
}

// WriteFile writes the index to path atomically: the data goes to a
// temporary file in the same directory that is renamed into place. Paths
// ending in ".zst" or ".lz4" are compressed.
func (b *Builder) WriteFile(path string) error {
	ctx := context.Background()
	fsys := b.opts.fs
	kind := archive.KindFromName(path)

	var spool ifs.File
	if kind != archive.None {
		var err error
		if spool, err = b.spool(ctx); err != nil {
			return err
		}
		defer removeTemp(fsys, spool)
	}

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := fsys.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}

	if kind == archive.None {
		_, err = b.write(ctx, f)
	} else {
		_, err = archive.Compress(f, spool, kind, archive.LevelDefault)
	}
	if err == nil {
		err = f.Sync()
	}
	if err != nil {
		removeTemp(fsys, f)
		return err
	}

	if err := f.Close(); err != nil {
		_ = fsys.Remove(f.Name())
		return err
	}
	if err := fsys.Rename(f.Name(), path); err != nil {
		_ = fsys.Remove(f.Name())
		return err
	}
	return nil
}

// Publish writes the index to store under name. Names ending in ".zst" or
// ".lz4" are compressed. On failure nothing is published when the store
// supports aborting writes.
func (b *Builder) Publish(ctx context.Context, store blobstore.BlobStore, name string) error {
	spool, err := b.spool(ctx)
	if err != nil {
		return err
	}
	defer removeTemp(b.opts.fs, spool)

	w, err := store.Create(ctx, name)
	if err != nil {
		return err
	}

	if _, err := archive.Compress(w, spool, archive.KindFromName(name), archive.LevelDefault); err != nil {
		if a, ok := w.(blobstore.Abortable); ok {
			_ = a.Abort()
		} else {
			_ = w.Close()
		}
		return fmt.Errorf("fuzzgram: publish %s: %w", name, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("fuzzgram: publish %s: %w", name, err)
	}
	return nil
}

// spool serializes the index to an anonymous temporary file positioned at
// its start.
func (b *Builder) spool(ctx context.Context) (ifs.File, error) {
	f, err := b.opts.fs.CreateTemp("", "fuzzgram-*.trie")
	if err != nil {
		return nil, err
	}

	if _, err := b.write(ctx, f); err != nil {
		removeTemp(b.opts.fs, f)
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		removeTemp(b.opts.fs, f)
		return nil, err
	}
	return f, nil
}

func removeTemp(fsys ifs.FileSystem, f ifs.File) {
	_ = f.Close()
	_ = fsys.Remove(f.Name())
}
