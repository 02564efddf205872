package fuzzgram

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/fuzzgram/archive"
	"github.com/hupe1980/fuzzgram/blobstore"
	"github.com/hupe1980/fuzzgram/internal/cache"
	"github.com/hupe1980/fuzzgram/internal/resource"
	"github.com/hupe1980/fuzzgram/internal/search"
	"github.com/hupe1980/fuzzgram/model"
	"github.com/hupe1980/fuzzgram/trie"
	"github.com/hupe1980/fuzzgram/trigram"
	"golang.org/x/sync/errgroup"
)

// Candidate is a ranked search result.
type Candidate = model.Candidate

// Leaf is one indexed string's statistics for a trigram.
type Leaf = trie.Leaf

// Index is a read-only handle to a serialized index.
// It is safe for concurrent use. Close waits for in-flight searches and
// lookups to finish.
type Index struct {
	opts   options
	name   string
	src    trie.Source
	closer io.Closer
	cache  cache.BlockCache
	rc     *resource.Controller
	held   int64
	size   int64
	reader *trie.Reader

	mu     sync.RWMutex
	closed bool
}

// Open opens the index file at path. Files ending in ".zst" or ".lz4" are
// decompressed into memory; others are read through the configured backend.
func Open(path string, optFns ...Option) (*Index, error) {
	ctx := context.Background()
	o := applyOptions(optFns)
	rc := newController(o)

	kind := archive.KindFromName(path)
	if o.backend == BackendMemory || kind != archive.None {
		data, err := readFile(path, kind, memoryLimit(o))
		if err != nil {
			o.logger.LogOpen(ctx, path, 0, err)
			return nil, err
		}
		return openBytes(ctx, path, data, o, rc)
	}

	var localOpts []blobstore.LocalOption
	if o.backend == BackendFile {
		localOpts = append(localOpts, blobstore.WithoutMmap())
	}

	store := blobstore.NewLocalStore(filepath.Dir(path), localOpts...)
	blob, err := store.Open(ctx, filepath.Base(path))
	if err != nil {
		o.logger.LogOpen(ctx, path, 0, err)
		return nil, err
	}

	return newIndex(ctx, path, blob, blob, nil, o, rc, 0)
}

// OpenStore opens the blob name in store. Compressed blobs, recognized by
// name or by their leading magic bytes, are decompressed into memory. Plain
// blobs are read on demand, through a block cache when WithBlockCache is set.
func OpenStore(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)
	rc := newController(o)

	var bc cache.BlockCache
	if o.blockCacheBytes > 0 {
		bc = cache.NewShardedLRUBlockCache(o.blockCacheBytes, rc)
		store = blobstore.NewCachingStore(store, bc, o.blockSize, blobstore.WithController(rc))
	}

	fail := func(err error) (*Index, error) {
		if bc != nil {
			_ = bc.Close()
		}
		o.logger.LogOpen(ctx, name, 0, err)
		return nil, err
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		return fail(err)
	}

	kind := archive.KindFromName(name)
	if kind == archive.None && blob.Size() >= archive.MagicSize {
		header := make([]byte, archive.MagicSize)
		if _, err := blob.ReadAt(ctx, header, 0); err != nil {
			_ = blob.Close()
			return fail(fmt.Errorf("fuzzgram: read %s: %w", name, err))
		}
		kind = archive.Detect(header)
	}

	if kind == archive.None {
		return newIndex(ctx, name, blob, blob, bc, o, rc, 0)
	}

	data, err := archive.ReadAll(blobstore.NewReader(ctx, blob), kind, memoryLimit(o))
	_ = blob.Close()
	if err != nil {
		return fail(fmt.Errorf("fuzzgram: decompress %s: %w", name, err))
	}
	if bc != nil {
		_ = bc.Close()
	}

	return openBytes(ctx, name, data, o, rc)
}

// OpenSource opens an index over an arbitrary source. The caller keeps
// ownership of src; Close does not close it.
func OpenSource(src trie.Source, optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)
	return newIndex(context.Background(), "", src, nil, nil, o, newController(o), 0)
}

func openBytes(ctx context.Context, name string, data []byte, o options, rc *resource.Controller) (*Index, error) {
	size := int64(len(data))
	if err := rc.AcquireMemory(size); err != nil {
		err = fmt.Errorf("fuzzgram: load %s (%d bytes): %w", name, size, err)
		o.logger.LogOpen(ctx, name, 0, err)
		return nil, err
	}

	store := blobstore.NewMemoryStore()
	_ = store.Put(ctx, name, data)
	blob, err := store.Open(ctx, name)
	if err != nil {
		rc.ReleaseMemory(size)
		return nil, err
	}

	return newIndex(ctx, name, blob, blob, nil, o, rc, size)
}

// readFile loads path into memory, decompressing kind. Nothing larger than
// limit is ever allocated; zero means unbounded.
func readFile(path string, kind archive.Kind, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if kind == archive.None && limit > 0 {
		fi, err := f.Stat()
		if err != nil {
			return nil, err
		}
		if fi.Size() > limit {
			return nil, fmt.Errorf("fuzzgram: load %s (%d bytes): %w", path, fi.Size(), resource.ErrMemoryLimitExceeded)
		}
	}

	data, err := archive.ReadAll(f, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("fuzzgram: read %s: %w", path, err)
	}
	return data, nil
}

func newIndex(ctx context.Context, name string, src trie.Source, closer io.Closer, bc cache.BlockCache, o options, rc *resource.Controller, held int64) (*Index, error) {
	var readerOpts []trie.ReaderOption
	if o.linearScan {
		readerOpts = append(readerOpts, trie.WithLinearScan())
	}

	idx := &Index{
		opts:   o,
		name:   name,
		src:    src,
		closer: closer,
		cache:  bc,
		rc:     rc,
		held:   held,
		size:   src.Size(),
		reader: trie.NewReader(src, readerOpts...),
	}
	if name != "" {
		idx.opts.logger = o.logger.WithIndex(name)
	}

	if err := idx.reader.Check(ctx); err != nil {
		_ = idx.release()
		o.logger.LogOpen(ctx, name, 0, err)
		return nil, err
	}

	o.logger.LogOpen(ctx, name, idx.size, nil)
	return idx, nil
}

func newController(o options) *resource.Controller {
	if o.limits == nil {
		return resource.NewController(resource.Config{})
	}
	return resource.NewController(resource.Config{
		MemoryLimitBytes:      o.limits.MemoryBytes,
		MaxConcurrentSearches: o.limits.MaxConcurrentSearches,
		IOLimitBytesPerSec:    o.limits.IOBytesPerSec,
	})
}

func memoryLimit(o options) int64 {
	if o.limits == nil {
		return 0
	}
	return o.limits.MemoryBytes
}

// Size returns the size of the serialized index in bytes.
func (idx *Index) Size() int64 {
	return idx.size
}

// Search returns the indexed strings whose similarity to query is at least
// threshold, best first. Ties are ordered by ascending id.
func (idx *Index) Search(ctx context.Context, query string, threshold float32, optFns ...SearchOption) ([]Candidate, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	counts, _ := trigram.Extract(query)
	return idx.SearchTrigrams(ctx, counts, threshold, optFns...)
}

// SearchTrigrams is Search for a caller-supplied trigram multiset. Repeated
// trigrams are merged by summing their counts.
func (idx *Index) SearchTrigrams(ctx context.Context, query []trigram.Count, threshold float32, optFns ...SearchOption) (results []Candidate, err error) {
	if err := idx.acquire(); err != nil {
		return nil, err
	}
	defer idx.mu.RUnlock()
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}

	so := searchOptions{}
	for _, fn := range optFns {
		fn(&so)
	}

	distinct, total := mergeCounts(query)

	start := time.Now()
	defer func() {
		idx.opts.metricsCollector.RecordSearch(len(distinct), len(results), time.Since(start), err)
		idx.opts.logger.LogSearch(ctx, len(distinct), len(results), err)
	}()

	if err := idx.rc.AcquireSearch(ctx); err != nil {
		return nil, err
	}
	defer idx.rc.ReleaseSearch()

	postings, err := idx.lookupAll(ctx, distinct)
	if err != nil {
		return nil, err
	}

	return search.Merge(postings, total, search.Options{
		Threshold: threshold,
		Filter:    so.filter,
		Limit:     so.limit,
	}), nil
}

func (idx *Index) lookupAll(ctx context.Context, query []trigram.Count) ([]search.Posting, error) {
	postings := make([]search.Posting, len(query))

	if idx.opts.parallelism <= 1 || len(query) <= 1 {
		for i, q := range query {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			leaves, err := idx.reader.Lookup(ctx, q.Trigram)
			if err != nil {
				return nil, err
			}
			postings[i] = search.Posting{QueryCount: q.Count, Leaves: leaves}
		}
		return postings, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.opts.parallelism)

	for i, q := range query {
		g.Go(func() error {
			leaves, err := idx.reader.Lookup(gctx, q.Trigram)
			if err != nil {
				return err
			}
			postings[i] = search.Posting{QueryCount: q.Count, Leaves: leaves}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return postings, nil
}

// Lookup returns the leaves stored under t, ascending by id.
func (idx *Index) Lookup(ctx context.Context, t trigram.Trigram) (leaves []Leaf, err error) {
	if err := idx.acquire(); err != nil {
		return nil, err
	}
	defer idx.mu.RUnlock()

	start := time.Now()
	defer func() {
		idx.opts.metricsCollector.RecordLookup(len(leaves), time.Since(start), err)
		idx.opts.logger.LogLookup(ctx, t.String(), len(leaves), err)
	}()

	return idx.reader.Lookup(ctx, t)
}

// LookupTrigram is Lookup for a trigram given as a three character string.
// The string is used as is, without normalization.
func (idx *Index) LookupTrigram(ctx context.Context, s string) ([]Leaf, error) {
	t, err := trigram.Parse(s)
	if err != nil {
		return nil, &ErrInvalidTrigram{Input: s, cause: err}
	}
	return idx.Lookup(ctx, t)
}

// acquire read-locks idx for the duration of a read. The caller must
// RUnlock when it returns nil.
func (idx *Index) acquire() error {
	idx.mu.RLock()
	if idx.closed {
		idx.mu.RUnlock()
		return ErrClosed
	}
	return nil
}

// Close releases the index once in-flight reads have returned. It is safe
// to call more than once.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}
	idx.closed = true
	return idx.release()
}

func (idx *Index) release() error {
	var err error
	if idx.closer != nil {
		err = idx.closer.Close()
	}
	if idx.cache != nil {
		if cerr := idx.cache.Close(); err == nil {
			err = cerr
		}
	}
	idx.rc.ReleaseMemory(idx.held)
	idx.held = 0
	return err
}

func validateThreshold(threshold float32) error {
	if math.IsNaN(float64(threshold)) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// mergeCounts folds repeated trigrams and returns the distinct trigrams in
// order of first occurrence together with the total count.
func mergeCounts(query []trigram.Count) ([]trigram.Count, uint32) {
	distinct := make([]trigram.Count, 0, len(query))
	index := make(map[trigram.Trigram]int, len(query))
	var total uint32

	for _, q := range query {
		total += q.Count
		if i, ok := index[q.Trigram]; ok {
			distinct[i].Count += q.Count
			continue
		}
		index[q.Trigram] = len(distinct)
		distinct = append(distinct, q)
	}

	return distinct, total
}
