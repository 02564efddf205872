package cache

import "context"

// CacheKey identifies an immutable block of an index blob.
type CacheKey struct {
	// Path is the blob name within its store.
	Path string
	// Offset is the block-aligned byte offset within the blob.
	Offset int64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a block. Implementations may retain b; callers must treat it
	// as immutable.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	Close() error
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}
