// Package resource implements the Controller for shared limits.
//
// The Controller governs three resource types:
//
//   - Memory: bytes held by block caches and in-memory index copies
//     (non-blocking, fail-fast)
//   - Concurrency: searches running at once
//   - IO: read throughput against remote blob stores (token bucket)
//
// # Memory Management
//
// AcquireMemory is non-blocking and returns ErrMemoryLimitExceeded if the
// limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 256 << 20,
//	})
//
//	if err := rc.AcquireMemory(int64(len(data))); err != nil {
//	    // serve from the backend instead of caching
//	}
//	defer rc.ReleaseMemory(int64(len(data)))
//
// # Search Slots
//
//	if err := rc.AcquireSearch(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseSearch()
//
// # IO Rate Limiting
//
//	if err := rc.AcquireIO(ctx, len(p)); err != nil {
//	    return err
//	}
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
