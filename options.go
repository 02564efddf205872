package fuzzgram

import (
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"
	ifs "github.com/hupe1980/fuzzgram/internal/fs"
)

// Backend selects how Open reads a local index file.
type Backend int

const (
	// BackendMmap memory-maps the file. Pages are shared between all
	// indexes opened on the same file.
	BackendMmap Backend = iota
	// BackendFile serves each read with pread on an open file.
	BackendFile
	// BackendMemory reads the whole file into the heap.
	BackendMemory
)

func (b Backend) String() string {
	switch b {
	case BackendMmap:
		return "mmap"
	case BackendFile:
		return "file"
	case BackendMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// ResourceLimits bounds the resources used by an Index.
// Zero values mean unlimited (searches default to GOMAXPROCS).
type ResourceLimits struct {
	// MemoryBytes bounds cached blocks and in-memory index copies.
	MemoryBytes int64
	// MaxConcurrentSearches bounds searches running at once.
	MaxConcurrentSearches int64
	// IOBytesPerSec bounds backend reads of a block-cached store.
	IOBytesPerSec int64
}

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	backend          Backend
	blockCacheBytes  int64
	blockSize        int64
	limits           *ResourceLimits
	parallelism      int
	linearScan       bool
	fs               ifs.FileSystem
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		backend:          BackendMmap,
		parallelism:      1,
		fs:               ifs.Default,
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// Option configures Builder and Index behavior.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel installs a text logger on stderr at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithBackend selects how Open reads local files. Default: BackendMmap.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithBlockCache caches blocks of a store-backed index in a sharded LRU of
// the given capacity. It applies to OpenStore.
func WithBlockCache(capacityBytes int64) Option {
	return func(o *options) {
		o.blockCacheBytes = capacityBytes
	}
}

// WithBlockSize sets the block cache granularity. Default: 4 KiB.
func WithBlockSize(size int64) Option {
	return func(o *options) {
		o.blockSize = size
	}
}

// WithResourceLimits bounds memory, search concurrency and backend IO.
func WithResourceLimits(limits ResourceLimits) Option {
	return func(o *options) {
		o.limits = &limits
	}
}

// WithParallelism looks up up to n query trigrams concurrently.
// Default: 1 (sequential), the best choice for memory-backed indexes.
// Higher values pay off when each read is a network round trip.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = max(n, 1)
	}
}

// WithLinearBranchScan scans branch records in order instead of binary
// searching them, for index files whose branch children are unsorted.
func WithLinearBranchScan() Option {
	return func(o *options) {
		o.linearScan = true
	}
}

// withFileSystem replaces the file system used by WriteFile and Publish.
func withFileSystem(fsys ifs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

type searchOptions struct {
	limit  int
	filter *roaring.Bitmap
}

// SearchOption configures a single search.
type SearchOption func(*searchOptions)

// WithLimit keeps only the best n results. Zero or negative keeps all.
func WithLimit(n int) SearchOption {
	return func(o *searchOptions) {
		o.limit = n
	}
}

// WithFilter restricts results to ids contained in allowed.
// The bitmap must not be modified while the search runs.
func WithFilter(allowed *roaring.Bitmap) SearchOption {
	return func(o *searchOptions) {
		o.filter = allowed
	}
}
