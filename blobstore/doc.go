// Package blobstore provides storage abstraction for fuzzgram index files.
//
// An index is written once and then only read, so a store deals in
// immutable blobs: Create or Put publishes one, Open returns a handle that
// serves positioned reads. A Blob satisfies trie.Source, so lookups read
// only the nodes they visit.
//
// # Built-in Implementations
//
//   - LocalStore: local file system, memory-mapped or plain file reads
//   - MemoryStore: in-process, for tests
//   - CachingStore: wraps any store with a block cache
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// Remote stores are best wrapped in a CachingStore: a lookup issues a few
// small reads per trie level, and the upper levels are shared by every
// query.
package blobstore
