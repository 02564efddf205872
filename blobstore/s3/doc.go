// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("indexes/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	idx, err := fuzzgram.OpenStore(ctx, store, "words.trie")
//
// # Features
//
//   - Range reads, so a lookup fetches only the trie nodes it visits
//   - Multipart uploads for large indexes
//   - CRC32C checksums on single-shot puts
//   - Automatic pagination for listing
package s3
