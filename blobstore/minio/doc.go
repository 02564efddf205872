// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible servers such as Ceph, Garage
// and SeaweedFS, without pulling in the AWS SDK.
//
//	store, err := minioblob.Dial("localhost:9000", "minioadmin", "minioadmin", false, "indexes", "words/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	idx, err := fuzzgram.OpenStore(ctx, store, "words.trie")
package minio
