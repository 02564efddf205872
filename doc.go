// Package fuzzgram provides fuzzy string lookup over a compact on-disk
// trigram index.
//
// Each indexed string is broken into overlapping three-character windows
// (trigrams) after lowercasing and NFC normalization. The index maps every
// trigram to the ids of the strings containing it. A query is scored
// against each candidate with a weighted Jaccard coefficient over trigram
// multisets, so near matches rank high even with typos or reordered
// fragments.
//
// # Quick Start
//
// Build once:
//
//	b := fuzzgram.NewBuilder()
//	_ = b.Add("spam", 1)
//	_ = b.Add("ham", 2)
//	_ = b.Add("hammock", 3)
//	_ = b.WriteFile("words.trie")
//
// Query many times:
//
//	idx, _ := fuzzgram.Open("words.trie")
//	defer idx.Close()
//	hits, _ := idx.Search(ctx, "ham", 0.3)
//	for _, h := range hits {
//	    fmt.Println(h.ID, h.Score)
//	}
//
// # Remote Indexes
//
// Indexes can be published to and served from any blobstore.BlobStore:
//
//	_ = b.Publish(ctx, s3Store, "words.trie.zst")
//	idx, _ := fuzzgram.OpenStore(ctx, s3Store, "words.trie", fuzzgram.WithBlockCache(64<<20))
//
// Plain blobs are read with ranged reads, so a lookup only fetches the trie
// nodes it visits. Compressed blobs (".zst", ".lz4") are decompressed into
// memory on open.
//
// # Concurrency
//
// A Builder is not safe for concurrent use. An Index is: every lookup reads
// at explicit offsets and keeps no cursor.
//
// # File Format
//
// All integers are big-endian and the root record starts at offset 0:
//
//	Branch := 0x01, count u32, count × { char u32, child_offset u32 }
//	Leaf   := 0x02, count u32, count × { id u32, count u8, total_ngrams u8 }
//
// There is no header or version field.
package fuzzgram
