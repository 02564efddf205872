// Package trie builds, serializes and reads the three-level trigram trie.
//
// In memory the trie is a tree of Branch nodes keyed by one code point each.
// The children of a node are either Branches (depth 0..2) or Leaves (below the
// third character); the two cases are distinct types, so a node can never hold
// a mix of both. Branch children are kept sorted by code point and leaves are
// kept sorted by id.
//
// # File Format
//
// All integers are big-endian. The root record starts at offset 0.
//
//	Record       := BranchRecord | LeafRecord
//	BranchRecord := 0x01 count:u32 count*{char:u32 offset:u32}
//	LeafRecord   := 0x02 count:u32 count*{id:u32 count:u8 total:u8}
//
// Child offsets are absolute. There is no header or version field.
//
// # Thread Safety
//
// Builder is not safe for concurrent use. Reader performs positioned reads
// only and is safe for concurrent lookups.
package trie
