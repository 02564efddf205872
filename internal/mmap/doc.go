// Package mmap maps index files into memory read-only.
//
// A mapped index file is shared by every reader in the process without being
// copied, and page-cache residency is left to the kernel.
//
//	m, err := mmap.Open("words.trie")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessRandom) // trie lookups jump around the file
//	n, err := m.ReadAt(buf, off)
//
// Unix systems use mmap(2) and madvise(2); Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// A Mapping is safe for concurrent reads. Close is idempotent; reads after
// Close return ErrClosed.
package mmap
