package trie

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt is matched by every error caused by malformed index bytes.
	ErrCorrupt = errors.New("trie: corrupt index")

	// ErrInvariant reports a tree that violates the fixed-depth shape, for
	// example an empty child list or leaves above the third level.
	ErrInvariant = errors.New("trie: invariant violation")

	// ErrTooLarge is returned when a record offset does not fit in 32 bits.
	ErrTooLarge = errors.New("trie: index exceeds the 32-bit offset range")
)

// FormatError describes malformed index bytes at a file offset.
// It satisfies errors.Is(err, ErrCorrupt).
type FormatError struct {
	Offset int64
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("trie: corrupt index at offset %d: %s", e.Offset, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrCorrupt }
