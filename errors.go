package fuzzgram

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fuzzgram/trie"
)

var (
	// ErrCorruptIndex is matched by every error caused by malformed index
	// bytes. It is trie.ErrCorrupt.
	ErrCorruptIndex = trie.ErrCorrupt

	// ErrEmptyIndex is returned when writing a builder that holds no strings.
	ErrEmptyIndex = errors.New("fuzzgram: index is empty")

	// ErrDuplicateID is returned by Builder.Add for an id added before.
	ErrDuplicateID = errors.New("fuzzgram: duplicate id")

	// ErrClosed is returned when using a closed Index or a Builder that was
	// already written.
	ErrClosed = errors.New("fuzzgram: closed")

	// ErrSinkNotEmpty is returned when the write target already holds data;
	// the root record must start at offset 0.
	ErrSinkNotEmpty = errors.New("fuzzgram: sink is not empty")

	// ErrInvalidThreshold is returned for thresholds outside [0, 1].
	ErrInvalidThreshold = errors.New("fuzzgram: threshold must be within [0, 1]")
)

// ErrInvalidTrigram indicates a string that is not exactly three characters.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidTrigram struct {
	Input string
	cause error
}

func (e *ErrInvalidTrigram) Error() string {
	return fmt.Sprintf("fuzzgram: invalid trigram %q", e.Input)
}

func (e *ErrInvalidTrigram) Unwrap() error { return e.cause }
