package trie

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/hupe1980/fuzzgram/trigram"
)

// slotTableReadLimit is the largest branch slot table read in one call.
// Larger tables are binary searched with one read per probe.
const slotTableReadLimit = 4096

// Source is a random-access byte source holding a serialized trie.
type Source interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	Size() int64
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLinearScan makes the reader scan branch slots in order instead of
// binary searching them. Use it for files whose branch children are not
// sorted by code point.
func WithLinearScan() ReaderOption {
	return func(r *Reader) {
		r.linear = true
	}
}

// Reader looks up trigrams in a serialized trie.
type Reader struct {
	src    Source
	linear bool
}

// NewReader returns a Reader over src.
func NewReader(src Source, optFns ...ReaderOption) *Reader {
	r := &Reader{src: src}
	for _, fn := range optFns {
		fn(r)
	}
	return r
}

// Lookup returns the leaves stored under t, ascending by id. A trigram that is
// not present yields an empty result and no error.
func (r *Reader) Lookup(ctx context.Context, t trigram.Trigram) ([]Leaf, error) {
	var off int64

	for depth, c := range t {
		tag, count, err := r.header(ctx, off)
		if err != nil {
			return nil, err
		}
		if tag != tagBranch {
			return nil, &FormatError{Offset: off, Reason: fmt.Sprintf("expected branch record at depth %d, found tag %d", depth, tag)}
		}

		child, found, err := r.findChild(ctx, off+headerSize, count, uint32(c))
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		off = int64(child)
	}

	tag, count, err := r.header(ctx, off)
	if err != nil {
		return nil, err
	}
	if tag != tagLeaf {
		return nil, &FormatError{Offset: off, Reason: fmt.Sprintf("expected leaf record, found tag %d", tag)}
	}

	buf, err := r.read(ctx, off+headerSize, int64(count)*leafSize)
	if err != nil {
		return nil, err
	}

	leaves := make([]Leaf, count)
	for i := range leaves {
		rec := buf[i*leafSize:]
		leaves[i] = Leaf{
			ID:          binary.BigEndian.Uint32(rec[0:4]),
			Count:       rec[4],
			TotalNgrams: rec[5],
		}
	}

	return leaves, nil
}

// Check verifies that the source starts with a branch record whose slot
// table fits in the source. It is cheap and catches files that are not
// indexes at all.
func (r *Reader) Check(ctx context.Context) error {
	tag, count, err := r.header(ctx, 0)
	if err != nil {
		return err
	}
	if tag != tagBranch {
		return &FormatError{Offset: 0, Reason: fmt.Sprintf("expected root branch record, found tag %d", tag)}
	}
	return r.check(headerSize, int64(count)*branchSlotSize)
}

func (r *Reader) header(ctx context.Context, off int64) (byte, uint32, error) {
	buf, err := r.read(ctx, off, headerSize)
	if err != nil {
		return 0, 0, err
	}
	return buf[0], binary.BigEndian.Uint32(buf[1:]), nil
}

// findChild locates the slot for c in the branch slot table at off.
func (r *Reader) findChild(ctx context.Context, off int64, count uint32, c uint32) (uint32, bool, error) {
	tableSize := int64(count) * branchSlotSize
	if err := r.check(off, tableSize); err != nil {
		return 0, false, err
	}

	if r.linear || tableSize <= slotTableReadLimit {
		table, err := r.read(ctx, off, tableSize)
		if err != nil {
			return 0, false, err
		}
		slot := func(i int) []byte { return table[i*branchSlotSize:] }

		if r.linear {
			for i := 0; i < int(count); i++ {
				if s := slot(i); binary.BigEndian.Uint32(s) == c {
					return binary.BigEndian.Uint32(s[4:]), true, nil
				}
			}
			return 0, false, nil
		}

		i := sort.Search(int(count), func(i int) bool { return binary.BigEndian.Uint32(slot(i)) >= c })
		if i < int(count) {
			if s := slot(i); binary.BigEndian.Uint32(s) == c {
				return binary.BigEndian.Uint32(s[4:]), true, nil
			}
		}
		return 0, false, nil
	}

	lo, hi := int64(0), int64(count)
	for lo < hi {
		mid := lo + (hi-lo)/2
		s, err := r.read(ctx, off+mid*branchSlotSize, branchSlotSize)
		if err != nil {
			return 0, false, err
		}
		switch got := binary.BigEndian.Uint32(s); {
		case got == c:
			return binary.BigEndian.Uint32(s[4:]), true, nil
		case got < c:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false, nil
}

// check reports a truncated record if [off, off+n) is outside the source.
func (r *Reader) check(off, n int64) error {
	if off < 0 || n < 0 || off+n > r.src.Size() {
		return &FormatError{Offset: off, Reason: fmt.Sprintf("truncated record: need %d bytes, source has %d", n, r.src.Size()-off)}
	}
	return nil
}

func (r *Reader) read(ctx context.Context, off, n int64) ([]byte, error) {
	if err := r.check(off, n); err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	got, err := r.src.ReadAt(ctx, buf, off)
	if int64(got) == n {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, &FormatError{Offset: off, Reason: fmt.Sprintf("truncated record: read %d of %d bytes", got, n)}
	}
	return nil, fmt.Errorf("trie: read %d bytes at offset %d: %w", n, off, err)
}
