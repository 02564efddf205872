package trie

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/fuzzgram/internal/conv"
)

// Write serializes the trie rooted at root to w and returns the offset of the
// root record.
//
// Records are always appended at the end of w. A branch record reserves one
// zeroed slot per child, then each child subtree is appended and its slot is
// patched in place with the child's offset. w must therefore support seeking
// backwards as well as appending.
func Write(w io.WriteSeeker, root Children) (int64, error) {
	s, err := newSink(w)
	if err != nil {
		return 0, err
	}

	off, err := writeNode(s, root)
	if err != nil {
		return 0, err
	}

	if err := s.flush(); err != nil {
		return 0, err
	}

	return off, nil
}

// Write serializes the builder's trie to w. See the package-level Write.
func (b *Builder) Write(w io.WriteSeeker) (int64, error) {
	return Write(w, b.root)
}

func writeNode(s *sink, children Children) (int64, error) {
	if children == nil || children.Len() == 0 {
		return 0, fmt.Errorf("%w: cannot serialize an empty node", ErrInvariant)
	}
	count, err := conv.IntToUint32(children.Len())
	if err != nil {
		return 0, fmt.Errorf("%w: children: %w", ErrTooLarge, err)
	}

	pos, err := s.end()
	if err != nil {
		return 0, err
	}
	if _, err := conv.Int64ToUint32(pos); err != nil {
		return 0, fmt.Errorf("%w: record offset: %w", ErrTooLarge, err)
	}

	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[1:], count)

	switch c := children.(type) {
	case Branches:
		hdr[0] = tagBranch
		if err := s.append(hdr[:]); err != nil {
			return 0, err
		}

		start := pos + headerSize
		if err := s.append(make([]byte, branchSlotSize*len(c))); err != nil {
			return 0, err
		}

		var slot [branchSlotSize]byte
		for i, br := range c {
			childPos, err := writeNode(s, br.Children)
			if err != nil {
				return 0, err
			}

			binary.BigEndian.PutUint32(slot[0:4], br.Char)
			binary.BigEndian.PutUint32(slot[4:8], uint32(childPos))
			if err := s.patch(start+int64(branchSlotSize*i), slot[:]); err != nil {
				return 0, err
			}
		}

	case Leaves:
		hdr[0] = tagLeaf
		if err := s.append(hdr[:]); err != nil {
			return 0, err
		}

		var rec [leafSize]byte
		for _, l := range c {
			binary.BigEndian.PutUint32(rec[0:4], l.ID)
			rec[4] = l.Count
			rec[5] = l.TotalNgrams
			if err := s.append(rec[:]); err != nil {
				return 0, err
			}
		}

	default:
		return 0, fmt.Errorf("%w: unknown node type %T", ErrInvariant, children)
	}

	return pos, nil
}

// sink buffers appends and flushes them before every backward patch.
type sink struct {
	w     io.WriteSeeker
	buf   *bufio.Writer
	size  int64 // logical end of stream, including buffered bytes
	atEnd bool
}

func newSink(w io.WriteSeeker) (*sink, error) {
	size, err := w.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("trie: seek to end: %w", err)
	}
	return &sink{
		w:     w,
		buf:   bufio.NewWriterSize(w, 64*1024),
		size:  size,
		atEnd: true,
	}, nil
}

// end positions the stream for appending and returns the append offset.
func (s *sink) end() (int64, error) {
	if !s.atEnd {
		if _, err := s.w.Seek(s.size, io.SeekStart); err != nil {
			return 0, fmt.Errorf("trie: seek to end: %w", err)
		}
		s.atEnd = true
	}
	return s.size, nil
}

func (s *sink) append(p []byte) error {
	if _, err := s.end(); err != nil {
		return err
	}
	if _, err := s.buf.Write(p); err != nil {
		return fmt.Errorf("trie: write: %w", err)
	}
	s.size += int64(len(p))
	return nil
}

func (s *sink) patch(off int64, p []byte) error {
	if err := s.flush(); err != nil {
		return err
	}
	if _, err := s.w.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("trie: seek to %d: %w", off, err)
	}
	s.atEnd = false
	if _, err := s.w.Write(p); err != nil {
		return fmt.Errorf("trie: patch at %d: %w", off, err)
	}
	return nil
}

func (s *sink) flush() error {
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("trie: flush: %w", err)
	}
	return nil
}
