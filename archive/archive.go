package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Kind identifies a compression format.
type Kind uint8

const (
	// None stores data as is.
	None Kind = iota
	// Zstd is Zstandard framing (better ratio, good for cold storage).
	Zstd
	// LZ4 is LZ4 framing (fast, good for hot paths).
	LZ4
)

var (
	// ErrUnknownKind is returned for an unsupported Kind.
	ErrUnknownKind = errors.New("archive: unknown compression kind")
	// ErrTooLarge is returned when decompressed data exceeds the caller's limit.
	ErrTooLarge = errors.New("archive: decompressed data exceeds limit")
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Ext returns the file extension for k, including the dot.
func (k Kind) Ext() string {
	switch k {
	case Zstd:
		return ".zst"
	case LZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseKind parses a kind name as returned by String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "zstd", "zst":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// KindFromName returns the kind implied by name's extension.
func KindFromName(name string) Kind {
	switch strings.ToLower(path.Ext(name)) {
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// MagicSize is the number of leading bytes Detect inspects.
const MagicSize = 4

// Detect returns the kind whose frame magic prefixes header.
func Detect(header []byte) Kind {
	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return Zstd
	case bytes.HasPrefix(header, lz4Magic):
		return LZ4
	default:
		return None
	}
}

// Level trades speed for ratio. Zero selects each format's default.
type Level int

const (
	LevelDefault Level = iota
	LevelFastest
	LevelBest
)

// NewWriter returns a writer compressing into w. Close flushes the frame
// but does not close w.
func NewWriter(w io.Writer, kind Kind, level Level) (io.WriteCloser, error) {
	switch kind {
	case None:
		return nopWriteCloser{w}, nil
	case Zstd:
		zl := zstd.SpeedDefault
		switch level {
		case LevelFastest:
			zl = zstd.SpeedFastest
		case LevelBest:
			zl = zstd.SpeedBestCompression
		}
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zl))
	case LZ4:
		lw := lz4.NewWriter(w)
		ll := lz4.Fast
		switch level {
		case LevelDefault:
			ll = lz4.Level5
		case LevelBest:
			ll = lz4.Level9
		}
		if err := lw.Apply(lz4.CompressionLevelOption(ll)); err != nil {
			return nil, err
		}
		return lw, nil
	default:
		return nil, ErrUnknownKind
	}
}

// NewReader returns a reader decompressing r.
func NewReader(r io.Reader, kind Kind) (io.ReadCloser, error) {
	switch kind {
	case None:
		return io.NopCloser(r), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, ErrUnknownKind
	}
}

// Compress copies r into w compressed with kind and returns the number of
// uncompressed bytes read.
func Compress(w io.Writer, r io.Reader, kind Kind, level Level) (int64, error) {
	cw, err := NewWriter(w, kind, level)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(cw, r)
	if err != nil {
		_ = cw.Close()
		return n, err
	}
	return n, cw.Close()
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		return dec
	},
}

// Decompress decodes a complete compressed payload. limit bounds the
// decompressed size; zero means unbounded.
func Decompress(data []byte, kind Kind, limit int64) ([]byte, error) {
	switch kind {
	case None:
		if limit > 0 && int64(len(data)) > limit {
			return nil, ErrTooLarge
		}
		return data, nil
	case Zstd:
		if limit > 0 {
			// Stream so that no more than limit+1 bytes are ever produced.
			dec, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderConcurrency(1))
			if err != nil {
				return nil, err
			}
			defer dec.Close()
			return readLimited(dec, limit)
		}
		dec := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(dec)
		return dec.DecodeAll(data, nil)
	case LZ4:
		return readLimited(lz4.NewReader(bytes.NewReader(data)), limit)
	default:
		return nil, ErrUnknownKind
	}
}

// ReadAll decompresses r in full, failing with ErrTooLarge past limit bytes
// (zero means unbounded).
func ReadAll(r io.Reader, kind Kind, limit int64) ([]byte, error) {
	rc, err := NewReader(r, kind)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readLimited(rc, limit)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, ErrTooLarge
	}
	return out, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
