package archive

import (
	"bytes"
	"io"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromName(t *testing.T) {
	assert.Equal(t, Zstd, KindFromName("words.trie.zst"))
	assert.Equal(t, Zstd, KindFromName("dir/WORDS.TRIE.ZSTD"))
	assert.Equal(t, LZ4, KindFromName("words.trie.lz4"))
	assert.Equal(t, None, KindFromName("words.trie"))
	assert.Equal(t, None, KindFromName(""))
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{None, Zstd, LZ4} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("gzip")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("\x01\x00\x00\x00\x03spam ham hammock ", 500))

	for _, kind := range []Kind{None, Zstd, LZ4} {
		for _, level := range []Level{LevelDefault, LevelFastest, LevelBest} {
			t.Run(kind.String(), func(t *testing.T) {
				var buf bytes.Buffer
				n, err := Compress(&buf, bytes.NewReader(payload), kind, level)
				require.NoError(t, err)
				assert.Equal(t, int64(len(payload)), n)

				if kind != None {
					assert.Less(t, buf.Len(), len(payload))
					assert.Equal(t, kind, Detect(buf.Bytes()))
				}

				got, err := Decompress(buf.Bytes(), kind, 0)
				require.NoError(t, err)
				assert.Equal(t, payload, got)

				got, err = ReadAll(bytes.NewReader(buf.Bytes()), kind, 0)
				require.NoError(t, err)
				assert.Equal(t, payload, got)
			})
		}
	}
}

func TestLimit(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, 10_000)

	for _, kind := range []Kind{None, Zstd, LZ4} {
		var buf bytes.Buffer
		_, err := Compress(&buf, bytes.NewReader(payload), kind, LevelDefault)
		require.NoError(t, err)

		_, err = Decompress(buf.Bytes(), kind, 100)
		assert.ErrorIs(t, err, ErrTooLarge, kind.String())

		_, err = ReadAll(bytes.NewReader(buf.Bytes()), kind, 100)
		assert.ErrorIs(t, err, ErrTooLarge, kind.String())

		got, err := ReadAll(bytes.NewReader(buf.Bytes()), kind, int64(len(payload)))
		require.NoError(t, err)
		assert.Len(t, got, len(payload))
	}
}

func TestLimit_CompressionBomb(t *testing.T) {
	const size = 64 << 20

	for _, kind := range []Kind{Zstd, LZ4} {
		t.Run(kind.String(), func(t *testing.T) {
			var buf bytes.Buffer
			_, err := Compress(&buf, io.LimitReader(zeros{}, size), kind, LevelFastest)
			require.NoError(t, err)
			require.Less(t, buf.Len(), 1<<20)

			var before, after runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&before)

			_, err = Decompress(buf.Bytes(), kind, 1<<20)
			require.ErrorIs(t, err, ErrTooLarge)

			runtime.ReadMemStats(&after)
			assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(size/2),
				"decoding stops near the limit")
		})
	}
}

type zeros struct{}

func (zeros) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestDetect(t *testing.T) {
	// A serialized trie starts with the branch tag.
	assert.Equal(t, None, Detect([]byte{0x01, 0x00, 0x00, 0x00}))
	assert.Equal(t, None, Detect(nil))
}

func TestCorruptInput(t *testing.T) {
	_, err := Decompress([]byte{0x28, 0xb5, 0x2f, 0xfd, 0xff, 0xff}, Zstd, 0)
	assert.Error(t, err)

	_, err = NewWriter(&bytes.Buffer{}, Kind(42), LevelDefault)
	assert.ErrorIs(t, err, ErrUnknownKind)
}
