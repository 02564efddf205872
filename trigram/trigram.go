package trigram

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Sentinel pads both ends of a normalized string.
const Sentinel = '$'

// Trigram is a window of three code points.
type Trigram [3]rune

// String returns the trigram as a three character string.
func (t Trigram) String() string {
	return string(t[:])
}

// Count is a distinct trigram and the number of times it occurs in a string.
type Count struct {
	Trigram Trigram
	Count   uint32
}

// Normalize lowercases s and applies Unicode canonical composition (NFC).
func Normalize(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

// Each calls fn for every trigram of s in order. s must already be normalized.
func Each(s string, fn func(Trigram)) {
	if len(s) == 0 {
		fn(Trigram{Sentinel, Sentinel, Sentinel})
		return
	}

	c1, c2 := rune(Sentinel), rune(Sentinel)
	for _, c3 := range s {
		fn(Trigram{c1, c2, c3})
		c1, c2 = c2, c3
	}
	fn(Trigram{c1, c2, Sentinel})
	fn(Trigram{c2, Sentinel, Sentinel})
}

// Extract normalizes s and returns its distinct trigrams with occurrence counts,
// in order of first occurrence, together with the total number of trigrams.
func Extract(s string) ([]Count, uint32) {
	s = Normalize(s)

	counts := make([]Count, 0, utf8.RuneCountInString(s)+2)
	index := make(map[Trigram]int, cap(counts))
	var total uint32

	Each(s, func(t Trigram) {
		total++
		if i, ok := index[t]; ok {
			counts[i].Count++
			return
		}
		index[t] = len(counts)
		counts = append(counts, Count{Trigram: t, Count: 1})
	})

	return counts, total
}

// Parse converts a string of exactly three code points into a Trigram.
// The input is used verbatim, without normalization.
func Parse(s string) (Trigram, error) {
	var t Trigram
	if !utf8.ValidString(s) || utf8.RuneCountInString(s) != 3 {
		return t, fmt.Errorf("trigram: %q is not three characters", s)
	}
	i := 0
	for _, r := range s {
		t[i] = r
		i++
	}
	return t, nil
}

// Saturate caps n at 255.
func Saturate(n uint32) uint8 {
	if n > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(n)
}
