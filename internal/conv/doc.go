// Package conv provides checked integer conversions.
//
// The index format stores counts and offsets as 32-bit values; these helpers
// reject anything that would silently truncate.
package conv
