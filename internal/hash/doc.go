// Package hash provides the CRC32-Castagnoli checksums attached to uploaded
// index blobs. Go's hash/crc32 uses SSE4.2 or the ARM CRC extension when
// available.
//
//	checksum := hash.EncodeBase64(hash.CRC32C(data))
package hash
