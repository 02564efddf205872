// Package archive compresses index files for transport and storage.
//
// A serialized index needs random access, so compressed copies are never
// read in place: they are decompressed in full before use. The compression
// kind is chosen by file extension (".zst", ".lz4") and can be recovered
// from the stream's magic bytes.
package archive
