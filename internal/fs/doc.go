// Package fs abstracts the file operations used to write index files.
//
//   - [LocalFS]: the os package
//   - [FaultyFS]: wraps a FileSystem and injects write, seek, sync, close and
//     rename failures for tests
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.CreateTemp(dir, ".words.trie-*")
//
// Tests inject a FaultyFS:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".trie", fs.Fault{FailAfterBytes: 64})
//
// Operations take no context: local file calls are not interruptible. Remote
// storage goes through blobstore, which does.
package fs
