// Package casc reads blobs from a local CASC store.
//
// A store directory holds a shmem descriptor naming the current version of
// each of the 16 index buckets, the bucket index files themselves, and
// numbered data files. Open loads every index into memory once; after that
// the Store is immutable and safe for concurrent use.
//
// Each Get is a self-contained read: it opens the data file, verifies the
// record header checksums, verifies and decodes the BLTE payload, and
// closes the file again. Nothing is cached between calls, so a record that
// fails verification keeps failing until the file on disk changes.
package casc
