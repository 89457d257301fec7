// Package index parses the local store's lookup structures: the shared
// memory descriptor that names the live version of every bucket, and the
// per-bucket index files that map truncated encoding keys to data-file
// locations.
//
// Both structures are read once when a store is opened and never mutated.
package index
