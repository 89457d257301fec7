package casc

import "log/slog"

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithDecodeWorkers sets how many BLTE chunks of one blob may decode
// concurrently (default: 1).
// Values < 1 are treated as 1.
func WithDecodeWorkers(n int) Option {
	return func(s *Store) {
		if n < 1 {
			n = 1
		}
		s.decodeWorkers = n
	}
}

// WithAutoDecodeWorkers sizes the BLTE decode worker count from GOMAXPROCS,
// overriding WithDecodeWorkers.
func WithAutoDecodeWorkers() Option {
	return func(s *Store) {
		s.autoDecodeWorkers = true
	}
}

// WithIndexWorkers sets how many bucket index files Open reads concurrently
// (default: 4).
// Values < 1 are treated as 1.
func WithIndexWorkers(n int) Option {
	return func(s *Store) {
		if n < 1 {
			n = 1
		}
		s.indexWorkers = n
	}
}

// WithMaxRecordSize limits the size of a single data-file record.
// Set limit to 0 to disable the limit.
func WithMaxRecordSize(limit uint64) Option {
	return func(s *Store) {
		s.maxRecordSize = limit
	}
}

// WithMaxIndexEntriesSize limits the entry block of a single index file.
// Set limit to 0 to disable the limit.
func WithMaxIndexEntriesSize(limit uint64) Option {
	return func(s *Store) {
		s.maxIndexEntries = limit
	}
}

// WithMaxContentSize limits the decoded size of a single blob.
// Set limit to 0 to disable the limit.
func WithMaxContentSize(limit uint64) Option {
	return func(s *Store) {
		s.maxContentSize = limit
	}
}

// WithEntryTableVerification controls whether the lookup3 hash over each
// index file's entry block is checked (default: true). Index headers and
// data-file records are always verified.
func WithEntryTableVerification(enabled bool) Option {
	return func(s *Store) {
		s.verifyEntries = enabled
	}
}

// WithReadDedup controls whether concurrent Gets of the same key share one
// read of the data file (default: true). Every caller still receives its
// own copy of the content.
func WithReadDedup(enabled bool) Option {
	return func(s *Store) {
		s.dedup = enabled
	}
}
