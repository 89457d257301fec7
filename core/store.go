package casc

import (
	"bufio"
	"bytes"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/casc/internal/blte"
	"github.com/meigma/casc/internal/casctype"
	"github.com/meigma/casc/internal/file"
	"github.com/meigma/casc/internal/index"
	"github.com/meigma/casc/internal/platform"
)

// Entry locates one record in the store's data files.
type Entry = index.Entry

// Sentinel errors re-exported from internal/casctype.
var (
	// ErrUnsupportedFormat is returned when a store file is not in the
	// expected format.
	ErrUnsupportedFormat = casctype.ErrUnsupportedFormat

	// ErrIntegrity is returned when a checksum, digest or declared length
	// does not match the data on disk.
	ErrIntegrity = casctype.ErrIntegrity

	// ErrEntryNotFound is returned when no index entry matches a key.
	ErrEntryNotFound = casctype.ErrEntryNotFound

	// ErrUnknownEncodingMode is returned when a BLTE chunk uses an
	// unsupported mode.
	ErrUnknownEncodingMode = casctype.ErrUnknownEncodingMode

	// ErrSizeOverflow is returned when a record or blob exceeds the
	// configured limits.
	ErrSizeOverflow = casctype.ErrSizeOverflow

	// ErrSymlink is returned when a store file is a symbolic link.
	ErrSymlink = casctype.ErrSymlink
)

const (
	// BucketCount is the number of index buckets in a store.
	BucketCount = index.BucketCount

	// DefaultMaxRecordSize is the default limit on a data-file record (1GB).
	DefaultMaxRecordSize = 1 << 30

	defaultIndexWorkers = 4
)

// Store is an opened CASC store.
type Store struct {
	root    *os.Root
	dir     string
	shmem   *index.SharedMemory
	entries map[casctype.Prefix]Entry
	decoder *blte.Decoder

	decodeWorkers     int
	autoDecodeWorkers bool
	indexWorkers      int
	maxRecordSize     uint64
	maxContentSize    uint64
	maxIndexEntries   uint64
	verifyEntries     bool
	dedup             bool
	readGroup         singleflight.Group // zero value is valid
	logger            *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (s *Store) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// Open opens the store in dir and loads every bucket index named by its
// shmem descriptor. Buckets at version 0 are skipped. When two entries share
// a key prefix, the one loaded last wins: buckets load in ascending order
// and entries in file order.
func Open(dir string, opts ...Option) (*Store, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &Store{
		root:            root,
		dir:             dir,
		decodeWorkers:   1,
		indexWorkers:    defaultIndexWorkers,
		maxRecordSize:   DefaultMaxRecordSize,
		maxContentSize:  blte.DefaultMaxContentSize,
		maxIndexEntries: index.DefaultMaxEntriesSize,
		verifyEntries:   true,
		dedup:           true,
	}
	for _, opt := range opts {
		opt(s)
	}
	workers := blte.WithWorkers(s.decodeWorkers)
	if s.autoDecodeWorkers {
		workers = blte.WithAutoWorkers()
	}
	s.decoder = blte.NewDecoder(workers, blte.WithMaxContentSize(s.maxContentSize))

	if err := s.load(); err != nil {
		_ = root.Close() //nolint:errcheck // load error takes precedence
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	shmem, err := s.readSharedMemory()
	if err != nil {
		return err
	}
	s.shmem = shmem

	// Buckets load concurrently but merge in bucket order so prefix
	// collisions resolve the same way on every open.
	indexes := make([]*index.Index, BucketCount)
	var g errgroup.Group
	g.SetLimit(s.indexWorkers)
	for bucket, version := range shmem.Versions {
		if version == 0 {
			s.log().Debug("bucket skipped", "bucket", bucket)
			continue
		}
		g.Go(func() error {
			idx, err := s.readIndex(bucket, version)
			if err != nil {
				return err
			}
			indexes[bucket] = idx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	total := 0
	for _, idx := range indexes {
		if idx != nil {
			total += len(idx.Entries)
		}
	}
	s.entries = make(map[casctype.Prefix]Entry, total)
	for bucket, idx := range indexes {
		if idx == nil {
			continue
		}
		for _, e := range idx.Entries {
			p, _ := casctype.PrefixOf(e.Key) // key size checked in readIndex
			s.entries[p] = e
		}
		s.log().Debug("index loaded",
			"bucket", bucket,
			"version", shmem.Versions[bucket],
			"entries", len(idx.Entries))
	}

	s.log().Debug("store opened",
		"dir", s.dir,
		"data_path", shmem.DataPath,
		"entries", len(s.entries),
		"free_spaces", len(shmem.FreeSpaces))
	return nil
}

func (s *Store) readSharedMemory() (*index.SharedMemory, error) {
	f, err := platform.OpenFileNoFollow(s.root, index.SharedMemoryName)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", index.SharedMemoryName, err)
	}
	defer f.Close()

	shmem, err := index.ReadSharedMemory(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", index.SharedMemoryName, err)
	}
	return shmem, nil
}

func (s *Store) readIndex(bucket int, version uint32) (*index.Index, error) {
	name := index.FileName(bucket, version)
	f, err := platform.OpenFileNoFollow(s.root, name)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", name, err)
	}
	defer f.Close()

	idx, err := index.ReadIndex(bufio.NewReader(f),
		index.WithEntryTableVerification(s.verifyEntries),
		index.WithMaxEntriesSize(s.maxIndexEntries))
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", name, err)
	}
	if idx.Layout.KeySize < casctype.PrefixSize {
		return nil, fmt.Errorf("%w: index %s stores %d-byte keys", casctype.ErrUnsupportedFormat, name, idx.Layout.KeySize)
	}
	return idx, nil
}

// Get returns the decoded content stored under the encoding key key. Only
// the first nine bytes of key take part in the lookup.
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.read(key, true)
}

// GetEncoded returns the verified record payload stored under key without
// decoding it. The result is a BLTE container.
func (s *Store) GetEncoded(key []byte) ([]byte, error) {
	return s.read(key, false)
}

func (s *Store) read(key []byte, decode bool) ([]byte, error) {
	entry, ok := s.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: key %s", ErrEntryNotFound, casctype.FormatKey(key))
	}
	if !s.dedup {
		return s.readEntry(&entry, decode)
	}

	flight := fmt.Sprintf("%t/%x", decode, key[:casctype.PrefixSize])
	v, err, shared := s.readGroup.Do(flight, func() (any, error) {
		return s.readEntry(&entry, decode)
	})
	if err != nil {
		return nil, err
	}
	content := v.([]byte) //nolint:errcheck // type assertion always succeeds when err is nil
	if shared {
		content = bytes.Clone(content)
	}
	return content, nil
}

func (s *Store) readEntry(entry *Entry, decode bool) ([]byte, error) {
	name := file.Name(entry.File)
	f, err := platform.OpenFileNoFollow(s.root, name)
	if err != nil {
		return nil, fmt.Errorf("open data file %s: %w", name, err)
	}
	defer f.Close()

	payload, err := file.NewReader(f, entry.File, s.maxRecordSize).ReadRecord(entry)
	if err != nil {
		return nil, fmt.Errorf("read %s at %d: %w", name, entry.Offset, err)
	}
	s.log().Debug("record read",
		"key", casctype.FormatKey(entry.Key),
		"file", name,
		"offset", entry.Offset,
		"length", entry.Length)
	if !decode {
		return payload, nil
	}

	content, err := s.decoder.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s at %d: %w", name, entry.Offset, err)
	}
	return content, nil
}

// Lookup returns the index entry for key. ok is false when key is shorter
// than the index prefix or no entry matches.
func (s *Store) Lookup(key []byte) (Entry, bool) {
	p, ok := casctype.PrefixOf(key)
	if !ok {
		return Entry{}, false
	}
	e, ok := s.entries[p]
	return e, ok
}

// Entries returns an iterator over the loaded index entries in no
// particular order.
func (s *Store) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range s.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Len returns the number of distinct key prefixes in the store.
func (s *Store) Len() int {
	return len(s.entries)
}

// Versions returns the index version of each bucket.
func (s *Store) Versions() [BucketCount]uint32 {
	return s.shmem.Versions
}

// DataPath returns the data path recorded in shmem.
func (s *Store) DataPath() string {
	return s.shmem.DataPath
}

// FreeSpaces returns the free space records from shmem.
func (s *Store) FreeSpaces() []Entry {
	return append([]Entry(nil), s.shmem.FreeSpaces...)
}

// Close releases the store directory. Gets after Close fail.
func (s *Store) Close() error {
	return s.root.Close()
}
