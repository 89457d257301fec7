package index

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/meigma/casc/internal/casctype"
	"github.com/meigma/casc/internal/checksum"
)

const (
	// Version is the only index format version understood.
	Version = 7

	// headerSize is the number of header bytes that carry fields.
	headerSize = 16

	// maxHeaderSize bounds the declared header block.
	maxHeaderSize = 1 << 10

	// headerPadding separates the header block from the entry block.
	headerPadding = 8

	// DefaultMaxEntriesSize is the default limit for an entry block (256MB).
	DefaultMaxEntriesSize = 256 << 20
)

// Index is one parsed per-bucket index file.
type Index struct {
	Version uint16
	Bucket  uint16
	Layout  Layout

	// Limit is the archive size limit recorded by the writer.
	Limit uint64

	Entries []Entry
}

type readConfig struct {
	verifyEntries  bool
	maxEntriesSize uint64
}

// ReadOption configures ReadIndex.
type ReadOption func(*readConfig)

// WithEntryTableVerification controls whether the entry block's lookup3 hash
// is checked (default: true). The header hash is always checked.
func WithEntryTableVerification(enabled bool) ReadOption {
	return func(c *readConfig) {
		c.verifyEntries = enabled
	}
}

// WithMaxEntriesSize limits the size of the entry block.
// Set to 0 to disable the limit.
func WithMaxEntriesSize(limit uint64) ReadOption {
	return func(c *readConfig) {
		c.maxEntriesSize = limit
	}
}

// ReadIndex parses a bucket index file.
//
// Both hashes are computed over the raw block bytes as stored, so the header
// is verified before any of its fields are trusted.
func ReadIndex(r io.Reader, opts ...ReadOption) (*Index, error) {
	cfg := readConfig{verifyEntries: true, maxEntriesSize: DefaultMaxEntriesSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	header, err := readHashedBlock(r, "index header", maxHeaderSize, true)
	if err != nil {
		return nil, err
	}
	if len(header) < headerSize {
		return nil, fmt.Errorf("%w: index header is %d bytes", casctype.ErrIntegrity, len(header))
	}

	idx := &Index{
		Version: binary.LittleEndian.Uint16(header[0:]),
		Bucket:  binary.LittleEndian.Uint16(header[2:]),
		Layout: Layout{
			LengthSize:   header[4],
			LocationSize: header[5],
			KeySize:      header[6],
			SegmentBits:  header[7],
		},
		Limit: binary.LittleEndian.Uint64(header[8:]),
	}
	if idx.Version != Version {
		return nil, fmt.Errorf("%w: index version %d", casctype.ErrUnsupportedFormat, idx.Version)
	}
	if err := idx.Layout.Validate(); err != nil {
		return nil, err
	}

	if err := casctype.Skip(r, headerPadding, "index padding"); err != nil {
		return nil, err
	}

	entries, err := readHashedBlock(r, "index entries", cfg.maxEntriesSize, cfg.verifyEntries)
	if err != nil {
		return nil, err
	}

	recordSize := idx.Layout.RecordSize()
	if len(entries)%recordSize != 0 {
		return nil, fmt.Errorf("%w: entry block of %d bytes is not a multiple of %d",
			casctype.ErrIntegrity, len(entries), recordSize)
	}
	idx.Entries = make([]Entry, 0, len(entries)/recordSize)
	for off := 0; off < len(entries); off += recordSize {
		idx.Entries = append(idx.Entries, idx.Layout.DecodeEntry(entries[off:off+recordSize]))
	}
	return idx, nil
}

// readHashedBlock reads a u32 length, a u32 lookup3 hash and the block bytes.
func readHashedBlock(r io.Reader, what string, limit uint64, verify bool) ([]byte, error) {
	var prefix [8]byte
	if err := casctype.ReadFull(r, prefix[:], what); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(prefix[0:])
	want := binary.LittleEndian.Uint32(prefix[4:])
	if limit > 0 && uint64(size) > limit {
		return nil, fmt.Errorf("%w: %s of %d bytes exceeds limit %d", casctype.ErrSizeOverflow, what, size, limit)
	}

	block := make([]byte, size)
	if err := casctype.ReadFull(r, block, what); err != nil {
		return nil, err
	}
	if verify {
		if got := checksum.Hash32(block); got != want {
			return nil, fmt.Errorf("%w: %s hash %#08x, stored %#08x", casctype.ErrIntegrity, what, got, want)
		}
	}
	return block, nil
}

// FileName returns the name of the index file for bucket at version.
func FileName(bucket int, version uint32) string {
	return fmt.Sprintf("%02x%08x.idx", bucket, version)
}
