// Package file reads records out of data.NNN files.
//
// Every record starts with a fixed header carrying a lookup3 hash of its
// leading bytes and a position-dependent checksum. Both are verified before
// any payload byte is returned.
package file

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/casc/internal/casctype"
	"github.com/meigma/casc/internal/checksum"
	"github.com/meigma/casc/internal/index"
	"github.com/meigma/casc/internal/sizing"
)

const (
	// HeaderSize is the size of a record header.
	HeaderSize = 30

	keySize      = 16
	hashedSize   = 22
	checksumSize = 26
)

// Header is a decoded record header.
type Header struct {
	// Key is the stored key, which data files keep byte-reversed.
	Key [keySize]byte

	// Length is the record length, header included.
	Length uint32

	Flags    uint16
	Hash     uint32
	Checksum uint32
}

// Reader reads records from a single data file.
type Reader struct {
	source        io.ReaderAt
	file          uint64
	maxRecordSize uint64
}

// NewReader creates a Reader over the data file with id file.
// A maxRecordSize of 0 disables the record size limit.
func NewReader(source io.ReaderAt, file, maxRecordSize uint64) *Reader {
	return &Reader{
		source:        source,
		file:          file,
		maxRecordSize: maxRecordSize,
	}
}

// ReadHeader reads and verifies the header of the record entry points at.
func (r *Reader) ReadHeader(entry *index.Entry) (*Header, error) {
	if entry.File != r.file {
		return nil, fmt.Errorf("read record: entry is in data file %d, reader has %d", entry.File, r.file)
	}
	if entry.Length < HeaderSize {
		return nil, fmt.Errorf("%w: record length %d shorter than header", casctype.ErrIntegrity, entry.Length)
	}
	if r.maxRecordSize > 0 && entry.Length > r.maxRecordSize {
		return nil, fmt.Errorf("%w: record length %d exceeds limit %d", casctype.ErrSizeOverflow, entry.Length, r.maxRecordSize)
	}
	off, err := sizing.ToInt64(entry.Offset, casctype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}

	var buf [HeaderSize]byte
	if err := readAt(r.source, buf[:], off, "record header"); err != nil {
		return nil, err
	}

	h := &Header{
		Length:   binary.LittleEndian.Uint32(buf[16:]),
		Flags:    binary.LittleEndian.Uint16(buf[20:]),
		Hash:     binary.LittleEndian.Uint32(buf[22:]),
		Checksum: binary.LittleEndian.Uint32(buf[26:]),
	}
	copy(h.Key[:], buf[:keySize])

	if uint64(h.Length) != entry.Length {
		return nil, fmt.Errorf("%w: record declares %d bytes, index says %d", casctype.ErrIntegrity, h.Length, entry.Length)
	}
	if sum := checksum.Hash32Seed(buf[:hashedSize], checksum.RecordSeed); sum != h.Hash {
		return nil, fmt.Errorf("%w: record header hash %08x, stored %08x", casctype.ErrIntegrity, sum, h.Hash)
	}
	if sum := checksum.Record(buf[:checksumSize], entry.File, entry.Offset); sum != h.Checksum {
		return nil, fmt.Errorf("%w: record checksum %08x, stored %08x", casctype.ErrIntegrity, sum, h.Checksum)
	}
	return h, nil
}

// ReadRecord verifies the record header and returns the payload that
// follows it.
func (r *Reader) ReadRecord(entry *index.Entry) ([]byte, error) {
	if _, err := r.ReadHeader(entry); err != nil {
		return nil, err
	}

	size, err := sizing.ToInt(entry.Length-HeaderSize, casctype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	off, err := sizing.ToInt64(entry.Offset+HeaderSize, casctype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, size)
	if err := readAt(r.source, payload, off, "record payload"); err != nil {
		return nil, err
	}
	return payload, nil
}

// Name returns the file name of the data file with id.
func Name(id uint64) string {
	return fmt.Sprintf("data.%03d", id)
}

func readAt(src io.ReaderAt, p []byte, off int64, what string) error {
	n, err := src.ReadAt(p, off)
	if errors.Is(err, io.EOF) && n == len(p) {
		err = nil
	}
	if err != nil {
		return casctype.WrapRead(what, err)
	}
	return nil
}
