package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/meigma/casc/internal/casctype"
)

const (
	// BucketCount is the number of index buckets in a store.
	BucketCount = 16

	// SharedMemoryName is the file name of the store's root descriptor.
	SharedMemoryName = "shmem"

	blockTypeHeader    = 4
	blockTypeFreeSpace = 1

	dataPathSize = 0x100

	// pathEnd is the offset just past the data path.
	pathEnd = 8 + dataPathSize

	// MaxFreeSpaces is the fixed capacity of the free space table.
	MaxFreeSpaces = 1090

	freeSpacePadding = 0x18

	// freeSpaceLayout packs free-space records: five location bytes, 30
	// offset bits, no key and no length field.
	freeSpaceLocationSize = 5
	freeSpaceSegmentBits  = 30
)

var freeSpaceLayout = Layout{LocationSize: freeSpaceLocationSize, SegmentBits: freeSpaceSegmentBits}

// SharedMemory is the parsed shmem descriptor of a store.
type SharedMemory struct {
	// DataPath is the data directory recorded by the writer.
	DataPath string

	// Versions holds the live index version of every bucket. A zero version
	// means the bucket has no index.
	Versions [BucketCount]uint32

	// FreeSpaces lists unused data-file spans.
	FreeSpaces []Entry
}

// ReadSharedMemory parses a shmem descriptor.
func ReadSharedMemory(r io.Reader) (*SharedMemory, error) {
	var head [8]byte
	if err := casctype.ReadFull(r, head[:], "shmem header"); err != nil {
		return nil, err
	}
	if t := binary.LittleEndian.Uint32(head[0:]); t != blockTypeHeader {
		return nil, fmt.Errorf("%w: shmem header block type %d", casctype.ErrUnsupportedFormat, t)
	}
	size := binary.LittleEndian.Uint32(head[4:])
	versionsStart := uint64(pathEnd + BucketCount*4)
	if uint64(size) < versionsStart {
		return nil, fmt.Errorf("%w: shmem header size %d", casctype.ErrIntegrity, size)
	}

	var path [dataPathSize]byte
	if err := casctype.ReadFull(r, path[:], "shmem data path"); err != nil {
		return nil, err
	}
	sm := &SharedMemory{DataPath: string(path[:nulIndex(path[:])])}

	// The block between the path and the versions holds u32 pairs that are
	// not needed for reading.
	filler := (uint64(size) - versionsStart) / 8 * 8
	if err := casctype.Skip(r, int64(filler), "shmem filler"); err != nil { //nolint:gosec // bounded by u32
		return nil, err
	}

	var versions [BucketCount * 4]byte
	if err := casctype.ReadFull(r, versions[:], "shmem versions"); err != nil {
		return nil, err
	}
	for i := range sm.Versions {
		sm.Versions[i] = binary.LittleEndian.Uint32(versions[i*4:])
	}

	free, err := readFreeSpaces(r)
	if err != nil {
		return nil, err
	}
	sm.FreeSpaces = free
	return sm, nil
}

// readFreeSpaces reads the free space block: a length table and a location
// table, each padded to MaxFreeSpaces records.
func readFreeSpaces(r io.Reader) ([]Entry, error) {
	var head [8]byte
	if err := casctype.ReadFull(r, head[:], "shmem free space header"); err != nil {
		return nil, err
	}
	if t := binary.LittleEndian.Uint32(head[0:]); t != blockTypeFreeSpace {
		return nil, fmt.Errorf("%w: shmem free space block type %d", casctype.ErrUnsupportedFormat, t)
	}
	count := binary.LittleEndian.Uint32(head[4:])
	if count > MaxFreeSpaces {
		return nil, fmt.Errorf("%w: %d free space records exceed capacity %d", casctype.ErrIntegrity, count, MaxFreeSpaces)
	}
	if err := casctype.Skip(r, freeSpacePadding, "shmem free space padding"); err != nil {
		return nil, err
	}

	recordSize := freeSpaceLayout.RecordSize()
	lengths := make([]byte, int(count)*recordSize)
	if err := casctype.ReadFull(r, lengths, "shmem free space lengths"); err != nil {
		return nil, err
	}
	pad := int64(MaxFreeSpaces-count) * int64(recordSize)
	if err := casctype.Skip(r, pad, "shmem free space lengths"); err != nil {
		return nil, err
	}
	locations := make([]byte, int(count)*recordSize)
	if err := casctype.ReadFull(r, locations, "shmem free space locations"); err != nil {
		return nil, err
	}

	free := make([]Entry, count)
	for i := range free {
		off := i * recordSize
		// Length records reuse the location packing; the span length is the
		// offset field.
		length := freeSpaceLayout.DecodeEntry(lengths[off : off+recordSize])
		loc := freeSpaceLayout.DecodeEntry(locations[off : off+recordSize])
		free[i] = Entry{File: loc.File, Offset: loc.Offset, Length: length.Offset}
	}
	return free, nil
}

func nulIndex(b []byte) int {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return i
	}
	return len(b)
}
