package index

import (
	"encoding/binary"
	"fmt"

	"github.com/meigma/casc/internal/casctype"
)

// maxFieldSize is the widest integer field a record may declare.
const maxFieldSize = 8

// Entry locates one stored record.
type Entry struct {
	// Key is the (possibly truncated) encoding key. It aliases the index
	// buffer and must be treated as immutable.
	Key []byte

	// File is the numeric id of the data.NNN file holding the record.
	File uint64

	// Offset is the byte offset of the record within the data file.
	Offset uint64

	// Length is the record size in bytes, header included.
	Length uint64
}

// Layout describes the field widths of a packed entry record.
type Layout struct {
	LengthSize   uint8
	LocationSize uint8
	KeySize      uint8
	SegmentBits  uint8
}

// RecordSize returns the size in bytes of one packed record.
func (l Layout) RecordSize() int {
	return int(l.LengthSize) + int(l.LocationSize) + int(l.KeySize)
}

// offsetSize is the number of location bytes the offset field spills into.
func (l Layout) offsetSize() uint8 {
	return uint8((uint16(l.SegmentBits) + 7) / 8) //nolint:gosec // at most 32
}

// Validate reports whether the widths describe a decodable record.
func (l Layout) Validate() error {
	if l.LocationSize > maxFieldSize || l.LengthSize > maxFieldSize {
		return fmt.Errorf("%w: field width exceeds %d bytes (location %d, length %d)",
			casctype.ErrUnsupportedFormat, maxFieldSize, l.LocationSize, l.LengthSize)
	}
	if l.offsetSize() > l.LocationSize {
		return fmt.Errorf("%w: %d segment bits do not fit %d location bytes",
			casctype.ErrUnsupportedFormat, l.SegmentBits, l.LocationSize)
	}
	if l.RecordSize() == 0 {
		return fmt.Errorf("%w: empty record layout", casctype.ErrUnsupportedFormat)
	}
	return nil
}

// DecodeEntry decodes one packed record: key, big-endian location, then
// little-endian length. b must hold at least RecordSize bytes and the layout
// must be valid.
func (l Layout) DecodeEntry(b []byte) Entry {
	key := b[:l.KeySize:l.KeySize]
	b = b[l.KeySize:]
	file, offset := l.decodeLocation(b[:l.LocationSize])
	b = b[l.LocationSize:]
	return Entry{
		Key:    key,
		File:   file,
		Offset: offset,
		Length: uintLE(b[:l.LengthSize]),
	}
}

// decodeLocation splits a packed location into file id and offset.
//
// The location is a big-endian integer whose low SegmentBits bits are the
// offset. The offset bytes carry extra high bits that belong to the file id.
func (l Layout) decodeLocation(b []byte) (file, offset uint64) {
	offsetSize := l.offsetSize()
	fileSize := l.LocationSize - offsetSize
	file = uintBE(b[:fileSize])
	offset = uintBE(b[fileSize:])
	extra := offsetSize*8 - l.SegmentBits
	file = file<<extra | offset>>l.SegmentBits
	offset &= lowMask(l.SegmentBits)
	return file, offset
}

// PackLocation encodes file and offset into dst using segmentBits offset
// bits. It is the inverse of the location decode used by DecodeEntry.
func PackLocation(dst []byte, segmentBits uint8, file, offset uint64) error {
	l := Layout{LocationSize: uint8(len(dst)), SegmentBits: segmentBits} //nolint:gosec // checked below
	if len(dst) > maxFieldSize || l.offsetSize() > l.LocationSize {
		return fmt.Errorf("%w: %d segment bits in %d location bytes",
			casctype.ErrUnsupportedFormat, segmentBits, len(dst))
	}
	if offset&^lowMask(segmentBits) != 0 {
		return fmt.Errorf("%w: offset %#x exceeds %d bits", casctype.ErrSizeOverflow, offset, segmentBits)
	}
	fileBits := uint(len(dst))*8 - uint(segmentBits)
	if fileBits < 64 && file>>fileBits != 0 {
		return fmt.Errorf("%w: file %d exceeds %d bits", casctype.ErrSizeOverflow, file, fileBits)
	}
	putUintBE(dst, file<<segmentBits|offset)
	return nil
}

// PackEntry encodes e into dst using layout l. dst must hold RecordSize bytes.
func (l Layout) PackEntry(dst []byte, e Entry) error {
	if len(e.Key) != int(l.KeySize) {
		return fmt.Errorf("%w: key is %d bytes, layout wants %d", casctype.ErrUnsupportedFormat, len(e.Key), l.KeySize)
	}
	copy(dst, e.Key)
	dst = dst[l.KeySize:]
	if err := PackLocation(dst[:l.LocationSize], l.SegmentBits, e.File, e.Offset); err != nil {
		return err
	}
	dst = dst[l.LocationSize:]
	if l.LengthSize < maxFieldSize && e.Length>>(8*uint(l.LengthSize)) != 0 {
		return fmt.Errorf("%w: length %d exceeds %d bytes", casctype.ErrSizeOverflow, e.Length, l.LengthSize)
	}
	putUintLE(dst[:l.LengthSize], e.Length)
	return nil
}

func lowMask(bits uint8) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return 1<<bits - 1
}

func uintBE(b []byte) uint64 {
	var buf [8]byte
	copy(buf[8-len(b):], b)
	return binary.BigEndian.Uint64(buf[:])
}

func uintLE(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}

func putUintBE(dst []byte, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	copy(dst, buf[8-len(dst):])
}

func putUintLE(dst []byte, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	copy(dst, buf[:len(dst)])
}
