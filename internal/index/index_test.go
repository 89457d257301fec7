package index

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/casc/internal/casctype"
	"github.com/meigma/casc/internal/checksum"
)

var testLayout = Layout{LengthSize: 4, LocationSize: 5, KeySize: 9, SegmentBits: 30}

// buildIndex encodes an index file with valid header and entry hashes.
func buildIndex(t *testing.T, version uint16, l Layout, entries []Entry) []byte {
	t.Helper()

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint16(header[0:], version)
	binary.LittleEndian.PutUint16(header[2:], 3)
	header[4], header[5], header[6], header[7] = l.LengthSize, l.LocationSize, l.KeySize, l.SegmentBits
	binary.LittleEndian.PutUint64(header[8:], 1<<30)

	body := make([]byte, 0, len(entries)*l.RecordSize())
	for _, e := range entries {
		rec := make([]byte, l.RecordSize())
		require.NoError(t, l.PackEntry(rec, e))
		body = append(body, rec...)
	}

	var buf bytes.Buffer
	writeBlock(&buf, header)
	buf.Write(make([]byte, headerPadding))
	writeBlock(&buf, body)
	return buf.Bytes()
}

func writeBlock(buf *bytes.Buffer, block []byte) {
	var prefix [8]byte
	binary.LittleEndian.PutUint32(prefix[0:], uint32(len(block))) //nolint:gosec // test data
	binary.LittleEndian.PutUint32(prefix[4:], checksum.Hash32(block))
	buf.Write(prefix[:])
	buf.Write(block)
}

func testEntries() []Entry {
	return []Entry{
		{Key: bytes.Repeat([]byte{0xAA}, 9), File: 0, Offset: 0, Length: 100},
		{Key: bytes.Repeat([]byte{0xBB}, 9), File: 3, Offset: 0x3FFFFFF0, Length: 42},
		{Key: bytes.Repeat([]byte{0xCC}, 9), File: 255, Offset: 1 << 20, Length: 1},
	}
}

func TestReadIndex(t *testing.T) {
	t.Parallel()

	entries := testEntries()
	idx, err := ReadIndex(bytes.NewReader(buildIndex(t, Version, testLayout, entries)))
	require.NoError(t, err)

	assert.Equal(t, uint16(Version), idx.Version)
	assert.Equal(t, uint16(3), idx.Bucket)
	assert.Equal(t, testLayout, idx.Layout)
	assert.Equal(t, uint64(1<<30), idx.Limit)
	assert.Equal(t, entries, idx.Entries)
}

func TestReadIndex_Empty(t *testing.T) {
	t.Parallel()

	idx, err := ReadIndex(bytes.NewReader(buildIndex(t, Version, testLayout, nil)))
	require.NoError(t, err)
	assert.Empty(t, idx.Entries)
}

func TestReadIndex_HeaderHashMismatch(t *testing.T) {
	t.Parallel()

	data := buildIndex(t, Version, testLayout, testEntries())
	data[8+6] ^= 0xFF // key size byte inside the hashed header
	_, err := ReadIndex(bytes.NewReader(data))
	require.ErrorIs(t, err, casctype.ErrIntegrity)
}

func TestReadIndex_EntryHashMismatch(t *testing.T) {
	t.Parallel()

	data := buildIndex(t, Version, testLayout, testEntries())
	data[len(data)-1] ^= 0xFF

	_, err := ReadIndex(bytes.NewReader(data))
	require.ErrorIs(t, err, casctype.ErrIntegrity)

	idx, err := ReadIndex(bytes.NewReader(data), WithEntryTableVerification(false))
	require.NoError(t, err)
	assert.Len(t, idx.Entries, 3)
}

func TestReadIndex_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	_, err := ReadIndex(bytes.NewReader(buildIndex(t, 8, testLayout, testEntries())))
	require.ErrorIs(t, err, casctype.ErrUnsupportedFormat)
}

func TestReadIndex_TrailingPartialRecord(t *testing.T) {
	t.Parallel()

	data := buildIndex(t, Version, testLayout, testEntries())
	// Rebuild the entry block with one stray byte and a matching hash so only
	// the size check can reject it.
	entriesAt := 8 + headerSize + headerPadding
	body := append(append([]byte(nil), data[entriesAt+8:]...), 0x00)
	var buf bytes.Buffer
	buf.Write(data[:entriesAt])
	writeBlock(&buf, body)

	_, err := ReadIndex(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, casctype.ErrIntegrity)
}

func TestReadIndex_Truncated(t *testing.T) {
	t.Parallel()

	data := buildIndex(t, Version, testLayout, testEntries())
	_, err := ReadIndex(bytes.NewReader(data[:len(data)-5]))
	require.ErrorIs(t, err, casctype.ErrIntegrity)
}

func TestReadIndex_EntryLimit(t *testing.T) {
	t.Parallel()

	data := buildIndex(t, Version, testLayout, testEntries())
	_, err := ReadIndex(bytes.NewReader(data), WithMaxEntriesSize(10))
	require.ErrorIs(t, err, casctype.ErrSizeOverflow)
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0a0000001f.idx", FileName(10, 0x1f))
	assert.Equal(t, "0000000001.idx", FileName(0, 1))
}
