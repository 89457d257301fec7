package file

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/casc/internal/casctype"
	"github.com/meigma/casc/internal/index"
	"github.com/meigma/casc/internal/testutil"
)

// dataFile lays out records back to back the way a data file does and
// returns the file bytes plus one index entry per record.
func dataFile(tb testing.TB, fileID uint64, payloads ...[]byte) ([]byte, []index.Entry) {
	tb.Helper()

	var buf bytes.Buffer
	entries := make([]index.Entry, 0, len(payloads))
	for i, p := range payloads {
		key := bytes.Repeat([]byte{byte(i + 1)}, 16)
		offset := uint64(buf.Len())
		length := uint64(HeaderSize + len(p))
		buf.Write(testutil.RecordHeader(key, uint32(length), 0, fileID, offset)) //nolint:gosec // test data
		buf.Write(p)
		entries = append(entries, index.Entry{Key: key[:9], File: fileID, Offset: offset, Length: length})
	}
	return buf.Bytes(), entries
}

func TestReadRecord(t *testing.T) {
	t.Parallel()

	payloads := [][]byte{[]byte("BLTE first"), []byte("BLTE second record"), {}}
	for _, fileID := range []uint64{0, 1, 7, 300} {
		data, entries := dataFile(t, fileID, payloads...)
		r := NewReader(bytes.NewReader(data), fileID, 0)
		for i, e := range entries {
			got, err := r.ReadRecord(&e)
			require.NoError(t, err, "file %d record %d", fileID, i)
			assert.Equal(t, payloads[i], got)
		}
	}
}

func TestReadHeader_Fields(t *testing.T) {
	t.Parallel()

	data, entries := dataFile(t, 2, []byte("payload"))
	h, err := NewReader(bytes.NewReader(data), 2, 0).ReadHeader(&entries[0])
	require.NoError(t, err)
	assert.Equal(t, uint32(HeaderSize+7), h.Length)
	assert.Equal(t, bytes.Repeat([]byte{1}, 16), h.Key[:])
	assert.Equal(t, uint16(0), h.Flags)
}

func TestReadRecord_TamperedHeader(t *testing.T) {
	t.Parallel()

	data, entries := dataFile(t, 0, []byte("payload"))
	for off := range HeaderSize {
		tampered := bytes.Clone(data)
		tampered[off] ^= 0x01
		_, err := NewReader(bytes.NewReader(tampered), 0, 0).ReadRecord(&entries[0])
		require.ErrorIs(t, err, casctype.ErrIntegrity, "offset %d", off)
	}
}

func TestReadRecord_WrongPosition(t *testing.T) {
	t.Parallel()

	// A record copied to another offset keeps a valid header hash but its
	// position checksum no longer matches.
	data, entries := dataFile(t, 0, []byte("payload"))
	moved := append(make([]byte, 16), data...)
	e := entries[0]
	e.Offset = 16
	_, err := NewReader(bytes.NewReader(moved), 0, 0).ReadRecord(&e)
	require.ErrorIs(t, err, casctype.ErrIntegrity)
}

func TestReadRecord_LengthMismatch(t *testing.T) {
	t.Parallel()

	data, entries := dataFile(t, 0, []byte("payload"))
	e := entries[0]
	e.Length++
	_, err := NewReader(bytes.NewReader(data), 0, 0).ReadRecord(&e)
	require.ErrorIs(t, err, casctype.ErrIntegrity)

	e.Length = HeaderSize - 1
	_, err = NewReader(bytes.NewReader(data), 0, 0).ReadRecord(&e)
	require.ErrorIs(t, err, casctype.ErrIntegrity)
}

func TestReadRecord_Truncated(t *testing.T) {
	t.Parallel()

	data, entries := dataFile(t, 0, []byte("payload"))

	_, err := NewReader(bytes.NewReader(data[:len(data)-1]), 0, 0).ReadRecord(&entries[0])
	require.ErrorIs(t, err, casctype.ErrIntegrity)

	_, err = NewReader(bytes.NewReader(data[:10]), 0, 0).ReadRecord(&entries[0])
	require.ErrorIs(t, err, casctype.ErrIntegrity)
}

func TestReadRecord_SizeLimit(t *testing.T) {
	t.Parallel()

	data, entries := dataFile(t, 0, bytes.Repeat([]byte("x"), 100))
	_, err := NewReader(bytes.NewReader(data), 0, 64).ReadRecord(&entries[0])
	require.ErrorIs(t, err, casctype.ErrSizeOverflow)

	got, err := NewReader(bytes.NewReader(data), 0, 130).ReadRecord(&entries[0])
	require.NoError(t, err)
	assert.Len(t, got, 100)
}

func TestReadRecord_WrongDataFile(t *testing.T) {
	t.Parallel()

	data, entries := dataFile(t, 3, []byte("payload"))
	_, err := NewReader(bytes.NewReader(data), 4, 0).ReadRecord(&entries[0])
	require.Error(t, err)
}

func TestName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "data.000", Name(0))
	assert.Equal(t, "data.042", Name(42))
	assert.Equal(t, "data.1234", Name(1234))
	assert.Equal(t, testutil.DataFileName(9), Name(9))
}
