package testutil

import (
	"bytes"
	"crypto/md5" //nolint:gosec // encoding pages are digested with MD5 by format
	"encoding/binary"
	"testing"
)

// CKeyRecord is one content key entry of an encoding table.
type CKeyRecord struct {
	CKey  []byte
	Size  uint64
	EKeys [][]byte
}

// EKeyRecord is one encoding key entry of an encoding table.
type EKeyRecord struct {
	EKey      []byte
	SpecIndex uint32
	Size      uint64
}

// EncodingTable describes an encoding table to build.
type EncodingTable struct {
	CKeySize    uint8
	EKeySize    uint8
	CPageKiB    uint16
	EPageKiB    uint16
	Specs       []string
	CPages      [][]CKeyRecord
	EPages      [][]EKeyRecord
	HeaderFlags uint8
}

// EncodeCKeyPage serializes records into a zero-padded page of size bytes.
func EncodeCKeyPage(tb testing.TB, size int, records []CKeyRecord) []byte {
	tb.Helper()

	var buf bytes.Buffer
	for _, r := range records {
		buf.WriteByte(byte(len(r.EKeys)))
		putU40BE(&buf, r.Size)
		buf.Write(r.CKey)
		for _, e := range r.EKeys {
			buf.Write(e)
		}
	}
	return padPage(tb, buf.Bytes(), size)
}

// EncodeEKeyPage serializes records into a zero-padded page of size bytes.
func EncodeEKeyPage(tb testing.TB, size int, records []EKeyRecord) []byte {
	tb.Helper()

	var buf bytes.Buffer
	for _, r := range records {
		buf.Write(r.EKey)
		putU32BE(&buf, r.SpecIndex)
		putU40BE(&buf, r.Size)
	}
	return padPage(tb, buf.Bytes(), size)
}

// BuildEncoding serializes an encoding table with valid page digests.
func BuildEncoding(tb testing.TB, tbl EncodingTable) []byte {
	tb.Helper()

	var specs bytes.Buffer
	for _, s := range tbl.Specs {
		specs.WriteString(s)
		specs.WriteByte(0)
	}

	var buf bytes.Buffer
	buf.WriteString("EN")
	buf.WriteByte(1)
	buf.WriteByte(tbl.CKeySize)
	buf.WriteByte(tbl.EKeySize)
	putU16BE(&buf, tbl.CPageKiB)
	putU16BE(&buf, tbl.EPageKiB)
	putU32BE(&buf, uint32(len(tbl.CPages))) //nolint:gosec // test data
	putU32BE(&buf, uint32(len(tbl.EPages))) //nolint:gosec // test data
	buf.WriteByte(tbl.HeaderFlags)
	putU32BE(&buf, uint32(specs.Len())) //nolint:gosec // test data
	buf.Write(specs.Bytes())

	cPages := make([][]byte, len(tbl.CPages))
	for i, records := range tbl.CPages {
		cPages[i] = EncodeCKeyPage(tb, int(tbl.CPageKiB)*1024, records)
		first := make([]byte, tbl.CKeySize)
		if len(records) > 0 {
			copy(first, records[0].CKey)
		}
		writeDescriptor(&buf, first, cPages[i])
	}
	for _, p := range cPages {
		buf.Write(p)
	}

	ePages := make([][]byte, len(tbl.EPages))
	for i, records := range tbl.EPages {
		ePages[i] = EncodeEKeyPage(tb, int(tbl.EPageKiB)*1024, records)
		first := make([]byte, tbl.EKeySize)
		if len(records) > 0 {
			copy(first, records[0].EKey)
		}
		writeDescriptor(&buf, first, ePages[i])
	}
	for _, p := range ePages {
		buf.Write(p)
	}
	return buf.Bytes()
}

func writeDescriptor(buf *bytes.Buffer, firstKey, page []byte) {
	buf.Write(firstKey)
	sum := md5.Sum(page) //nolint:gosec // format digest
	buf.Write(sum[:])
}

func padPage(tb testing.TB, data []byte, size int) []byte {
	tb.Helper()

	if len(data) > size {
		tb.Fatalf("page content of %d bytes exceeds page size %d", len(data), size)
	}
	page := make([]byte, size)
	copy(page, data)
	return page
}

func putU16BE(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putU40BE(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[3:])
}
