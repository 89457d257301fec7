package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/meigma/casc/internal/checksum"
	"github.com/meigma/casc/internal/index"
)

// RecordHeaderSize is the size of a data-file record header.
const RecordHeaderSize = 30

// IndexLayout is the entry layout written to synthetic index files.
var IndexLayout = index.Layout{LengthSize: 4, LocationSize: 5, KeySize: 9, SegmentBits: 30}

// Record is one blob placed in a synthetic store.
type Record struct {
	// Key is the encoding key. Only the first 16 bytes are stored in the
	// record header and the first 9 in the index.
	Key []byte

	// Payload is the BLTE container stored after the record header.
	Payload []byte

	// File is the data file id; Bucket is the index bucket.
	File   uint64
	Bucket int
}

// Location reports where a record was written.
type Location struct {
	Path   string
	File   uint64
	Offset uint64
	Length uint64
}

// Store describes a synthetic store on disk.
type Store struct {
	Dir       string
	Locations map[string]Location
}

// Location returns where the record with key was written.
func (s *Store) Location(tb testing.TB, key []byte) Location {
	tb.Helper()

	loc, ok := s.Locations[string(key)]
	if !ok {
		tb.Fatalf("no record for key %x", key)
	}
	return loc
}

// RecordHeader builds the 30-byte record header for a record of length
// bytes (header included) at offset in data file file.
func RecordHeader(key []byte, length uint32, flags uint16, file, offset uint64) []byte {
	h := make([]byte, RecordHeaderSize)
	copy(h[:16], key)
	binary.LittleEndian.PutUint32(h[16:], length)
	binary.LittleEndian.PutUint16(h[20:], flags)
	binary.LittleEndian.PutUint32(h[22:], checksum.Hash32Seed(h[:22], checksum.RecordSeed))
	binary.LittleEndian.PutUint32(h[26:], checksum.Record(h[:26], file, offset))
	return h
}

// BuildStore writes shmem, one index per used bucket (version 1) and the
// data files for records into a fresh temporary directory.
func BuildStore(tb testing.TB, records ...Record) *Store {
	tb.Helper()
	return BuildStoreIn(tb, tb.TempDir(), records...)
}

// BuildStoreIn is BuildStore writing into dir.
func BuildStoreIn(tb testing.TB, dir string, records ...Record) *Store {
	tb.Helper()

	s := &Store{Dir: dir, Locations: make(map[string]Location)}
	data := make(map[uint64]*bytes.Buffer)
	buckets := make(map[int][]index.Entry)

	for _, r := range records {
		buf, ok := data[r.File]
		if !ok {
			buf = &bytes.Buffer{}
			data[r.File] = buf
		}
		offset := uint64(buf.Len())
		length := uint64(RecordHeaderSize + len(r.Payload))
		buf.Write(RecordHeader(r.Key, uint32(length), 0, r.File, offset)) //nolint:gosec // test data
		buf.Write(r.Payload)

		s.Locations[string(r.Key)] = Location{
			Path:   filepath.Join(dir, DataFileName(r.File)),
			File:   r.File,
			Offset: offset,
			Length: length,
		}
		key := make([]byte, IndexLayout.KeySize)
		copy(key, r.Key)
		buckets[r.Bucket] = append(buckets[r.Bucket], index.Entry{
			Key:    key,
			File:   r.File,
			Offset: offset,
			Length: length,
		})
	}

	for file, buf := range data {
		WriteFile(tb, filepath.Join(dir, DataFileName(file)), buf.Bytes())
	}

	var versions [index.BucketCount]uint32
	for bucket, entries := range buckets {
		versions[bucket] = 1
		WriteFile(tb, filepath.Join(dir, index.FileName(bucket, 1)), BuildIndexFile(tb, bucket, IndexLayout, entries))
	}
	WriteFile(tb, filepath.Join(dir, index.SharedMemoryName), BuildSharedMemory(tb, versions))
	return s
}

// DataFileName returns the data file name for id.
func DataFileName(id uint64) string {
	return fmt.Sprintf("data.%03d", id)
}

// BuildIndexFile encodes a bucket index file with valid hashes.
func BuildIndexFile(tb testing.TB, bucket int, l index.Layout, entries []index.Entry) []byte {
	tb.Helper()

	header := make([]byte, 16)
	binary.LittleEndian.PutUint16(header[0:], index.Version)
	binary.LittleEndian.PutUint16(header[2:], uint16(bucket)) //nolint:gosec // test data
	header[4], header[5], header[6], header[7] = l.LengthSize, l.LocationSize, l.KeySize, l.SegmentBits
	binary.LittleEndian.PutUint64(header[8:], 1<<30)

	body := make([]byte, 0, len(entries)*l.RecordSize())
	for _, e := range entries {
		rec := make([]byte, l.RecordSize())
		if err := l.PackEntry(rec, e); err != nil {
			tb.Fatalf("pack entry: %v", err)
		}
		body = append(body, rec...)
	}

	var buf bytes.Buffer
	writeHashedBlock(&buf, header)
	buf.Write(make([]byte, 8))
	writeHashedBlock(&buf, body)
	return buf.Bytes()
}

func writeHashedBlock(buf *bytes.Buffer, block []byte) {
	putU32LE(buf, uint32(len(block))) //nolint:gosec // test data
	putU32LE(buf, checksum.Hash32(block))
	buf.Write(block)
}

// BuildSharedMemory encodes a shmem descriptor with the given bucket
// versions and an empty free space table.
func BuildSharedMemory(tb testing.TB, versions [index.BucketCount]uint32) []byte {
	tb.Helper()

	const pathEnd = 8 + 0x100
	var buf bytes.Buffer
	putU32LE(&buf, 4)
	putU32LE(&buf, pathEnd+index.BucketCount*4)
	path := make([]byte, 0x100)
	copy(path, "data")
	buf.Write(path)
	for _, v := range versions {
		putU32LE(&buf, v)
	}
	putU32LE(&buf, 1)
	putU32LE(&buf, 0)
	buf.Write(make([]byte, 0x18))
	buf.Write(make([]byte, index.MaxFreeSpaces*5))
	return buf.Bytes()
}

// WriteFile writes data to path, failing the test on error.
func WriteFile(tb testing.TB, path string, data []byte) {
	tb.Helper()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
}

// Tamper flips the byte at off in the file at path.
func Tamper(tb testing.TB, path string, off int64) {
	tb.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read %s: %v", path, err)
	}
	if off < 0 || off >= int64(len(data)) {
		tb.Fatalf("tamper offset %d outside %s (%d bytes)", off, path, len(data))
	}
	data[off] ^= 0xFF
	WriteFile(tb, path, data)
}
