// Package testutil builds synthetic store files for tests.
package testutil

import (
	"bytes"
	"crypto/md5" //nolint:gosec // BLTE chunk digests are MD5 by format
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// Frame is one encoded BLTE chunk: the mode byte followed by its body.
type Frame struct {
	Encoded     []byte
	ContentSize uint32
}

// Chunk is the decoded form of a BLTE chunk.
type Chunk struct {
	Mode    byte
	Content []byte
}

// Zlib compresses data as a zlib stream.
func Zlib(tb testing.TB, data []byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		tb.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

// EncodeChunk encodes content with mode. Modes other than 'Z' store content
// verbatim after the mode byte.
func EncodeChunk(tb testing.TB, mode byte, content []byte) []byte {
	tb.Helper()

	body := content
	if mode == 'Z' {
		body = Zlib(tb, content)
	}
	return append([]byte{mode}, body...)
}

// BuildBLTE builds a framed container from decoded chunks.
func BuildBLTE(tb testing.TB, chunks ...Chunk) []byte {
	tb.Helper()

	frames := make([]Frame, len(chunks))
	for i, c := range chunks {
		frames[i] = Frame{
			Encoded:     EncodeChunk(tb, c.Mode, c.Content),
			ContentSize: uint32(len(c.Content)), //nolint:gosec // test data
		}
	}
	return BuildBLTEFrames(tb, frames...)
}

// BuildBLTEFrames builds a framed container from pre-encoded chunks. The
// declared content sizes are taken from the frames as given, so callers can
// declare sizes that do not match the data.
func BuildBLTEFrames(tb testing.TB, frames ...Frame) []byte {
	tb.Helper()

	var buf bytes.Buffer
	buf.WriteString("BLTE")
	putU32BE(&buf, uint32(12+24*len(frames))) //nolint:gosec // test data
	buf.WriteByte(0x0F)
	n := len(frames)
	buf.Write([]byte{byte(n >> 16), byte(n >> 8), byte(n)})
	for _, f := range frames {
		putU32BE(&buf, uint32(len(f.Encoded))) //nolint:gosec // test data
		putU32BE(&buf, f.ContentSize)
		sum := md5.Sum(f.Encoded) //nolint:gosec // format digest
		buf.Write(sum[:])
	}
	for _, f := range frames {
		buf.Write(f.Encoded)
	}
	return buf.Bytes()
}

// BuildUnframedBLTE builds a container with a zero header size holding a
// single encoded chunk.
func BuildUnframedBLTE(tb testing.TB, mode byte, content []byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	buf.WriteString("BLTE")
	putU32BE(&buf, 0)
	buf.Write(EncodeChunk(tb, mode, content))
	return buf.Bytes()
}

func putU32BE(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU32LE(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
