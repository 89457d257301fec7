// Package blte decodes BLTE containers, the chunked wrapper around every
// blob in the store.
//
// A framed container declares each chunk's encoded size, decoded size and
// MD5. Every chunk is verified before it is decoded, and a chunk must decode
// to exactly its declared size; the container as a whole either decodes
// completely or fails.
package blte

import (
	"bytes"
	"crypto/md5" //nolint:gosec // BLTE chunk digests are MD5 by format
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/casc/internal/casctype"
	"github.com/meigma/casc/internal/sizing"
)

const (
	// Magic opens every container.
	Magic = "BLTE"

	// ModeNone stores a chunk verbatim.
	ModeNone = 'N'

	// ModeZlib stores a zlib stream.
	ModeZlib = 'Z'

	// DefaultMaxContentSize is the default limit on decoded content (1GB).
	DefaultMaxContentSize = 1 << 30

	preambleSize   = 8
	frameFixedSize = 4
	chunkInfoSize  = 24

	// parallelMinBytes is the minimum encoded payload to decode chunks in
	// parallel. Below this, serial decoding avoids goroutine overhead.
	parallelMinBytes = 64 << 10
)

// Chunk describes one framed chunk.
type Chunk struct {
	EncodedSize uint32
	ContentSize uint32
	MD5         [md5.Size]byte
}

// Header is the parsed frame header of a container.
type Header struct {
	// Size is the declared header size; zero for unframed containers.
	Size uint32

	Flags  uint8
	Chunks []Chunk
}

// ContentSize returns the total declared decoded size.
func (h *Header) ContentSize() uint64 {
	var total uint64
	for _, c := range h.Chunks {
		total += uint64(c.ContentSize)
	}
	return total
}

// Decoder decodes BLTE containers. A Decoder is safe for concurrent use.
type Decoder struct {
	workers        int
	maxContentSize uint64
	pool           inflatePool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithWorkers sets how many chunks may decode concurrently (default: 1).
// Values < 1 are treated as 1, which forces serial decoding.
func WithWorkers(n int) Option {
	return func(d *Decoder) {
		if n < 1 {
			n = 1
		}
		d.workers = n
	}
}

// WithAutoWorkers sizes the worker count from GOMAXPROCS.
func WithAutoWorkers() Option {
	return func(d *Decoder) {
		d.workers = runtime.GOMAXPROCS(0)
	}
}

// WithMaxContentSize limits the decoded size of a container.
// Set limit to 0 to disable the limit.
func WithMaxContentSize(limit uint64) Option {
	return func(d *Decoder) {
		d.maxContentSize = limit
	}
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		workers:        1,
		maxContentSize: DefaultMaxContentSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes a whole container and returns its content.
func (d *Decoder) Decode(data []byte) ([]byte, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Size == 0 {
		return d.decodeUnframed(data[preambleSize:])
	}

	payload := data[h.Size:]
	var encoded uint64
	for _, c := range h.Chunks {
		encoded += uint64(c.EncodedSize)
	}
	if encoded != uint64(len(payload)) {
		return nil, fmt.Errorf("%w: chunks declare %d encoded bytes, container holds %d",
			casctype.ErrIntegrity, encoded, len(payload))
	}

	contentSize := h.ContentSize()
	if d.maxContentSize > 0 && contentSize > d.maxContentSize {
		return nil, fmt.Errorf("%w: content of %d bytes exceeds limit %d", casctype.ErrSizeOverflow, contentSize, d.maxContentSize)
	}
	size, err := sizing.ToInt(contentSize, casctype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)

	// Chunk regions are disjoint, so chunks can decode in any order while the
	// output stays in declared order.
	type job struct {
		src, dst []byte
	}
	jobs := make([]job, len(h.Chunks))
	var srcOff, dstOff int
	for i, c := range h.Chunks {
		jobs[i] = job{
			src: payload[srcOff : srcOff+int(c.EncodedSize)],
			dst: out[dstOff : dstOff+int(c.ContentSize)],
		}
		srcOff += int(c.EncodedSize)
		dstOff += int(c.ContentSize)
	}

	if d.workers <= 1 || len(jobs) < 2 || len(payload) < parallelMinBytes {
		for i, j := range jobs {
			if err := d.decodeChunk(i, &h.Chunks[i], j.src, j.dst); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, j := range jobs {
		g.Go(func() error {
			return d.decodeChunk(i, &h.Chunks[i], j.src, j.dst)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseHeader parses the preamble and frame header of a container.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: missing BLTE magic", casctype.ErrUnsupportedFormat)
	}
	if len(data) < preambleSize {
		return nil, fmt.Errorf("%w: BLTE preamble truncated", casctype.ErrIntegrity)
	}
	h := &Header{Size: binary.BigEndian.Uint32(data[4:])}
	if h.Size == 0 {
		return h, nil
	}

	if len(data) < preambleSize+frameFixedSize {
		return nil, fmt.Errorf("%w: BLTE frame header truncated", casctype.ErrIntegrity)
	}
	h.Flags = data[8]
	count := uint32(data[9])<<16 | uint32(data[10])<<8 | uint32(data[11])
	if count == 0 {
		return nil, fmt.Errorf("%w: BLTE frame declares no chunks", casctype.ErrIntegrity)
	}
	want := uint64(preambleSize+frameFixedSize) + uint64(count)*chunkInfoSize
	if uint64(h.Size) != want {
		return nil, fmt.Errorf("%w: BLTE header size %d, %d chunks need %d",
			casctype.ErrIntegrity, h.Size, count, want)
	}
	if uint64(len(data)) < want {
		return nil, fmt.Errorf("%w: BLTE chunk table truncated", casctype.ErrIntegrity)
	}

	h.Chunks = make([]Chunk, count)
	table := data[preambleSize+frameFixedSize : want]
	for i := range h.Chunks {
		info := table[i*chunkInfoSize:]
		c := &h.Chunks[i]
		c.EncodedSize = binary.BigEndian.Uint32(info[0:])
		c.ContentSize = binary.BigEndian.Uint32(info[4:])
		copy(c.MD5[:], info[8:8+md5.Size])
	}
	return h, nil
}

// decodeChunk verifies src against the chunk digest and decodes it into dst.
func (d *Decoder) decodeChunk(i int, c *Chunk, src, dst []byte) error {
	if sum := md5.Sum(src); sum != c.MD5 { //nolint:gosec // format digest
		return fmt.Errorf("%w: chunk %d MD5 %x, declared %x", casctype.ErrIntegrity, i, sum, c.MD5)
	}
	if len(src) == 0 {
		return fmt.Errorf("%w: chunk %d is empty", casctype.ErrIntegrity, i)
	}

	body := src[1:]
	switch mode := src[0]; mode {
	case ModeNone:
		if len(body) != len(dst) {
			return fmt.Errorf("%w: chunk %d holds %d bytes, declared %d", casctype.ErrIntegrity, i, len(body), len(dst))
		}
		copy(dst, body)
		return nil
	case ModeZlib:
		return d.inflateExact(i, body, dst)
	default:
		return fmt.Errorf("%w: chunk %d mode %q", casctype.ErrUnknownEncodingMode, i, rune(mode))
	}
}

// inflateExact inflates src into dst, which must be filled exactly.
func (d *Decoder) inflateExact(i int, src, dst []byte) error {
	zr, release, err := d.pool.get(bytes.NewReader(src))
	if err != nil {
		return fmt.Errorf("%w: chunk %d: %v", casctype.ErrIntegrity, i, err)
	}
	defer release()

	n, err := io.ReadFull(zr, dst)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: chunk %d inflated to %d bytes, declared %d", casctype.ErrIntegrity, i, n, len(dst))
		}
		return fmt.Errorf("%w: chunk %d: %v", casctype.ErrIntegrity, i, err)
	}
	if err := ensureEOF(zr); err != nil {
		return fmt.Errorf("%w: chunk %d: %v", casctype.ErrIntegrity, i, err)
	}
	return nil
}

// decodeUnframed decodes a container without a frame header: the payload is
// a single chunk with no digest and no declared size.
func (d *Decoder) decodeUnframed(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: unframed BLTE payload is empty", casctype.ErrIntegrity)
	}
	body := src[1:]
	switch mode := src[0]; mode {
	case ModeNone:
		if d.maxContentSize > 0 && uint64(len(body)) > d.maxContentSize {
			return nil, fmt.Errorf("%w: content of %d bytes exceeds limit %d", casctype.ErrSizeOverflow, len(body), d.maxContentSize)
		}
		return bytes.Clone(body), nil
	case ModeZlib:
		zr, release, err := d.pool.get(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", casctype.ErrIntegrity, err)
		}
		defer release()
		out, err := sizing.ReadAllWithLimit(zr, d.maxContentSize, casctype.ErrSizeOverflow)
		if err != nil {
			if errors.Is(err, casctype.ErrSizeOverflow) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", casctype.ErrIntegrity, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: mode %q", casctype.ErrUnknownEncodingMode, rune(mode))
	}
}

var errExtraData = errors.New("data continues past declared size")

// ensureEOF verifies that r has no data left and that its trailer is valid.
func ensureEOF(r io.Reader) error {
	var one [1]byte
	for {
		n, err := r.Read(one[:])
		if n > 0 {
			return errExtraData
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
