package tact

import (
	"bytes"
	"crypto/md5" //nolint:gosec // encoding pages are digested with MD5 by format
	"encoding/binary"
	"fmt"
	"io"

	"github.com/meigma/casc/internal/casctype"
	"github.com/meigma/casc/internal/sizing"
)

const (
	// EncodingMagic opens every encoding table.
	EncodingMagic = "EN"

	// EncodingVersion is the only encoding table version understood.
	EncodingVersion = 1

	// DefaultMaxEncodingSize is the default limit on the page and spec
	// bytes an encoding table may declare (1GB).
	DefaultMaxEncodingSize = 1 << 30

	encodingHeaderSize = 22
	sizeFieldSize      = 5
	specIndexSize      = 4

	// paddingSpecIndex marks the unused tail of an e-key page.
	paddingSpecIndex = 0xFFFFFFFF
)

// EncodingSpec describes how one encoding key's bytes were encoded.
type EncodingSpec struct {
	// Spec is the compression spec string, or "" when the record's spec
	// index is outside the spec block.
	Spec string

	// Size is the encoded size in bytes.
	Size uint64
}

type contentEntry struct {
	size  uint64
	ekeys [][]byte
}

// Encoding is a parsed encoding table.
type Encoding struct {
	ckeySize int
	ekeySize int
	specs    []string
	content  map[string]contentEntry
	encoded  map[string]EncodingSpec
}

type encodingConfig struct {
	maxSize uint64
}

// EncodingOption configures ReadEncoding.
type EncodingOption func(*encodingConfig)

// WithMaxEncodingSize limits the total size of the spec block and page
// bodies an encoding table may declare.
// Set to 0 to disable the limit.
func WithMaxEncodingSize(limit uint64) EncodingOption {
	return func(c *encodingConfig) {
		c.maxSize = limit
	}
}

type pageTable struct {
	keySize  int
	pageSize int
	count    int
}

// ReadEncoding parses an encoding table from r.
//
// Every page body is checked against its descriptor's MD5 before it is
// scanned. A page scan ends at the first record that does not fit in the
// rest of the page, or at a padding record.
func ReadEncoding(r io.Reader, opts ...EncodingOption) (*Encoding, error) {
	cfg := encodingConfig{maxSize: DefaultMaxEncodingSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	var hdr [encodingHeaderSize]byte
	if err := casctype.ReadFull(r, hdr[:len(EncodingMagic)], "encoding magic"); err != nil {
		return nil, err
	}
	if string(hdr[:len(EncodingMagic)]) != EncodingMagic {
		return nil, fmt.Errorf("%w: encoding magic %q", casctype.ErrUnsupportedFormat, hdr[:len(EncodingMagic)])
	}
	if err := casctype.ReadFull(r, hdr[len(EncodingMagic):], "encoding header"); err != nil {
		return nil, err
	}
	if v := hdr[2]; v != EncodingVersion {
		return nil, fmt.Errorf("%w: encoding version %d", casctype.ErrUnsupportedFormat, v)
	}

	e := &Encoding{
		ckeySize: int(hdr[3]),
		ekeySize: int(hdr[4]),
	}
	if e.ckeySize == 0 || e.ekeySize == 0 {
		return nil, fmt.Errorf("%w: encoding key sizes %d/%d", casctype.ErrUnsupportedFormat, e.ckeySize, e.ekeySize)
	}
	cPages := pageTable{
		keySize:  e.ckeySize,
		pageSize: int(binary.BigEndian.Uint16(hdr[5:])) * 1024,
	}
	ePages := pageTable{
		keySize:  e.ekeySize,
		pageSize: int(binary.BigEndian.Uint16(hdr[7:])) * 1024,
	}
	cCount := binary.BigEndian.Uint32(hdr[9:])
	eCount := binary.BigEndian.Uint32(hdr[13:])
	specLen := binary.BigEndian.Uint32(hdr[18:])

	total := uint64(specLen)
	for _, t := range []struct {
		count    uint32
		pageSize int
		keySize  int
	}{
		{cCount, cPages.pageSize, cPages.keySize},
		{eCount, ePages.pageSize, ePages.keySize},
	} {
		perPage := uint64(t.pageSize) + uint64(t.keySize) + md5.Size
		size, ok := sizing.MulUint64(uint64(t.count), perPage)
		if !ok {
			return nil, casctype.ErrSizeOverflow
		}
		if total, ok = sizing.AddUint64(total, size); !ok {
			return nil, casctype.ErrSizeOverflow
		}
	}
	if cfg.maxSize > 0 && total > cfg.maxSize {
		return nil, fmt.Errorf("%w: encoding table declares %d bytes, limit %d", casctype.ErrSizeOverflow, total, cfg.maxSize)
	}
	cPages.count = int(cCount)
	ePages.count = int(eCount)

	specBlock := make([]byte, specLen)
	if err := casctype.ReadFull(r, specBlock, "encoding spec block"); err != nil {
		return nil, err
	}
	e.specs = splitSpecs(specBlock)

	e.content = make(map[string]contentEntry)
	err := readPages(r, cPages, "c-key", func(page []byte) {
		e.scanContentPage(page)
	})
	if err != nil {
		return nil, err
	}

	e.encoded = make(map[string]EncodingSpec)
	err = readPages(r, ePages, "e-key", func(page []byte) {
		e.scanEncodedPage(page)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// readPages reads a descriptor table and the page bodies it describes,
// verifying each body before handing it to scan.
func readPages(r io.Reader, t pageTable, what string, scan func([]byte)) error {
	descSize := t.keySize + md5.Size
	descs := make([]byte, t.count*descSize)
	if err := casctype.ReadFull(r, descs, what+" page descriptors"); err != nil {
		return err
	}

	page := make([]byte, t.pageSize)
	for i := range t.count {
		if err := casctype.ReadFull(r, page, what+" page"); err != nil {
			return err
		}
		want := descs[i*descSize+t.keySize : (i+1)*descSize]
		if sum := md5.Sum(page); !bytes.Equal(sum[:], want) { //nolint:gosec // format digest
			return fmt.Errorf("%w: %s page %d MD5 %x, declared %x", casctype.ErrIntegrity, what, i, sum, want)
		}
		scan(page)
	}
	return nil
}

func (e *Encoding) scanContentPage(page []byte) {
	fixed := 1 + sizeFieldSize + e.ckeySize
	for len(page) >= fixed {
		count := int(page[0])
		if count == 0 {
			return
		}
		n := fixed + count*e.ekeySize
		if len(page) < n {
			return
		}

		ckey := page[1+sizeFieldSize : fixed]
		entry := contentEntry{
			size:  uint40(page[1:]),
			ekeys: make([][]byte, count),
		}
		for i := range entry.ekeys {
			off := fixed + i*e.ekeySize
			entry.ekeys[i] = bytes.Clone(page[off : off+e.ekeySize])
		}
		e.content[string(ckey)] = entry
		page = page[n:]
	}
}

func (e *Encoding) scanEncodedPage(page []byte) {
	n := e.ekeySize + specIndexSize + sizeFieldSize
	for len(page) >= n {
		ekey := page[:e.ekeySize]
		idx := binary.BigEndian.Uint32(page[e.ekeySize:])
		if idx == paddingSpecIndex || isZero(ekey) {
			return
		}

		spec := EncodingSpec{Size: uint40(page[e.ekeySize+specIndexSize:])}
		if uint64(idx) < uint64(len(e.specs)) {
			spec.Spec = e.specs[idx]
		}
		e.encoded[string(ekey)] = spec
		page = page[n:]
	}
}

// Resolve returns the first encoding key stored for ckey.
func (e *Encoding) Resolve(ckey []byte) ([]byte, error) {
	entry, ok := e.content[string(ckey)]
	if !ok {
		return nil, fmt.Errorf("%w: content key %s", casctype.ErrEntryNotFound, casctype.FormatKey(ckey))
	}
	return bytes.Clone(entry.ekeys[0]), nil
}

// EncodingKeys returns every encoding key stored for ckey, in table order.
func (e *Encoding) EncodingKeys(ckey []byte) ([][]byte, error) {
	entry, ok := e.content[string(ckey)]
	if !ok {
		return nil, fmt.Errorf("%w: content key %s", casctype.ErrEntryNotFound, casctype.FormatKey(ckey))
	}
	keys := make([][]byte, len(entry.ekeys))
	for i, k := range entry.ekeys {
		keys[i] = bytes.Clone(k)
	}
	return keys, nil
}

// ContentSize returns the decoded size recorded for ckey.
func (e *Encoding) ContentSize(ckey []byte) (uint64, error) {
	entry, ok := e.content[string(ckey)]
	if !ok {
		return 0, fmt.Errorf("%w: content key %s", casctype.ErrEntryNotFound, casctype.FormatKey(ckey))
	}
	return entry.size, nil
}

// Spec returns the encoding spec recorded for ekey.
func (e *Encoding) Spec(ekey []byte) (EncodingSpec, error) {
	spec, ok := e.encoded[string(ekey)]
	if !ok {
		return EncodingSpec{}, fmt.Errorf("%w: encoding key %s", casctype.ErrEntryNotFound, casctype.FormatKey(ekey))
	}
	return spec, nil
}

// Len returns the number of content keys in the table.
func (e *Encoding) Len() int {
	return len(e.content)
}

// SpecStrings returns the table's compression spec strings.
func (e *Encoding) SpecStrings() []string {
	return append([]string(nil), e.specs...)
}

// KeySizes returns the content and encoding key sizes of the table.
func (e *Encoding) KeySizes() (ckey, ekey int) {
	return e.ckeySize, e.ekeySize
}

// splitSpecs splits a block of NUL-terminated strings. Bytes after the last
// NUL do not form a string.
func splitSpecs(block []byte) []string {
	var specs []string
	for {
		i := bytes.IndexByte(block, 0)
		if i < 0 {
			return specs
		}
		specs = append(specs, string(block[:i]))
		block = block[i+1:]
	}
}

func uint40(b []byte) uint64 {
	return uint64(b[0])<<32 | uint64(b[1])<<24 | uint64(b[2])<<16 | uint64(b[3])<<8 | uint64(b[4])
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
