package tact

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1" //nolint:gosec // the manifest IV is keyed on a SHA-1 of the file name by format
	"encoding/binary"
	"fmt"

	"github.com/meigma/casc/internal/casctype"
	"github.com/meigma/casc/internal/sizing"
)

const (
	// ContentManifestHeaderSize is the size of a content manifest header.
	ContentManifestHeaderSize = 44

	// ResourceGraphHeaderSize is the size of a resource graph header.
	ResourceGraphHeaderSize = 60

	// ManifestEntrySize and ManifestAssetSize are the sizes of the
	// decrypted content manifest records.
	ManifestEntrySize = 20
	ManifestAssetSize = 29

	// cmfMarker and trgMarker are the top 24 bits of the little-endian
	// word that precedes encrypted manifest and resource graph bodies.
	cmfMarker = 0x636D66
	trgMarker = 0x677274

	markerSize = 4
)

// ContentManifestHeader is the plaintext header of a content manifest.
type ContentManifestHeader struct {
	BuildVersion          uint32
	Unknown               [6]uint32
	AssetPatchRecordCount uint32
	AssetCount            uint32
	EntryPatchRecordCount uint32
	EntryCount            uint32
}

// ParseContentManifestHeader decodes the header at the start of data.
func ParseContentManifestHeader(data []byte) (*ContentManifestHeader, error) {
	if len(data) < ContentManifestHeaderSize {
		return nil, fmt.Errorf("%w: content manifest header truncated", casctype.ErrIntegrity)
	}
	var w [11]uint32
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	h := &ContentManifestHeader{
		BuildVersion:          w[0],
		AssetPatchRecordCount: w[7],
		AssetCount:            w[8],
		EntryPatchRecordCount: w[9],
		EntryCount:            w[10],
	}
	copy(h.Unknown[:], w[1:7])
	return h, nil
}

// ManifestEntry is one entry record of a content manifest.
type ManifestEntry struct {
	Index uint32
	HashA uint64
	HashB uint64
}

// ManifestAsset is one asset record of a content manifest. MD5 is the
// asset's content key.
type ManifestAsset struct {
	GUID    GUID
	Size    uint32
	Unknown uint8
	MD5     [16]byte
}

// ContentManifest is a decrypted and parsed content manifest.
type ContentManifest struct {
	Header  ContentManifestHeader
	Entries []ManifestEntry
	Assets  []ManifestAsset
}

// DecryptContentManifest decrypts the body that follows a content manifest
// header. name is the manifest's file name, which keys the IV; decrypting
// with the wrong name yields garbage rather than an error.
func DecryptContentManifest(name string, h *ContentManifestHeader, body []byte) ([]byte, error) {
	return decrypt(name, h.BuildVersion, h.AssetCount, cmfMarker, body)
}

// ReadContentManifest parses a whole content manifest: header, encrypted
// body, then the entry records followed by the asset records.
func ReadContentManifest(name string, data []byte) (*ContentManifest, error) {
	h, err := ParseContentManifestHeader(data)
	if err != nil {
		return nil, err
	}
	plain, err := DecryptContentManifest(name, h, data[ContentManifestHeaderSize:])
	if err != nil {
		return nil, err
	}

	entriesSize, ok := sizing.MulUint64(uint64(h.EntryCount), ManifestEntrySize)
	if !ok {
		return nil, casctype.ErrSizeOverflow
	}
	assetsSize, ok := sizing.MulUint64(uint64(h.AssetCount), ManifestAssetSize)
	if !ok {
		return nil, casctype.ErrSizeOverflow
	}
	need, ok := sizing.AddUint64(entriesSize, assetsSize)
	if !ok {
		return nil, casctype.ErrSizeOverflow
	}
	if uint64(len(plain)) < need {
		return nil, fmt.Errorf("%w: content manifest holds %d bytes, records need %d",
			casctype.ErrIntegrity, len(plain), need)
	}

	m := &ContentManifest{
		Header:  *h,
		Entries: make([]ManifestEntry, h.EntryCount),
		Assets:  make([]ManifestAsset, h.AssetCount),
	}
	b := plain
	for i := range m.Entries {
		m.Entries[i] = ManifestEntry{
			Index: binary.LittleEndian.Uint32(b[0:]),
			HashA: binary.LittleEndian.Uint64(b[4:]),
			HashB: binary.LittleEndian.Uint64(b[12:]),
		}
		b = b[ManifestEntrySize:]
	}
	for i := range m.Assets {
		a := &m.Assets[i]
		a.GUID = ParseGUID(binary.LittleEndian.Uint64(b[0:]))
		a.Size = binary.LittleEndian.Uint32(b[8:])
		a.Unknown = b[12]
		copy(a.MD5[:], b[13:ManifestAssetSize])
		b = b[ManifestAssetSize:]
	}
	return m, nil
}

// ResourceGraphHeader is the plaintext header of a resource graph.
type ResourceGraphHeader struct {
	Unknown0                 uint32
	BuildVersion             uint32
	Unknown1                 [4]uint32
	PackageCount             uint32
	PackageBlockSize         uint32
	SkinCount                uint32
	SkinBlockSize            uint32
	TypeBundleIndexCount     uint32
	TypeBundleIndexBlockSize uint32
	Unknown2                 [2]uint32
	GraphBlockSize           uint32
}

// ParseResourceGraphHeader decodes the header at the start of data.
func ParseResourceGraphHeader(data []byte) (*ResourceGraphHeader, error) {
	if len(data) < ResourceGraphHeaderSize {
		return nil, fmt.Errorf("%w: resource graph header truncated", casctype.ErrIntegrity)
	}
	var w [15]uint32
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	h := &ResourceGraphHeader{
		Unknown0:                 w[0],
		BuildVersion:             w[1],
		PackageCount:             w[6],
		PackageBlockSize:         w[7],
		SkinCount:                w[8],
		SkinBlockSize:            w[9],
		TypeBundleIndexCount:     w[10],
		TypeBundleIndexBlockSize: w[11],
		GraphBlockSize:           w[14],
	}
	copy(h.Unknown1[:], w[2:6])
	copy(h.Unknown2[:], w[12:14])
	return h, nil
}

// DecryptResourceGraph decrypts the body that follows a resource graph
// header. The key schedule matches content manifests, keyed on the skin
// count instead of the asset count.
func DecryptResourceGraph(name string, h *ResourceGraphHeader, body []byte) ([]byte, error) {
	return decrypt(name, h.BuildVersion, h.SkinCount, trgMarker, body)
}

func decrypt(name string, build, count, marker uint32, body []byte) ([]byte, error) {
	if len(body) < markerSize {
		return nil, fmt.Errorf("%w: encrypted body truncated", casctype.ErrIntegrity)
	}
	if got := binary.LittleEndian.Uint32(body) >> 8; got != marker {
		return nil, fmt.Errorf("%w: encrypted body marker %06x", casctype.ErrUnsupportedFormat, got)
	}
	ciphertext := body[markerSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext of %d bytes is not block aligned", casctype.ErrIntegrity, len(ciphertext))
	}

	key, iv := deriveKey(name, build, count)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(plain, ciphertext)
	return plain, nil
}

// deriveKey builds the AES-256 key and CBC IV for a body. All index
// arithmetic wraps at 32 bits.
func deriveKey(name string, build, count uint32) (key [32]byte, iv [aes.BlockSize]byte) {
	k := uint32(len(key)) * build
	for i := range key {
		key[i] = keyTable[k%uint32(len(keyTable))]
		k = build - k
	}

	digest := sha1.Sum([]byte(name)) //nolint:gosec // format digest
	k = uint32(keyTable[build&0x1FF])
	step := build * count % 7
	for i := range iv {
		iv[i] = keyTable[k%uint32(len(keyTable))]
		k += step
		iv[i] ^= digest[(k-73)%uint32(len(digest))]
	}
	return key, iv
}
