package checksum

import "encoding/binary"

// RecordSeed seeds the lookup3 hash stored in every data-file record header.
const RecordSeed = 0x3D6BE971

var offsetEncodeTable = [16]uint32{
	0x049396B8, 0x72A82A9B, 0xEE626CCA, 0x9917754F, 0x15DE40B1, 0xF5A8A9B6, 0x421EAC7E, 0xA9D55C9A,
	0x317FD40C, 0x04FAF80D, 0x3D6BE971, 0x52933CFD, 0x27F64B7D, 0xC6F5C11B, 0xD5757E3A, 0x6C388745,
}

// EncodePosition packs a data file id and byte offset into the 32-bit
// position the record checksum is keyed on: the low 30 bits of the offset
// and the low 2 bits of the file id.
func EncodePosition(file, offset uint64) uint32 {
	return uint32(offset&0x3FFFFFFF) | uint32(file&3)<<30 //nolint:gosec // masked to 32 bits
}

// Record computes the checksum that follows prefix in a record header.
//
// prefix holds every record byte from the start of the record at offset in
// data file file up to, but excluding, the checksum field itself.
func Record(prefix []byte, file, offset uint64) uint32 {
	start := EncodePosition(file, offset)
	var acc [4]byte
	for i, b := range prefix {
		acc[(start+uint32(i))&3] ^= b //nolint:gosec // positions wrap mod 2^32 like the on-disk format
	}

	at := EncodePosition(file, offset+uint64(len(prefix)))
	var enc [4]byte
	binary.LittleEndian.PutUint32(enc[:], offsetEncodeTable[(at+4)&0xF]^(at+4))

	var out [4]byte
	for i := range out {
		j := (uint32(i) + at) & 3
		out[i] = acc[j] ^ enc[j]
	}
	return binary.LittleEndian.Uint32(out[:])
}
