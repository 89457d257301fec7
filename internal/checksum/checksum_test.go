package checksum

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash32Seed_ReferenceVectors(t *testing.T) {
	t.Parallel()

	const fourScore = "Four score and seven years ago"
	tests := []struct {
		name string
		data string
		seed uint32
		want uint32
	}{
		{"empty", "", 0, 0xdeadbeef},
		{"empty seeded", "", 0xdeadbeef, 0xbd5b7dde},
		{"four score", fourScore, 0, 0x17770551},
		{"four score seed 1", fourScore, 1, 0xcd628161},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Hash32Seed([]byte(tt.data), tt.seed))
		})
	}
}

func TestHash32_ZeroSeed(t *testing.T) {
	t.Parallel()

	data := []byte("Four score and seven years ago")
	assert.Equal(t, Hash32Seed(data, 0), Hash32(data))
}

func TestHash32Seed_RecordSeedDiffers(t *testing.T) {
	t.Parallel()

	// Exercise every tail length, including the 12-byte boundary.
	data := []byte("0123456789abcdefghijklmnopqrstuvwxyz")
	for n := range len(data) + 1 {
		assert.NotEqual(t, Hash32(data[:n]), Hash32Seed(data[:n], RecordSeed), "length %d", n)
	}
}

func TestHash32Seed_SensitiveToEveryByte(t *testing.T) {
	t.Parallel()

	data := make([]byte, 30)
	base := Hash32Seed(data, RecordSeed)
	for i := range data {
		data[i] = 1
		assert.NotEqual(t, base, Hash32Seed(data, RecordSeed), "byte %d", i)
		data[i] = 0
	}
}

func TestEncodePosition(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0x12345678), EncodePosition(0, 0x12345678))
	assert.Equal(t, uint32(0xC0000010), EncodePosition(7, 0x40000010))
}

func TestRecord_ZeroPrefix(t *testing.T) {
	t.Parallel()

	// With an all-zero prefix the accumulator is zero, so the checksum is
	// the rotated encoded position alone.
	prefix := make([]byte, 26)
	at := uint32(26)
	var enc [4]byte
	binary.LittleEndian.PutUint32(enc[:], offsetEncodeTable[(at+4)&0xF]^(at+4))
	var want [4]byte
	for i := range want {
		want[i] = enc[(uint32(i)+at)&3]
	}
	assert.Equal(t, binary.LittleEndian.Uint32(want[:]), Record(prefix, 0, 0))
}

func TestRecord_DependsOnPosition(t *testing.T) {
	t.Parallel()

	prefix := []byte("0123456789abcdefghijklmnopqrstuvwxyz")[:26]
	base := Record(prefix, 0, 0)
	assert.NotEqual(t, base, Record(prefix, 0, 4096))
	assert.NotEqual(t, base, Record(prefix, 1, 0))
	assert.Equal(t, base, Record(prefix, 4, 0), "only the low two file bits participate")
}

func TestRecord_DetectsSingleByteFlip(t *testing.T) {
	t.Parallel()

	prefix := []byte("abcdefghijklmnopqrstuvwxyz")
	base := Record(prefix, 2, 0x1000)
	for i := range prefix {
		flipped := append([]byte(nil), prefix...)
		flipped[i] ^= 0x5A
		assert.NotEqual(t, base, Record(flipped, 2, 0x1000), "byte %d", i)
	}
}
