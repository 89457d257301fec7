package tact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGUID_Fields(t *testing.T) {
	t.Parallel()

	// Type 0x00C is stored as reverse12(0x00B) = 0xD00.
	raw := uint64(0x1)<<60 | uint64(0xD00)<<48 | uint64(0x2)<<44 | uint64(0x3)<<39 |
		uint64(0x1)<<37 | uint64(0x4)<<32 | 0xDEADBEEF

	g := ParseGUID(raw)
	assert.Equal(t, GUID{
		Engine:   1,
		Type:     0x00C,
		Platform: 2,
		Region:   3,
		Reserved: 1,
		Locale:   4,
		Index:    0xDEADBEEF,
	}, g)
	assert.Equal(t, raw, g.Raw())
	assert.Equal(t, "0000DEADBEEF.00C", g.String())
}

func TestGUID_RoundTrip(t *testing.T) {
	t.Parallel()

	values := []uint64{
		0,
		^uint64(0),
		0x0C00000000000001,
		0x0D00000000001234,
		0x8765432187654321,
		0x1234567890ABCDEF,
	}
	for _, v := range values {
		assert.Equal(t, v, ParseGUID(v).Raw(), "%016x", v)
	}
}

func TestParseGUID_TypeRange(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint16(1), ParseGUID(0).Type)
	assert.Equal(t, uint16(0x1000), ParseGUID(uint64(0xFFF)<<48).Type)
	for typ := uint16(1); typ <= 0x1000; typ++ {
		g := GUID{Type: typ}
		assert.Equal(t, typ, ParseGUID(g.Raw()).Type)
	}
}
