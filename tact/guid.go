package tact

import (
	"fmt"
	"math/bits"
)

// GUID is a decomposed 64-bit asset identifier.
//
// From the most significant bit: engine (4 bits), type (12 bits, stored
// bit-reversed and minus one), platform (4), region (5), reserved (2),
// locale (5) and index (32).
type GUID struct {
	Engine   uint8
	Type     uint16
	Platform uint8
	Region   uint8
	Reserved uint8
	Locale   uint8
	Index    uint32
}

// ParseGUID decomposes a raw identifier.
func ParseGUID(v uint64) GUID {
	return GUID{
		Engine:   uint8(v >> 60 & 0xF),
		Type:     bits.Reverse16(uint16(v>>48&0xFFF))>>4 + 1,
		Platform: uint8(v >> 44 & 0xF),
		Region:   uint8(v >> 39 & 0x1F),
		Reserved: uint8(v >> 37 & 0x3),
		Locale:   uint8(v >> 32 & 0x1F),
		Index:    uint32(v), //nolint:gosec // low 32 bits
	}
}

// Raw packs g back into its 64-bit form. Fields wider than their slot are
// truncated.
func (g GUID) Raw() uint64 {
	typ := bits.Reverse16((g.Type-1)<<4) & 0xFFF
	return uint64(g.Engine&0xF)<<60 |
		uint64(typ)<<48 |
		uint64(g.Platform&0xF)<<44 |
		uint64(g.Region&0x1F)<<39 |
		uint64(g.Reserved&0x3)<<37 |
		uint64(g.Locale&0x1F)<<32 |
		uint64(g.Index)
}

// String formats g as index.type in hex, the form asset tools print.
func (g GUID) String() string {
	return fmt.Sprintf("%012X.%03X", g.Index, g.Type)
}
