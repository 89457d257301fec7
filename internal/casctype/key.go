package casctype

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// PrefixSize is the number of leading key bytes the local index stores.
const PrefixSize = 9

// Prefix is the truncated key the store indexes on. Distinct keys sharing a
// prefix collide; the entry loaded last wins.
type Prefix [PrefixSize]byte

// PrefixOf returns the index prefix of key. ok is false when key is shorter
// than PrefixSize.
func PrefixOf(key []byte) (p Prefix, ok bool) {
	if len(key) < PrefixSize {
		return p, false
	}
	copy(p[:], key)
	return p, true
}

// ParseKey decodes a hex encoded content or encoding key.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("parse key: empty")
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse key %q: %w", s, err)
	}
	return key, nil
}

// FormatKey returns the lowercase hex form of key.
func FormatKey(key []byte) string {
	return hex.EncodeToString(key)
}
