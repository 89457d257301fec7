package casc

import (
	casccore "github.com/meigma/casc/core"
	"github.com/meigma/casc/internal/casctype"
)

// Errors re-exported from core.
var (
	// ErrUnsupportedFormat is returned when a store file or table is not in
	// the expected format.
	ErrUnsupportedFormat = casccore.ErrUnsupportedFormat

	// ErrIntegrity is returned when a checksum, digest or declared length
	// does not match the data.
	ErrIntegrity = casccore.ErrIntegrity

	// ErrEntryNotFound is returned when a key has no index or table entry.
	ErrEntryNotFound = casccore.ErrEntryNotFound

	// ErrUnknownEncodingMode is returned when a BLTE chunk uses an
	// unsupported mode.
	ErrUnknownEncodingMode = casccore.ErrUnknownEncodingMode

	// ErrSizeOverflow is returned when a size exceeds the configured limits.
	ErrSizeOverflow = casccore.ErrSizeOverflow

	// ErrSymlink is returned when a store file is a symbolic link.
	ErrSymlink = casccore.ErrSymlink
)

// ParseKey decodes a hex encoded content or encoding key.
func ParseKey(s string) ([]byte, error) {
	return casctype.ParseKey(s)
}

// FormatKey returns the lowercase hex form of key.
func FormatKey(key []byte) string {
	return casctype.FormatKey(key)
}
