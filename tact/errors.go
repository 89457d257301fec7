package tact

import "github.com/meigma/casc/internal/casctype"

// Errors re-exported from casctype.
var (
	// ErrUnsupportedFormat is returned when a magic, marker or version does
	// not identify the expected format.
	ErrUnsupportedFormat = casctype.ErrUnsupportedFormat

	// ErrIntegrity is returned when a page digest or declared length does
	// not match the data.
	ErrIntegrity = casctype.ErrIntegrity

	// ErrEntryNotFound is returned when a key is absent from the table.
	ErrEntryNotFound = casctype.ErrEntryNotFound

	// ErrSizeOverflow is returned when declared sizes exceed supported limits.
	ErrSizeOverflow = casctype.ErrSizeOverflow
)
