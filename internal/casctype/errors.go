package casctype

import "errors"

// Sentinel errors for store, container and table operations.
//
// None of these are transient. The data source is a local file, so a caller
// that keeps seeing ErrIntegrity should treat the store as corrupted.
var (
	// ErrUnsupportedFormat is returned when a magic, block type or version
	// field does not identify the expected format.
	ErrUnsupportedFormat = errors.New("casc: unsupported format")

	// ErrIntegrity is returned when a checksum, MD5 or declared length does
	// not match the data it describes.
	ErrIntegrity = errors.New("casc: integrity check failed")

	// ErrEntryNotFound is returned when a key has no index or table entry.
	ErrEntryNotFound = errors.New("casc: entry not found")

	// ErrUnknownEncodingMode is returned when a BLTE chunk uses a mode
	// other than 'N' or 'Z'.
	ErrUnknownEncodingMode = errors.New("casc: unknown encoding mode")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("casc: size overflow")

	// ErrSymlink is returned when a store file is a symbolic link.
	ErrSymlink = errors.New("casc: symlink not allowed")
)
