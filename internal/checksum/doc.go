// Package checksum implements the two non-cryptographic checksums used by the
// local store: Bob Jenkins' lookup3 hashlittle, which guards index headers,
// index entry tables and record headers, and the positional XOR checksum that
// closes every data-file record header.
package checksum
