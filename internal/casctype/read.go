package casctype

import (
	"errors"
	"fmt"
	"io"
)

// WrapRead annotates a read failure on the named structure. A short read
// means the structure is truncated and is reported as ErrIntegrity; any other
// error is passed through.
func WrapRead(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s truncated", ErrIntegrity, what)
	}
	return fmt.Errorf("read %s: %w", what, err)
}

// ReadFull reads exactly len(buf) bytes of the named structure from r.
func ReadFull(r io.Reader, buf []byte, what string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return WrapRead(what, err)
	}
	return nil
}

// Skip discards n bytes of the named structure from r.
func Skip(r io.Reader, n int64, what string) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return WrapRead(what, err)
	}
	return nil
}
