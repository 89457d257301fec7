package blte

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// inflatePool manages reusable zlib readers to reduce allocation overhead.
type inflatePool struct {
	pool sync.Pool
}

// get returns a zlib reader positioned at the start of r.
// The caller must call the returned release function when done.
// If an error is returned, no release function needs to be called.
func (p *inflatePool) get(r io.Reader) (io.ReadCloser, func(), error) {
	if p == nil {
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	}

	if value := p.pool.Get(); value != nil {
		zr, ok := value.(io.ReadCloser)
		resetter, canReset := value.(zlib.Resetter)
		if ok && canReset {
			// Reset reads the new stream header; a reader that fails here
			// is dropped rather than returned to the pool.
			if err := resetter.Reset(r, nil); err != nil {
				return nil, nil, err
			}
			return zr, func() { p.pool.Put(zr) }, nil
		}
	}

	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	return zr, func() { p.pool.Put(zr) }, nil
}
