// Package casc retrieves files from a local CASC store by content key.
//
// A [Client] pairs an opened store with the encoding table that maps content
// keys to encoding keys. Opening a client reads the store's indexes and
// then fetches, decodes and parses the encoding table stored under the
// build's encoding key. For direct access to the store by encoding key,
// use the [core] subpackage.
//
// # Quick Start
//
//	ekey, err := casc.ParseKey("2c9f0d1a...")
//	if err != nil {
//	    return err
//	}
//	c, err := casc.Open("/games/product/data/casc/data", ekey)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	root, err := c.Get(rootContentKey)
//
// Every retrieval verifies the record header checksums and the per-chunk
// MD5 digests of the BLTE container before any content is returned. A
// failed check is reported as [ErrIntegrity] and is not retried.
package casc
