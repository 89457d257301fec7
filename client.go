package casc

import (
	"bytes"
	"fmt"
	"log/slog"

	casccore "github.com/meigma/casc/core"
	"github.com/meigma/casc/internal/casctype"
	"github.com/meigma/casc/tact"
)

// Client retrieves files from a store by content key.
//
// A Client is immutable after Open and safe for concurrent use.
type Client struct {
	store    *casccore.Store
	encoding *tact.Encoding

	storeOpts    []casccore.Option
	encodingOpts []tact.EncodingOption
	logger       *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Open opens the store in dir and loads the encoding table stored under
// encodingKey.
func Open(dir string, encodingKey []byte, opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	storeOpts := c.storeOpts
	if c.logger != nil {
		storeOpts = append([]casccore.Option{casccore.WithLogger(c.logger)}, storeOpts...)
	}
	store, err := casccore.Open(dir, storeOpts...)
	if err != nil {
		return nil, err
	}

	data, err := store.Get(encodingKey)
	if err != nil {
		_ = store.Close() //nolint:errcheck // read error takes precedence
		return nil, fmt.Errorf("read encoding table: %w", err)
	}
	encoding, err := tact.ReadEncoding(bytes.NewReader(data), c.encodingOpts...)
	if err != nil {
		_ = store.Close() //nolint:errcheck // parse error takes precedence
		return nil, fmt.Errorf("parse encoding table: %w", err)
	}

	c.store = store
	c.encoding = encoding
	c.log().Debug("encoding table loaded",
		"key", casctype.FormatKey(encodingKey),
		"bytes", len(data),
		"content_keys", encoding.Len(),
		"specs", len(encoding.SpecStrings()))
	return c, nil
}

// Resolve returns the encoding key for ckey.
func (c *Client) Resolve(ckey []byte) ([]byte, error) {
	return c.encoding.Resolve(ckey)
}

// Get returns the content of the file with content key ckey.
func (c *Client) Get(ckey []byte) ([]byte, error) {
	ekey, err := c.encoding.Resolve(ckey)
	if err != nil {
		return nil, err
	}
	content, err := c.store.Get(ekey)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", casctype.FormatKey(ckey), err)
	}
	return content, nil
}

// GetByEncodingKey returns the decoded content stored under ekey.
func (c *Client) GetByEncodingKey(ekey []byte) ([]byte, error) {
	return c.store.Get(ekey)
}

// GetEncoded returns the BLTE container stored under ekey without decoding
// it.
func (c *Client) GetEncoded(ekey []byte) ([]byte, error) {
	return c.store.GetEncoded(ekey)
}

// ContentManifest retrieves and decrypts the content manifest with content
// key ckey. name is the manifest's file name as listed in the root file; it
// keys the decryption.
func (c *Client) ContentManifest(name string, ckey []byte) (*tact.ContentManifest, error) {
	data, err := c.Get(ckey)
	if err != nil {
		return nil, err
	}
	m, err := tact.ReadContentManifest(name, data)
	if err != nil {
		return nil, fmt.Errorf("content manifest %s: %w", name, err)
	}
	c.log().Debug("content manifest read",
		"name", name,
		"build", m.Header.BuildVersion,
		"entries", len(m.Entries),
		"assets", len(m.Assets))
	return m, nil
}

// Store returns the underlying store.
func (c *Client) Store() *casccore.Store {
	return c.store
}

// Encoding returns the parsed encoding table.
func (c *Client) Encoding() *tact.Encoding {
	return c.encoding
}

// Close closes the underlying store.
func (c *Client) Close() error {
	return c.store.Close()
}
