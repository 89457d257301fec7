package casc

import (
	"log/slog"

	casccore "github.com/meigma/casc/core"
	"github.com/meigma/casc/tact"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the client and its store.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithStoreOptions passes options through to the underlying store.
func WithStoreOptions(opts ...casccore.Option) Option {
	return func(c *Client) {
		c.storeOpts = append(c.storeOpts, opts...)
	}
}

// WithEncodingOptions passes options through to the encoding table parser.
func WithEncodingOptions(opts ...tact.EncodingOption) Option {
	return func(c *Client) {
		c.encodingOpts = append(c.encodingOpts, opts...)
	}
}
