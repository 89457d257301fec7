package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds cascget settings. It is loaded from the single file named by
// --config, then overridden by any flag set on the command line.
type Config struct {
	// Store is the directory holding shmem, the .idx files and data.NNN.
	Store string `yaml:"store"`

	// EncodingKey is the hex encoding key of the encoding table, as listed
	// in the build configuration.
	EncodingKey string `yaml:"encoding_key"`

	// Format selects the report encoding: json, yaml or cbor.
	// Default: json
	Format string `yaml:"format"`

	// LogLevel is the slog level name for stderr logging.
	// Default: warn
	LogLevel string `yaml:"log_level"`

	// Workers is the number of goroutines decoding BLTE chunks of one file.
	// Default: 1
	Workers int `yaml:"workers"`

	// VerifyEntryTables checks each index file's entry table hash on open.
	// Default: true
	VerifyEntryTables *bool `yaml:"verify_entry_tables"`
}

// LoadConfig loads a configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// defaultConfig returns the settings used when neither a config file nor a
// flag provides a value.
func defaultConfig() *Config {
	verify := true
	return &Config{
		Format:            formatJSON,
		LogLevel:          "warn",
		Workers:           1,
		VerifyEntryTables: &verify,
	}
}

// merge overlays the non-zero fields of other onto c.
func (c *Config) merge(other *Config) {
	if other.Store != "" {
		c.Store = other.Store
	}
	if other.EncodingKey != "" {
		c.EncodingKey = other.EncodingKey
	}
	if other.Format != "" {
		c.Format = other.Format
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Workers != 0 {
		c.Workers = other.Workers
	}
	if other.VerifyEntryTables != nil {
		v := *other.VerifyEntryTables
		c.VerifyEntryTables = &v
	}
}

// flagValues holds the raw global flag values before they are applied.
type flagValues struct {
	config        string
	store         string
	encodingKey   string
	format        string
	logLevel      string
	workers       int
	noVerifyTable bool
}

func (f *flagValues) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "path to a YAML config file")
	fs.StringVar(&f.store, "store", "", "store directory (holds shmem, *.idx and data.NNN)")
	fs.StringVar(&f.encodingKey, "encoding-key", "", "hex encoding key of the encoding table")
	fs.StringVar(&f.format, "format", "", "report format: json, yaml or cbor (default json)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error (default warn)")
	fs.IntVar(&f.workers, "workers", 0, "BLTE chunk decode workers (default 1)")
	fs.BoolVar(&f.noVerifyTable, "no-verify-entry-tables", false, "skip index entry table hash verification")
}

// resolveConfig builds the effective configuration: defaults, then the
// config file, then flags that were set explicitly.
func resolveConfig(fs *pflag.FlagSet, f *flagValues) (*Config, error) {
	cfg := defaultConfig()
	if f.config != "" {
		fileCfg, err := LoadConfig(f.config)
		if err != nil {
			return nil, err
		}
		cfg.merge(fileCfg)
	}

	overrides := &Config{}
	if fs.Changed("store") {
		overrides.Store = f.store
	}
	if fs.Changed("encoding-key") {
		overrides.EncodingKey = f.encodingKey
	}
	if fs.Changed("format") {
		overrides.Format = f.format
	}
	if fs.Changed("log-level") {
		overrides.LogLevel = f.logLevel
	}
	if fs.Changed("workers") {
		overrides.Workers = f.workers
	}
	if fs.Changed("no-verify-entry-tables") {
		verify := !f.noVerifyTable
		overrides.VerifyEntryTables = &verify
	}
	cfg.merge(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Store == "" {
		return fmt.Errorf("store is required")
	}
	switch c.Format {
	case formatJSON, formatYAML, formatCBOR:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
