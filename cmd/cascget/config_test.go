package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(tb testing.TB, content string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "cascget.yaml")
	require.NoError(tb, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func parseFlags(tb testing.TB, args ...string) (*pflag.FlagSet, *flagValues) {
	tb.Helper()

	var flags flagValues
	flagSet := pflag.NewFlagSet("cascget", pflag.ContinueOnError)
	flags.register(flagSet)
	require.NoError(tb, flagSet.Parse(args))
	return flagSet, &flags
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
store: /games/Data/data
encoding_key: 0123456789abcdef0123456789abcdef
format: yaml
log_level: debug
workers: 4
verify_entry_tables: false
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/games/Data/data", cfg.Store)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.EncodingKey)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, 4, cfg.Workers)
	require.NotNil(t, cfg.VerifyEntryTables)
	assert.False(t, *cfg.VerifyEntryTables)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "workers: [1, 2]\n"))
	require.Error(t, err)
}

func TestResolveConfig_Defaults(t *testing.T) {
	t.Parallel()

	flagSet, flags := parseFlags(t, "--store", "/store")
	cfg, err := resolveConfig(flagSet, flags)
	require.NoError(t, err)
	assert.Equal(t, "/store", cfg.Store)
	assert.Equal(t, formatJSON, cfg.Format)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 1, cfg.Workers)
	assert.True(t, *cfg.VerifyEntryTables)
}

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
store: /from/file
encoding_key: aabb
format: yaml
workers: 4
`)

	flagSet, flags := parseFlags(t, "--config", path, "--format", "cbor", "--no-verify-entry-tables")
	cfg, err := resolveConfig(flagSet, flags)
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.Store)
	assert.Equal(t, "aabb", cfg.EncodingKey)
	assert.Equal(t, formatCBOR, cfg.Format)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, *cfg.VerifyEntryTables)

	flagSet, flags = parseFlags(t, "--config", path, "--store", "/from/flag", "--workers", "2")
	cfg, err = resolveConfig(flagSet, flags)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.Store)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, *cfg.VerifyEntryTables)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no store", func(c *Config) { c.Store = "" }},
		{"bad format", func(c *Config) { c.Format = "toml" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			cfg.Store = "/store"
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
