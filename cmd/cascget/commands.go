package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	digest "github.com/opencontainers/go-digest"
	"github.com/spf13/pflag"

	"github.com/meigma/casc"
	casccore "github.com/meigma/casc/core"
	"github.com/meigma/casc/internal/index"
)

type command struct {
	usage   string
	summary string
	run     func(e *env, name string, args []string) error
}

var commands = map[string]command{
	"stat": {
		usage:   "stat",
		summary: "print store and encoding table summary",
		run:     runStat,
	},
	"resolve": {
		usage:   "resolve <ckey>",
		summary: "print the encoding keys of a content key",
		run:     runResolve,
	},
	"get": {
		usage:   "get [-o file] <ckey>",
		summary: "write the decoded file with a content key",
		run:     runGet,
	},
	"raw": {
		usage:   "raw [-o file] <ekey>",
		summary: "write the BLTE container stored under an encoding key",
		run:     runRaw,
	},
	"manifest": {
		usage:   "manifest <name> <ckey>",
		summary: "decrypt and print a content manifest",
		run:     runManifest,
	},
}

// env carries the resolved configuration into a command.
type env struct {
	cfg    *Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func (e *env) storeOptions() []casccore.Option {
	return []casccore.Option{
		casccore.WithDecodeWorkers(e.cfg.Workers),
		casccore.WithEntryTableVerification(*e.cfg.VerifyEntryTables),
	}
}

func (e *env) openStore() (*casccore.Store, error) {
	opts := append([]casccore.Option{casccore.WithLogger(e.logger)}, e.storeOptions()...)
	return casccore.Open(e.cfg.Store, opts...)
}

func (e *env) openClient() (*casc.Client, error) {
	if e.cfg.EncodingKey == "" {
		return nil, errors.New("encoding-key is required")
	}
	key, err := casc.ParseKey(e.cfg.EncodingKey)
	if err != nil {
		return nil, fmt.Errorf("encoding-key: %w", err)
	}
	return casc.Open(e.cfg.Store, key,
		casc.WithLogger(e.logger),
		casc.WithStoreOptions(e.storeOptions()...))
}

func (e *env) report(v any) error {
	return writeReport(e.stdout, e.cfg.Format, v)
}

// parseArgs parses command flags and checks the positional argument count.
func parseArgs(e *env, name string, args []string, want int, output *string) ([]string, error) {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(e.stderr)
	if output != nil {
		flagSet.StringVarP(output, "output", "o", "", "write the file here instead of stdout")
	}
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if flagSet.NArg() != want {
		return nil, fmt.Errorf("%s: want %d arguments, got %d", name, want, flagSet.NArg())
	}
	return flagSet.Args(), nil
}

func runStat(e *env, name string, args []string) error {
	if _, err := parseArgs(e, name, args, 0, nil); err != nil {
		return err
	}

	var (
		store *casccore.Store
		rep   statReport
	)
	if e.cfg.EncodingKey != "" {
		client, err := e.openClient()
		if err != nil {
			return err
		}
		defer client.Close()
		store = client.Store()

		enc := client.Encoding()
		ckeySize, ekeySize := enc.KeySizes()
		rep.Encoding = &encodingReport{
			Key:         e.cfg.EncodingKey,
			ContentKeys: enc.Len(),
			CKeySize:    ckeySize,
			EKeySize:    ekeySize,
			Specs:       enc.SpecStrings(),
		}
	} else {
		s, err := e.openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	rep.Dir = e.cfg.Store
	rep.DataPath = store.DataPath()
	rep.Entries = store.Len()
	rep.FreeSpaces = len(store.FreeSpaces())
	for bucket, version := range store.Versions() {
		b := bucketReport{Bucket: bucket, Version: version}
		if version != 0 {
			b.File = index.FileName(bucket, version)
		}
		rep.Buckets = append(rep.Buckets, b)
	}
	return e.report(rep)
}

func runResolve(e *env, name string, args []string) error {
	pos, err := parseArgs(e, name, args, 1, nil)
	if err != nil {
		return err
	}
	ckey, err := casc.ParseKey(pos[0])
	if err != nil {
		return err
	}

	client, err := e.openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	enc := client.Encoding()
	ekeys, err := enc.EncodingKeys(ckey)
	if err != nil {
		return err
	}
	size, err := enc.ContentSize(ckey)
	if err != nil {
		return err
	}

	rep := resolveReport{CKey: casc.FormatKey(ckey), ContentSize: size}
	for _, ekey := range ekeys {
		rep.EKeys = append(rep.EKeys, casc.FormatKey(ekey))
	}
	// Tables may omit the e-key page for some keys.
	if spec, err := enc.Spec(ekeys[0]); err == nil {
		rep.Spec = spec.Spec
		rep.EncodedSize = spec.Size
	} else if !errors.Is(err, casc.ErrEntryNotFound) {
		return err
	}
	return e.report(rep)
}

func runGet(e *env, name string, args []string) error {
	var output string
	pos, err := parseArgs(e, name, args, 1, &output)
	if err != nil {
		return err
	}
	ckey, err := casc.ParseKey(pos[0])
	if err != nil {
		return err
	}

	client, err := e.openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ekey, err := client.Resolve(ckey)
	if err != nil {
		return err
	}
	content, err := client.GetByEncodingKey(ekey)
	if err != nil {
		return err
	}
	return e.writeFile(content, output, fileReport{
		CKey: casc.FormatKey(ckey),
		EKey: casc.FormatKey(ekey),
	})
}

func runRaw(e *env, name string, args []string) error {
	var output string
	pos, err := parseArgs(e, name, args, 1, &output)
	if err != nil {
		return err
	}
	ekey, err := casc.ParseKey(pos[0])
	if err != nil {
		return err
	}

	store, err := e.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	encoded, err := store.GetEncoded(ekey)
	if err != nil {
		return err
	}
	return e.writeFile(encoded, output, fileReport{EKey: casc.FormatKey(ekey)})
}

// writeFile writes content to stdout, or to output followed by a report.
func (e *env) writeFile(content []byte, output string, rep fileReport) error {
	if output == "" {
		_, err := e.stdout.Write(content)
		return err
	}
	if err := os.WriteFile(output, content, 0o644); err != nil { //nolint:gosec // output files are meant to be readable
		return err
	}
	rep.Size = len(content)
	rep.Digest = digest.FromBytes(content).String()
	rep.Output = output
	e.logger.Info("file written", "output", output, "bytes", len(content))
	return e.report(rep)
}

func runManifest(e *env, name string, args []string) error {
	pos, err := parseArgs(e, name, args, 2, nil)
	if err != nil {
		return err
	}
	ckey, err := casc.ParseKey(pos[1])
	if err != nil {
		return err
	}

	client, err := e.openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	m, err := client.ContentManifest(pos[0], ckey)
	if err != nil {
		return err
	}

	rep := manifestReport{
		Name:    pos[0],
		CKey:    casc.FormatKey(ckey),
		Build:   m.Header.BuildVersion,
		Entries: make([]manifestEntryReport, 0, len(m.Entries)),
		Assets:  make([]manifestAssetReport, 0, len(m.Assets)),
	}
	for _, entry := range m.Entries {
		rep.Entries = append(rep.Entries, manifestEntryReport{
			Index: entry.Index,
			HashA: fmt.Sprintf("%016x", entry.HashA),
			HashB: fmt.Sprintf("%016x", entry.HashB),
		})
	}
	for _, asset := range m.Assets {
		rep.Assets = append(rep.Assets, manifestAssetReport{
			GUID: asset.GUID.String(),
			Type: asset.GUID.Type,
			Size: asset.Size,
			MD5:  casc.FormatKey(asset.MD5[:]),
		})
	}
	return e.report(rep)
}
