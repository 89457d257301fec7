// cascget reads files out of a local CASC store.
//
// Files are addressed by hex content key (resolved through the encoding
// table) or by hex encoding key. Reports are printed as JSON, YAML or CBOR;
// file contents go to stdout or to the file named by -o.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var flags flagValues
	flagSet := pflag.NewFlagSet("cascget", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flags.register(flagSet)
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return errors.New("missing command")
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	cfg, err := resolveConfig(flagSet, &flags)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	e := &env{cfg: cfg, logger: logger, stdout: stdout, stderr: stderr}
	return cmd.run(e, rest[0], rest[1:])
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `cascget reads files out of a local CASC store.

Usage:
  cascget [flags] <command> [args]

Commands:
`)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-34s %s\n", commands[name].usage, commands[name].summary)
	}
	fmt.Fprintf(w, "\nFlags:\n")
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
