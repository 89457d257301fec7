package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"math/rand" //nolint:gosec // intentional use for reproducible benchmarks
	"net/http"
	_ "net/http/pprof" //nolint:gosec // intentional profiling endpoint
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"slices"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	casccore "github.com/meigma/casc/core"
)

type config struct {
	mode          string
	store         string
	keys          int
	decodeWorkers int
	readers       int
	dedup         bool
	verifyTables  bool
	duration      time.Duration
	iterations    int
	pprofAddr     string
	cpuProfile    string
	memProfile    string
	traceFile     string
	readRandom    bool
	randomSeed    int64
}

//nolint:unused // sink variables prevent compiler optimizations in profiling
var (
	sinkBytes []byte
	sinkEntry casccore.Entry
	sinkCount int
)

func main() {
	cfg := parseFlags()

	if cfg.pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", cfg.pprofAddr)
			//nolint:gosec // intentional pprof server without timeouts for profiling
			if err := http.ListenAndServe(cfg.pprofAddr, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	store, err := casccore.Open(cfg.store, storeOptions(cfg)...)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	keys := sampleKeys(store, cfg.keys)
	if len(keys) == 0 {
		log.Fatal("store has no entries") //nolint:gocritic // exitAfterDefer is intentional - close is best-effort
	}

	if cfg.cpuProfile != "" {
		cpuFile, cpuErr := os.Create(cfg.cpuProfile)
		if cpuErr != nil {
			log.Fatal(cpuErr)
		}
		if cpuErr = pprof.StartCPUProfile(cpuFile); cpuErr != nil {
			log.Fatal(cpuErr)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		}()
	}

	if cfg.traceFile != "" {
		traceFile, traceErr := os.Create(cfg.traceFile)
		if traceErr != nil {
			log.Fatal(traceErr)
		}
		if traceErr = trace.Start(traceFile); traceErr != nil {
			log.Fatal(traceErr)
		}
		defer func() {
			trace.Stop()
			_ = traceFile.Close()
		}()
	}

	stats, err := runProfile(cfg, store, keys)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile != "" {
		runtime.GC()
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		_ = f.Close()
	}

	fmt.Printf("mode=%s keys=%d ops=%d bytes=%d elapsed=%s throughput=%.2f MB/s\n",
		cfg.mode,
		len(keys),
		stats.ops,
		stats.bytes,
		stats.elapsed,
		float64(stats.bytes)/(1024*1024)/stats.elapsed.Seconds(),
	)
}

type profileStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func storeOptions(cfg config) []casccore.Option {
	opts := []casccore.Option{
		casccore.WithDecodeWorkers(cfg.decodeWorkers),
		casccore.WithReadDedup(cfg.dedup),
		casccore.WithEntryTableVerification(cfg.verifyTables),
	}
	if cfg.decodeWorkers == 0 {
		opts = append(opts, casccore.WithAutoDecodeWorkers())
	}
	return opts
}

// sampleKeys returns up to limit index keys in a stable order. limit <= 0
// returns every key.
func sampleKeys(store *casccore.Store, limit int) [][]byte {
	keys := make([][]byte, 0, store.Len())
	for e := range store.Entries() {
		keys = append(keys, e.Key)
	}
	slices.SortFunc(keys, bytes.Compare)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

//nolint:gocognit,gocritic // complexity is inherent to multi-mode profiler dispatch; hugeParam acceptable for profiler
func runProfile(cfg config, store *casccore.Store, keys [][]byte) (profileStats, error) {
	start := time.Now()
	ops := 0
	var byteCount int64

	shouldContinue := func() bool {
		if cfg.iterations > 0 {
			return ops < cfg.iterations
		}
		return time.Since(start) < cfg.duration
	}

	switch cfg.mode {
	case "get", "get-encoded":
		read := store.Get
		if cfg.mode == "get-encoded" {
			read = store.GetEncoded
		}
		if cfg.readers > 1 {
			return runConcurrent(cfg, keys, read)
		}
		rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional for reproducible benchmarks
		for shouldContinue() {
			key := pickKey(keys, ops, rng, cfg.readRandom)
			content, err := read(key)
			if err != nil {
				return profileStats{}, fmt.Errorf("key %x: %w", key, err)
			}
			sinkBytes = content
			byteCount += int64(len(content))
			ops++
		}

	case "lookup":
		rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional for reproducible benchmarks
		for shouldContinue() {
			key := pickKey(keys, ops, rng, cfg.readRandom)
			entry, ok := store.Lookup(key)
			if !ok {
				return profileStats{}, fmt.Errorf("missing entry for %x", key)
			}
			sinkEntry = entry
			ops++
		}

	case "open":
		for shouldContinue() {
			s, err := casccore.Open(cfg.store, storeOptions(cfg)...)
			if err != nil {
				return profileStats{}, err
			}
			sinkCount = s.Len()
			if err := s.Close(); err != nil {
				return profileStats{}, err
			}
			ops++
		}

	default:
		return profileStats{}, fmt.Errorf("unknown mode: %s", cfg.mode)
	}

	return profileStats{
		ops:     ops,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

// runConcurrent reads with cfg.readers goroutines, each taking every
// readers-th operation.
//
//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func runConcurrent(cfg config, keys [][]byte, read func([]byte) ([]byte, error)) (profileStats, error) {
	if cfg.iterations <= 0 {
		return profileStats{}, errors.New("concurrent readers require --iterations")
	}

	start := time.Now()
	counts := make([]int64, cfg.readers)
	var g errgroup.Group
	for r := range cfg.readers {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(cfg.randomSeed + int64(r))) //nolint:gosec // intentional for reproducible benchmarks
			for op := r; op < cfg.iterations; op += cfg.readers {
				key := pickKey(keys, op, rng, cfg.readRandom)
				content, err := read(key)
				if err != nil {
					return fmt.Errorf("key %x: %w", key, err)
				}
				counts[r] += int64(len(content))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return profileStats{}, err
	}

	var byteCount int64
	for _, c := range counts {
		byteCount += c
	}
	return profileStats{
		ops:     cfg.iterations,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

func parseFlags() config {
	var cfg config
	flag := pflag.NewFlagSet("profiler", pflag.ExitOnError)
	flag.StringVar(&cfg.mode, "mode", "get", "mode: get, get-encoded, lookup, open")
	flag.StringVar(&cfg.store, "store", "", "store directory (holds shmem, *.idx and data.NNN)")
	flag.IntVar(&cfg.keys, "keys", 0, "number of index keys to read (0 for all)")
	flag.IntVar(&cfg.decodeWorkers, "decode-workers", 1, "BLTE chunk decode workers per read (0 for GOMAXPROCS)")
	flag.IntVar(&cfg.readers, "readers", 1, "concurrent readers for get modes")
	flag.BoolVar(&cfg.dedup, "dedup", true, "collapse concurrent reads of the same key")
	flag.BoolVar(&cfg.verifyTables, "verify-entry-tables", true, "verify index entry table hashes on open")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "duration to run (ignored if iterations > 0)")
	flag.IntVar(&cfg.iterations, "iterations", 0, "number of iterations to run")
	flag.StringVar(&cfg.pprofAddr, "pprof-addr", "", "pprof listen address (e.g. :6060)")
	flag.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flag.StringVar(&cfg.memProfile, "memprofile", "", "write heap profile to file")
	flag.StringVar(&cfg.traceFile, "trace", "", "write trace to file")
	flag.BoolVar(&cfg.readRandom, "read-random", true, "randomize key selection")
	flag.Int64Var(&cfg.randomSeed, "seed", 1, "random seed")
	_ = flag.Parse(os.Args[1:]) //nolint:errcheck // ExitOnError exits on failure
	if cfg.store == "" {
		log.Fatal("--store is required")
	}
	return cfg
}

func pickKey(keys [][]byte, idx int, rng *rand.Rand, random bool) []byte {
	if random {
		return keys[rng.Intn(len(keys))]
	}
	return keys[idx%len(keys)]
}
