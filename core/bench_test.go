package casc

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/meigma/casc/internal/index"
	"github.com/meigma/casc/internal/testutil"
)

var benchSinkBytes []byte

type benchPattern string

const (
	benchPatternCompressible benchPattern = "compressible"
	benchPatternRandom       benchPattern = "random"
)

// makeBenchStore writes count records of chunks × chunkSize bytes, spread
// over every bucket and three data files.
func makeBenchStore(b *testing.B, count, chunks, chunkSize int, pattern benchPattern) (string, [][]byte) {
	b.Helper()

	rng := rand.New(rand.NewSource(1)) //nolint:gosec // reproducible benchmark data
	records := make([]testutil.Record, 0, count)
	keys := make([][]byte, 0, count)
	for i := range count {
		key := make([]byte, 16)
		rng.Read(key)

		parts := make([]testutil.Chunk, chunks)
		for c := range parts {
			content := make([]byte, chunkSize)
			switch pattern {
			case benchPatternRandom:
				rng.Read(content)
			default:
				copy(content, bytes.Repeat([]byte{byte('a' + i%26)}, chunkSize))
			}
			parts[c] = testutil.Chunk{Mode: 'Z', Content: content}
		}

		records = append(records, testutil.Record{
			Key:     key,
			Payload: testutil.BuildBLTE(b, parts...),
			File:    uint64(i % 3),
			Bucket:  i % index.BucketCount,
		})
		keys = append(keys, key)
	}
	return testutil.BuildStore(b, records...).Dir, keys
}

func BenchmarkStoreGet(b *testing.B) {
	cases := []struct {
		pattern benchPattern
		workers int
	}{
		{benchPatternCompressible, 1},
		{benchPatternCompressible, 4},
		{benchPatternRandom, 1},
		{benchPatternRandom, 4},
	}
	for _, tc := range cases {
		b.Run(fmt.Sprintf("%s/workers=%d", tc.pattern, tc.workers), func(b *testing.B) {
			const chunks, chunkSize = 8, 64 << 10
			dir, keys := makeBenchStore(b, 32, chunks, chunkSize, tc.pattern)
			s, err := Open(dir, WithDecodeWorkers(tc.workers))
			if err != nil {
				b.Fatal(err)
			}
			b.Cleanup(func() { _ = s.Close() })

			b.SetBytes(chunks * chunkSize)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; b.Loop(); i++ {
				content, err := s.Get(keys[i%len(keys)])
				if err != nil {
					b.Fatal(err)
				}
				benchSinkBytes = content
			}
		})
	}
}

func BenchmarkOpen(b *testing.B) {
	dir, _ := makeBenchStore(b, 512, 1, 1<<10, benchPatternCompressible)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		s, err := Open(dir)
		if err != nil {
			b.Fatal(err)
		}
		_ = s.Close()
	}
}
