package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ryandielhenn/zephyrkv/pkg/kv"
	"github.com/ryandielhenn/zephyrkv/pkg/sweep"
)

func main() {
	readers := flag.Int("r", 32, "reader goroutines")
	writes := flag.Int("n", 5000, "writes")
	keys := flag.Int("keys", 10000, "preloaded keys")
	valSize := flag.Int("val", 128, "value size bytes")
	ttl := flag.Duration("ttl", 0, "ttl for written keys (0 = eternal)")
	flag.Parse()
	if *writes <= 0 || *keys <= 0 {
		fmt.Fprintln(os.Stderr, "-n and -keys must be positive")
		os.Exit(2)
	}

	val := string(make([]byte, *valSize))
	entries := make([]kv.Entry, *keys)
	for i := range entries {
		entries[i] = kv.Entry{Key: fmt.Sprintf("k%08d", i), Value: val}
	}
	s := kv.NewStore(entries)
	sw := sweep.New(s, sweep.Config{})

	var stop atomic.Bool
	var reads atomic.Int64
	var wg sync.WaitGroup
	for r := 0; r < *readers; r++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for !stop.Load() {
				k := fmt.Sprintf("k%08d", rnd.Intn(*keys))
				if rnd.Intn(8) == 0 {
					s.GetManySorted(k, 16)
				} else {
					s.Get(k)
				}
				reads.Add(1)
			}
		}(int64(r))
	}

	lat := make([]time.Duration, 0, *writes)
	start := time.Now()
	for i := 0; i < *writes; i++ {
		k := fmt.Sprintf("w%08d", i)
		t0 := time.Now()
		if i%10 == 9 {
			s.Remove(fmt.Sprintf("w%08d", i-1))
		} else {
			s.Set(k, val, *ttl)
		}
		lat = append(lat, time.Since(t0))
		if i%1000 == 999 {
			sw.DrainOnce()
		}
	}
	dur := time.Since(start)
	stop.Store(true)
	wg.Wait()

	slices.Sort(lat)
	pct := func(p float64) time.Duration { return lat[int(p*float64(len(lat)-1))] }
	fmt.Printf("Completed %d writes in %s (%.2f writes/s) with %d readers\n", *writes, dur, float64(*writes)/dur.Seconds(), *readers)
	fmt.Printf("write latency p50=%s p99=%s max=%s\n", pct(0.50), pct(0.99), lat[len(lat)-1])
	fmt.Printf("reads=%d (%.2f reads/s) reader retries=%d records=%d\n", reads.Load(), float64(reads.Load())/dur.Seconds(), s.GateRetries(), s.Len())
}
