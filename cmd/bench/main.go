package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/journal"
	"github.com/aretw0/journal/pkg/core"
)

func main() {
	count := flag.Int("count", 1000, "Number of reflections to append")
	workers := flag.Int("workers", 4, "Concurrent writers")
	adapter := flag.String("adapter", "fs", "Store adapter: fs or sqlite")
	keep := flag.Bool("keep", false, "Keep the benchmark journal after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "journal_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	name := "reflections.json"
	if *adapter == "sqlite" {
		name = "reflections.db"
	}
	path := filepath.Join(benchDir, name)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service, err := journal.New(path, journal.WithAdapter(*adapter), journal.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	ctx := context.Background()

	// 1. Concurrent appends: every append rewrites the whole document, so
	// this grows quadratically for fs and shows the cost of the lock.
	fmt.Printf("Appending %d reflections with %d workers (%s)...\n", *count, *workers, *adapter)
	jobs := make(chan int)
	var wg sync.WaitGroup
	var failures int
	var mu sync.Mutex
	startAppend := time.Now()
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				in := core.Input{Text: fmt.Sprintf("Benchmark reflection number %d", i), Source: "bench"}
				if _, err := service.SubmitEntry(ctx, in); err != nil {
					mu.Lock()
					failures++
					mu.Unlock()
				}
			}
		}()
	}
	for i := 0; i < *count; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	appendDuration := time.Since(startAppend)

	// 2. Cold list on a fresh instance, as a new CLI run would see it.
	service2, err := journal.New(path, journal.WithAdapter(*adapter), journal.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	startCold := time.Now()
	cold, err := service2.ListEntries(ctx)
	if err != nil {
		panic(err)
	}
	coldDuration := time.Since(startCold)

	// 3. Warm list on the same instance (snapshot cache for fs).
	startWarm := time.Now()
	warm, err := service2.ListEntries(ctx)
	if err != nil {
		panic(err)
	}
	warmDuration := time.Since(startWarm)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d reflections, %s):\n", *count, *adapter)
	fmt.Printf("  Append:    %v total, %v/op, %d failed\n", appendDuration, appendDuration/time.Duration(max(*count, 1)), failures)
	fmt.Printf("  List cold: %v (items: %d)\n", coldDuration, len(cold))
	fmt.Printf("  List warm: %v (items: %d)\n", warmDuration, len(warm))
	fmt.Printf("--------------------------------------------------\n")
}
