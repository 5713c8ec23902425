package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/umputun/dura/pkg/config"
)

// runStatus prints the daemon's pid (if running) and the latency snapshot
// it last wrote, falling back gracefully when the daemon has never run or
// hasn't ticked yet — status is diagnostic only, never load-bearing.
func runStatus(runtimeDir string) error {
	store := config.NewAt(runtimeDir)
	doc, err := store.Load()
	if err != nil {
		return err
	}

	if doc.PID == nil {
		fmt.Println("dura is not running")
		return nil
	}
	fmt.Printf("dura is running (pid %d)\n", *doc.PID)

	data, err := os.ReadFile(filepath.Join(runtimeDir, statusFileName)) //nolint:gosec // fixed runtime-dir path
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("no tick has completed yet")
			return nil
		}
		return err
	}

	var snap statusSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse status snapshot: %w", err)
	}

	fmt.Printf("watching %d repo(s), last updated %s\n", snap.WatchedRepos, humanize.Time(snap.UpdatedAt))
	fmt.Printf("ticks recorded: %d\n", snap.TickCount)
	fmt.Printf("latency p50=%s p90=%s p99=%s\n",
		time.Duration(snap.P50Micros*int64(time.Microsecond)),
		time.Duration(snap.P90Micros*int64(time.Microsecond)),
		time.Duration(snap.P99Micros*int64(time.Microsecond)),
	)
	return nil
}

// runList prints the watched repo set and each repo's configured filters.
func runList(store *config.Store) error {
	doc, err := store.Load()
	if err != nil {
		return err
	}

	paths := doc.SortedRepoPaths()
	if len(paths) == 0 {
		fmt.Println("no repos watched")
		return nil
	}

	for _, path := range paths {
		cfg := doc.Repos[path]
		fmt.Println(path)
		if len(cfg.Include) > 0 {
			fmt.Printf("  include: %v\n", cfg.Include)
		}
		if len(cfg.Exclude) > 0 {
			fmt.Printf("  exclude: %v\n", cfg.Exclude)
		}
	}
	return nil
}
