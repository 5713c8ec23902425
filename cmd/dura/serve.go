package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/umputun/dura/pkg/config"
	"github.com/umputun/dura/pkg/daemon"
	"github.com/umputun/dura/pkg/duralog"
	"github.com/umputun/dura/pkg/metrics"
	"github.com/umputun/dura/pkg/notifyhook"
	"github.com/umputun/dura/pkg/supervisor"
)

// statusFileName is dura's best-effort, non-authoritative status snapshot;
// the daemon works correctly whether or not anything ever reads it.
const statusFileName = "status.json"

// statusSnapshot is what runStatus reads back (see status.go).
type statusSnapshot struct {
	PID          int       `json:"pid"`
	WatchedRepos int       `json:"watched_repos"`
	UpdatedAt    time.Time `json:"updated_at"`
	TickCount    int64     `json:"tick_count"`
	P50Micros    int64     `json:"p50_micros"`
	P90Micros    int64     `json:"p90_micros"`
	P99Micros    int64     `json:"p99_micros"`
}

func runServe(ctx context.Context, store *config.Store, runtimeDir string) error {
	log := duralog.New()
	rec := metrics.NewRecorder()
	singleton := daemon.New(store, runtimeDir)

	if err := singleton.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := singleton.Release(); err != nil {
			log.Errorf("release singleton: %v", err)
		}
	}()

	watcher, nudges := startNotifyHook(ctx, store, log)
	if watcher != nil {
		defer watcher.Close() //nolint:errcheck // best-effort accelerator teardown
	}

	loop := supervisor.New(store, singleton, log, rec, supervisor.WithNudges(nudges))

	statusPath := filepath.Join(runtimeDir, statusFileName)
	stopStatus := startStatusWriter(ctx, statusPath, store, rec)
	defer stopStatus()

	log.Infof("dura %s started, watching for uncommitted changes", resolveVersion())
	return loop.Run(ctx)
}

// startNotifyHook watches every currently-configured repo root for
// filesystem events, purely as a latency accelerator (§9). Any failure to
// set it up degrades to poll-only operation, never a fatal error.
func startNotifyHook(ctx context.Context, store *config.Store, log *duralog.Logger) (*notifyhook.Watcher, <-chan struct{}) {
	watcher, err := notifyhook.New()
	if err != nil {
		log.Warnf("filesystem watch unavailable, falling back to poll-only: %v", err)
		return nil, nil
	}

	doc, err := store.Load()
	if err != nil {
		log.Warnf("could not preload watch list for filesystem accelerator: %v", err)
	} else {
		for _, path := range doc.SortedRepoPaths() {
			if err := watcher.Add(path); err != nil {
				log.Warnf("could not watch %s for filesystem events: %v", path, err)
			}
		}
	}

	go watcher.Run(ctx)
	return watcher, watcher.Nudges()
}

// startStatusWriter periodically persists a status snapshot to disk for the
// status verb to read. It is strictly observational: its own failures are
// silently ignored, never fatal, and it never affects capture correctness.
// The returned stop func ends the writer and waits for it to exit.
func startStatusWriter(ctx context.Context, path string, store *config.Store, rec *metrics.Recorder) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(supervisor.DefaultPollInterval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				close(done)
				return
			case <-ticker.C:
				writeStatusSnapshot(path, store, rec)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func writeStatusSnapshot(path string, store *config.Store, rec *metrics.Recorder) {
	doc, err := store.Load()
	if err != nil {
		return
	}
	snap := rec.Snapshot()

	out := statusSnapshot{
		PID:          os.Getpid(),
		WatchedRepos: len(doc.Repos),
		UpdatedAt:    time.Now(),
		TickCount:    snap.Count,
		P50Micros:    snap.P50.Microseconds(),
		P90Micros:    snap.P90.Microseconds(),
		P99Micros:    snap.P99.Microseconds(),
	}

	data, err := json.Marshal(out)
	if err != nil {
		return
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return
	}
	_ = os.Rename(tmp, path)
}
