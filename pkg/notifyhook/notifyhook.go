// Package notifyhook is an optional latency accelerator for the supervisor
// loop: it watches the root directories of configured repositories (not
// their subdirectories) for filesystem events and
// nudges the loop to run its next tick immediately instead of waiting out
// the rest of the poll interval. It never replaces the fixed-cadence poll —
// event delivery can be lossy or absent (network filesystems, platforms
// without inotify) and the loop must still make progress without it (§9).
package notifyhook

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// Watcher wraps fsnotify and exposes a single coalesced nudge channel:
// any number of filesystem events collapse into at most one pending nudge,
// since the supervisor only cares that *something* changed, not what.
type Watcher struct {
	fsw   *fsnotify.Watcher
	nudge chan struct{}
}

// New starts an fsnotify watcher with no paths yet added.
func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw, nudge: make(chan struct{}, 1)}, nil
}

// Add starts watching root's top-level directory for events. It is not
// recursive; callers add every directory they want watched.
func (w *Watcher) Add(root string) error {
	return w.fsw.Add(root)
}

// Remove stops watching root.
func (w *Watcher) Remove(root string) error {
	return w.fsw.Remove(root)
}

// Nudges returns the channel the supervisor loop selects on alongside its
// poll ticker. A send means "something changed somewhere, consider an
// early tick"; it carries no information about which repo or path.
func (w *Watcher) Nudges() <-chan struct{} {
	return w.nudge
}

// Run drains fsnotify's event and error channels until ctx is done or the
// watcher is closed, coalescing events into nudges. Callers run this in
// its own goroutine.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			select {
			case w.nudge <- struct{}{}:
			default:
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// a watch error (e.g. a watched directory removed) only costs
			// this accelerator's latency benefit, never correctness.
		}
	}
}

// Close releases the underlying fsnotify watcher directly, for callers
// that never call Run (e.g. tests exercising Add/Remove in isolation).
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
