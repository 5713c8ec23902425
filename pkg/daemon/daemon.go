// Package daemon enforces dura's single-running-instance rule and provides
// a cooperative, cross-restart shutdown signal that doesn't depend on OS
// process signals (§C6).
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/umputun/dura/pkg/config"
	"github.com/umputun/dura/pkg/pathenv"
)

// ErrAlreadyRunning is returned by Acquire when another live daemon already
// holds the singleton.
var ErrAlreadyRunning = errors.New("dura is already running")

const shutdownFileName = "shutdown"

// Singleton enforces at most one running daemon per config directory and
// watches for a cooperative shutdown request.
type Singleton struct {
	store      *config.Store
	runtimeDir string
}

// New returns a Singleton backed by store's config document, using
// runtimeDir for the shutdown marker file.
func New(store *config.Store, runtimeDir string) *Singleton {
	return &Singleton{store: store, runtimeDir: runtimeDir}
}

// Acquire claims the singleton. If the config document names a pid and
// that process is still alive, it refuses with ErrAlreadyRunning. A
// missing, stale, or dead pid is silently reclaimed for the caller.
func (s *Singleton) Acquire() error {
	doc, err := s.store.Load()
	if err != nil {
		return err
	}
	if doc.PID != nil && processAlive(*doc.PID) {
		return ErrAlreadyRunning
	}

	pid := os.Getpid()
	return s.store.SetPID(&pid)
}

// Release clears the pid field on clean shutdown.
func (s *Singleton) Release() error {
	return s.store.SetPID(nil)
}

// ShutdownRequested reports whether a shutdown marker is present, removing
// it if so. The supervisor loop calls this at tick boundaries; seeing true
// ends the loop after the in-flight tick finishes.
func (s *Singleton) ShutdownRequested() (bool, error) {
	path := filepath.Join(s.runtimeDir, shutdownFileName)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat shutdown marker: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("remove shutdown marker: %w", err)
	}
	return true, nil
}

// RequestShutdown creates the shutdown marker a running daemon polls for.
// Used by the "kill" verb — it never signals the daemon's process directly.
func RequestShutdown(runtimeDir string) error {
	if err := pathenv.EnsureDir(runtimeDir); err != nil {
		return err
	}
	path := filepath.Join(runtimeDir, shutdownFileName)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		return fmt.Errorf("write shutdown marker: %w", err)
	}
	return nil
}

// processAlive reports whether pid names a live OS process that is also
// this same program (§4.6 step 2). Existence alone isn't enough: once a
// crashed daemon's pid is recycled by an unrelated long-lived process,
// trusting existence would wedge Acquire forever, refusing to ever reclaim
// the pid. Comparing the executable's base name catches that case.
func processAlive(pid int) bool {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}

	exe, err := proc.Exe()
	if err != nil {
		// the process exists but its executable can't be inspected (e.g. a
		// permission-restricted platform); fall back to existence alone
		// rather than refusing to ever reclaim a stale pid.
		return true
	}

	self, err := os.Executable()
	if err != nil {
		return true
	}
	return filepath.Base(exe) == filepath.Base(self)
}
