// Package config loads and saves dura's persisted, user-scoped
// configuration document: the set of watched repositories and the tuning
// knobs the capture engine and supervisor loop read every tick.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/umputun/dura/pkg/pathenv"
)

// fileName is the config document's file name inside the config directory.
const fileName = "config.toml"

// RepoConfig is the per-repo record stored under repos."<absolute path>".
type RepoConfig struct {
	Include  []string `toml:"include"`
	Exclude  []string `toml:"exclude"`
	MaxDepth *int     `toml:"max_depth,omitempty"`
}

// Document is the full persisted configuration. The zero value is the
// empty document a missing file yields.
type Document struct {
	PID                    *int                  `toml:"pid,omitempty"`
	CommitAuthor           string                `toml:"commit_author,omitempty"`
	CommitEmail            string                `toml:"commit_email,omitempty"`
	CommitExcludeGitConfig bool                  `toml:"commit_exclude_git_config"`
	Repos                  map[string]RepoConfig `toml:"repos"`
}

// Store loads and saves the configuration document for one config directory.
// Store itself holds no cached state across calls — every Load re-reads the
// file from disk, which is what lets the daemon and short-lived sibling
// commands (watch/unwatch/kill) race safely (see pkg/supervisor).
type Store struct {
	dir string
}

// New returns a Store rooted at the default config directory (honoring
// DURA_CONFIG_HOME).
func New() (*Store, error) {
	dir, err := pathenv.ConfigDir()
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// NewAt returns a Store rooted at an explicit directory, mainly for tests.
func NewAt(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the absolute path to the config document.
func (s *Store) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Load reads the config document. A missing file yields an empty Document
// and a nil error. A malformed file returns a parse error the caller must
// surface.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.Path()) //nolint:gosec // config path is user-controlled by design
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{Repos: map[string]RepoConfig{}}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var doc Document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if doc.Repos == nil {
		doc.Repos = map[string]RepoConfig{}
	}
	return &doc, nil
}

// Save atomically writes doc: encode to a sibling temp file, then rename
// over the target. Creates the config directory if it doesn't exist yet.
func (s *Store) Save(doc *Document) error {
	if err := pathenv.EnsureDir(s.dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("rename config into place: %w", err)
	}
	return nil
}

// Watch adds path (canonicalized) to the watched set if not already present.
// No-op (a Load, but no Save) if already watched.
func (s *Store) Watch(path string) error {
	canon, err := canonicalize(path)
	if err != nil {
		return err
	}

	doc, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := doc.Repos[canon]; ok {
		return nil
	}
	doc.Repos[canon] = RepoConfig{}
	return s.Save(doc)
}

// Unwatch removes path (canonicalized) from the watched set. No-op if absent.
func (s *Store) Unwatch(path string) error {
	canon, err := canonicalize(path)
	if err != nil {
		return err
	}

	doc, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := doc.Repos[canon]; !ok {
		return nil
	}
	delete(doc.Repos, canon)
	return s.Save(doc)
}

// SetPID mutates only the pid field, leaving repos and commit identity
// settings untouched. Pass nil to clear it.
func (s *Store) SetPID(pid *int) error {
	doc, err := s.Load()
	if err != nil {
		return err
	}
	doc.PID = pid
	return s.Save(doc)
}

// SortedRepoPaths returns doc.Repos' keys in sorted order, giving the
// supervisor loop's deterministic per-tick iteration order (§4.5, §5).
func (doc *Document) SortedRepoPaths() []string {
	paths := make([]string, 0, len(doc.Repos))
	for p := range doc.Repos {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// canonicalize resolves path to an absolute, symlink-resolved form so the
// config document's repo keys are never ambiguous (§3 invariant).
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// path may not exist yet (e.g. about to be created); fall back
			// to the absolute form rather than failing watch/unwatch outright.
			return abs, nil
		}
		return "", fmt.Errorf("resolve symlinks: %w", err)
	}
	return resolved, nil
}
