// Package pathenv resolves the directories dura uses for its config
// document and runtime singleton files.
package pathenv

import (
	"fmt"
	"os"
	"path/filepath"
)

// configHomeEnv overrides the config/runtime directory when set and non-empty.
const configHomeEnv = "DURA_CONFIG_HOME"

// ConfigDir returns the absolute path to dura's per-user config directory.
// If DURA_CONFIG_HOME is set and non-empty, it is used as-is (made absolute).
// Otherwise it is the platform's conventional per-user config directory
// joined with "dura". The directory is not created here; callers create it
// lazily on first write.
func ConfigDir() (string, error) {
	if override := os.Getenv(configHomeEnv); override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", configHomeEnv, err)
		}
		return abs, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "dura"), nil
}

// RuntimeDir returns the directory holding the singleton pid and shutdown
// files. Dura keeps it identical to the config directory — there is no
// separate XDG runtime dir override in this version.
func RuntimeDir() (string, error) {
	return ConfigDir()
}

// EnsureDir creates dir (and parents) if missing, called on first write.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
