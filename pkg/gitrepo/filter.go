package gitrepo

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// PathFilter applies a repo's configured include/exclude globs to a
// candidate change path (§3, §4.3 step 6). Patterns are doublestar globs
// ("src/**/*.rs"-style), matched against the path relative to the
// repository root with forward slashes regardless of OS.
//
// A path is kept when:
//   - include is empty, or the path matches at least one include pattern;
//     AND
//   - exclude is empty, or the path matches none of the exclude patterns.
type PathFilter struct {
	include []string
	exclude []string
}

// NewPathFilter validates the configured globs and returns a filter.
func NewPathFilter(include, exclude []string) (*PathFilter, error) {
	for _, p := range include {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
	}
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &PathFilter{include: include, exclude: exclude}, nil
}

// Keep reports whether relPath (forward-slash separated, relative to the
// repository root) survives the include-then-exclude filter.
func (f *PathFilter) Keep(relPath string) bool {
	if len(f.include) > 0 && !matchesAny(f.include, relPath) {
		return false
	}
	if matchesAny(f.exclude, relPath) {
		return false
	}
	return true
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
