package gitrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// ChangeCandidate is one path the worktree reports as touched: staged,
// unstaged, or untracked-and-not-ignored (§3's capture scope).
type ChangeCandidate struct {
	Path    string // slash-separated, relative to the repo root
	Deleted bool   // true when the path no longer exists in the working tree
}

// ChangedPaths enumerates every path go-git's status machinery reports as
// touched, using the on-disk index purely for comparison — this never
// mutates the index, only Worktree.Status() reads it. Ignored files never
// appear here; go-git's status already excludes them.
func (r *Repo) ChangedPaths() ([]ChangeCandidate, error) {
	wt, err := r.raw.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}

	candidates := make([]ChangeCandidate, 0, len(status))
	for path, fs := range status {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		deleted := fs.Worktree == git.Deleted ||
			(fs.Worktree == git.Unmodified && fs.Staging == git.Deleted)
		candidates = append(candidates, ChangeCandidate{Path: path, Deleted: deleted})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })
	return candidates, nil
}

// ReadWorkingFile reads a path's current working-tree content and mode,
// straight off disk rather than through the index — symlinks are captured
// as their link text, never dereferenced (§8 edge case).
func (r *Repo) ReadWorkingFile(relPath string) ([]byte, filemode.FileMode, error) {
	full := filepath.Join(r.root, filepath.FromSlash(relPath))

	info, err := os.Lstat(full)
	if err != nil {
		return nil, 0, fmt.Errorf("stat %s: %w", relPath, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(full)
		if err != nil {
			return nil, 0, fmt.Errorf("read symlink %s: %w", relPath, err)
		}
		return []byte(target), filemode.Symlink, nil
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("%s: is a directory, not a file", relPath)
	}

	content, err := os.ReadFile(full) //nolint:gosec // path is joined under the repo root
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", relPath, err)
	}

	mode := filemode.Regular
	if info.Mode()&0o111 != 0 {
		mode = filemode.Executable
	}
	return content, mode, nil
}
