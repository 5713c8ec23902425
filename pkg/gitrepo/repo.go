// Package gitrepo is dura's native VCS access layer. It wraps go-git so the
// capture engine can read HEAD, enumerate working-copy changes, and write
// blob/tree/commit objects plus a ref update, without ever touching the
// on-disk index, the working tree, or HEAD itself.
package gitrepo

import (
	"errors"
	"fmt"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrUnbornHead is returned by HeadHash when the repository has no commits
// yet — there is no parent to anchor a side branch on (§4.3 step 2).
var ErrUnbornHead = errors.New("HEAD is unborn")

// ErrBareRepo is returned when opening a bare repository, which this
// engine never captures (§4.3 edge cases).
var ErrBareRepo = errors.New("repository is bare")

// ErrRefChanged is returned by UpdateBranchCAS when the branch's current
// value no longer matches what the caller expected (§4.4 step 3).
var ErrRefChanged = errors.New("ref changed since it was read")

// Repo is a single opened working copy.
type Repo struct {
	raw  *git.Repository
	root string
}

// Open opens the VCS working copy containing (or at) path, searching
// upward for the .git directory the way ordinary VCS commands do.
func Open(path string) (*Repo, error) {
	raw, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	wt, err := raw.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return nil, ErrBareRepo
		}
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	return &Repo{raw: raw, root: wt.Filesystem.Root()}, nil
}

// Root returns the absolute path to the repository's working copy root.
func (r *Repo) Root() string {
	return r.root
}

// HeadHash returns the commit id HEAD currently points to (the detached
// commit id if HEAD is detached — they are the same thing to this engine).
// Returns ErrUnbornHead if the repository has no commits yet.
func (r *Repo) HeadHash() (plumbing.Hash, error) {
	ref, err := r.raw.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, ErrUnbornHead
		}
		return plumbing.ZeroHash, fmt.Errorf("read HEAD: %w", err)
	}
	return ref.Hash(), nil
}

// CommitTree returns the tree object a commit points to.
func (r *Repo) CommitTree(hash plumbing.Hash) (*object.Tree, error) {
	commit, err := r.raw.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree for commit %s: %w", hash, err)
	}
	return tree, nil
}

// BranchTip returns the current commit id of refs/heads/<name>, and
// whether the branch exists at all.
func (r *Repo) BranchTip(name string) (plumbing.Hash, bool, error) {
	ref, err := r.raw.Reference(plumbing.NewBranchReferenceName(name), false)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, fmt.Errorf("read branch %s: %w", name, err)
	}
	return ref.Hash(), true, nil
}

// WriteCommit creates a new commit object (author time = committer time =
// when) and returns its id. It does not update any ref.
func (r *Repo) WriteCommit(tree plumbing.Hash, parents []plumbing.Hash, id Identity, message string, when time.Time) (plumbing.Hash, error) {
	sig := object.Signature{Name: id.Name, Email: id.Email, When: when}
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}

	obj := r.raw.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("encode commit: %w", err)
	}
	hash, err := r.raw.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("write commit object: %w", err)
	}
	return hash, nil
}

// UpdateBranchCAS updates refs/heads/<name> to newHash, but only if the
// branch's current value matches expected (absent, when expectedAbsent is
// true; or expected exactly, otherwise). Returns ErrRefChanged on mismatch
// so the caller can abandon this capture and let the next tick replan
// (§4.4 step 3).
func (r *Repo) UpdateBranchCAS(name string, expected plumbing.Hash, expectedAbsent bool, newHash plumbing.Hash) error {
	refName := plumbing.NewBranchReferenceName(name)

	current, err := r.raw.Storer.Reference(refName)
	exists := err == nil
	if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("read ref %s: %w", name, err)
	}

	switch {
	case expectedAbsent && exists:
		return ErrRefChanged
	case !expectedAbsent && !exists:
		return ErrRefChanged
	case !expectedAbsent && current.Hash() != expected:
		return ErrRefChanged
	}

	newRef := plumbing.NewHashReference(refName, newHash)
	var oldRef *plumbing.Reference
	if exists {
		oldRef = current
	}
	if err := r.raw.Storer.CheckAndSetReference(newRef, oldRef); err != nil {
		return fmt.Errorf("cas update ref %s: %w", name, err)
	}
	return nil
}
