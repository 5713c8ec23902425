// Package capture is dura's snapshot engine: for one repository, compute
// what a capture commit would look like (Plan) and then write it (Write),
// per §4.3 and §4.4. Planning writes the blob and tree objects of the
// planned tree (via BuildTree) but no commit and no ref; Write adds the
// commit object and updates only the repo's dura/<hex-HEAD> branch ref —
// HEAD, the index, and the working tree are never touched.
package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/umputun/dura/pkg/gitrepo"
)

// Options carries the per-repo and document-level settings a plan needs,
// kept independent of pkg/config so capture doesn't import the on-disk
// document shape directly.
type Options struct {
	Include                []string
	Exclude                []string
	MaxDepth               *int // bounds walk depth when enumerating changes (§3); nil means unbounded
	CommitAuthor           string
	CommitEmail            string
	CommitExcludeGitConfig bool
}

// withinDepth reports whether path's directory depth is within max (the
// number of path separators; a top-level file has depth 0). A nil max
// means unbounded.
func withinDepth(path string, max *int) bool {
	if max == nil {
		return true
	}
	return strings.Count(path, "/") <= *max
}

// Plan is the fully computed, not-yet-written outcome of one capture
// attempt against a repo.
type Plan struct {
	Repo         *gitrepo.Repo
	BranchName   string
	Parent       plumbing.Hash
	ParentExists bool // whether BranchName already existed when this plan was computed
	Tree         plumbing.Hash
	Identity     gitrepo.Identity
	NoOp         bool
}

// Compute builds a Plan for repo. A nil error with NoOp=true means there is
// nothing to capture this tick — not an error condition (§4.3 step 11).
func Compute(repo *gitrepo.Repo, opts Options) (*Plan, error) {
	head, err := repo.HeadHash()
	if err != nil {
		return nil, err
	}

	branch := "dura/" + head.String()

	tip, exists, err := repo.BranchTip(branch)
	if err != nil {
		return nil, err
	}
	parent := head
	if exists {
		parent = tip
	}

	candidates, err := repo.ChangedPaths()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Plan{Repo: repo, BranchName: branch, NoOp: true}, nil
	}

	filter, err := gitrepo.NewPathFilter(opts.Include, opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("build path filter: %w", err)
	}

	var changes []gitrepo.PathChange
	for _, c := range candidates {
		if !filter.Keep(c.Path) {
			continue
		}
		if !withinDepth(c.Path, opts.MaxDepth) {
			continue
		}
		if c.Deleted {
			changes = append(changes, gitrepo.PathChange{Path: c.Path, Deleted: true})
			continue
		}
		content, mode, err := repo.ReadWorkingFile(c.Path)
		if err != nil {
			// the path existed when status was read but is gone now
			// (e.g. a build tool just deleted a temp file); skip it this
			// tick rather than fail the whole capture.
			continue
		}
		changes = append(changes, gitrepo.PathChange{Path: c.Path, Mode: mode, Content: content})
	}
	if len(changes) == 0 {
		return &Plan{Repo: repo, BranchName: branch, NoOp: true}, nil
	}

	baseTree, err := repo.CommitTree(parent)
	if err != nil {
		return nil, err
	}

	newTree, err := repo.BuildTree(baseTree, changes)
	if err != nil {
		return nil, err
	}
	if newTree == baseTree.Hash {
		return &Plan{Repo: repo, BranchName: branch, NoOp: true}, nil
	}

	identity := gitrepo.ResolveIdentity(repo.Root(), opts.CommitAuthor, opts.CommitEmail, opts.CommitExcludeGitConfig)

	return &Plan{
		Repo:         repo,
		BranchName:   branch,
		Parent:       parent,
		ParentExists: exists,
		Tree:         newTree,
		Identity:     identity,
	}, nil
}
