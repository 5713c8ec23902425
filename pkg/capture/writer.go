package capture

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// captureMessage is the fixed commit message every capture commit carries
// (§4.3 step 11); it is not timestamped, since the capture time is already
// carried by the commit's author/committer signatures.
const captureMessage = "dura auto-backup"

// Result is the outcome of writing a Plan.
type Result struct {
	BranchName string
	CommitHash plumbing.Hash
	NoOp       bool
}

// Write executes plan: writes the commit object (if not a no-op) and
// CAS-updates the branch ref. If the branch moved since plan was computed,
// it returns gitrepo.ErrRefChanged — not fatal, the caller should simply
// let the next tick recompute and retry (§4.4 step 3).
func Write(plan *Plan, now time.Time) (Result, error) {
	if plan.NoOp {
		return Result{BranchName: plan.BranchName, NoOp: true}, nil
	}

	commit, err := plan.Repo.WriteCommit(plan.Tree, []plumbing.Hash{plan.Parent}, plan.Identity, captureMessage, now)
	if err != nil {
		return Result{}, fmt.Errorf("write capture commit: %w", err)
	}

	if err := plan.Repo.UpdateBranchCAS(plan.BranchName, plan.Parent, !plan.ParentExists, commit); err != nil {
		return Result{}, err
	}

	return Result{BranchName: plan.BranchName, CommitHash: commit}, nil
}
