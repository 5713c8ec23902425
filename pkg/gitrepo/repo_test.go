package gitrepo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initFixture creates a fresh repository at dir with one commit containing
// the given files, and returns the commit id.
func initFixture(t *testing.T, dir string, files map[string]string) plumbing.Hash {
	t.Helper()
	raw, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := raw.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}

	sig := &object.Signature{Name: "fixture", Email: "fixture@example.com", When: time.Unix(0, 0)}
	hash, err := wt.Commit("initial", &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
	return hash
}

func TestRepo_HeadHash_Unborn(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	repo, err := Open(dir)
	require.NoError(t, err)

	_, err = repo.HeadHash()
	assert.ErrorIs(t, err, ErrUnbornHead)
}

func TestRepo_HeadHash_AfterCommit(t *testing.T) {
	dir := t.TempDir()
	want := initFixture(t, dir, map[string]string{"a.txt": "hello"})

	repo, err := Open(dir)
	require.NoError(t, err)

	got, err := repo.HeadHash()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRepo_BranchTip_Absent(t *testing.T) {
	dir := t.TempDir()
	initFixture(t, dir, map[string]string{"a.txt": "hello"})

	repo, err := Open(dir)
	require.NoError(t, err)

	_, ok, err := repo.BranchTip("dura/deadbeef")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepo_UpdateBranchCAS(t *testing.T) {
	dir := t.TempDir()
	head := initFixture(t, dir, map[string]string{"a.txt": "hello"})

	repo, err := Open(dir)
	require.NoError(t, err)

	const branch = "dura/capture"

	// creating requires expectedAbsent=true.
	require.NoError(t, repo.UpdateBranchCAS(branch, plumbing.ZeroHash, true, head))

	tip, ok, err := repo.BranchTip(branch)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, head, tip)

	// creating again with expectedAbsent=true now fails: it exists.
	err = repo.UpdateBranchCAS(branch, plumbing.ZeroHash, true, head)
	assert.ErrorIs(t, err, ErrRefChanged)

	// updating against the wrong expected value fails.
	err = repo.UpdateBranchCAS(branch, plumbing.ZeroHash, false, head)
	assert.ErrorIs(t, err, ErrRefChanged)

	// updating against the correct expected value succeeds.
	require.NoError(t, repo.UpdateBranchCAS(branch, head, false, head))
}

func TestRepo_BareRepoRejected(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, true)
	require.NoError(t, err)

	_, err = Open(dir)
	assert.ErrorIs(t, err, ErrBareRepo)
}
