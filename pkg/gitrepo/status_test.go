package gitrepo

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_ChangedPaths(t *testing.T) {
	dir := t.TempDir()
	initFixture(t, dir, map[string]string{
		"tracked.txt": "original",
		"doomed.txt":  "will be deleted",
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tracked.txt"), []byte("edited"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(dir, "doomed.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("untracked"), 0o644))

	repo, err := Open(dir)
	require.NoError(t, err)

	candidates, err := repo.ChangedPaths()
	require.NoError(t, err)

	byPath := map[string]ChangeCandidate{}
	for _, c := range candidates {
		byPath[c.Path] = c
	}

	require.Contains(t, byPath, "tracked.txt")
	assert.False(t, byPath["tracked.txt"].Deleted)

	require.Contains(t, byPath, "doomed.txt")
	assert.True(t, byPath["doomed.txt"].Deleted)

	require.Contains(t, byPath, "new.txt")
	assert.False(t, byPath["new.txt"].Deleted)
}

func TestRepo_ChangedPaths_IgnoredFilesExcluded(t *testing.T) {
	dir := t.TempDir()
	initFixture(t, dir, map[string]string{"tracked.txt": "original"})

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("ignored.txt\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("should not appear"), 0o644))

	repo, err := Open(dir)
	require.NoError(t, err)

	candidates, err := repo.ChangedPaths()
	require.NoError(t, err)

	for _, c := range candidates {
		assert.NotEqual(t, "ignored.txt", c.Path)
	}
}

func TestRepo_ReadWorkingFile_Regular(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.txt"), []byte("content"), 0o644))

	repo := &Repo{root: dir}
	content, mode, err := repo.ReadWorkingFile("plain.txt")
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))
	assert.Equal(t, filemode.Regular, mode)
}

func TestRepo_ReadWorkingFile_Executable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX executable bit not meaningful on windows")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"), 0o755))

	repo := &Repo{root: dir}
	_, mode, err := repo.ReadWorkingFile("run.sh")
	require.NoError(t, err)
	assert.Equal(t, filemode.Executable, mode)
}

func TestRepo_ReadWorkingFile_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation may require elevation on windows")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "target.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink("target.txt", filepath.Join(dir, "link.txt")))

	repo := &Repo{root: dir}
	content, mode, err := repo.ReadWorkingFile("link.txt")
	require.NoError(t, err)
	assert.Equal(t, "target.txt", string(content))
	assert.Equal(t, filemode.Symlink, mode)
}

func TestRepo_ReadWorkingFile_SymlinkToMissingTarget(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation may require elevation on windows")
	}
	dir := t.TempDir()
	require.NoError(t, os.Symlink("does-not-exist.txt", filepath.Join(dir, "dangling.txt")))

	repo := &Repo{root: dir}
	content, mode, err := repo.ReadWorkingFile("dangling.txt")
	require.NoError(t, err)
	assert.Equal(t, "does-not-exist.txt", string(content))
	assert.Equal(t, filemode.Symlink, mode)
}
