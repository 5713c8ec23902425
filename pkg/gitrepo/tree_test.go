package gitrepo

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTree_FromEmpty(t *testing.T) {
	dir := t.TempDir()
	initFixture(t, dir, map[string]string{"placeholder": "x"})
	repo, err := Open(dir)
	require.NoError(t, err)

	hash, err := repo.BuildTree(nil, []PathChange{
		{Path: "a.txt", Mode: filemode.Regular, Content: []byte("hello")},
		{Path: "dir/b.txt", Mode: filemode.Regular, Content: []byte("world")},
	})
	require.NoError(t, err)

	tree, err := repo.treeByHash(hash)
	require.NoError(t, err)

	names := entryNames(tree)
	assert.Equal(t, []string{"a.txt", "dir"}, names)

	sub, err := tree.Tree("dir")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt"}, entryNames(sub))
}

func TestBuildTree_PreservesUntouchedEntries(t *testing.T) {
	dir := t.TempDir()
	head := initFixture(t, dir, map[string]string{
		"keep.txt":     "unchanged",
		"change.txt":   "old",
		"remove.txt":   "gone soon",
		"nested/a.txt": "nested-a",
		"nested/b.txt": "nested-b",
	})
	repo, err := Open(dir)
	require.NoError(t, err)

	base, err := repo.CommitTree(head)
	require.NoError(t, err)

	hash, err := repo.BuildTree(base, []PathChange{
		{Path: "change.txt", Mode: filemode.Regular, Content: []byte("new")},
		{Path: "remove.txt", Deleted: true},
		{Path: "nested/a.txt", Mode: filemode.Regular, Content: []byte("nested-a-v2")},
	})
	require.NoError(t, err)

	tree, err := repo.treeByHash(hash)
	require.NoError(t, err)

	names := entryNames(tree)
	assert.Equal(t, []string{"change.txt", "keep.txt", "nested"}, names)

	changed, err := tree.File("change.txt")
	require.NoError(t, err)
	content, err := changed.Contents()
	require.NoError(t, err)
	assert.Equal(t, "new", content)

	kept, err := tree.File("keep.txt")
	require.NoError(t, err)
	content, err = kept.Contents()
	require.NoError(t, err)
	assert.Equal(t, "unchanged", content)

	nested, err := tree.Tree("nested")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, entryNames(nested))

	a, err := nested.File("a.txt")
	require.NoError(t, err)
	content, err = a.Contents()
	require.NoError(t, err)
	assert.Equal(t, "nested-a-v2", content)
}

func TestBuildTree_RemovingLastEntryDropsDirectory(t *testing.T) {
	dir := t.TempDir()
	head := initFixture(t, dir, map[string]string{
		"keep.txt":      "unchanged",
		"solo/only.txt": "alone",
	})
	repo, err := Open(dir)
	require.NoError(t, err)

	base, err := repo.CommitTree(head)
	require.NoError(t, err)

	hash, err := repo.BuildTree(base, []PathChange{
		{Path: "solo/only.txt", Deleted: true},
	})
	require.NoError(t, err)

	tree, err := repo.treeByHash(hash)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.txt"}, entryNames(tree))
}

func TestBuildTree_FileReplacedByDirectory(t *testing.T) {
	dir := t.TempDir()
	head := initFixture(t, dir, map[string]string{"thing": "was a file"})
	repo, err := Open(dir)
	require.NoError(t, err)

	base, err := repo.CommitTree(head)
	require.NoError(t, err)

	hash, err := repo.BuildTree(base, []PathChange{
		{Path: "thing/inner.txt", Mode: filemode.Regular, Content: []byte("now a directory")},
	})
	require.NoError(t, err)

	tree, err := repo.treeByHash(hash)
	require.NoError(t, err)
	assert.Equal(t, []string{"thing"}, entryNames(tree))

	sub, err := tree.Tree("thing")
	require.NoError(t, err)
	assert.Equal(t, []string{"inner.txt"}, entryNames(sub))
}

func entryNames(tree *object.Tree) []string {
	names := make([]string, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		names = append(names, e.Name)
	}
	return names
}
