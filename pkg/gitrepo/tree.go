package gitrepo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// PathChange is one file-level change to fold into a new tree: either an
// upsert (new content+mode) or a removal. Path is slash-separated and
// relative to the tree root.
type PathChange struct {
	Path    string
	Deleted bool
	Mode    filemode.FileMode
	Content []byte
}

// changeNode is one level of the trie built from a flat PathChange list,
// grouping changes by path segment so each directory is rewritten once.
type changeNode struct {
	leaf     *PathChange
	children map[string]*changeNode
}

func buildChangeTrie(changes []PathChange) *changeNode {
	root := &changeNode{children: map[string]*changeNode{}}
	for i := range changes {
		c := &changes[i]
		segments := strings.Split(c.Path, "/")
		node := root
		for _, seg := range segments[:len(segments)-1] {
			child, ok := node.children[seg]
			if !ok {
				child = &changeNode{children: map[string]*changeNode{}}
				node.children[seg] = child
			}
			node = child
		}
		leaf := segments[len(segments)-1]
		node.children[leaf] = &changeNode{leaf: c}
	}
	return root
}

// BuildTree rewrites base (nil for an empty repository) with changes
// applied, writing every new blob and tree object through the repo's
// object store, and returns the resulting tree id. Entries untouched by
// changes are carried over from base unchanged (§4.3 step 8: the new tree
// starts from the parent commit's tree, never from the index).
func (r *Repo) BuildTree(base *object.Tree, changes []PathChange) (plumbing.Hash, error) {
	trie := buildChangeTrie(changes)
	return r.applyNode(base, trie)
}

func (r *Repo) applyNode(base *object.Tree, node *changeNode) (plumbing.Hash, error) {
	existing := map[string]object.TreeEntry{}
	if base != nil {
		for _, e := range base.Entries {
			existing[e.Name] = e
		}
	}

	for name, child := range node.children {
		if child.leaf != nil {
			if child.leaf.Deleted {
				delete(existing, name)
				continue
			}
			hash, err := r.writeBlob(child.leaf.Content)
			if err != nil {
				return plumbing.ZeroHash, err
			}
			existing[name] = object.TreeEntry{Name: name, Mode: child.leaf.Mode, Hash: hash}
			continue
		}

		var sub *object.Tree
		if e, ok := existing[name]; ok && e.Mode == filemode.Dir {
			loaded, err := r.treeByHash(e.Hash)
			if err != nil {
				return plumbing.ZeroHash, err
			}
			sub = loaded
		}

		hash, entryCount, err := r.applyNodeCounting(sub, child)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if entryCount == 0 {
			delete(existing, name)
			continue
		}
		existing[name] = object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash}
	}

	entries := make([]object.TreeEntry, 0, len(existing))
	for _, e := range existing {
		entries = append(entries, e)
	}
	sortTreeEntries(entries)

	return r.writeTree(entries)
}

// applyNodeCounting wraps applyNode so the caller can tell an empty
// resulting subdirectory apart from one containing a single empty tree
// entry — an empty directory is omitted from its parent rather than
// written as a dangling entry, matching git's own tree semantics.
func (r *Repo) applyNodeCounting(base *object.Tree, node *changeNode) (plumbing.Hash, int, error) {
	hash, err := r.applyNode(base, node)
	if err != nil {
		return plumbing.ZeroHash, 0, err
	}
	tree, err := r.treeByHash(hash)
	if err != nil {
		return plumbing.ZeroHash, 0, err
	}
	return hash, len(tree.Entries), nil
}

func (r *Repo) treeByHash(hash plumbing.Hash) (*object.Tree, error) {
	tree, err := object.GetTree(r.raw.Storer, hash)
	if err != nil {
		return nil, fmt.Errorf("load tree %s: %w", hash, err)
	}
	return tree, nil
}

func (r *Repo) writeBlob(content []byte) (plumbing.Hash, error) {
	obj := r.raw.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("open blob writer: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, fmt.Errorf("write blob content: %w", err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("close blob writer: %w", err)
	}
	hash, err := r.raw.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("write blob object: %w", err)
	}
	return hash, nil
}

func (r *Repo) writeTree(entries []object.TreeEntry) (plumbing.Hash, error) {
	tree := &object.Tree{Entries: entries}
	obj := r.raw.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("encode tree: %w", err)
	}
	hash, err := r.raw.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("write tree object: %w", err)
	}
	return hash, nil
}

// sortTreeEntries applies git's tree entry ordering: byte-wise comparison
// as if directory names carried a trailing slash, so "foo.go" sorts before
// directory "foo" even though "foo" < "foo.go" as plain strings.
func sortTreeEntries(entries []object.TreeEntry) {
	sort.Slice(entries, func(i, j int) bool { return treeEntryLess(entries[i], entries[j]) })
}

func treeEntryLess(a, b object.TreeEntry) bool {
	an, bn := a.Name, b.Name
	if a.Mode == filemode.Dir {
		an += "/"
	}
	if b.Mode == filemode.Dir {
		bn += "/"
	}
	return an < bn
}
