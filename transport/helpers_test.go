package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/storage/memory"
)

func newBlob(t *testing.T, st *memory.Storage, content string) plumbing.Hash {
	t.Helper()
	o := st.NewEncodedObject()
	o.SetType(plumbing.BlobObject)
	o.SetSize(int64(len(content)))
	w, err := o.Writer()
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	h, err := st.SetEncodedObject(o)
	require.NoError(t, err)
	return h
}

func newTree(t *testing.T, st *memory.Storage, entries ...object.TreeEntry) *object.Tree {
	t.Helper()
	tr := &object.Tree{Entries: entries}
	o := st.NewEncodedObject()
	require.NoError(t, tr.Encode(o))
	h, err := st.SetEncodedObject(o)
	require.NoError(t, err)
	stored, err := object.GetTree(st, h)
	require.NoError(t, err)
	return stored
}

func newCommit(t *testing.T, st *memory.Storage, tree *object.Tree, parents ...plumbing.Hash) *object.Commit {
	t.Helper()
	c := &object.Commit{
		Message:      "m",
		TreeHash:     tree.Hash,
		ParentHashes: parents,
	}
	o := st.NewEncodedObject()
	require.NoError(t, c.Encode(o))
	h, err := st.SetEncodedObject(o)
	require.NoError(t, err)
	stored, err := object.GetCommit(st, h)
	require.NoError(t, err)
	return stored
}
