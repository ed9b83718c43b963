package merge

import (
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// Stash is a snapshot of uncommitted work relative to the commit it was
// taken against, applied back the same way a cherry-pick replays a
// commit: as a three-way merge against whatever HEAD has become.
type Stash struct {
	// Base is the commit HEAD pointed to when the stash was taken.
	Base *object.Commit
	// Tree is the working tree snapshot (index + worktree changes)
	// captured at stash time.
	Tree *object.Tree
}

// Apply replays a stash on top of current, three-way merging Base's tree
// (as the merge base), current's tree ("ours"), and the stash's snapshot
// ("theirs") — the same shape as CherryPick, since "what changed between
// Base and the stash" is exactly the diff being replayed.
func (st *Stash) Apply(s storer.EncodedObjectStorer, current *object.Commit) (*object.Tree, []Conflict, error) {
	currentTree, err := current.Tree()
	if err != nil {
		return nil, nil, err
	}

	baseTree, err := st.Base.Tree()
	if err != nil {
		return nil, nil, err
	}

	return MergeTrees(s, baseTree, currentTree, st.Tree, "HEAD", "stash")
}

// Push builds the two commits `git stash push` records: an index
// commit snapshotting exactly what's staged (parented on head), and a
// worktree commit on top of it snapshotting the full working tree,
// including unstaged changes (parented on both head and the index
// commit, the same two-parent shape `git stash` itself uses). The
// worktree commit is the one callers store on refs/stash; the index
// commit exists only to be reachable from it.
func Push(s storer.EncodedObjectStorer, head *object.Commit, indexTree, worktreeTree *object.Tree, message string, who object.Signature) (index, worktree *object.Commit, err error) {
	index, err = writeCommit(s, indexTree, "index on "+message, who, head.Hash)
	if err != nil {
		return nil, nil, err
	}

	worktree, err = writeCommit(s, worktreeTree, message, who, head.Hash, index.Hash)
	if err != nil {
		return nil, nil, err
	}

	return index, worktree, nil
}

func writeCommit(s storer.EncodedObjectStorer, tree *object.Tree, message string, who object.Signature, parents ...plumbing.Hash) (*object.Commit, error) {
	c := &object.Commit{
		Author:       who,
		Committer:    who,
		Message:      message,
		TreeHash:     tree.Hash,
		ParentHashes: parents,
	}

	o := s.NewEncodedObject()
	if err := c.Encode(o); err != nil {
		return nil, err
	}
	h, err := s.SetEncodedObject(o)
	if err != nil {
		return nil, err
	}

	return object.GetCommit(s, h)
}
