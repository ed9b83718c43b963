package merge

import (
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// CherryPick replays pick's change on top of onto: pick's own first
// parent tree is the merge base, pick's tree is "theirs", and onto's
// tree is "ours". The result is the tree onto would have if pick's diff
// were applied to it directly; the caller is responsible for wrapping it
// in a new commit with pick's message and onto as sole parent.
func CherryPick(s storer.EncodedObjectStorer, onto, pick *object.Commit) (*object.Tree, []Conflict, error) {
	ontoTree, err := onto.Tree()
	if err != nil {
		return nil, nil, err
	}

	pickTree, err := pick.Tree()
	if err != nil {
		return nil, nil, err
	}

	var baseTree *object.Tree
	if pick.NumParents() > 0 {
		parent, err := pick.Parent(0)
		if err != nil {
			return nil, nil, err
		}
		baseTree, err = parent.Tree()
		if err != nil {
			return nil, nil, err
		}
	} else {
		baseTree = &object.Tree{}
	}

	return MergeTrees(s, baseTree, ontoTree, pickTree, "HEAD", pick.Hash.String()[:7])
}
