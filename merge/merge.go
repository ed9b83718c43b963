package merge

import (
	"fmt"

	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// Commits three-way merges ours and theirs, choosing their merge-base as
// the common ancestor (git's own default when no base is given
// explicitly). When ours and theirs have no common history, merge-base
// returns none and this reports an error rather than guessing a base —
// the same case `git merge --allow-unrelated-histories` exists to
// override.
func Commits(s storer.EncodedObjectStorer, ours, theirs *object.Commit, oursLabel, theirsLabel string) (*object.Tree, []Conflict, error) {
	bases, err := ours.MergeBase(theirs)
	if err != nil {
		return nil, nil, err
	}
	if len(bases) == 0 {
		return nil, nil, fmt.Errorf("merge: %s and %s share no history", ours.Hash, theirs.Hash)
	}

	// Recursive merge (merging the merge-bases together first) is not
	// implemented: the first merge-base is used, matching plain `git
	// merge-base` behavior for the common single-base case. Criss-cross
	// merges with multiple bases fall back to picking the first one
	// (bases is produced by Independents, which returns commits in hash
	// order, so the pick is deterministic).
	base := bases[0]

	baseTree, err := base.Tree()
	if err != nil {
		return nil, nil, err
	}
	oursTree, err := ours.Tree()
	if err != nil {
		return nil, nil, err
	}
	theirsTree, err := theirs.Tree()
	if err != nil {
		return nil, nil, err
	}

	return MergeTrees(s, baseTree, oursTree, theirsTree, oursLabel, theirsLabel)
}
