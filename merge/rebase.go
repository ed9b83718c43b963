package merge

import (
	"fmt"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// RebaseResult is one replayed commit: either applied cleanly (Conflicts
// empty) or stopped with conflicts recorded against the tree it produced,
// mirroring how `git rebase` pauses for the caller to resolve and
// continue.
type RebaseResult struct {
	Commit    *object.Commit
	Conflicts []Conflict
}

// Rebase replays commits, in order, on top of onto: each commit is
// cherry-picked against the result of the previous step (or onto, for
// the first), and a new commit is written reusing the original's
// author/message but committer set to who (git updates the committer
// identity and timestamp on every replayed commit, the same way a
// cherry-pick or rebase does outside of --committer-date-is-author-date).
// If who is nil, the original commit's own committer is kept instead.
// Replay stops at the first commit that produces conflicts, returning the
// results so far plus that conflicted step — matching `git rebase`'s
// behavior of pausing at the first conflicting commit rather than
// resolving unilaterally.
func Rebase(s storer.EncodedObjectStorer, onto *object.Commit, commits []*object.Commit, who *object.Signature) ([]RebaseResult, error) {
	var results []RebaseResult
	cur := onto

	for _, c := range commits {
		tree, conflicts, err := CherryPick(s, cur, c)
		if err != nil {
			return results, err
		}

		treeHash, err := writeTree(s, tree)
		if err != nil {
			return results, err
		}

		committer := c.Committer
		if who != nil {
			committer = *who
		}

		newCommit := &object.Commit{
			Author:       c.Author,
			Committer:    committer,
			Message:      c.Message,
			TreeHash:     treeHash,
			ParentHashes: []plumbing.Hash{cur.Hash},
		}

		o := s.NewEncodedObject()
		if err := newCommit.Encode(o); err != nil {
			return results, err
		}
		h, err := s.SetEncodedObject(o)
		if err != nil {
			return results, err
		}

		// Rehydrate through GetCommit so the result carries a live
		// storer reference: Tree() (needed by the next CherryPick step)
		// resolves lazily through it, rather than through a commit
		// struct built by hand.
		stored, err := object.GetCommit(s, h)
		if err != nil {
			return results, err
		}

		results = append(results, RebaseResult{Commit: stored, Conflicts: conflicts})

		if len(conflicts) > 0 {
			return results, fmt.Errorf("merge: conflicts replaying %s onto %s", c.Hash, cur.Hash)
		}

		cur = stored
	}

	return results, nil
}
