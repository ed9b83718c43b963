package pygit

import (
	"fmt"
	"strings"

	"github.com/pygit-core/pygit/merge"
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/storer"
	"github.com/pygit-core/pygit/pygerr"
	"github.com/pygit-core/pygit/storage"
)

// Merge merges o.Branch into the checked-out branch: a fast-forward when
// the checked-out branch is an ancestor of o.Branch, a refusal
// (pygerr.ErrRefUpdateRejected) when o.FastForwardOnly and it isn't, or
// otherwise a three-way merge. A clean three-way merge produces a new
// two-parent commit; a conflicted one leaves MERGE_HEAD/MERGE_MSG on disk,
// the conflict-marked tree materialized into the working copy, and
// returns pygerr.ErrMergeConflict without moving the branch.
func (w *Worktree) Merge(o *MergeOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	clean, err := w.isClean()
	if err != nil {
		return err
	}
	if !clean {
		return ErrWorktreeNotClean
	}

	headRef, err := w.r.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return err
	}
	if headRef.Type() != plumbing.SymbolicReference {
		return fmt.Errorf("pygit: merge requires a branch checked out")
	}
	branchName := headRef.Target()

	ours, err := storer.ResolveReference(w.r.Storer, branchName)
	if err != nil {
		return err
	}
	theirs, err := storer.ResolveReference(w.r.Storer, o.Branch)
	if err != nil {
		return err
	}

	who := w.r.defaultIdentity()
	if o.Committer != nil {
		who = *o.Committer
	}

	oursCommit, err := object.GetCommit(w.r.Storer, ours.Hash())
	if err != nil {
		return err
	}
	theirsCommit, err := object.GetCommit(w.r.Storer, theirs.Hash())
	if err != nil {
		return err
	}

	if ours.Hash() == theirs.Hash() {
		return nil
	}

	ff, err := oursCommit.IsAncestor(theirsCommit)
	if err != nil {
		return err
	}
	if ff {
		logMsg := fmt.Sprintf("merge %s: Fast-forward", o.Branch.Short())
		if err := w.r.updateHead(plumbing.NewHashReference(branchName, theirs.Hash()), ours.Hash(), who, logMsg); err != nil {
			return err
		}
		if o.Progress != nil {
			fmt.Fprintln(o.Progress, "Fast-forward")
		}
		tree, err := theirsCommit.Tree()
		if err != nil {
			return err
		}
		return w.materialize(tree)
	}

	if o.FastForwardOnly {
		return fmt.Errorf("%w: %s cannot be fast-forwarded to %s", pygerr.ErrRefUpdateRejected, branchName.Short(), o.Branch.Short())
	}

	mergedTree, conflicts, err := merge.Commits(w.r.Storer, oursCommit, theirsCommit, "HEAD", o.Branch.Short())
	if err != nil {
		return err
	}

	mergeMsg := fmt.Sprintf("Merge branch '%s' into %s\n", o.Branch.Short(), branchName.Short())

	if len(conflicts) > 0 {
		if err := w.r.Storer.SetState(storage.StateMergeHead, []byte(theirs.Hash().String()+"\n")); err != nil {
			return err
		}
		if err := w.r.Storer.SetState(storage.StateMergeMsg, []byte(mergeMsg)); err != nil {
			return err
		}
		if err := w.materialize(mergedTree); err != nil {
			return err
		}
		return pygerr.ErrMergeConflict
	}

	treeHash, err := writeMergedTree(w.r.Storer, mergedTree)
	if err != nil {
		return err
	}

	c := &object.Commit{
		Author:       who,
		Committer:    who,
		Message:      mergeMsg,
		TreeHash:     treeHash,
		ParentHashes: []plumbing.Hash{ours.Hash(), theirs.Hash()},
	}
	obj := w.r.Storer.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		return err
	}
	h, err := w.r.Storer.SetEncodedObject(obj)
	if err != nil {
		return err
	}

	logMsg := fmt.Sprintf("merge %s: Merge made by the 'ort' strategy.", o.Branch.Short())
	if err := w.r.updateHead(plumbing.NewHashReference(branchName, h), ours.Hash(), who, logMsg); err != nil {
		return err
	}
	if o.Progress != nil {
		fmt.Fprintln(o.Progress, "Merge made by the 'ort' strategy.")
	}

	if err := clearMergeState(w.r.Storer); err != nil {
		return err
	}

	return w.materialize(mergedTree)
}

// CherryPick replays h's change onto HEAD, committing the result under
// o.Committer (keeping h's own author) with HEAD as sole parent. On
// conflict, CHERRY_PICK_HEAD/_MSG/_CONFLICTS are written, the
// conflict-marked tree is materialized, and pygerr.ErrMergeConflict is
// returned without advancing HEAD.
func (w *Worktree) CherryPick(h plumbing.Hash, o *CherryPickOptions) error {
	clean, err := w.isClean()
	if err != nil {
		return err
	}
	if !clean {
		return ErrWorktreeNotClean
	}

	head, err := w.r.Head()
	if err != nil {
		return err
	}
	headCommit, err := object.GetCommit(w.r.Storer, head.Hash())
	if err != nil {
		return err
	}

	pick, err := object.GetCommit(w.r.Storer, h)
	if err != nil {
		return err
	}

	tree, conflicts, err := merge.CherryPick(w.r.Storer, headCommit, pick)
	if err != nil {
		return err
	}

	who := w.r.defaultIdentity()
	if o != nil && o.Committer != nil {
		who = *o.Committer
	}

	if len(conflicts) > 0 {
		if err := w.r.Storer.SetState(storage.StateCherryPickHead, []byte(h.String()+"\n")); err != nil {
			return err
		}
		if err := w.r.Storer.SetState(storage.StateCherryPickMsg, []byte(pick.Message)); err != nil {
			return err
		}
		if err := w.r.Storer.SetState(storage.StateCherryPickConflicts, []byte(conflictPaths(conflicts))); err != nil {
			return err
		}
		if err := w.materialize(tree); err != nil {
			return err
		}
		return pygerr.ErrMergeConflict
	}

	treeHash, err := writeMergedTree(w.r.Storer, tree)
	if err != nil {
		return err
	}

	c := &object.Commit{
		Author:       pick.Author,
		Committer:    who,
		Message:      pick.Message,
		TreeHash:     treeHash,
		ParentHashes: []plumbing.Hash{head.Hash()},
	}
	obj := w.r.Storer.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		return err
	}
	newHash, err := w.r.Storer.SetEncodedObject(obj)
	if err != nil {
		return err
	}

	headRefName := plumbing.HEAD
	if headRef, err := w.r.Storer.Reference(plumbing.HEAD); err == nil && headRef.Type() == plumbing.SymbolicReference {
		headRefName = headRef.Target()
	}

	logMsg := fmt.Sprintf("cherry-pick: %s", firstLine(pick.Message))
	if err := w.r.updateHead(plumbing.NewHashReference(headRefName, newHash), head.Hash(), who, logMsg); err != nil {
		return err
	}

	if err := clearCherryPickState(w.r.Storer); err != nil {
		return err
	}

	return w.materialize(tree)
}

// Rebase replays every commit reachable from HEAD back to its merge-base
// with o.Branch on top of o.Branch, then fast-forwards the checked-out
// branch to the result. Replay stops at the first conflicting commit,
// leaving MERGE_HEAD set to the conflicted replay and
// pygerr.ErrMergeConflict returned, the way `git rebase` pauses for the
// caller to resolve and continue.
func (w *Worktree) Rebase(o *RebaseOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	clean, err := w.isClean()
	if err != nil {
		return err
	}
	if !clean {
		return ErrWorktreeNotClean
	}

	headRef, err := w.r.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return err
	}
	if headRef.Type() != plumbing.SymbolicReference {
		return fmt.Errorf("pygit: rebase requires a branch checked out")
	}
	branchName := headRef.Target()

	head, err := w.r.Head()
	if err != nil {
		return err
	}
	headCommit, err := object.GetCommit(w.r.Storer, head.Hash())
	if err != nil {
		return err
	}

	onto, err := storer.ResolveReference(w.r.Storer, o.Branch)
	if err != nil {
		return err
	}
	ontoCommit, err := object.GetCommit(w.r.Storer, onto.Hash())
	if err != nil {
		return err
	}

	bases, err := headCommit.MergeBase(ontoCommit)
	if err != nil {
		return err
	}
	if len(bases) == 0 {
		return fmt.Errorf("merge: %s and %s share no history", headCommit.Hash, ontoCommit.Hash)
	}

	commits, err := commitsSinceFirstParent(headCommit, bases[0])
	if err != nil {
		return err
	}

	who := w.r.defaultIdentity()
	if o.Committer != nil {
		who = *o.Committer
	}

	if err := w.r.Storer.SetState(storage.StateOrigHead, []byte(head.Hash().String()+"\n")); err != nil {
		return err
	}
	if err := w.r.Storer.SetState(storage.StateRebaseOnto, []byte(onto.Hash().String()+"\n")); err != nil {
		return err
	}

	results, rerr := merge.Rebase(w.r.Storer, ontoCommit, commits, &who)
	if rerr != nil {
		last := results[len(results)-1]
		if err := w.r.Storer.SetState(storage.StateMergeHead, []byte(last.Commit.Hash.String()+"\n")); err != nil {
			return err
		}
		if tree, terr := last.Commit.Tree(); terr == nil {
			_ = w.materialize(tree)
		}
		return pygerr.ErrMergeConflict
	}

	final := ontoCommit
	if len(results) > 0 {
		final = results[len(results)-1].Commit
	}

	logMsg := fmt.Sprintf("rebase finished: %s onto %s", branchName.Short(), onto.Hash().String()[:7])
	if err := w.r.updateHead(plumbing.NewHashReference(branchName, final.Hash), head.Hash(), who, logMsg); err != nil {
		return err
	}

	tree, err := final.Tree()
	if err != nil {
		return err
	}
	if err := w.materialize(tree); err != nil {
		return err
	}

	return clearRebaseState(w.r.Storer)
}

// StashPush snapshots the index and working tree as two commits (an
// index-state commit and a worktree-state commit parented on it and on
// HEAD), stores the worktree commit on refs/stash with a reflog entry,
// and restores the working copy to HEAD's own tree, the way `git stash
// push` leaves a clean tree behind.
func (w *Worktree) StashPush(o *StashOptions) (plumbing.Hash, error) {
	if o == nil {
		o = &StashOptions{}
	}

	head, err := w.r.Head()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	headCommit, err := object.GetCommit(w.r.Storer, head.Hash())
	if err != nil {
		return plumbing.ZeroHash, err
	}

	idx, err := w.r.Storer.Index()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	indexTreeHash, err := buildTreeFromIndex(w.r.Storer, idx.Entries)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	indexTree, err := object.GetTree(w.r.Storer, indexTreeHash)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	worktreeTreeHash, err := buildWorktreeTree(w.r.Storer, w.fs)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	worktreeTree, err := object.GetTree(w.r.Storer, worktreeTreeHash)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	who := w.r.defaultIdentity()
	if o.Author != nil {
		who = *o.Author
	}

	message := o.Message
	if message == "" {
		branch, _ := w.headDescription()
		message = fmt.Sprintf("WIP on %s", branch)
	}

	_, worktreeCommit, err := merge.Push(w.r.Storer, headCommit, indexTree, worktreeTree, message, who)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	oldStash := plumbing.ZeroHash
	if ref, err := w.r.Storer.Reference(plumbing.StashReferenceName); err == nil {
		oldStash = ref.Hash()
	}
	if err := w.r.updateHead(plumbing.NewHashReference(plumbing.StashReferenceName, worktreeCommit.Hash), oldStash, who, message); err != nil {
		return plumbing.ZeroHash, err
	}

	headTree, err := headCommit.Tree()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if err := w.materialize(headTree); err != nil {
		return plumbing.ZeroHash, err
	}

	return worktreeCommit.Hash, nil
}

// StashApply three-way merges the most recent stash onto the current
// HEAD without removing it from refs/stash.
func (w *Worktree) StashApply() error {
	_, err := w.stashApply(false)
	return err
}

// StashPop applies the most recent stash and, on a clean apply, removes
// it from refs/stash.
func (w *Worktree) StashPop() error {
	_, err := w.stashApply(true)
	return err
}

func (w *Worktree) stashApply(pop bool) (*object.Tree, error) {
	ref, err := w.r.Storer.Reference(plumbing.StashReferenceName)
	if err != nil {
		return nil, fmt.Errorf("pygit: no stash entries")
	}

	stashCommit, err := object.GetCommit(w.r.Storer, ref.Hash())
	if err != nil {
		return nil, err
	}
	if stashCommit.NumParents() == 0 {
		return nil, fmt.Errorf("pygit: malformed stash entry %s", ref.Hash())
	}
	base, err := stashCommit.Parent(0)
	if err != nil {
		return nil, err
	}
	stashTree, err := stashCommit.Tree()
	if err != nil {
		return nil, err
	}

	head, err := w.r.Head()
	if err != nil {
		return nil, err
	}
	current, err := object.GetCommit(w.r.Storer, head.Hash())
	if err != nil {
		return nil, err
	}

	st := &merge.Stash{Base: base, Tree: stashTree}
	merged, conflicts, err := st.Apply(w.r.Storer, current)
	if err != nil {
		return nil, err
	}
	if err := w.materialize(merged); err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return merged, pygerr.ErrMergeConflict
	}

	if pop {
		who := w.r.defaultIdentity()
		if err := w.r.logRef(plumbing.StashReferenceName, ref.Hash(), plumbing.ZeroHash, who, "drop stash@{0}"); err != nil {
			return merged, err
		}
		if err := w.r.Storer.RemoveReference(plumbing.StashReferenceName); err != nil {
			return merged, err
		}
	}

	return merged, nil
}

func writeMergedTree(s storer.EncodedObjectStorer, t *object.Tree) (plumbing.Hash, error) {
	o := s.NewEncodedObject()
	if err := t.Encode(o); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(o)
}

func conflictPaths(conflicts []merge.Conflict) string {
	var b strings.Builder
	for _, c := range conflicts {
		b.WriteString(c.Path)
		b.WriteByte('\n')
	}
	return b.String()
}

func clearMergeState(s storage.Storer) error {
	for _, key := range []storage.StateKey{storage.StateMergeHead, storage.StateMergeMsg} {
		if err := s.RemoveState(key); err != nil {
			return err
		}
	}
	return nil
}

func clearCherryPickState(s storage.Storer) error {
	for _, key := range []storage.StateKey{storage.StateCherryPickHead, storage.StateCherryPickMsg, storage.StateCherryPickConflicts} {
		if err := s.RemoveState(key); err != nil {
			return err
		}
	}
	return nil
}

func clearRebaseState(s storage.Storer) error {
	for _, key := range []storage.StateKey{storage.StateOrigHead, storage.StateRebaseOnto, storage.StateRebaseTodo, storage.StateRebaseDone} {
		if err := s.RemoveState(key); err != nil {
			return err
		}
	}
	return nil
}

// commitsSinceFirstParent returns the first-parent chain from (but
// excluding) base up to and including from, oldest first — the replay
// order `git rebase` uses for a linear branch.
func commitsSinceFirstParent(from *object.Commit, base *object.Commit) ([]*object.Commit, error) {
	var commits []*object.Commit
	cur := from
	for cur.Hash != base.Hash {
		commits = append(commits, cur)
		if cur.NumParents() == 0 {
			break
		}
		parent, err := cur.Parent(0)
		if err != nil {
			return nil, err
		}
		cur = parent
	}

	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	return commits, nil
}
