package pygit

import (
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/revision"
)

// revlistResolve resolves a revision expression against r's object graph.
// Named distinctly from plumbing/revlist (which computes reachable-object
// sets for transport) since this is the revision-string resolver.
func revlistResolve(r revision.Repository, rev string) (plumbing.Hash, error) {
	return revision.Resolve(r, rev)
}

// Log returns an iterator over the commit history starting at o.From (or
// HEAD's commit, if From is zero), in the order o.Order selects.
func (r *Repository) Log(o *LogOptions) (object.CommitIter, error) {
	from := o.From
	if from.IsZero() {
		head, err := r.Head()
		if err != nil {
			return nil, err
		}
		from = head.Hash()
	}

	c, err := object.GetCommit(r.Storer, from)
	if err != nil {
		return nil, err
	}

	if o.FirstParent {
		return object.NewCommitFirstParentIter(c), nil
	}

	switch o.Order {
	case LogOrderTopo:
		return object.NewCommitTopoIter(c)
	default:
		return object.NewCommitPreorderIter(c, nil), nil
	}
}
