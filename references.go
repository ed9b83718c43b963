package pygit

import (
	"fmt"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// Branches returns an iterator over every local branch reference.
func (r *Repository) Branches() (storer.ReferenceIter, error) {
	return filteredReferences(r.Storer, func(n plumbing.ReferenceName) bool { return n.IsBranch() })
}

// Tags returns an iterator over every tag reference, lightweight or
// annotated alike (the ref is a bare hash either way; annotated tags
// additionally have a tag object behind that hash).
func (r *Repository) Tags() (storer.ReferenceIter, error) {
	return filteredReferences(r.Storer, func(n plumbing.ReferenceName) bool { return n.IsTag() })
}

func filteredReferences(s storer.ReferenceStorer, keep func(plumbing.ReferenceName) bool) (storer.ReferenceIter, error) {
	iter, err := s.IterReferences()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var refs []*plumbing.Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if keep(ref.Name()) {
			refs = append(refs, ref)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return storer.NewReferenceSliceIter(refs), nil
}

// CreateBranch creates a new branch reference pointed at h. It does not
// check it out; use Worktree.Checkout with Create for that.
func (r *Repository) CreateBranch(name string, h plumbing.Hash) error {
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), h)
	return r.updateHead(ref, plumbing.ZeroHash, r.defaultIdentity(), fmt.Sprintf("branch: Created from %s", h))
}

// DeleteBranch removes a local branch reference.
func (r *Repository) DeleteBranch(name string) error {
	return r.Storer.RemoveReference(plumbing.NewBranchReferenceName(name))
}

// CreateTag creates a lightweight tag: a bare ref pointed directly at h,
// with no tag object. Annotated tags are created by encoding an
// *object.Tag and passing its hash here instead of the target commit's.
func (r *Repository) CreateTag(name string, h plumbing.Hash) error {
	ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), h)
	return r.Storer.SetReference(ref)
}

// DeleteTag removes a tag reference.
func (r *Repository) DeleteTag(name string) error {
	return r.Storer.RemoveReference(plumbing.NewTagReferenceName(name))
}
