package filesystem

import (
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/format/reflog"
	"github.com/pygit-core/pygit/plumbing/storer"
	"github.com/pygit-core/pygit/storage/filesystem/dotgit"
)

// ReferenceStorage implements storer.ReferenceStorer directly against the
// .git directory: every read re-walks refs/ and packed-refs, so there is
// no cache to invalidate when a ref changes out from under this process.
type ReferenceStorage struct {
	dir *dotgit.DotGit
}

func (r *ReferenceStorage) SetReference(ref *plumbing.Reference) error {
	return r.dir.SetRef(ref, nil)
}

func (r *ReferenceStorage) CheckAndSetReference(ref, old *plumbing.Reference) error {
	return r.dir.SetRef(ref, old)
}

func (r *ReferenceStorage) Reference(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	return r.dir.Ref(n)
}

func (r *ReferenceStorage) IterReferences() (storer.ReferenceIter, error) {
	refs, err := r.dir.Refs()
	if err != nil {
		return nil, err
	}
	return storer.NewReferenceSliceIter(refs), nil
}

func (r *ReferenceStorage) RemoveReference(n plumbing.ReferenceName) error {
	return r.dir.RemoveRef(n)
}

func (r *ReferenceStorage) CountLooseRefs() (int, error) {
	refs, err := r.dir.Refs()
	if err != nil {
		return 0, err
	}
	return len(refs), nil
}

// PackRefs is a no-op: packed-refs is read-only in this core, never
// rewritten by gc or any other operation.
func (r *ReferenceStorage) PackRefs() error {
	return nil
}

// AppendReflog appends entry to name's reflog under logs/.
func (r *ReferenceStorage) AppendReflog(name plumbing.ReferenceName, entry reflog.Entry) error {
	return r.dir.AppendReflog(name, entry)
}

// Reflog returns every entry logged against name, oldest first.
func (r *ReferenceStorage) Reflog(name plumbing.ReferenceName) ([]reflog.Entry, error) {
	return r.dir.Reflog(name)
}
