package storer

import (
	"errors"
	"io"

	"github.com/pygit-core/pygit/plumbing"
)

// ErrReferenceHasChanged is returned by CheckAndSetReference when the old
// value given by the caller no longer matches what is stored, meaning the
// reference changed concurrently.
var ErrReferenceHasChanged = errors.New("reference has changed concurrently")

// ReferenceStorer is a generic storage of references.
type ReferenceStorer interface {
	// SetReference stores or updates the given reference unconditionally.
	SetReference(*plumbing.Reference) error
	// CheckAndSetReference stores or updates the given reference, but
	// first verifies that the currently stored value for ref.Name()
	// matches old (a compare-and-swap). If old is nil, the update
	// proceeds unconditionally, matching SetReference. Returns
	// ErrReferenceHasChanged if the stored value has since diverged.
	CheckAndSetReference(ref, old *plumbing.Reference) error
	// Reference returns the stored reference with the given name,
	// resolving at most zero levels of symbolic indirection (callers
	// wanting the final hash should walk symbolic references themselves
	// or use ResolveReference).
	Reference(plumbing.ReferenceName) (*plumbing.Reference, error)
	// IterReferences returns an iterator over all the stored references.
	IterReferences() (ReferenceIter, error)
	// RemoveReference removes the stored reference with the given name,
	// if any. Removing a reference that does not exist is not an error.
	RemoveReference(plumbing.ReferenceName) error
	// CountLooseRefs returns the number of unpacked, loose references.
	CountLooseRefs() (int, error)
	// PackRefs packs all loose references into the packed-refs file.
	PackRefs() error
}

// ReferenceIter is a generic iterator of references.
type ReferenceIter interface {
	Next() (*plumbing.Reference, error)
	ForEach(func(*plumbing.Reference) error) error
	Close()
}

// ReferenceSliceIter implements ReferenceIter over a plain slice.
type ReferenceSliceIter struct {
	series []*plumbing.Reference
	pos    int
}

// NewReferenceSliceIter returns an iterator over a fixed slice of
// references.
func NewReferenceSliceIter(series []*plumbing.Reference) *ReferenceSliceIter {
	return &ReferenceSliceIter{series: series}
}

func (iter *ReferenceSliceIter) Next() (*plumbing.Reference, error) {
	if iter.pos >= len(iter.series) {
		return nil, io.EOF
	}
	r := iter.series[iter.pos]
	iter.pos++
	return r, nil
}

func (iter *ReferenceSliceIter) ForEach(cb func(*plumbing.Reference) error) error {
	for {
		r, err := iter.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := cb(r); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}
	}
}

func (iter *ReferenceSliceIter) Close() {
	iter.pos = len(iter.series)
}

// ResolveReference resolves a reference name to its final, hash-valued
// reference, following up to 10 levels of symbolic indirection (matching
// Git's own de-reference limit) to guard against cycles.
func ResolveReference(s ReferenceStorer, n plumbing.ReferenceName) (*plumbing.Reference, error) {
	r, err := s.Reference(n)
	if err != nil || r == nil {
		return r, err
	}

	for i := 0; i < 10; i++ {
		if r.Type() != plumbing.SymbolicReference {
			return r, nil
		}

		next, err := s.Reference(r.Target())
		if err != nil {
			return nil, err
		}

		r = next
	}

	return nil, plumbing.ErrReferenceNotFound
}
