package storer

import (
	"errors"
	"io"

	"github.com/pygit-core/pygit/plumbing"
)

// ErrStop is used to stop a ForEach function in an Iter.
var ErrStop = errors.New("stop iter")

// EncodedObjectStorer generic storage of objects, induced by the hash
// function used to address them (see plumbing.Hash).
type EncodedObjectStorer interface {
	// NewEncodedObject returns a new empty EncodedObject, the real type of
	// the object can be a custom implementation or the default one,
	// MemoryObject.
	NewEncodedObject() plumbing.EncodedObject
	// SetEncodedObject saves an object into the storage, returning the
	// hash calculated during the write.
	SetEncodedObject(plumbing.EncodedObject) (plumbing.Hash, error)
	// EncodedObject returns the object with the given hash, by type. If
	// type is plumbing.AnyObject, any object type matching the given hash
	// is returned. If the object does not exist, ErrObjectNotFound is
	// returned.
	EncodedObject(plumbing.ObjectType, plumbing.Hash) (plumbing.EncodedObject, error)
	// IterEncodedObjects returns an iterator for all the objects of the
	// given type in the storage.
	IterEncodedObjects(plumbing.ObjectType) (EncodedObjectIter, error)
	// HasEncodedObject returns ErrObjectNotFound if the object doesn't
	// exist, nil otherwise.
	HasEncodedObject(plumbing.Hash) error
	// EncodedObjectSize returns the plaintext size of the object.
	EncodedObjectSize(plumbing.Hash) (int64, error)
}

// DeltaObjectStorer is implemented by storers that can return objects
// still encoded as a delta, saving the caller from having to apply it
// when the base is already known.
type DeltaObjectStorer interface {
	DeltaObject(plumbing.ObjectType, plumbing.Hash) (plumbing.EncodedObject, error)
}

// EncodedObjectIter is a generic iterator of EncodedObjects.
type EncodedObjectIter interface {
	Next() (plumbing.EncodedObject, error)
	ForEach(func(plumbing.EncodedObject) error) error
	Close()
}

// EncodedObjectLookupIter implements EncodedObjectIter, lazily resolving a
// fixed list of hashes to objects of the given type through a Storer, one
// at a time.
type EncodedObjectLookupIter struct {
	storer EncodedObjectStorer
	t      plumbing.ObjectType
	series []plumbing.Hash
	pos    int
}

// NewEncodedObjectLookupIter returns an iterator that yields, in order,
// the objects named by series, as resolved through storer.
func NewEncodedObjectLookupIter(
	storer EncodedObjectStorer, t plumbing.ObjectType, series []plumbing.Hash,
) *EncodedObjectLookupIter {
	return &EncodedObjectLookupIter{storer: storer, t: t, series: series}
}

func (iter *EncodedObjectLookupIter) Next() (plumbing.EncodedObject, error) {
	if iter.pos >= len(iter.series) {
		return nil, io.EOF
	}

	hash := iter.series[iter.pos]
	iter.pos++
	return iter.storer.EncodedObject(iter.t, hash)
}

func (iter *EncodedObjectLookupIter) ForEach(cb func(plumbing.EncodedObject) error) error {
	for {
		obj, err := iter.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := cb(obj); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}
	}
}

func (iter *EncodedObjectLookupIter) Close() {
	iter.pos = len(iter.series)
}

// EncodedObjectSliceIter implements EncodedObjectIter over an in-memory
// slice of already-resolved objects.
type EncodedObjectSliceIter struct {
	series []plumbing.EncodedObject
	pos    int
}

// NewEncodedObjectSliceIter returns an iterator over a fixed slice of
// objects.
func NewEncodedObjectSliceIter(series []plumbing.EncodedObject) *EncodedObjectSliceIter {
	return &EncodedObjectSliceIter{series: series}
}

func (iter *EncodedObjectSliceIter) Next() (plumbing.EncodedObject, error) {
	if iter.pos >= len(iter.series) {
		return nil, io.EOF
	}
	obj := iter.series[iter.pos]
	iter.pos++
	return obj, nil
}

func (iter *EncodedObjectSliceIter) ForEach(cb func(plumbing.EncodedObject) error) error {
	for {
		obj, err := iter.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := cb(obj); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}
	}
}

func (iter *EncodedObjectSliceIter) Close() {
	iter.pos = len(iter.series)
}
