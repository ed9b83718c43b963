package object

import (
	"io"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// Blob is the content of a file at a point in history: an opaque byte
// sequence with no internal structure Git itself interprets.
type Blob struct {
	Hash plumbing.Hash
	Size int64

	obj plumbing.EncodedObject
}

// ID returns the blob's hash.
func (b *Blob) ID() plumbing.Hash { return b.Hash }

// Type always returns plumbing.BlobObject.
func (b *Blob) Type() plumbing.ObjectType { return plumbing.BlobObject }

// Decode reads o's metadata. o must be of type BlobObject.
func (b *Blob) Decode(o plumbing.EncodedObject) error {
	if o.Type() != plumbing.BlobObject {
		return ErrUnsupportedObject
	}

	b.Hash = o.Hash()
	b.Size = o.Size()
	b.obj = o
	return nil
}

// Encode writes the blob's content, unchanged, into o.
func (b *Blob) Encode(o plumbing.EncodedObject) error {
	o.SetType(plumbing.BlobObject)
	o.SetSize(b.Size)

	w, err := o.Writer()
	if err != nil {
		return err
	}
	defer w.Close()

	r, err := b.obj.Reader()
	if err != nil {
		return err
	}
	defer r.Close()

	_, err = io.Copy(w, r)
	return err
}

// Reader returns a reader over the blob's raw content.
func (b *Blob) Reader() (io.ReadCloser, error) {
	return b.obj.Reader()
}

// BlobIter iterates over a series of already-resolved blobs.
type BlobIter struct {
	storer.EncodedObjectIter
	s storer.EncodedObjectStorer
}

// NewBlobIter returns an iterator wrapping iter, decoding each object into
// a Blob as it is yielded.
func NewBlobIter(s storer.EncodedObjectStorer, iter storer.EncodedObjectIter) *BlobIter {
	return &BlobIter{iter, s}
}

// Next returns the next Blob in the iterator.
func (iter *BlobIter) Next() (*Blob, error) {
	obj, err := iter.EncodedObjectIter.Next()
	if err != nil {
		return nil, err
	}

	b := &Blob{}
	return b, b.Decode(obj)
}

// ForEach calls cb for every Blob in the iterator, stopping early (without
// error) if cb returns storer.ErrStop.
func (iter *BlobIter) ForEach(cb func(*Blob) error) error {
	return iter.EncodedObjectIter.ForEach(func(obj plumbing.EncodedObject) error {
		b := &Blob{}
		if err := b.Decode(obj); err != nil {
			return err
		}
		return cb(b)
	})
}
