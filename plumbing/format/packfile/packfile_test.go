package packfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// fakeStorer is a minimal in-memory storer.EncodedObjectStorer used only to
// exercise the encoder/parser round trip without depending on a concrete
// storage implementation.
type fakeStorer struct {
	objects map[plumbing.Hash]plumbing.EncodedObject
}

func newFakeStorer() *fakeStorer {
	return &fakeStorer{objects: make(map[plumbing.Hash]plumbing.EncodedObject)}
}

func (s *fakeStorer) NewEncodedObject() plumbing.EncodedObject {
	return plumbing.NewMemoryObject()
}

func (s *fakeStorer) SetEncodedObject(o plumbing.EncodedObject) (plumbing.Hash, error) {
	s.objects[o.Hash()] = o
	return o.Hash(), nil
}

func (s *fakeStorer) EncodedObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	o, ok := s.objects[h]
	if !ok || (t != plumbing.AnyObject && o.Type() != t) {
		return nil, plumbing.ErrObjectNotFound
	}
	return o, nil
}

func (s *fakeStorer) IterEncodedObjects(plumbing.ObjectType) (storer.EncodedObjectIter, error) {
	return nil, nil
}

func (s *fakeStorer) HasEncodedObject(h plumbing.Hash) error {
	if _, ok := s.objects[h]; !ok {
		return plumbing.ErrObjectNotFound
	}
	return nil
}

func (s *fakeStorer) EncodedObjectSize(h plumbing.Hash) (int64, error) {
	o, ok := s.objects[h]
	if !ok {
		return 0, plumbing.ErrObjectNotFound
	}
	return o.Size(), nil
}

func newBlob(content string) *plumbing.MemoryObject {
	o := plumbing.NewMemoryObject()
	o.SetType(plumbing.BlobObject)
	o.SetSize(int64(len(content)))
	w, _ := o.Writer()
	w.Write([]byte(content))
	w.Close()
	return o
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	store := newFakeStorer()

	a := newBlob("hello, world")
	b := newBlob("another object entirely")
	_, err := store.SetEncodedObject(a)
	require.NoError(t, err)
	_, err = store.SetEncodedObject(b)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	enc := NewEncoder(buf, store)
	checksum, err := enc.Encode([]plumbing.Hash{a.Hash(), b.Hash()})
	require.NoError(t, err)
	assert.Len(t, enc.Entries, 2)

	decodeStore := newFakeStorer()
	p := NewParser(bytes.NewReader(buf.Bytes()), WithStorage(decodeStore))
	gotChecksum, err := p.Parse()
	require.NoError(t, err)
	assert.Equal(t, checksum, gotChecksum)

	gotA, err := decodeStore.EncodedObject(plumbing.BlobObject, a.Hash())
	require.NoError(t, err)
	assert.Equal(t, a.Hash(), gotA.Hash())
	assert.Equal(t, int64(len("hello, world")), gotA.Size())

	gotB, err := decodeStore.EncodedObject(plumbing.BlobObject, b.Hash())
	require.NoError(t, err)
	assert.Equal(t, b.Hash(), gotB.Hash())
}

func TestHeaderRejectsBadSignature(t *testing.T) {
	s := NewScanner(bytes.NewReader([]byte("XXXX\x00\x00\x00\x02\x00\x00\x00\x01")))
	_, _, err := s.Header()
	assert.Equal(t, ErrBadSignature, err)
}

func TestHeaderRejectsEmptyPackfile(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(signature)
	buf.Write([]byte{0, 0, 0, 2})
	buf.Write([]byte{0, 0, 0, 0})

	s := NewScanner(&buf)
	_, _, err := s.Header()
	assert.Equal(t, ErrEmptyPackfile, err)
}
