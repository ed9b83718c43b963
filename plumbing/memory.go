package plumbing

import (
	"bytes"
	"io"
)

// MemoryObject is an in-memory EncodedObject implementation: content lives
// in a byte slice rather than on disk. Used for building objects before
// they are written to storage, and as the object representation in
// storage/memory.
type MemoryObject struct {
	t      ObjectType
	h      Hash
	cont   []byte
	sz     int64
	hasher Hasher
}

// NewMemoryObject returns an empty MemoryObject, ready to be written to via
// Writer, Write, or SetContent.
func NewMemoryObject() *MemoryObject {
	return &MemoryObject{}
}

// Hash returns the object's hash, computed incrementally as content is
// written. It is ZeroHash until the first write.
func (o *MemoryObject) Hash() Hash { return o.h }

// Type returns the object's type.
func (o *MemoryObject) Type() ObjectType { return o.t }

// SetType sets the object's type. Changing it after content has already
// been written does not retroactively change the computed hash.
func (o *MemoryObject) SetType(t ObjectType) { o.t = t }

// Size returns the declared content size.
func (o *MemoryObject) Size() int64 { return o.sz }

// SetSize sets the declared content size. It does not truncate or grow the
// underlying buffer; it only matters for objects built via Write, where
// the size must be known before the first byte is written.
func (o *MemoryObject) SetSize(s int64) { o.sz = s }

// SetHash sets the object's hash directly, bypassing computation.
func (o *MemoryObject) SetHash(h Hash) { o.h = h }

// SetContent replaces the object's raw content outright, updates Size to
// match, and recomputes the hash.
func (o *MemoryObject) SetContent(b []byte) {
	o.cont = b
	o.sz = int64(len(b))
	o.hasher = Hasher{}
	o.h = ZeroHash

	if len(b) == 0 {
		return
	}

	h := NewHasher(o.t, o.sz)
	h.Write(b)
	o.h = h.Sum()
}

// Content returns the object's raw content.
func (o *MemoryObject) Content() []byte { return o.cont }

// Write appends p to the object's content, updating the running hash. The
// object's Type and Size must already be set before the first call.
func (o *MemoryObject) Write(p []byte) (int, error) {
	if o.hasher.Hash == nil {
		o.hasher = NewHasher(o.t, o.sz)
	}

	o.cont = append(o.cont, p...)
	n, err := o.hasher.Write(p)
	o.h = o.hasher.Sum()
	return n, err
}

// Reader returns a seekable reader over the object's raw content.
func (o *MemoryObject) Reader() (io.ReadCloser, error) {
	return &memoryObjectReader{bytes.NewReader(o.cont)}, nil
}

type memoryObjectReader struct {
	*bytes.Reader
}

func (memoryObjectReader) Close() error { return nil }

// Writer returns a writer that appends to the object's content and
// maintains its hash, identical to calling Write directly.
func (o *MemoryObject) Writer() (io.WriteCloser, error) {
	return &memoryObjectWriter{o: o}, nil
}

type memoryObjectWriter struct {
	o *MemoryObject
}

func (w *memoryObjectWriter) Write(p []byte) (int, error) { return w.o.Write(p) }
func (w *memoryObjectWriter) Close() error                { return nil }
