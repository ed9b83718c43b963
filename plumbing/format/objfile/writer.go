package objfile

import (
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/pygit-core/pygit/plumbing"
	gogitsync "github.com/pygit-core/pygit/utils/sync"
)

// ErrOverflow is returned when a Write call would write past the size
// declared in WriteHeader.
var ErrOverflow = errors.New("write beyond declared size")

// Writer writes a loose object file: the zlib-compressed "<type> <size>\0"
// header followed by the raw content, to w.
type Writer struct {
	w    io.Writer
	zlib *zlib.Writer
	hr   plumbing.Hasher

	size    int64
	written int64
}

// NewWriter returns a Writer writing to w. WriteHeader must be called
// before any call to Write.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader writes the object's framing header: its type and declared
// content size. It must be called exactly once, before any Write.
func (w *Writer) WriteHeader(t plumbing.ObjectType, size int64) error {
	if !t.Valid() {
		return plumbing.ErrInvalidType
	}
	if size < 0 {
		return ErrNegativeSize
	}

	w.size = size
	w.hr = plumbing.NewHasher(t, size)
	w.zlib = gogitsync.GetZlibWriter(w.w)

	header := fmt.Sprintf("%s %d", t, size)
	if _, err := w.zlib.Write(append([]byte(header), 0)); err != nil {
		return err
	}

	return nil
}

// Write writes the object's content, deflating it as it goes. It is an
// error to write more bytes than declared in WriteHeader.
func (w *Writer) Write(p []byte) (int, error) {
	overflow := w.written+int64(len(p)) > w.size
	if overflow {
		p = p[:w.size-w.written]
	}

	n, err := w.zlib.Write(p)
	w.written += int64(n)
	if err != nil {
		return n, err
	}

	w.hr.Write(p)

	if overflow {
		return n, ErrOverflow
	}
	return n, nil
}

// Hash returns the SHA-1 of the content written so far.
func (w *Writer) Hash() plumbing.Hash {
	return w.hr.Sum()
}

// Close flushes the zlib stream and returns the writer to its pool.
func (w *Writer) Close() error {
	if w.zlib == nil {
		return nil
	}
	err := w.zlib.Close()
	gogitsync.PutZlibWriter(w.zlib)
	return err
}
