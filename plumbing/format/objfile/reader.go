// Package objfile implements the loose object file format: a zlib-deflated
// "<type> <size>\0" header followed by the object's raw content, stored at
// .git/objects/xx/yyyy... keyed by the SHA-1 of the uncompressed bytes.
package objfile

import (
	"bufio"
	"errors"
	"io"
	"strconv"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/utils/binary"
	gogitsync "github.com/pygit-core/pygit/utils/sync"
)

var (
	// ErrHeader is returned when a loose object's header cannot be parsed.
	ErrHeader = errors.New("invalid header")
	// ErrNegativeSize is returned when a header declares a negative size.
	ErrNegativeSize = errors.New("negative object size")
)

// Reader reads the zlib-compressed content of a loose object file.
type Reader struct {
	zlib io.ReadCloser
	hr   plumbing.Hasher
	r    io.Reader

	typ  plumbing.ObjectType
	size int64
}

// NewReader returns a Reader reading a loose object from r. The zlib
// header is validated immediately; the object header (type and size) is
// not read until the first call to Header.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := gogitsync.GetZlibReader(r)
	if err != nil {
		return nil, err
	}

	return &Reader{zlib: zr, r: zr}, nil
}

// Header reads and parses the "<type> <size>\0" framing header, returning
// the object's type and uncompressed content length.
func (r *Reader) Header() (t plumbing.ObjectType, size int64, err error) {
	br := bufio.NewReader(r.r)

	typ, err := binary.ReadUntilFromBufioReader(br, ' ')
	if err != nil {
		return plumbing.InvalidObject, 0, ErrHeader
	}

	t, err = plumbing.ParseObjectType(string(typ))
	if err != nil {
		return plumbing.InvalidObject, 0, err
	}

	sz, err := binary.ReadUntilFromBufioReader(br, 0)
	if err != nil {
		return plumbing.InvalidObject, 0, ErrHeader
	}

	size, err = strconv.ParseInt(string(sz), 10, 64)
	if err != nil {
		return plumbing.InvalidObject, 0, ErrHeader
	}
	if size < 0 {
		return plumbing.InvalidObject, 0, ErrNegativeSize
	}

	r.typ = t
	r.size = size
	r.hr = plumbing.NewHasher(t, size)
	r.r = io.TeeReader(br, r.hr)

	return t, size, nil
}

// Read implements io.Reader, returning the object's raw content.
func (r *Reader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

// Hash returns the SHA-1 of the object read so far. It is only meaningful
// after the content has been fully read.
func (r *Reader) Hash() plumbing.Hash {
	return r.hr.Sum()
}

// Close releases the underlying zlib reader back to its pool.
func (r *Reader) Close() error {
	if zr, ok := r.zlib.(*gogitsync.ZLibReader); ok {
		gogitsync.PutZlibReader(zr)
		return nil
	}
	return r.zlib.Close()
}
