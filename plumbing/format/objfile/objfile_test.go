package objfile

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/plumbing"
)

type ObjFileSuite struct {
	suite.Suite
}

func TestObjFileSuite(t *testing.T) {
	suite.Run(t, new(ObjFileSuite))
}

func (s *ObjFileSuite) TestWriteThenReadRoundTrip() {
	content := []byte("hello world")

	var buf bytes.Buffer
	w := NewWriter(&buf)
	s.Require().NoError(w.WriteHeader(plumbing.BlobObject, int64(len(content))))
	n, err := w.Write(content)
	s.Require().NoError(err)
	s.Equal(len(content), n)
	s.Require().NoError(w.Close())

	wantHash := w.Hash()

	r, err := NewReader(&buf)
	s.Require().NoError(err)
	typ, size, err := r.Header()
	s.Require().NoError(err)
	s.Equal(plumbing.BlobObject, typ)
	s.Equal(int64(len(content)), size)

	got, err := io.ReadAll(r)
	s.Require().NoError(err)
	s.Equal(content, got)
	s.Equal(wantHash, r.Hash())
	s.Require().NoError(r.Close())
}

func (s *ObjFileSuite) TestWriteRejectsOverflow() {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	s.Require().NoError(w.WriteHeader(plumbing.BlobObject, 4))

	_, err := w.Write([]byte("too many bytes"))
	s.ErrorIs(err, ErrOverflow)
}

func (s *ObjFileSuite) TestWriteHeaderRejectsNegativeSize() {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	s.ErrorIs(w.WriteHeader(plumbing.BlobObject, -1), ErrNegativeSize)
}

func (s *ObjFileSuite) TestReaderRejectsMalformedHeader() {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	s.Require().NoError(w.WriteHeader(plumbing.BlobObject, 0))
	s.Require().NoError(w.Close())

	// Corrupt the decompressed stream indirectly is hard without
	// re-implementing zlib framing, so instead feed garbage that isn't
	// even valid zlib and confirm NewReader surfaces the error.
	_, err := NewReader(bytes.NewReader([]byte("not zlib data")))
	s.Error(err)
}
