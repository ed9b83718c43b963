package idxfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/plumbing"
)

type IdxFileSuite struct {
	suite.Suite
}

func TestIdxFileSuite(t *testing.T) {
	suite.Run(t, new(IdxFileSuite))
}

func hashFor(b byte) plumbing.Hash {
	var h plumbing.Hash
	h[0] = b
	h[19] = b
	return h
}

func (s *IdxFileSuite) buildIndex() *MemoryIndex {
	w := &Writer{}
	w.Add(hashFor(0x01), 10, 100)
	w.Add(hashFor(0x02), 500, 200)
	w.Add(hashFor(0xff), 1000, 300)

	idx, err := w.CreateIndex(hashFor(0xaa))
	s.Require().NoError(err)
	return idx
}

func (s *IdxFileSuite) TestWriterBuildsLookupableIndex() {
	idx := s.buildIndex()

	count, err := idx.Count()
	s.Require().NoError(err)
	s.Equal(int64(3), count)

	offset, err := idx.FindOffset(hashFor(0x02))
	s.Require().NoError(err)
	s.Equal(int64(500), offset)

	crc, err := idx.FindCRC32(hashFor(0x02))
	s.Require().NoError(err)
	s.Equal(uint32(200), crc)

	ok, err := idx.Contains(hashFor(0x01))
	s.Require().NoError(err)
	s.True(ok)

	ok, err = idx.Contains(hashFor(0x7e))
	s.Require().NoError(err)
	s.False(ok)
}

func (s *IdxFileSuite) TestFindHashReversesFindOffset() {
	idx := s.buildIndex()

	h, err := idx.FindHash(500)
	s.Require().NoError(err)
	s.Equal(hashFor(0x02), h)

	_, err = idx.FindHash(999999)
	s.ErrorIs(err, plumbing.ErrObjectNotFound)
}

func (s *IdxFileSuite) TestEntriesIterateInHashOrder() {
	idx := s.buildIndex()

	it, err := idx.Entries()
	s.Require().NoError(err)

	var hashes []plumbing.Hash
	for {
		e, err := it.Next()
		if err != nil {
			break
		}
		hashes = append(hashes, e.Hash)
	}
	s.Equal([]plumbing.Hash{hashFor(0x01), hashFor(0x02), hashFor(0xff)}, hashes)
}

func (s *IdxFileSuite) TestEntriesByOffsetOrdersByOffset() {
	idx := s.buildIndex()

	it, err := idx.EntriesByOffset()
	s.Require().NoError(err)

	var offsets []uint64
	for {
		e, err := it.Next()
		if err != nil {
			break
		}
		offsets = append(offsets, e.Offset)
	}
	s.Equal([]uint64{10, 500, 1000}, offsets)
}

func (s *IdxFileSuite) TestEncodeDecodeRoundTrip() {
	idx := s.buildIndex()

	var buf bytes.Buffer
	_, err := NewEncoder(&buf).Encode(idx)
	s.Require().NoError(err)

	decoded := &MemoryIndex{}
	s.Require().NoError(NewDecoder(&buf).Decode(decoded))

	offset, err := decoded.FindOffset(hashFor(0x02))
	s.Require().NoError(err)
	s.Equal(int64(500), offset)

	s.Equal(idx.PackfileChecksum, decoded.PackfileChecksum)
}

func (s *IdxFileSuite) TestDecodeRejectsBadSignature() {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0})
	err := NewDecoder(&buf).Decode(&MemoryIndex{})
	s.Error(err)
}
