package index

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/filemode"
)

type IndexSuite struct {
	suite.Suite
}

func TestIndexSuite(t *testing.T) {
	suite.Run(t, new(IndexSuite))
}

func (s *IndexSuite) TestAddEntryThenFind() {
	idx := &Index{Version: 2}
	e := idx.Add("a/b.txt")
	e.Hash = plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	e.Mode = filemode.Regular

	found, err := idx.Entry("a/b.txt")
	s.Require().NoError(err)
	s.Same(e, found)

	_, err = idx.Entry("missing.txt")
	s.ErrorIs(err, ErrEntryNotFound)
}

func (s *IndexSuite) TestAddNormalizesBackslashes() {
	idx := &Index{Version: 2}
	idx.Add(`a\b.txt`)

	_, err := idx.Entry("a/b.txt")
	s.Require().NoError(err)
}

func (s *IndexSuite) TestRemove() {
	idx := &Index{Version: 2}
	idx.Add("a.txt")

	removed, err := idx.Remove("a.txt")
	s.Require().NoError(err)
	s.Equal("a.txt", removed.Name)

	_, err = idx.Entry("a.txt")
	s.ErrorIs(err, ErrEntryNotFound)
}

func (s *IndexSuite) TestEntryAtStageIgnoresMergedEntries() {
	idx := &Index{Version: 2}
	merged := idx.Add("a.txt")
	merged.Stage = Merged

	conflict := &Entry{Name: "a.txt", Stage: OurMode}
	idx.Entries = append(idx.Entries, conflict)

	found, err := idx.EntryAtStage("a.txt", OurMode)
	s.Require().NoError(err)
	s.Same(conflict, found)
}

func (s *IndexSuite) TestGlobMatchesByPattern() {
	idx := &Index{Version: 2}
	idx.Add("src/a.go")
	idx.Add("src/b.go")
	idx.Add("docs/readme.md")

	matches, err := idx.Glob("src/*.go")
	s.Require().NoError(err)
	s.Len(matches, 2)
}

func (s *IndexSuite) TestEntryModifiedDetectsSizeOrTimeChange() {
	e := &Entry{Size: 10, ModifiedAt: time.Unix(100, 0)}

	s.False(e.Modified(10, time.Unix(100, 0)))
	s.True(e.Modified(11, time.Unix(100, 0)))
	s.True(e.Modified(10, time.Unix(200, 0)))
}

func (s *IndexSuite) TestEncodeDecodeRoundTrip() {
	idx := &Index{Version: 2}
	e := idx.Add("a.txt")
	e.Hash = plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	e.Mode = filemode.Regular
	e.Size = 5
	e.CreatedAt = time.Unix(1000, 0)
	e.ModifiedAt = time.Unix(2000, 0)

	var buf bytes.Buffer
	s.Require().NoError(NewEncoder(&buf).Encode(idx))

	decoded := &Index{}
	s.Require().NoError(NewDecoder(&buf).Decode(decoded))

	s.Require().Len(decoded.Entries, 1)
	got := decoded.Entries[0]
	s.Equal("a.txt", got.Name)
	s.Equal(e.Hash, got.Hash)
	s.Equal(uint32(5), got.Size)
}

func (s *IndexSuite) TestDecodeRejectsBadSignature() {
	var buf bytes.Buffer
	buf.WriteString("FAKE")
	buf.Write([]byte{0, 0, 0, 2})
	buf.Write([]byte{0, 0, 0, 0})
	err := NewDecoder(&buf).Decode(&Index{})
	s.Error(err)
}
