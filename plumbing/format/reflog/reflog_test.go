package reflog

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/plumbing"
)

type ReflogSuite struct {
	suite.Suite
}

func TestReflogSuite(t *testing.T) {
	suite.Run(t, new(ReflogSuite))
}

func (s *ReflogSuite) entry() Entry {
	return Entry{
		Old: plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		New: plumbing.NewHash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		Who: Ident{
			Name:  "Jane Doe",
			Email: "jane@example.com",
			When:  time.Unix(1700000000, 0).In(time.FixedZone("", 2*3600)),
		},
		Message: "commit: add foo",
	}
}

func (s *ReflogSuite) TestStringFormat() {
	got := s.entry().String()
	s.Equal(
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb "+
			"Jane Doe <jane@example.com> 1700000000 +0200\tcommit: add foo\n",
		got,
	)
}

func (s *ReflogSuite) TestParseEntryRoundTrip() {
	want := s.entry()
	line := want.String()

	got, err := ParseEntry(line[:len(line)-1])
	s.Require().NoError(err)
	s.Equal(want.Old, got.Old)
	s.Equal(want.New, got.New)
	s.Equal(want.Who.Name, got.Who.Name)
	s.Equal(want.Who.Email, got.Who.Email)
	s.Equal(want.Who.When.Unix(), got.Who.When.Unix())
	s.Equal(want.Message, got.Message)
}

func (s *ReflogSuite) TestParseEntryNoMessage() {
	got, err := ParseEntry("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb Jane Doe <jane@example.com> 1700000000 +0200")
	s.Require().NoError(err)
	s.Equal("", got.Message)
}

func (s *ReflogSuite) TestParseEntryMalformed() {
	_, err := ParseEntry("not a reflog line")
	s.Error(err)
}

func (s *ReflogSuite) TestEncoderDecoderRoundTrip() {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	s.Require().NoError(enc.Encode(s.entry()))
	s.Require().NoError(enc.Encode(s.entry()))

	entries, err := All(&buf)
	s.Require().NoError(err)
	s.Len(entries, 2)
	s.Equal(s.entry().Message, entries[0].Message)
}

func (s *ReflogSuite) TestDecoderEOFOnEmpty() {
	dec := NewDecoder(bytes.NewReader(nil))
	_, err := dec.Decode()
	s.ErrorIs(err, io.EOF)
}
