package revision

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ParserSuite struct {
	suite.Suite
}

func TestParserSuite(t *testing.T) {
	suite.Run(t, new(ParserSuite))
}

func (s *ParserSuite) TestPlainRef() {
	steps, err := Parse("master")
	s.NoError(err)
	s.Equal([]Revisioner{Ref("master")}, steps)
}

func (s *ParserSuite) TestQualifiedRef() {
	steps, err := Parse("refs/heads/master")
	s.NoError(err)
	s.Equal([]Revisioner{Ref("refs/heads/master")}, steps)
}

func (s *ParserSuite) TestTildeDefault() {
	steps, err := Parse("master~")
	s.NoError(err)
	s.Equal([]Revisioner{Ref("master"), TildePath{Depth: 1}}, steps)
}

func (s *ParserSuite) TestTildeN() {
	steps, err := Parse("master~3")
	s.NoError(err)
	s.Equal([]Revisioner{Ref("master"), TildePath{Depth: 3}}, steps)
}

func (s *ParserSuite) TestCaretDefault() {
	steps, err := Parse("master^")
	s.NoError(err)
	s.Equal([]Revisioner{Ref("master"), CaretPath{Depth: 1}}, steps)
}

func (s *ParserSuite) TestCaretN() {
	steps, err := Parse("master^2")
	s.NoError(err)
	s.Equal([]Revisioner{Ref("master"), CaretPath{Depth: 2}}, steps)
}

func (s *ParserSuite) TestCaretType() {
	steps, err := Parse("v1.0^{commit}")
	s.NoError(err)
	s.Equal([]Revisioner{Ref("v1.0"), CaretType{Type: "commit"}}, steps)
}

func (s *ParserSuite) TestCaretEmptyType() {
	steps, err := Parse("v1.0^{}")
	s.NoError(err)
	s.Equal([]Revisioner{Ref("v1.0"), CaretType{Type: ""}}, steps)
}

func (s *ParserSuite) TestChainedTildeCaret() {
	steps, err := Parse("master~2^3")
	s.NoError(err)
	s.Equal([]Revisioner{
		Ref("master"),
		TildePath{Depth: 2},
		CaretPath{Depth: 3},
	}, steps)
}

func (s *ParserSuite) TestAtReflog() {
	steps, err := Parse("master@{2}")
	s.NoError(err)
	s.Equal([]Revisioner{Ref("master"), AtReflog{N: 2}}, steps)
}

func (s *ParserSuite) TestAtCheckout() {
	steps, err := Parse("@{-1}")
	s.NoError(err)
	s.Equal([]Revisioner{AtCheckout{N: 1}}, steps)
}

func (s *ParserSuite) TestAtUpstream() {
	steps, err := Parse("master@{upstream}")
	s.NoError(err)
	s.Equal([]Revisioner{Ref("master"), AtUpstream{}}, steps)
}

func (s *ParserSuite) TestColonPath() {
	steps, err := Parse("master:README.md")
	s.NoError(err)
	s.Equal([]Revisioner{Ref("master"), Colon{Path: "README.md"}}, steps)
}
