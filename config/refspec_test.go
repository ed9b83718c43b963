package config

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/plumbing"
)

type RefSpecSuite struct {
	suite.Suite
}

func TestRefSpecSuite(t *testing.T) {
	suite.Run(t, new(RefSpecSuite))
}

func (s *RefSpecSuite) TestIsValid() {
	s.True(RefSpec("refs/heads/master:refs/remotes/origin/master").IsValid())
	s.True(RefSpec("+refs/heads/*:refs/remotes/origin/*").IsValid())
	s.False(RefSpec("refs/heads/master").IsValid())
	s.False(RefSpec("refs/heads/*:refs/remotes/origin/master").IsValid())
	s.False(RefSpec("refs/heads/master:refs/remotes/origin/*").IsValid())
}

func (s *RefSpecSuite) TestIsForceUpdate() {
	s.True(RefSpec("+refs/heads/master:refs/remotes/origin/master").IsForceUpdate())
	s.False(RefSpec("refs/heads/master:refs/remotes/origin/master").IsForceUpdate())
}

func (s *RefSpecSuite) TestMatchExact() {
	rs := RefSpec("refs/heads/master:refs/remotes/origin/master")
	s.True(rs.Match(plumbing.ReferenceName("refs/heads/master")))
	s.False(rs.Match(plumbing.ReferenceName("refs/heads/develop")))
}

func (s *RefSpecSuite) TestMatchGlob() {
	rs := RefSpec("+refs/heads/*:refs/remotes/origin/*")
	s.True(rs.Match(plumbing.ReferenceName("refs/heads/master")))
	s.True(rs.Match(plumbing.ReferenceName("refs/heads/feature/x")))
	s.False(rs.Match(plumbing.ReferenceName("refs/tags/v1")))
}

func (s *RefSpecSuite) TestDstExact() {
	rs := RefSpec("refs/heads/master:refs/remotes/origin/master")
	s.Equal(plumbing.ReferenceName("refs/remotes/origin/master"), rs.Dst(plumbing.ReferenceName("refs/heads/master")))
}

func (s *RefSpecSuite) TestDstGlob() {
	rs := RefSpec("+refs/heads/*:refs/remotes/origin/*")
	dst := rs.Dst(plumbing.ReferenceName("refs/heads/feature/x"))
	s.Equal(plumbing.ReferenceName("refs/remotes/origin/feature/x"), dst)
}

func (s *RefSpecSuite) TestMatchAny() {
	specs := []RefSpec{
		"refs/heads/master:refs/remotes/origin/master",
		"+refs/tags/*:refs/tags/*",
	}
	s.True(MatchAny(specs, plumbing.ReferenceName("refs/heads/master")))
	s.True(MatchAny(specs, plumbing.ReferenceName("refs/tags/v1")))
	s.False(MatchAny(specs, plumbing.ReferenceName("refs/heads/develop")))
}
