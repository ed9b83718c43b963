package merge

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type Diff3Suite struct {
	suite.Suite
}

func TestDiff3Suite(t *testing.T) {
	suite.Run(t, new(Diff3Suite))
}

func (s *Diff3Suite) TestNoChanges() {
	base := "a\nb\nc\n"
	merged, conflict, err := ThreeWayMerge(base, base, base, "ours", "theirs")
	s.NoError(err)
	s.False(conflict)
	s.Equal(base, merged)
}

func (s *Diff3Suite) TestOursOnlyChange() {
	base := "a\nb\nc\n"
	ours := "a\nX\nc\n"
	merged, conflict, err := ThreeWayMerge(base, ours, base, "ours", "theirs")
	s.NoError(err)
	s.False(conflict)
	s.Equal(ours, merged)
}

func (s *Diff3Suite) TestTheirsOnlyChange() {
	base := "a\nb\nc\n"
	theirs := "a\nY\nc\n"
	merged, conflict, err := ThreeWayMerge(base, base, theirs, "ours", "theirs")
	s.NoError(err)
	s.False(conflict)
	s.Equal(theirs, merged)
}

func (s *Diff3Suite) TestNonOverlappingChanges() {
	base := "a\nb\nc\nd\n"
	ours := "X\nb\nc\nd\n"
	theirs := "a\nb\nc\nY\n"
	merged, conflict, err := ThreeWayMerge(base, ours, theirs, "ours", "theirs")
	s.NoError(err)
	s.False(conflict)
	s.Equal("X\nb\nc\nY\n", merged)
}

func (s *Diff3Suite) TestIdenticalChangeIsNotAConflict() {
	base := "a\nb\nc\n"
	ours := "a\nX\nc\n"
	theirs := "a\nX\nc\n"
	merged, conflict, err := ThreeWayMerge(base, ours, theirs, "ours", "theirs")
	s.NoError(err)
	s.False(conflict)
	s.Equal(ours, merged)
}

func (s *Diff3Suite) TestOverlappingChangeConflicts() {
	base := "a\nb\nc\n"
	ours := "a\nX\nc\n"
	theirs := "a\nY\nc\n"
	merged, conflict, err := ThreeWayMerge(base, ours, theirs, "ours", "theirs")
	s.NoError(err)
	s.True(conflict)
	s.Contains(merged, "<<<<<<< ours")
	s.Contains(merged, "X\n")
	s.Contains(merged, "=======")
	s.Contains(merged, "Y\n")
	s.Contains(merged, ">>>>>>> theirs")
}
