package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/filemode"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/pygerr"
	"github.com/pygit-core/pygit/storage/memory"
)

type LocalSuite struct {
	suite.Suite
	st  *memory.Storage
	ctx context.Context
}

func TestLocalSuite(t *testing.T) {
	suite.Run(t, new(LocalSuite))
}

func (s *LocalSuite) SetupTest() {
	s.st = memory.NewStorage()
	s.ctx = context.Background()
}

func (s *LocalSuite) TestListRefsAndGetObject() {
	tree := newTree(s.T(), s.st, treeEntry("a.txt", newBlob(s.T(), s.st, "a\n")))
	commit := newCommit(s.T(), s.st, tree)

	s.Require().NoError(s.st.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("master"), commit.Hash)))
	s.Require().NoError(s.st.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("master"))))

	l := NewLocal(s.st, s.st)
	ads, err := l.ListRefs(s.ctx)
	s.Require().NoError(err)

	var sawHEAD, sawBranch bool
	for _, ad := range ads {
		if ad.Name == plumbing.HEAD {
			sawHEAD = true
			s.Equal(plumbing.NewBranchReferenceName("master"), ad.Target)
		}
		if ad.Name == plumbing.NewBranchReferenceName("master") {
			sawBranch = true
			s.Equal(commit.Hash, ad.Hash)
		}
	}
	s.True(sawHEAD)
	s.True(sawBranch)

	has, err := l.HasObject(s.ctx, commit.Hash)
	s.NoError(err)
	s.True(has)

	typ, content, err := l.GetObject(s.ctx, commit.Hash)
	s.NoError(err)
	s.Equal(plumbing.CommitObject, typ)
	s.NotEmpty(content)
}

func (s *LocalSuite) TestPushFastForward() {
	tree1 := newTree(s.T(), s.st, treeEntry("a.txt", newBlob(s.T(), s.st, "a\n")))
	c1 := newCommit(s.T(), s.st, tree1)
	tree2 := newTree(s.T(), s.st, treeEntry("a.txt", newBlob(s.T(), s.st, "b\n")))
	c2 := newCommit(s.T(), s.st, tree2, c1.Hash)

	branch := plumbing.NewBranchReferenceName("master")
	l := NewLocal(s.st, s.st)
	s.Require().NoError(l.Push(s.ctx, branch, c1.Hash, false))
	s.Require().NoError(l.Push(s.ctx, branch, c2.Hash, false))

	ref, err := s.st.Reference(branch)
	s.Require().NoError(err)
	s.Equal(c2.Hash, ref.Hash())
}

func (s *LocalSuite) TestPushRejectsNonFastForward() {
	tree1 := newTree(s.T(), s.st, treeEntry("a.txt", newBlob(s.T(), s.st, "a\n")))
	c1 := newCommit(s.T(), s.st, tree1)
	tree2 := newTree(s.T(), s.st, treeEntry("b.txt", newBlob(s.T(), s.st, "b\n")))
	c2 := newCommit(s.T(), s.st, tree2) // sibling, not a descendant of c1

	branch := plumbing.NewBranchReferenceName("master")
	l := NewLocal(s.st, s.st)
	s.Require().NoError(l.Push(s.ctx, branch, c1.Hash, false))

	err := l.Push(s.ctx, branch, c2.Hash, false)
	s.Error(err)
	s.ErrorIs(err, pygerr.ErrRefUpdateRejected)
}

func (s *LocalSuite) TestPushForceAllowsNonFastForward() {
	tree1 := newTree(s.T(), s.st, treeEntry("a.txt", newBlob(s.T(), s.st, "a\n")))
	c1 := newCommit(s.T(), s.st, tree1)
	tree2 := newTree(s.T(), s.st, treeEntry("b.txt", newBlob(s.T(), s.st, "b\n")))
	c2 := newCommit(s.T(), s.st, tree2)

	branch := plumbing.NewBranchReferenceName("master")
	l := NewLocal(s.st, s.st)
	s.Require().NoError(l.Push(s.ctx, branch, c1.Hash, false))
	s.Require().NoError(l.Push(s.ctx, branch, c2.Hash, true))

	ref, err := s.st.Reference(branch)
	s.Require().NoError(err)
	s.Equal(c2.Hash, ref.Hash())
}

func treeEntry(name string, h plumbing.Hash) object.TreeEntry {
	return object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: h}
}
