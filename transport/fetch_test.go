package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/storage/memory"
)

type FetchSuite struct {
	suite.Suite
	remote *memory.Storage
	local  *memory.Storage
	ctx    context.Context
}

func TestFetchSuite(t *testing.T) {
	suite.Run(t, new(FetchSuite))
}

func (s *FetchSuite) SetupTest() {
	s.remote = memory.NewStorage()
	s.local = memory.NewStorage()
	s.ctx = context.Background()
}

func (s *FetchSuite) TestFetchCopiesObjectsAndUpdatesRefs() {
	tree1 := newTree(s.T(), s.remote, treeEntry("a.txt", newBlob(s.T(), s.remote, "a\n")))
	c1 := newCommit(s.T(), s.remote, tree1)
	tree2 := newTree(s.T(), s.remote, treeEntry("a.txt", newBlob(s.T(), s.remote, "b\n")))
	c2 := newCommit(s.T(), s.remote, tree2, c1.Hash)

	branch := plumbing.NewBranchReferenceName("master")
	s.Require().NoError(s.remote.SetReference(plumbing.NewHashReference(branch, c2.Hash)))

	t := NewLocal(s.remote, s.remote)
	refspec := config.RefSpec("refs/heads/*:refs/remotes/origin/*")

	result, err := Fetch(s.ctx, s.local, t, []config.RefSpec{refspec})
	s.Require().NoError(err)

	localName := plumbing.NewRemoteReferenceName("origin", "master")
	s.Equal(c2.Hash, result.Updated[localName])

	ref, err := s.local.Reference(localName)
	s.Require().NoError(err)
	s.Equal(c2.Hash, ref.Hash())

	s.NoError(s.local.HasEncodedObject(c1.Hash))
	s.NoError(s.local.HasEncodedObject(c2.Hash))
	s.NoError(s.local.HasEncodedObject(tree1.Hash))
	s.NoError(s.local.HasEncodedObject(tree2.Hash))
}

func (s *FetchSuite) TestFetchNoMatchingRefspecReturnsEmptyResult() {
	tree := newTree(s.T(), s.remote, treeEntry("a.txt", newBlob(s.T(), s.remote, "a\n")))
	c := newCommit(s.T(), s.remote, tree)
	s.Require().NoError(s.remote.SetReference(plumbing.NewHashReference(plumbing.NewTagReferenceName("v1"), c.Hash)))

	t := NewLocal(s.remote, s.remote)
	refspec := config.RefSpec("refs/heads/*:refs/remotes/origin/*")

	result, err := Fetch(s.ctx, s.local, t, []config.RefSpec{refspec})
	s.Require().NoError(err)
	s.Empty(result.Updated)
}

func (s *FetchSuite) TestFetchSkipsObjectsAlreadyPresent() {
	tree := newTree(s.T(), s.remote, treeEntry("a.txt", newBlob(s.T(), s.remote, "a\n")))
	c := newCommit(s.T(), s.remote, tree)
	branch := plumbing.NewBranchReferenceName("master")
	s.Require().NoError(s.remote.SetReference(plumbing.NewHashReference(branch, c.Hash)))

	// Pre-populate local with the same commit already present.
	newCommit(s.T(), s.local, newTree(s.T(), s.local, treeEntry("a.txt", newBlob(s.T(), s.local, "a\n"))))

	t := NewLocal(s.remote, s.remote)
	refspec := config.RefSpec("refs/heads/*:refs/remotes/origin/*")

	_, err := Fetch(s.ctx, s.local, t, []config.RefSpec{refspec})
	s.Require().NoError(err)

	s.NoError(s.local.HasEncodedObject(c.Hash))
}
