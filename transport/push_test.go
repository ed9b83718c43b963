package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/storage/memory"
)

type PushSuite struct {
	suite.Suite
	src *memory.Storage
	dst *memory.Storage
	ctx context.Context
}

func TestPushSuite(t *testing.T) {
	suite.Run(t, new(PushSuite))
}

func (s *PushSuite) SetupTest() {
	s.src = memory.NewStorage()
	s.dst = memory.NewStorage()
	s.ctx = context.Background()
}

func (s *PushSuite) TestPushCopiesObjectsAndUpdatesRemoteRef() {
	tree := newTree(s.T(), s.src, treeEntry("a.txt", newBlob(s.T(), s.src, "a\n")))
	c := newCommit(s.T(), s.src, tree)

	branch := plumbing.NewBranchReferenceName("master")
	s.Require().NoError(s.src.SetReference(plumbing.NewHashReference(branch, c.Hash)))

	t := NewLocal(s.dst, s.dst)
	refspec := config.RefSpec("refs/heads/*:refs/heads/*")

	err := Push(s.ctx, s.src, t, []config.RefSpec{refspec})
	s.Require().NoError(err)

	ref, err := s.dst.Reference(branch)
	s.Require().NoError(err)
	s.Equal(c.Hash, ref.Hash())

	s.NoError(s.dst.HasEncodedObject(c.Hash))
	s.NoError(s.dst.HasEncodedObject(tree.Hash))
}

func (s *PushSuite) TestPushRejectedOnNonFastForwardWithoutForce() {
	tree1 := newTree(s.T(), s.src, treeEntry("a.txt", newBlob(s.T(), s.src, "a\n")))
	c1 := newCommit(s.T(), s.src, tree1)

	branch := plumbing.NewBranchReferenceName("master")

	// dst already has a divergent commit on the same branch.
	treeOther := newTree(s.T(), s.dst, treeEntry("b.txt", newBlob(s.T(), s.dst, "b\n")))
	cOther := newCommit(s.T(), s.dst, treeOther)
	s.Require().NoError(s.dst.SetReference(plumbing.NewHashReference(branch, cOther.Hash)))

	s.Require().NoError(s.src.SetReference(plumbing.NewHashReference(branch, c1.Hash)))

	t := NewLocal(s.dst, s.dst)
	refspec := config.RefSpec("refs/heads/*:refs/heads/*")

	err := Push(s.ctx, s.src, t, []config.RefSpec{refspec})
	s.Error(err)
}

func (s *PushSuite) TestPushUnsupportedTransportErrors() {
	err := Push(s.ctx, s.src, NewDumbHTTP(&Endpoint{Protocol: "https", Host: "example.com"}, nil), nil)
	s.Error(err)
}
