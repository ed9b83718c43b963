package revision

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/storage/memory"
)

type ResolveSuite struct {
	suite.Suite
	storer *memory.Storage
}

func TestResolveSuite(t *testing.T) {
	suite.Run(t, new(ResolveSuite))
}

func (s *ResolveSuite) SetupTest() {
	s.storer = memory.NewStorage()
}

// storeCommit encodes c, writes it to the storer, and returns its hash.
func (s *ResolveSuite) storeCommit(c *object.Commit) plumbing.Hash {
	o := s.storer.NewEncodedObject()
	s.Require().NoError(c.Encode(o))
	h, err := s.storer.SetEncodedObject(o)
	s.Require().NoError(err)
	return h
}

func (s *ResolveSuite) setRef(name plumbing.ReferenceName, h plumbing.Hash) {
	s.Require().NoError(s.storer.SetReference(plumbing.NewHashReference(name, h)))
}

func (s *ResolveSuite) TestResolveRef() {
	root := s.storeCommit(&object.Commit{Message: "root"})
	s.setRef("refs/heads/master", root)

	h, err := Resolve(s.storer, "refs/heads/master")
	s.NoError(err)
	s.Equal(root, h)
}

func (s *ResolveSuite) TestResolveDwimBranch() {
	root := s.storeCommit(&object.Commit{Message: "root"})
	s.setRef(plumbing.NewBranchReferenceName("master"), root)

	h, err := Resolve(s.storer, "master")
	s.NoError(err)
	s.Equal(root, h)
}

func (s *ResolveSuite) TestResolveTilde() {
	root := s.storeCommit(&object.Commit{Message: "root"})
	child := s.storeCommit(&object.Commit{Message: "child", ParentHashes: []plumbing.Hash{root}})
	s.setRef("refs/heads/master", child)

	h, err := Resolve(s.storer, "master~1")
	s.NoError(err)
	s.Equal(root, h)
}

func (s *ResolveSuite) TestResolveCaretParent() {
	p1 := s.storeCommit(&object.Commit{Message: "p1"})
	p2 := s.storeCommit(&object.Commit{Message: "p2"})
	merge := s.storeCommit(&object.Commit{
		Message:      "merge",
		ParentHashes: []plumbing.Hash{p1, p2},
	})
	s.setRef("refs/heads/master", merge)

	h, err := Resolve(s.storer, "master^2")
	s.NoError(err)
	s.Equal(p2, h)
}

func (s *ResolveSuite) TestResolveHash() {
	root := s.storeCommit(&object.Commit{Message: "root"})

	h, err := Resolve(s.storer, root.String())
	s.NoError(err)
	s.Equal(root, h)
}

func (s *ResolveSuite) TestResolveUnknownRef() {
	_, err := Resolve(s.storer, "does-not-exist")
	s.Error(err)
}
