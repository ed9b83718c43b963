package pygit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/storage/memory"
)

type PygitSuite struct {
	suite.Suite
	storer *memory.Storage
}

func (s *PygitSuite) SetupTest() {
	s.storer = memory.NewStorage()
}

func (s *PygitSuite) blob(content string) plumbing.Hash {
	o := s.storer.NewEncodedObject()
	o.SetType(plumbing.BlobObject)
	o.SetSize(int64(len(content)))
	w, err := o.Writer()
	s.Require().NoError(err)
	_, err = w.Write([]byte(content))
	s.Require().NoError(err)
	s.Require().NoError(w.Close())
	h, err := s.storer.SetEncodedObject(o)
	s.Require().NoError(err)
	return h
}

func (s *PygitSuite) tree(entries ...object.TreeEntry) *object.Tree {
	t := &object.Tree{Entries: entries}
	o := s.storer.NewEncodedObject()
	s.Require().NoError(t.Encode(o))
	h, err := s.storer.SetEncodedObject(o)
	s.Require().NoError(err)
	stored, err := object.GetTree(s.storer, h)
	s.Require().NoError(err)
	return stored
}

func (s *PygitSuite) commit(tree *object.Tree, parents ...plumbing.Hash) *object.Commit {
	c := &object.Commit{
		Author:       object.Signature{Name: "tester", Email: "t@example.com", When: time.Unix(0, 0)},
		Committer:    object.Signature{Name: "tester", Email: "t@example.com", When: time.Unix(0, 0)},
		Message:      "m",
		TreeHash:     tree.Hash,
		ParentHashes: parents,
	}
	o := s.storer.NewEncodedObject()
	s.Require().NoError(c.Encode(o))
	h, err := s.storer.SetEncodedObject(o)
	s.Require().NoError(err)
	stored, err := object.GetCommit(s.storer, h)
	s.Require().NoError(err)
	return stored
}

func TestPygitSuite(t *testing.T) {
	suite.Run(t, new(PygitSuite))
}
