package revlist

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/filemode"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/storage/memory"
)

type RevlistSuite struct {
	suite.Suite
	storer *memory.Storage
}

func TestRevlistSuite(t *testing.T) {
	suite.Run(t, new(RevlistSuite))
}

func (s *RevlistSuite) SetupTest() {
	s.storer = memory.NewStorage()
}

func (s *RevlistSuite) blob(content string) plumbing.Hash {
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

func (s *RevlistSuite) tree(entries ...object.TreeEntry) *object.Tree {
	t := &object.Tree{Entries: entries}
	o := s.storer.NewEncodedObject()
	s.Require().NoError(t.Encode(o))
	h, err := s.storer.SetEncodedObject(o)
	s.Require().NoError(err)
	stored, err := object.GetTree(s.storer, h)
	s.Require().NoError(err)
	return stored
}

func (s *RevlistSuite) commit(tree *object.Tree, parents ...plumbing.Hash) *object.Commit {
	c := &object.Commit{
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

func (s *RevlistSuite) TestObjectsNoIgnoreReturnsFullHistory() {
	t1 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: s.blob("a\n")})
	c1 := s.commit(t1)
	t2 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: s.blob("b\n")})
	c2 := s.commit(t2, c1.Hash)

	hashes, err := Objects(s.storer, []*object.Commit{c2}, nil)
	s.NoError(err)

	set := hashSet(hashes)
	s.True(set[c1.Hash])
	s.True(set[c2.Hash])
	s.True(set[t1.Hash])
	s.True(set[t2.Hash])
}

func (s *RevlistSuite) TestObjectsIgnoreExcludesCommonHistory() {
	baseTree := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: s.blob("a\n")})
	base := s.commit(baseTree)

	newTree := s.tree(object.TreeEntry{Name: "b.txt", Mode: filemode.Regular, Hash: s.blob("b\n")})
	tip := s.commit(newTree, base.Hash)

	hashes, err := Objects(s.storer, []*object.Commit{tip}, []plumbing.Hash{base.Hash})
	s.NoError(err)

	set := hashSet(hashes)
	s.True(set[tip.Hash])
	s.True(set[newTree.Hash])
	s.False(set[base.Hash])
	s.False(set[baseTree.Hash])
}

func (s *RevlistSuite) TestObjectsIgnoreWalksPastItsOwnAncestors() {
	rootTree := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: s.blob("a\n")})
	root := s.commit(rootTree)

	midTree := s.tree(object.TreeEntry{Name: "b.txt", Mode: filemode.Regular, Hash: s.blob("b\n")})
	mid := s.commit(midTree, root.Hash)

	tipTree := s.tree(object.TreeEntry{Name: "c.txt", Mode: filemode.Regular, Hash: s.blob("c\n")})
	tip := s.commit(tipTree, mid.Hash)

	hashes, err := Objects(s.storer, []*object.Commit{tip}, []plumbing.Hash{mid.Hash})
	s.NoError(err)

	set := hashSet(hashes)
	s.True(set[tip.Hash])
	s.True(set[tipTree.Hash])
	s.False(set[mid.Hash])
	s.False(set[midTree.Hash])
	s.False(set[root.Hash])
	s.False(set[rootTree.Hash])
}

func (s *RevlistSuite) TestObjectsDeduplicatesSharedBlob() {
	shared := s.blob("shared\n")
	t1 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: shared})
	c1 := s.commit(t1)
	t2 := s.tree(object.TreeEntry{Name: "b.txt", Mode: filemode.Regular, Hash: shared})
	c2 := s.commit(t2, c1.Hash)

	hashes, err := Objects(s.storer, []*object.Commit{c2}, nil)
	s.NoError(err)

	count := 0
	for _, h := range hashes {
		if h == shared {
			count++
		}
	}
	s.Equal(1, count)
}
