package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/filemode"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/storage/memory"
)

type StashSuite struct {
	suite.Suite
	storer *memory.Storage
}

func TestStashSuite(t *testing.T) {
	suite.Run(t, new(StashSuite))
}

func (s *StashSuite) SetupTest() {
	s.storer = memory.NewStorage()
}

func (s *StashSuite) blob(content string) plumbing.Hash {
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

func (s *StashSuite) tree(entries ...object.TreeEntry) *object.Tree {
	t := &object.Tree{Entries: entries}
	o := s.storer.NewEncodedObject()
	s.Require().NoError(t.Encode(o))
	h, err := s.storer.SetEncodedObject(o)
	s.Require().NoError(err)
	stored, err := object.GetTree(s.storer, h)
	s.Require().NoError(err)
	return stored
}

func (s *StashSuite) commit(tree *object.Tree, parents ...plumbing.Hash) *object.Commit {
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

func (s *StashSuite) TestPushBuildsTwoParentedCommits() {
	who := object.Signature{Name: "Jane Doe", Email: "jane@example.com", When: time.Unix(1700000000, 0)}

	head := s.commit(s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: s.blob("a\n")}))
	indexTree := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: s.blob("staged\n")})
	worktreeTree := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: s.blob("dirty\n")})

	index, worktree, err := Push(s.storer, head, indexTree, worktreeTree, "WIP on master", who)
	s.Require().NoError(err)

	s.Equal([]plumbing.Hash{head.Hash}, index.ParentHashes)
	s.Equal("index on WIP on master", index.Message)

	s.Equal([]plumbing.Hash{head.Hash, index.Hash}, worktree.ParentHashes)
	s.Equal("WIP on master", worktree.Message)
	s.Equal(worktreeTree.Hash, worktree.TreeHash)
}

func (s *StashSuite) TestApplyThreeWayMergesOntoCurrent() {
	base := s.commit(s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: s.blob("a\nb\nc\n")}))
	current := s.commit(s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: s.blob("a\nb\nc\n")}), base.Hash)
	stashTree := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: s.blob("a\nX\nc\n")})

	st := &Stash{Base: base, Tree: stashTree}
	merged, conflicts, err := st.Apply(s.storer, current)
	s.Require().NoError(err)
	s.Empty(conflicts)
	s.Require().Len(merged.Entries, 1)
	s.Equal(stashTree.Entries[0].Hash, merged.Entries[0].Hash)
}
