package pygit

import (
	"github.com/go-git/go-billy/v5/memfs"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/filemode"
	"github.com/pygit-core/pygit/plumbing/object"
)

func (s *PygitSuite) TestInitCreatesSymbolicHEAD() {
	r, err := Init(s.storer, memfs.New())
	s.Require().NoError(err)

	head, err := r.Storer.Reference(plumbing.HEAD)
	s.Require().NoError(err)
	s.Equal(plumbing.SymbolicReference, head.Type())
	s.Equal(plumbing.NewBranchReferenceName("master"), head.Target())
}

func (s *PygitSuite) TestInitTwiceFails() {
	_, err := Init(s.storer, memfs.New())
	s.Require().NoError(err)

	_, err = Init(s.storer, memfs.New())
	s.ErrorIs(err, ErrRepositoryAlreadyExists)
}

func (s *PygitSuite) TestOpenMissingRepositoryFails() {
	_, err := Open(s.storer, memfs.New())
	s.ErrorIs(err, ErrRepositoryNotExists)
}

func (s *PygitSuite) TestHeadResolvesThroughSymbolicRef() {
	r, err := Init(s.storer, memfs.New())
	s.Require().NoError(err)

	blobHash := s.blob("hello")
	tree := s.tree(object.TreeEntry{Name: "f.txt", Mode: filemode.Regular, Hash: blobHash})
	commit := s.commit(tree)

	s.Require().NoError(s.storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("master"), commit.Hash)))

	head, err := r.Head()
	s.Require().NoError(err)
	s.Equal(commit.Hash, head.Hash())
}

func (s *PygitSuite) TestCreateRemoteAndLookup() {
	r, err := Init(s.storer, memfs.New())
	s.Require().NoError(err)

	_, err = r.CreateRemote(&config.RemoteConfig{Name: "origin", URL: "/tmp/other.git"})
	s.Require().NoError(err)

	remote, err := r.Remote("origin")
	s.Require().NoError(err)
	s.Equal("/tmp/other.git", remote.Config().URL)

	_, err = r.CreateRemote(&config.RemoteConfig{Name: "origin", URL: "/tmp/other.git"})
	s.ErrorIs(err, ErrRemoteExists)
}

func (s *PygitSuite) TestDeleteRemote() {
	r, err := Init(s.storer, memfs.New())
	s.Require().NoError(err)

	_, err = r.CreateRemote(&config.RemoteConfig{Name: "origin", URL: "/tmp/other.git"})
	s.Require().NoError(err)

	s.Require().NoError(r.DeleteRemote("origin"))

	_, err = r.Remote("origin")
	s.ErrorIs(err, ErrRemoteNotFound)
}

func (s *PygitSuite) TestBareRepositoryHasNoWorktree() {
	r, err := Init(s.storer, nil)
	s.Require().NoError(err)

	_, err = r.Worktree()
	s.ErrorIs(err, ErrIsBareRepository)
}

func (s *PygitSuite) TestBranchesAndTags() {
	r, err := Init(s.storer, memfs.New())
	s.Require().NoError(err)

	blobHash := s.blob("hello")
	tree := s.tree(object.TreeEntry{Name: "f.txt", Mode: filemode.Regular, Hash: blobHash})
	commit := s.commit(tree)

	s.Require().NoError(r.CreateBranch("feature", commit.Hash))
	s.Require().NoError(r.CreateTag("v1", commit.Hash))

	branches, err := r.Branches()
	s.Require().NoError(err)
	var names []string
	s.Require().NoError(branches.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	}))
	s.Contains(names, "feature")

	tags, err := r.Tags()
	s.Require().NoError(err)
	names = nil
	s.Require().NoError(tags.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	}))
	s.Contains(names, "v1")
}
