package pygit

import (
	"io"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
)

func (s *PygitSuite) initRepo(fs billy.Filesystem) (*Repository, *Worktree) {
	r, err := Init(s.storer, fs)
	s.Require().NoError(err)
	w, err := r.Worktree()
	s.Require().NoError(err)
	return r, w
}

func (s *PygitSuite) author() *object.Signature {
	return &object.Signature{Name: "tester", Email: "t@example.com", When: time.Unix(0, 0)}
}

func (s *PygitSuite) TestAddAndCommit() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("hello"), 0o644))

	_, w := s.initRepo(fs)

	_, err := w.Add("f.txt")
	s.Require().NoError(err)

	h, err := w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	c, err := object.GetCommit(s.storer, h)
	s.Require().NoError(err)
	s.Equal("first", c.Message)
	s.Empty(c.ParentHashes)

	tree, err := c.Tree()
	s.Require().NoError(err)
	f, err := tree.File("f.txt")
	s.Require().NoError(err)
	r, err := f.Reader()
	s.Require().NoError(err)
	content, err := io.ReadAll(r)
	s.Require().NoError(err)
	s.Equal("hello", string(content))
}

func (s *PygitSuite) TestCommitAllStagesModifiedFiles() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("v1"), 0o644))

	_, w := s.initRepo(fs)
	_, err := w.Add("f.txt")
	s.Require().NoError(err)
	_, err = w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("v2"), 0o644))

	h, err := w.Commit("second", &CommitOptions{All: true, Author: s.author()})
	s.Require().NoError(err)

	c, err := object.GetCommit(s.storer, h)
	s.Require().NoError(err)
	s.Len(c.ParentHashes, 1)
}

func (s *PygitSuite) TestCheckoutNewBranchCreates() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("hello"), 0o644))

	r, w := s.initRepo(fs)
	_, err := w.Add("f.txt")
	s.Require().NoError(err)
	h, err := w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	err = w.Checkout(&CheckoutOptions{Branch: plumbing.NewBranchReferenceName("topic"), Create: true})
	s.Require().NoError(err)

	ref, err := r.Storer.Reference(plumbing.NewBranchReferenceName("topic"))
	s.Require().NoError(err)
	s.Equal(h, ref.Hash())

	head, err := r.Storer.Reference(plumbing.HEAD)
	s.Require().NoError(err)
	s.Equal(plumbing.NewBranchReferenceName("topic"), head.Target())
}

func (s *PygitSuite) TestCheckoutMaterializesWorkingTree() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("hello"), 0o644))

	r, w := s.initRepo(fs)
	_, err := w.Add("f.txt")
	s.Require().NoError(err)
	_, err = w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	other := memfs.New()
	w2 := &Worktree{r: r, fs: other}
	head, err := r.Head()
	s.Require().NoError(err)

	s.Require().NoError(w2.Checkout(&CheckoutOptions{Hash: head.Hash(), Force: true}))

	content, err := util.ReadFile(other, "f.txt")
	s.Require().NoError(err)
	s.Equal("hello", string(content))
}

func (s *PygitSuite) TestResetHardRewritesWorktree() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("v1"), 0o644))

	r, w := s.initRepo(fs)
	_, err := w.Add("f.txt")
	s.Require().NoError(err)
	first, err := w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("v2"), 0o644))
	_, err = w.Add("f.txt")
	s.Require().NoError(err)
	_, err = w.Commit("second", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(w.Reset(&ResetOptions{Commit: first, Mode: HardReset}))

	content, err := util.ReadFile(fs, "f.txt")
	s.Require().NoError(err)
	s.Equal("v1", string(content))

	head, err := r.Head()
	s.Require().NoError(err)
	s.Equal(first, head.Hash())
}
