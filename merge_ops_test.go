package pygit

import (
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/pygerr"
	"github.com/pygit-core/pygit/storage"
)

func (s *PygitSuite) TestMergeFastForward() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("v1"), 0o644))

	r, w := s.initRepo(fs)
	_, err := w.Add("f.txt")
	s.Require().NoError(err)
	_, err = w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	topic := plumbing.NewBranchReferenceName("topic")
	s.Require().NoError(w.Checkout(&CheckoutOptions{Branch: topic, Create: true}))

	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("v2"), 0o644))
	_, err = w.Add("f.txt")
	s.Require().NoError(err)
	second, err := w.Commit("second", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(w.Checkout(&CheckoutOptions{Branch: plumbing.NewBranchReferenceName("master")}))

	err = w.Merge(&MergeOptions{Branch: topic})
	s.Require().NoError(err)

	head, err := r.Storer.Reference(plumbing.HEAD)
	s.Require().NoError(err)
	ref, err := r.Storer.Reference(head.Target())
	s.Require().NoError(err)
	s.Equal(second, ref.Hash())

	entries, err := r.Storer.Reflog(head.Target())
	s.Require().NoError(err)
	s.NotEmpty(entries)
	s.Contains(entries[len(entries)-1].Message, "Fast-forward")
}

func (s *PygitSuite) TestMergeThreeWayClean() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "a.txt", []byte("base"), 0o644))

	r, w := s.initRepo(fs)
	_, err := w.Add("a.txt")
	s.Require().NoError(err)
	_, err = w.Commit("base", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	topic := plumbing.NewBranchReferenceName("topic")
	s.Require().NoError(w.Checkout(&CheckoutOptions{Branch: topic, Create: true}))
	s.Require().NoError(util.WriteFile(fs, "b.txt", []byte("on topic"), 0o644))
	_, err = w.Add("b.txt")
	s.Require().NoError(err)
	_, err = w.Commit("add b", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(w.Checkout(&CheckoutOptions{Branch: plumbing.NewBranchReferenceName("master")}))
	s.Require().NoError(util.WriteFile(fs, "c.txt", []byte("on master"), 0o644))
	_, err = w.Add("c.txt")
	s.Require().NoError(err)
	_, err = w.Commit("add c", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	err = w.Merge(&MergeOptions{Branch: topic, Committer: s.author()})
	s.Require().NoError(err)

	head, err := r.Head()
	s.Require().NoError(err)
	c, err := r.CommitObject(head.Hash())
	s.Require().NoError(err)
	s.Len(c.ParentHashes, 2)

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		_, err := util.ReadFile(fs, name)
		s.Require().NoError(err, name)
	}
}

func (s *PygitSuite) TestMergeConflictWritesMergeState() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "a.txt", []byte("base"), 0o644))

	r, w := s.initRepo(fs)
	_, err := w.Add("a.txt")
	s.Require().NoError(err)
	_, err = w.Commit("base", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	topic := plumbing.NewBranchReferenceName("feature")
	s.Require().NoError(w.Checkout(&CheckoutOptions{Branch: topic, Create: true}))
	s.Require().NoError(util.WriteFile(fs, "a.txt", []byte("A1"), 0o644))
	_, err = w.Add("a.txt")
	s.Require().NoError(err)
	_, err = w.Commit("theirs", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(w.Checkout(&CheckoutOptions{Branch: plumbing.NewBranchReferenceName("master")}))
	s.Require().NoError(util.WriteFile(fs, "a.txt", []byte("A2"), 0o644))
	_, err = w.Add("a.txt")
	s.Require().NoError(err)
	_, err = w.Commit("ours", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	err = w.Merge(&MergeOptions{Branch: topic})
	s.Require().ErrorIs(err, pygerr.ErrMergeConflict)

	content, err := util.ReadFile(fs, "a.txt")
	s.Require().NoError(err)
	s.Contains(string(content), "<<<<<<< HEAD")
	s.Contains(string(content), "A2")
	s.Contains(string(content), "=======")
	s.Contains(string(content), "A1")
	s.Contains(string(content), ">>>>>>> feature")

	mergeHead, err := r.Storer.State(storage.StateMergeHead)
	s.Require().NoError(err)
	s.NotEmpty(mergeHead)
}

func (s *PygitSuite) TestCherryPick() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "a.txt", []byte("base"), 0o644))

	r, w := s.initRepo(fs)
	_, err := w.Add("a.txt")
	s.Require().NoError(err)
	_, err = w.Commit("base", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	topic := plumbing.NewBranchReferenceName("topic")
	s.Require().NoError(w.Checkout(&CheckoutOptions{Branch: topic, Create: true}))
	s.Require().NoError(util.WriteFile(fs, "b.txt", []byte("picked"), 0o644))
	_, err = w.Add("b.txt")
	s.Require().NoError(err)
	pick, err := w.Commit("add b", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(w.Checkout(&CheckoutOptions{Branch: plumbing.NewBranchReferenceName("master")}))

	err = w.CherryPick(pick, &CherryPickOptions{Committer: s.author()})
	s.Require().NoError(err)

	content, err := util.ReadFile(fs, "b.txt")
	s.Require().NoError(err)
	s.Equal("picked", string(content))

	head, err := r.Head()
	s.Require().NoError(err)
	c, err := r.CommitObject(head.Hash())
	s.Require().NoError(err)
	s.Equal("add b", c.Message)
	s.Len(c.ParentHashes, 1)
}

func (s *PygitSuite) TestRebase() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "a.txt", []byte("base"), 0o644))

	r, w := s.initRepo(fs)
	_, err := w.Add("a.txt")
	s.Require().NoError(err)
	_, err = w.Commit("base", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	master := plumbing.NewBranchReferenceName("master")
	topic := plumbing.NewBranchReferenceName("topic")
	s.Require().NoError(w.Checkout(&CheckoutOptions{Branch: topic, Create: true}))
	s.Require().NoError(util.WriteFile(fs, "b.txt", []byte("on topic"), 0o644))
	_, err = w.Add("b.txt")
	s.Require().NoError(err)
	_, err = w.Commit("add b", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(w.Checkout(&CheckoutOptions{Branch: master}))
	s.Require().NoError(util.WriteFile(fs, "c.txt", []byte("on master"), 0o644))
	_, err = w.Add("c.txt")
	s.Require().NoError(err)
	_, err = w.Commit("add c", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(w.Checkout(&CheckoutOptions{Branch: topic}))

	err = w.Rebase(&RebaseOptions{Branch: master, Committer: s.author()})
	s.Require().NoError(err)

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		_, err := util.ReadFile(fs, name)
		s.Require().NoError(err, name)
	}

	ref, err := r.Storer.Reference(topic)
	s.Require().NoError(err)
	c, err := r.CommitObject(ref.Hash())
	s.Require().NoError(err)
	s.Equal("add b", c.Message)
}

func (s *PygitSuite) TestStashPushPop() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "a.txt", []byte("v1"), 0o644))

	_, w := s.initRepo(fs)
	_, err := w.Add("a.txt")
	s.Require().NoError(err)
	_, err = w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(util.WriteFile(fs, "a.txt", []byte("dirty"), 0o644))

	stashHash, err := w.StashPush(&StashOptions{Author: s.author()})
	s.Require().NoError(err)
	s.False(stashHash.IsZero())

	content, err := util.ReadFile(fs, "a.txt")
	s.Require().NoError(err)
	s.Equal("v1", string(content))

	s.Require().NoError(w.StashPop())

	content, err = util.ReadFile(fs, "a.txt")
	s.Require().NoError(err)
	s.Equal("dirty", string(content))

	s.Require().Error(w.StashApply())
}
