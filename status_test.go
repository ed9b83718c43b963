package pygit

import (
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

func (s *PygitSuite) TestStatusCleanAfterCommit() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("hello"), 0o644))

	_, w := s.initRepo(fs)
	_, err := w.Add("f.txt")
	s.Require().NoError(err)
	_, err = w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	status, err := w.Status()
	s.Require().NoError(err)
	s.True(status.IsClean())
}

func (s *PygitSuite) TestStatusReportsUntracked() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("hello"), 0o644))

	_, w := s.initRepo(fs)
	_, err := w.Add("f.txt")
	s.Require().NoError(err)
	_, err = w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(util.WriteFile(fs, "new.txt", []byte("new"), 0o644))

	status, err := w.Status()
	s.Require().NoError(err)
	s.False(status.IsClean())
	s.Equal(Untracked, status.File("new.txt").Worktree)
}

func (s *PygitSuite) TestStatusReportsModifiedWorktreeFile() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("v1"), 0o644))

	_, w := s.initRepo(fs)
	_, err := w.Add("f.txt")
	s.Require().NoError(err)
	_, err = w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("v2"), 0o644))

	status, err := w.Status()
	s.Require().NoError(err)
	s.Equal(Modified, status.File("f.txt").Worktree)
	s.Equal(Unmodified, status.File("f.txt").Staging)
}

func (s *PygitSuite) TestStatusReportsStagedAddition() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("v1"), 0o644))

	_, w := s.initRepo(fs)
	_, err := w.Add("f.txt")
	s.Require().NoError(err)
	_, err = w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(util.WriteFile(fs, "new.txt", []byte("new"), 0o644))
	_, err = w.Add("new.txt")
	s.Require().NoError(err)

	status, err := w.Status()
	s.Require().NoError(err)
	s.Equal(Added, status.File("new.txt").Staging)
	s.Equal(Unmodified, status.File("new.txt").Worktree)
}

func (s *PygitSuite) TestStatusReportsDeletedWorktreeFile() {
	fs := memfs.New()
	s.Require().NoError(util.WriteFile(fs, "f.txt", []byte("v1"), 0o644))

	_, w := s.initRepo(fs)
	_, err := w.Add("f.txt")
	s.Require().NoError(err)
	_, err = w.Commit("first", &CommitOptions{Author: s.author()})
	s.Require().NoError(err)

	s.Require().NoError(fs.Remove("f.txt"))

	status, err := w.Status()
	s.Require().NoError(err)
	s.Equal(Deleted, status.File("f.txt").Worktree)
}
