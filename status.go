package pygit

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/format/index"
	"github.com/pygit-core/pygit/plumbing/object"
)

// StatusCode is one half of a FileStatus: how a path differs between two
// of {HEAD's tree, the index, the working tree}.
type StatusCode byte

const (
	Unmodified StatusCode = ' '
	Untracked  StatusCode = '?'
	Modified   StatusCode = 'M'
	Added      StatusCode = 'A'
	Deleted    StatusCode = 'D'
)

// FileStatus reports a path's state on both sides of the index: Staging
// is HEAD's tree compared against the index, Worktree is the index
// compared against the filesystem — the same two-column layout `git
// status --short` prints.
type FileStatus struct {
	Staging  StatusCode
	Worktree StatusCode
}

// Status maps a path to its FileStatus. A path absent from HEAD, the
// index, and the working tree never appears here.
type Status map[string]*FileStatus

// IsClean reports whether every tracked path is Unmodified on both sides
// and nothing is untracked.
func (s Status) IsClean() bool {
	for _, fs := range s {
		if fs.Staging != Unmodified || fs.Worktree != Unmodified {
			return false
		}
	}
	return true
}

// File returns the status for path, or a clean status if path isn't
// tracked or modified.
func (s Status) File(path string) *FileStatus {
	if fs, ok := s[path]; ok {
		return fs
	}
	return &FileStatus{Worktree: Unmodified, Staging: Unmodified}
}

func (s Status) String() string {
	var buf bytes.Buffer
	for path, fs := range s {
		fmt.Fprintf(&buf, "%c%c %s\n", fs.Staging, fs.Worktree, path)
	}
	return buf.String()
}

// Status compares HEAD's tree, the index, and the working tree and
// reports, per path, how they differ. Unlike `git status`'s stat-cache
// fast path, every comparison here re-hashes content: simpler, and the
// in-memory and plain filesystem backends this core targets don't carry
// a trustworthy inode/mtime cache to skip it with.
func (w *Worktree) Status() (Status, error) {
	idx, err := w.r.Storer.Index()
	if err != nil {
		return nil, err
	}

	headTree, err := w.headTree()
	if err != nil {
		return nil, err
	}

	status := Status{}

	headFiles := map[string]plumbing.Hash{}
	if headTree != nil {
		err = headTree.Files().ForEach(func(f *object.File) error {
			headFiles[f.Name] = f.Hash
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	indexFiles := map[string]*index.Entry{}
	for _, e := range idx.Entries {
		if e.Stage != index.Merged {
			continue
		}
		indexFiles[e.Name] = e
	}

	for path, e := range indexFiles {
		fs := &FileStatus{Staging: Unmodified, Worktree: Unmodified}
		if headHash, ok := headFiles[path]; !ok {
			fs.Staging = Added
		} else if headHash != e.Hash {
			fs.Staging = Modified
		}
		status[path] = fs
	}
	for path := range headFiles {
		if _, ok := indexFiles[path]; !ok {
			status[path] = &FileStatus{Staging: Deleted, Worktree: Unmodified}
		}
	}

	worktreeFiles := map[string]bool{}
	err = walkFiles(w.fs, "", func(path string) error {
		worktreeFiles[path] = true

		e, tracked := indexFiles[path]
		if !tracked {
			status[path] = &FileStatus{Staging: Unmodified, Worktree: Untracked}
			return nil
		}

		changed, err := w.fileChanged(path, e.Hash)
		if err != nil {
			return err
		}
		fs := status[path]
		if fs == nil {
			fs = &FileStatus{Staging: Unmodified}
			status[path] = fs
		}
		if changed {
			fs.Worktree = Modified
		} else {
			fs.Worktree = Unmodified
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for path := range indexFiles {
		if !worktreeFiles[path] {
			fs := status[path]
			if fs == nil {
				fs = &FileStatus{Staging: Unmodified}
				status[path] = fs
			}
			fs.Worktree = Deleted
		}
	}

	return status, nil
}

// headTree returns HEAD's tree, or nil if the repository has no commits
// yet (a freshly Init'd repository with nothing committed).
func (w *Worktree) headTree() (*object.Tree, error) {
	head, err := w.r.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, err
	}
	c, err := object.GetCommit(w.r.Storer, head.Hash())
	if err != nil {
		return nil, err
	}
	return c.Tree()
}

func (w *Worktree) fileChanged(path string, want plumbing.Hash) (bool, error) {
	f, err := w.fs.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return false, err
	}

	got, err := writeBlob(discardStorer{}, content)
	if err != nil {
		return false, err
	}
	return got != want, nil
}

// discardStorer computes a blob's hash without persisting it, for
// Status's read-only comparisons.
type discardStorer struct{}

func (discardStorer) NewEncodedObject() plumbing.EncodedObject {
	return &plumbing.MemoryObject{}
}

func (discardStorer) SetEncodedObject(o plumbing.EncodedObject) (plumbing.Hash, error) {
	return o.Hash(), nil
}
