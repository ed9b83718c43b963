package pygit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/pygit-core/pygit/merge"
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/filemode"
	"github.com/pygit-core/pygit/plumbing/format/index"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/storer"
	"github.com/pygit-core/pygit/pygerr"
	"github.com/pygit-core/pygit/storage"
)

var (
	ErrWorktreeNotClean = errors.New("pygit: worktree is not clean")
	ErrBranchExists     = errors.New("pygit: branch already exists")
	ErrBranchNotFound   = errors.New("pygit: branch not found")
)

// Worktree is the checked-out working copy of a repository: the
// filesystem plus the staging index sitting between HEAD and it.
type Worktree struct {
	r  *Repository
	fs billy.Filesystem
}

// Filesystem returns the working tree's filesystem.
func (w *Worktree) Filesystem() billy.Filesystem { return w.fs }

// Add stages path: it is hashed as a blob, written to the object store,
// and recorded (or updated) in the index.
func (w *Worktree) Add(path string) (plumbing.Hash, error) {
	path = strings.ReplaceAll(path, "\\", "/")

	f, err := w.fs.Open(path)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	content, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	fi, err := w.fs.Lstat(path)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	h, err := writeBlob(w.r.Storer, content)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	idx, err := w.r.Storer.Index()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	mode := filemode.Regular
	if fi.Mode()&0o111 != 0 {
		mode = filemode.Executable
	}

	e, err := idx.Entry(path)
	if errors.Is(err, index.ErrEntryNotFound) {
		e = idx.Add(path)
	} else if err != nil {
		return plumbing.ZeroHash, err
	}

	e.Hash = h
	e.Mode = mode
	e.Size = uint32(len(content))
	e.ModifiedAt = fi.ModTime()
	e.CreatedAt = fi.ModTime()

	return h, w.r.Storer.SetIndex(idx)
}

// AddAll stages every file already present in the working tree, the way
// `git add -A` does — new, modified, and (by simply not re-adding them)
// leaves deletions for the caller to reconcile via Remove.
func (w *Worktree) AddAll() error {
	return walkFiles(w.fs, "", func(path string) error {
		_, err := w.Add(path)
		return err
	})
}

// Remove unstages path and deletes it from the working tree.
func (w *Worktree) Remove(path string) error {
	idx, err := w.r.Storer.Index()
	if err != nil {
		return err
	}
	if _, err := idx.Remove(path); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
		return err
	}
	if err := w.r.Storer.SetIndex(idx); err != nil {
		return err
	}

	err = w.fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Commit writes a new commit from the current index, advances the
// checked-out branch to it, and returns its hash.
func (w *Worktree) Commit(message string, o *CommitOptions) (plumbing.Hash, error) {
	if o.All {
		idx, err := w.r.Storer.Index()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		for _, e := range idx.Entries {
			if _, err := w.Add(e.Name); err != nil && !os.IsNotExist(err) {
				return plumbing.ZeroHash, err
			}
		}
	}
	if err := o.Validate(); err != nil {
		return plumbing.ZeroHash, err
	}

	idx, err := w.r.Storer.Index()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	treeHash, err := buildTreeFromIndex(w.r.Storer, idx.Entries)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	var parents []plumbing.Hash
	head, err := w.r.Storer.Reference(plumbing.HEAD)
	var headName plumbing.ReferenceName
	switch {
	case err == nil && head.Type() == plumbing.SymbolicReference:
		headName = head.Target()
		if resolved, rerr := storer.ResolveReference(w.r.Storer, headName); rerr == nil {
			parents = append(parents, resolved.Hash())
		}
	case err == nil:
		parents = append(parents, head.Hash())
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		headName = plumbing.NewBranchReferenceName("master")
	default:
		return plumbing.ZeroHash, err
	}

	c := &object.Commit{
		Author:       *o.Author,
		Committer:    *o.Committer,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}
	obj := w.r.Storer.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	h, err := w.r.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if headName == "" {
		headName = plumbing.NewBranchReferenceName("master")
	}

	logMsg := "commit: " + firstLine(message)
	if len(parents) == 0 {
		logMsg = "commit (initial): " + firstLine(message)
	}

	var oldHash plumbing.Hash
	if len(parents) > 0 {
		oldHash = parents[0]
	}
	if err := w.r.updateHead(plumbing.NewHashReference(headName, h), oldHash, *o.Committer, logMsg); err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.r.Storer.Reference(plumbing.HEAD); errors.Is(err, plumbing.ErrReferenceNotFound) {
		if err := w.r.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, headName)); err != nil {
			return plumbing.ZeroHash, err
		}
	}

	return h, nil
}

// firstLine returns s up to its first newline, the way git's reflog and
// one-line commit summaries truncate a longer message.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Checkout materializes opts.Hash (or the commit opts.Branch resolves
// to) into the working tree and index, then moves HEAD. Create makes
// opts.Branch a new branch at that commit instead of switching to an
// existing one.
func (w *Worktree) Checkout(o *CheckoutOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	if !o.Force {
		clean, err := w.isClean()
		if err != nil {
			return err
		}
		if !clean {
			return ErrWorktreeNotClean
		}
	}

	hash := o.Hash
	branch := o.Branch
	who := w.r.defaultIdentity()

	oldDesc, oldHash := w.headDescription()

	if o.Create {
		if hash.IsZero() {
			head, err := w.r.Head()
			if err != nil {
				return err
			}
			hash = head.Hash()
		}
		if _, err := w.r.Storer.Reference(branch); err == nil {
			return ErrBranchExists
		}
		createMsg := fmt.Sprintf("branch: Created from %s", hash)
		if err := w.r.updateHead(plumbing.NewHashReference(branch, hash), plumbing.ZeroHash, who, createMsg); err != nil {
			return err
		}
	} else if hash.IsZero() {
		ref, err := storer.ResolveReference(w.r.Storer, branch)
		if err != nil {
			return err
		}
		hash = ref.Hash()
	}

	c, err := object.GetCommit(w.r.Storer, hash)
	if err != nil {
		return err
	}
	tree, err := c.Tree()
	if err != nil {
		return err
	}

	if err := w.materialize(tree); err != nil {
		return err
	}

	newDesc := hash.String()[:7]
	if branch != "" {
		newDesc = branch.Short()
	}
	logMsg := fmt.Sprintf("checkout: moving from %s to %s", oldDesc, newDesc)

	if branch != "" {
		if err := w.r.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branch)); err != nil {
			return err
		}
		return w.r.logRef(plumbing.HEAD, oldHash, hash, who, logMsg)
	}
	return w.r.updateHead(plumbing.NewHashReference(plumbing.HEAD, hash), oldHash, who, logMsg)
}

// headDescription returns the short name the current HEAD should be
// described as in a reflog message ("master", a short hash for a
// detached HEAD, or "HEAD" for an unborn branch), along with the
// commit hash HEAD currently resolves to (the zero hash if unborn).
func (w *Worktree) headDescription() (string, plumbing.Hash) {
	head, err := w.r.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "HEAD", plumbing.ZeroHash
	}

	if head.Type() == plumbing.SymbolicReference {
		resolved, err := storer.ResolveReference(w.r.Storer, head.Target())
		if err != nil {
			return head.Target().Short(), plumbing.ZeroHash
		}
		return head.Target().Short(), resolved.Hash()
	}

	return head.Hash().String()[:7], head.Hash()
}

// materialize writes every file in tree to the working tree and
// replaces the index with exactly tree's entries.
func (w *Worktree) materialize(tree *object.Tree) error {
	idx := &index.Index{Version: 2}

	err := tree.Files().ForEach(func(f *object.File) error {
		r, err := f.Reader()
		if err != nil {
			return err
		}
		defer r.Close()
		content, err := io.ReadAll(r)
		if err != nil {
			return err
		}

		if dir := parentDir(f.Name); dir != "" {
			if err := w.fs.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}

		perm := os.FileMode(0o644)
		if f.Mode == filemode.Executable {
			perm = 0o755
		}
		out, err := w.fs.OpenFile(f.Name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
		if err != nil {
			return err
		}
		if _, err := out.Write(content); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}

		fi, err := w.fs.Stat(f.Name)
		if err != nil {
			return err
		}

		e := idx.Add(f.Name)
		e.Hash = f.Hash
		e.Mode = f.Mode
		e.Size = uint32(len(content))
		e.ModifiedAt = fi.ModTime()
		e.CreatedAt = fi.ModTime()
		return nil
	})
	if err != nil {
		return err
	}

	return w.r.Storer.SetIndex(idx)
}

// Reset moves HEAD to o.Commit and, depending on o.Mode, the index and
// working tree too.
func (w *Worktree) Reset(o *ResetOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	who := w.r.defaultIdentity()
	_, oldHash := w.headDescription()
	if !oldHash.IsZero() {
		if err := w.r.Storer.SetState(storage.StateOrigHead, []byte(oldHash.String()+"\n")); err != nil {
			return err
		}
	}
	logMsg := fmt.Sprintf("reset: moving to %s", o.Commit)

	head, err := w.r.Storer.Reference(plumbing.HEAD)
	if err == nil && head.Type() == plumbing.SymbolicReference {
		if err := w.r.updateHead(plumbing.NewHashReference(head.Target(), o.Commit), oldHash, who, logMsg); err != nil {
			return err
		}
	} else if err := w.r.updateHead(plumbing.NewHashReference(plumbing.HEAD, o.Commit), oldHash, who, logMsg); err != nil && o.Mode == SoftReset {
		return err
	}

	if o.Mode == SoftReset {
		return nil
	}

	c, err := object.GetCommit(w.r.Storer, o.Commit)
	if err != nil {
		return err
	}
	tree, err := c.Tree()
	if err != nil {
		return err
	}

	if o.Mode == MixedReset {
		idx, err := treeToIndex(tree)
		if err != nil {
			return err
		}
		return w.r.Storer.SetIndex(idx)
	}

	// HardReset and MergeReset both rewrite the working tree; this core
	// does not implement a conflict-preserving merge-reset, so MergeReset
	// behaves like HardReset here.
	return w.materialize(tree)
}

// Pull fetches from o.RemoteName and fast-forwards the checked-out branch
// to the fetched remote-tracking branch of the same name. No merge is
// made: a non-fast-forward pull returns an error unless o.Force is set.
func (w *Worktree) Pull(ctx context.Context, o *PullOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	if err := w.r.Fetch(ctx, &FetchOptions{RemoteName: o.RemoteName}); err != nil {
		return err
	}

	head, err := w.r.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return err
	}
	if head.Type() != plumbing.SymbolicReference {
		return fmt.Errorf("pygit: pull requires a branch checked out")
	}

	remoteRef := plumbing.NewRemoteReferenceName(o.RemoteName, head.Target().Short())
	remote, err := w.r.Storer.Reference(remoteRef)
	if err != nil {
		return err
	}

	if !o.Force {
		local, err := storer.ResolveReference(w.r.Storer, head.Target())
		if err == nil {
			localCommit, lerr := object.GetCommit(w.r.Storer, local.Hash())
			remoteCommit, rerr := object.GetCommit(w.r.Storer, remote.Hash())
			if lerr == nil && rerr == nil {
				ok, aerr := localCommit.IsAncestor(remoteCommit)
				if aerr == nil && !ok {
					return fmt.Errorf("%w: non-fast-forward pull", ErrWorktreeNotClean)
				}
			}
		}
	}

	var oldHash plumbing.Hash
	if local, lerr := storer.ResolveReference(w.r.Storer, head.Target()); lerr == nil {
		oldHash = local.Hash()
	}

	who := w.r.defaultIdentity()
	logMsg := fmt.Sprintf("pull %s %s: Fast-forward", o.RemoteName, o.ReferenceName)
	if err := w.r.updateHead(plumbing.NewHashReference(head.Target(), remote.Hash()), oldHash, who, logMsg); err != nil {
		return err
	}
	if o.Progress != nil {
		fmt.Fprintln(o.Progress, "Fast-forward")
	}

	return w.Checkout(&CheckoutOptions{Branch: head.Target(), Force: true})
}

func (w *Worktree) isClean() (bool, error) {
	status, err := w.Status()
	if err != nil {
		return false, err
	}
	return status.IsClean(), nil
}

func parentDir(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}

// buildTreeFromIndex reconstructs the nested object.Tree hierarchy a
// flat, '/'-separated list of index entries implies, writing every
// directory (and the root) to s.
func buildTreeFromIndex(s indexTreeStorer, entries []*index.Entry) (plumbing.Hash, error) {
	root := newTreeDir()
	for _, e := range entries {
		if e.Stage != index.Merged {
			continue
		}
		parts := strings.Split(e.Name, "/")
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node.dirs[p]
			if !ok {
				child = newTreeDir()
				node.dirs[p] = child
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		node.files[leaf] = object.TreeEntry{Name: leaf, Mode: e.Mode, Hash: e.Hash}
	}
	return writeTreeDir(s, root)
}

type treeDir struct {
	files map[string]object.TreeEntry
	dirs  map[string]*treeDir
}

func newTreeDir() *treeDir {
	return &treeDir{files: map[string]object.TreeEntry{}, dirs: map[string]*treeDir{}}
}

func writeTreeDir(s indexTreeStorer, d *treeDir) (plumbing.Hash, error) {
	entries := make([]object.TreeEntry, 0, len(d.files)+len(d.dirs))
	for _, e := range d.files {
		entries = append(entries, e)
	}
	for name, child := range d.dirs {
		h, err := writeTreeDir(s, child)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: h})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	t := &object.Tree{Entries: entries}
	o := s.NewEncodedObject()
	if err := t.Encode(o); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(o)
}

// buildWorktreeTree snapshots every file currently in the working tree
// (ignoring what the index says is staged) into a tree object, the way
// `git stash` captures unstaged changes alongside staged ones.
func buildWorktreeTree(s indexTreeStorer, fs billy.Filesystem) (plumbing.Hash, error) {
	root := newTreeDir()

	err := walkFiles(fs, "", func(path string) error {
		f, err := fs.Open(path)
		if err != nil {
			return err
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}

		fi, err := fs.Lstat(path)
		if err != nil {
			return err
		}

		h, err := writeBlob(s, content)
		if err != nil {
			return err
		}

		mode := filemode.Regular
		if fi.Mode()&0o111 != 0 {
			mode = filemode.Executable
		}

		parts := strings.Split(path, "/")
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node.dirs[p]
			if !ok {
				child = newTreeDir()
				node.dirs[p] = child
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		node.files[leaf] = object.TreeEntry{Name: leaf, Mode: mode, Hash: h}
		return nil
	})
	if err != nil {
		return plumbing.ZeroHash, err
	}

	return writeTreeDir(s, root)
}

func treeToIndex(tree *object.Tree) (*index.Index, error) {
	idx := &index.Index{Version: 2}
	err := tree.Files().ForEach(func(f *object.File) error {
		e := idx.Add(f.Name)
		e.Hash = f.Hash
		e.Mode = f.Mode
		e.ModifiedAt = time.Time{}
		return nil
	})
	return idx, err
}

func writeBlob(s indexTreeStorer, content []byte) (plumbing.Hash, error) {
	o := s.NewEncodedObject()
	o.SetType(plumbing.BlobObject)
	o.SetSize(int64(len(content)))
	w, err := o.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(o)
}

// indexTreeStorer is the slice of storage.Storer buildTreeFromIndex and
// writeBlob need.
type indexTreeStorer interface {
	NewEncodedObject() plumbing.EncodedObject
	SetEncodedObject(plumbing.EncodedObject) (plumbing.Hash, error)
}

// walkFiles calls cb with the '/'-separated path of every regular file
// under dir (recursively), skipping the .git directory at the root.
func walkFiles(fs billy.Filesystem, dir string, cb func(path string) error) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, fi := range entries {
		name := fi.Name()
		if dir == "" && name == ".git" {
			continue
		}
		full := name
		if dir != "" {
			full = dir + "/" + name
		}
		if fi.IsDir() {
			if err := walkFiles(fs, full, cb); err != nil {
				return err
			}
			continue
		}
		if err := cb(full); err != nil {
			return err
		}
	}
	return nil
}
