// Package pygit ties the object store, staging index, reference graph,
// and transport layers together into the porcelain surface a caller
// actually drives: Repository, Worktree and Remote.
package pygit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/cache"
	"github.com/pygit-core/pygit/plumbing/format/reflog"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/storer"
	"github.com/pygit-core/pygit/storage"
	"github.com/pygit-core/pygit/storage/filesystem"
	"github.com/pygit-core/pygit/transport"
)

var (
	ErrRepositoryAlreadyExists = errors.New("repository already exists")
	ErrRepositoryNotExists     = errors.New("repository does not exist")
	ErrRemoteNotFound          = errors.New("remote not found")
	ErrRemoteExists            = errors.New("remote already exists")
	ErrIsBareRepository        = errors.New("worktree not available in a bare repository")
)

// Repository is a Git repository: its storer (objects, refs, index,
// config) plus, for non-bare repositories, the working tree filesystem.
type Repository struct {
	Storer storage.Storer
	wt     billy.Filesystem
}

// Init creates an empty repository in s. wt is nil for a bare repository.
func Init(s storage.Storer, wt billy.Filesystem) (*Repository, error) {
	if _, err := s.Reference(plumbing.HEAD); err == nil {
		return nil, ErrRepositoryAlreadyExists
	} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, err
	}

	if init, ok := s.(storage.Initializer); ok {
		if err := init.Init(); err != nil {
			return nil, err
		}
	}

	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("master"))
	if err := s.SetReference(head); err != nil {
		return nil, err
	}

	return &Repository{Storer: s, wt: wt}, nil
}

// Open opens an existing repository backed by s.
func Open(s storage.Storer, wt billy.Filesystem) (*Repository, error) {
	if _, err := s.Reference(plumbing.HEAD); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, ErrRepositoryNotExists
		}
		return nil, err
	}
	return &Repository{Storer: s, wt: wt}, nil
}

// PlainInit creates a repository rooted at an OS path: bare writes
// directly to path, non-bare writes the object database under
// path/.git and checks out the working tree at path.
func PlainInit(path string, bare bool) (*Repository, error) {
	var wt billy.Filesystem
	dot := osfs.New(path)

	if !bare {
		wt = dot
		gitDir, err := dot.Chroot(".git")
		if err != nil {
			return nil, err
		}
		dot = gitDir
	}

	s := filesystem.NewStorage(dot, cache.NewObjectLRUDefault())
	return Init(s, wt)
}

// PlainOpen opens a repository rooted at an OS path, detecting whether it
// is bare (path is itself a .git directory) or not (path/.git exists).
func PlainOpen(path string) (*Repository, error) {
	fs := osfs.New(path)
	var wt billy.Filesystem
	dot := fs

	if _, err := fs.Stat(".git"); err == nil {
		wt = fs
		gitDir, err := fs.Chroot(".git")
		if err != nil {
			return nil, err
		}
		dot = gitDir
	}

	s := filesystem.NewStorage(dot, cache.NewObjectLRUDefault())
	return Open(s, wt)
}

// Clone creates a repository at s (and checks out wt, if non-nil) by
// fetching from o.URL and pointing HEAD at the remote's default branch.
func Clone(ctx context.Context, s storage.Storer, wt billy.Filesystem, o *CloneOptions) (*Repository, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	r, err := Init(s, wt)
	if err != nil {
		return nil, err
	}

	if _, err := r.CreateRemote(&config.RemoteConfig{Name: o.RemoteName, URL: o.URL}); err != nil {
		return nil, err
	}

	if _, err := transport.Clone(ctx, s, transport.CloneOptions{
		URL:        o.URL,
		RemoteName: o.RemoteName,
		Auth:       o.Auth,
	}); err != nil {
		return nil, err
	}

	if wt != nil {
		w, err := r.Worktree()
		if err != nil {
			return nil, err
		}
		head, err := r.Head()
		if err != nil {
			return nil, err
		}
		if err := w.Checkout(&CheckoutOptions{Hash: head.Hash()}); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Head returns the reference HEAD points to, resolved through a symbolic
// HEAD to the branch it names (the branch reference itself, not peeled
// to a commit hash — callers needing the commit use head.Hash()).
func (r *Repository) Head() (*plumbing.Reference, error) {
	ref, err := r.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return nil, err
	}
	if ref.Type() != plumbing.SymbolicReference {
		return ref, nil
	}
	return storer.ResolveReference(r.Storer, ref.Target())
}

// Reference returns the named reference, resolving through any symbolic
// indirection when resolved is true.
func (r *Repository) Reference(name plumbing.ReferenceName, resolved bool) (*plumbing.Reference, error) {
	if !resolved {
		return r.Storer.Reference(name)
	}
	return storer.ResolveReference(r.Storer, name)
}

// References returns an iterator over every reference in the repository.
func (r *Repository) References() (storer.ReferenceIter, error) {
	return r.Storer.IterReferences()
}

// CommitObject returns the commit h names.
func (r *Repository) CommitObject(h plumbing.Hash) (*object.Commit, error) {
	return object.GetCommit(r.Storer, h)
}

// ResolveRevision resolves a revision expression (branch/tag name, full
// 40-hex hash, HEAD, or a HEAD~N/HEAD^N/HEAD^{type}/@{...} suffix chain)
// to the object hash it names. Abbreviated hashes are not resolved.
func (r *Repository) ResolveRevision(rev string) (plumbing.Hash, error) {
	return revlistResolve(r.Storer, rev)
}

// Worktree returns the repository's working tree. Bare repositories have
// none.
func (r *Repository) Worktree() (*Worktree, error) {
	if r.wt == nil {
		return nil, ErrIsBareRepository
	}
	return &Worktree{r: r, fs: r.wt}, nil
}

// CreateRemote adds a new remote to the repository's config.
func (r *Repository) CreateRemote(c *config.RemoteConfig) (*Remote, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("pygit: remote name is required")
	}

	cfg, err := r.Storer.Config()
	if err != nil {
		return nil, err
	}
	if _, ok := cfg.Remotes[c.Name]; ok {
		return nil, ErrRemoteExists
	}
	cfg.Remotes[c.Name] = c
	if err := r.Storer.SetConfig(cfg); err != nil {
		return nil, err
	}

	return &Remote{c: c, s: r.Storer}, nil
}

// DeleteRemote removes a remote from the repository's config.
func (r *Repository) DeleteRemote(name string) error {
	cfg, err := r.Storer.Config()
	if err != nil {
		return err
	}
	if _, ok := cfg.Remotes[name]; !ok {
		return ErrRemoteNotFound
	}
	delete(cfg.Remotes, name)
	return r.Storer.SetConfig(cfg)
}

// Remote returns the named remote.
func (r *Repository) Remote(name string) (*Remote, error) {
	cfg, err := r.Storer.Config()
	if err != nil {
		return nil, err
	}
	c, ok := cfg.Remotes[name]
	if !ok {
		return nil, ErrRemoteNotFound
	}
	return &Remote{c: c, s: r.Storer}, nil
}

// Remotes returns every remote configured on the repository.
func (r *Repository) Remotes() ([]*Remote, error) {
	cfg, err := r.Storer.Config()
	if err != nil {
		return nil, err
	}
	remotes := make([]*Remote, 0, len(cfg.Remotes))
	for _, c := range cfg.Remotes {
		remotes = append(remotes, &Remote{c: c, s: r.Storer})
	}
	return remotes, nil
}

// Fetch fetches from the named remote into this repository.
func (r *Repository) Fetch(ctx context.Context, o *FetchOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}
	remote, err := r.Remote(o.RemoteName)
	if err != nil {
		return err
	}
	_, err = remote.Fetch(ctx, o)
	return err
}

// Push pushes to the named remote from this repository.
func (r *Repository) Push(ctx context.Context, o *PushOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}
	remote, err := r.Remote(o.RemoteName)
	if err != nil {
		return err
	}
	return remote.Push(ctx, o)
}

// defaultIdentity returns the identity ref updates and commits use when
// the caller doesn't supply one explicitly: the repository's own
// user.name/user.email, falling back to a generic identity so an
// operation never fails purely for lacking identity configuration.
func (r *Repository) defaultIdentity() object.Signature {
	sig := object.Signature{Name: "pygit", Email: "pygit@localhost", When: time.Now()}

	cfg, err := r.Storer.Config()
	if err != nil {
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		sig.Email = cfg.User.Email
	}
	return sig
}

// logRef appends a reflog entry recording name's move from old to new,
// the way every branch-head or HEAD update is paired with a line in
// logs/<name>.
func (r *Repository) logRef(name plumbing.ReferenceName, oldHash, newHash plumbing.Hash, who object.Signature, message string) error {
	return r.Storer.AppendReflog(name, reflog.Entry{
		Old:     oldHash,
		New:     newHash,
		Who:     reflog.Ident{Name: who.Name, Email: who.Email, When: who.When},
		Message: message,
	})
}

// updateHead sets ref unconditionally and logs the move (from oldHash)
// against ref's own name. If ref is HEAD's current symbolic target, the
// move is also logged against HEAD itself: git keeps a single combined
// HEAD reflog regardless of which branch is checked out, so switching
// branches doesn't fragment the history a caller sees at logs/HEAD.
func (r *Repository) updateHead(ref *plumbing.Reference, oldHash plumbing.Hash, who object.Signature, message string) error {
	if err := r.Storer.SetReference(ref); err != nil {
		return err
	}

	if ref.Type() != plumbing.HashReference {
		return nil
	}

	if err := r.logRef(ref.Name(), oldHash, ref.Hash(), who, message); err != nil {
		return err
	}

	head, err := r.Storer.Reference(plumbing.HEAD)
	if err == nil && head.Type() == plumbing.SymbolicReference && head.Target() == ref.Name() {
		return r.logRef(plumbing.HEAD, oldHash, ref.Hash(), who, message)
	}
	return nil
}
