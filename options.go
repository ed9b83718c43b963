package pygit

import (
	"errors"
	"fmt"
	"io"

	"dario.cat/mergo"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/transport"
)

// DefaultRemoteName is the remote Clone/Fetch/Push assume when the
// caller doesn't name one, matching the `git` command's own default.
const DefaultRemoteName = "origin"

var (
	ErrMissingURL     = errors.New("pygit: URL field is required")
	ErrInvalidRefSpec = errors.New("pygit: invalid refspec")
)

// fillDefaults overlays every zero-valued field of o with the matching
// field from defaults, the way mergo.Merge is used throughout the
// ecosystem for options-struct defaulting.
func fillDefaults(o, defaults any) error {
	return mergo.Merge(o, defaults)
}

// CloneOptions configures Clone.
type CloneOptions struct {
	URL           string
	RemoteName    string
	ReferenceName plumbing.ReferenceName
	SingleBranch  bool
	Auth          transport.AuthMethod
}

func (o *CloneOptions) Validate() error {
	if o.URL == "" {
		return ErrMissingURL
	}
	return fillDefaults(o, CloneOptions{RemoteName: DefaultRemoteName, ReferenceName: plumbing.HEAD})
}

// FetchOptions configures Repository.Fetch and Remote.Fetch.
type FetchOptions struct {
	RemoteName string
	RefSpecs   []config.RefSpec
}

func (o *FetchOptions) Validate() error {
	if err := fillDefaults(o, FetchOptions{RemoteName: DefaultRemoteName}); err != nil {
		return err
	}
	for _, rs := range o.RefSpecs {
		if !rs.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidRefSpec, rs)
		}
	}
	return nil
}

// PushOptions configures Repository.Push and Remote.Push.
type PushOptions struct {
	RemoteName string
	RefSpecs   []config.RefSpec
}

func (o *PushOptions) Validate() error {
	if err := fillDefaults(o, PushOptions{RemoteName: DefaultRemoteName}); err != nil {
		return err
	}
	for _, rs := range o.RefSpecs {
		if !rs.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidRefSpec, rs)
		}
	}
	return nil
}

// PullOptions configures Worktree.Pull: fetch from RemoteName, then
// fast-forward the checked-out branch to refs/remotes/<RemoteName>/<branch>.
// No merge is made: a non-fast-forward pull returns an error unless Force
// is set. ReferenceName appears only in the reflog message.
type PullOptions struct {
	RemoteName    string
	ReferenceName plumbing.ReferenceName
	Force         bool
	// Progress, if set, receives the one-line summary ("Fast-forward")
	// the way `git pull` prints to stderr.
	Progress io.Writer
}

func (o *PullOptions) Validate() error {
	return fillDefaults(o, PullOptions{RemoteName: DefaultRemoteName, ReferenceName: plumbing.HEAD})
}

// CheckoutOptions configures Worktree.Checkout. Branch or Hash must be
// set; Create makes Branch a new branch pointed at the current HEAD (or
// Hash, if also given) and checks it out, instead of switching to an
// existing branch.
type CheckoutOptions struct {
	Branch plumbing.ReferenceName
	Hash   plumbing.Hash
	Create bool
	Force  bool
}

func (o *CheckoutOptions) Validate() error {
	if o.Branch == "" && o.Hash.IsZero() {
		return fmt.Errorf("pygit: checkout requires a branch or a commit hash")
	}
	return nil
}

// ResetMode selects how far Worktree.Reset rewinds: just HEAD (Soft),
// HEAD and the index (Mixed, the default), or HEAD, the index and the
// working tree (Hard).
type ResetMode int

const (
	MixedReset ResetMode = iota
	SoftReset
	HardReset
	MergeReset
)

// ResetOptions configures Worktree.Reset.
type ResetOptions struct {
	Commit plumbing.Hash
	Mode   ResetMode
}

func (o *ResetOptions) Validate() error {
	if o.Commit.IsZero() {
		return fmt.Errorf("pygit: reset requires a commit")
	}
	return nil
}

// CommitOptions configures Worktree.Commit. All stages every tracked,
// modified path before writing the tree, like `git commit -a`.
type CommitOptions struct {
	All       bool
	Author    *object.Signature
	Committer *object.Signature
}

func (o *CommitOptions) Validate() error {
	if o.Author == nil {
		return fmt.Errorf("pygit: commit requires an author signature")
	}
	if o.Committer == nil {
		o.Committer = o.Author
	}
	return nil
}

// MergeOptions configures Worktree.Merge.
type MergeOptions struct {
	// Branch is the reference being merged into the checked-out branch.
	Branch plumbing.ReferenceName
	// FastForwardOnly refuses the merge with pygerr.ErrRefUpdateRejected
	// instead of creating a merge commit when the checked-out branch
	// cannot simply be fast-forwarded (`git merge --ff-only`).
	FastForwardOnly bool
	// Committer identifies the merge commit, when one is created. If
	// nil, the repository's default identity is used.
	Committer *object.Signature
	// Progress, if set, receives the one-line summary ("Fast-forward",
	// "Merge made by the 'ort' strategy.", ...) the way `git merge`
	// itself prints to stderr.
	Progress io.Writer
}

func (o *MergeOptions) Validate() error {
	if o.Branch == "" {
		return fmt.Errorf("pygit: merge requires a branch or reference to merge")
	}
	return nil
}

// CherryPickOptions configures Worktree.CherryPick.
type CherryPickOptions struct {
	// Committer re-commits the picked change under this identity,
	// keeping the original Author. If nil, the repository's default
	// identity is used.
	Committer *object.Signature
	Progress  io.Writer
}

// RebaseOptions configures Worktree.Rebase.
type RebaseOptions struct {
	// Branch is the upstream the checked-out branch is replayed onto.
	Branch plumbing.ReferenceName
	// Committer re-commits each replayed commit under this identity,
	// keeping the original Author. If nil, the repository's default
	// identity is used.
	Committer *object.Signature
	Progress  io.Writer
}

func (o *RebaseOptions) Validate() error {
	if o.Branch == "" {
		return fmt.Errorf("pygit: rebase requires an upstream branch")
	}
	return nil
}

// StashOptions configures Worktree.StashPush.
type StashOptions struct {
	// Message labels the stash entry, matching `git stash push -m`. A
	// default mentioning the checked-out branch is used if empty.
	Message string
	// Author identifies the stash's index/worktree commits. If nil, the
	// repository's default identity is used.
	Author   *object.Signature
	Progress io.Writer
}

// LogOptions configures Repository.Log.
type LogOptions struct {
	From        plumbing.Hash
	Order       LogOrder
	FirstParent bool
}

// LogOrder selects the commit walk order Log uses.
type LogOrder int

const (
	// LogOrderDefault walks every ancestor depth first in pre-order
	// (object.NewCommitPreorderIter); commit dates are not consulted.
	LogOrderDefault LogOrder = iota
	// LogOrderTopo walks commits such that a commit's parents always
	// come after it (`git log --topo-order`).
	LogOrderTopo
)
