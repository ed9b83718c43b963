// Package storage defines the interfaces for storing objects, references,
// the staging index and repository configuration.
package storage

import (
	"errors"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// ErrReferenceHasChanged is returned by a CheckAndSetReference whose
// compare-and-swap failed because the reference changed concurrently.
var ErrReferenceHasChanged = errors.New("reference has changed concurrently")

// ErrStateNotFound is returned by StateStorer.State when the named key
// has not been written (no merge/cherry-pick/rebase in progress).
var ErrStateNotFound = errors.New("state file not found")

// StateKey names one of the small files git writes alongside a
// repository to track an in-progress or conflicted merge, cherry-pick,
// or rebase. Values are the on-disk paths relative to the .git
// directory, matching git's own layout.
type StateKey string

const (
	StateOrigHead            StateKey = "ORIG_HEAD"
	StateMergeHead           StateKey = "MERGE_HEAD"
	StateMergeMsg            StateKey = "MERGE_MSG"
	StateCherryPickHead      StateKey = "CHERRY_PICK_HEAD"
	StateCherryPickMsg       StateKey = "CHERRY_PICK_MSG"
	StateCherryPickConflicts StateKey = "CHERRY_PICK_CONFLICTS"
	StateRebaseOnto          StateKey = "rebase-merge/onto"
	StateRebaseTodo          StateKey = "rebase-merge/todo"
	StateRebaseDone          StateKey = "rebase-merge/done"
)

// StateStorer persists the state files naming StateKey above. They are
// written before the ref mutation they precede and cleared only once
// the operation they describe concludes (successfully or via --abort),
// so a crash mid-operation always leaves a recoverable trail.
type StateStorer interface {
	// SetState writes content for key, creating or truncating it.
	SetState(key StateKey, content []byte) error
	// State reads the content written for key, or ErrStateNotFound if
	// key has not been set.
	State(key StateKey) ([]byte, error)
	// RemoveState deletes key. Removing a key that isn't set is not an
	// error.
	RemoveState(key StateKey) error
	// HasState reports whether key is currently set.
	HasState(key StateKey) (bool, error)
}

// Storer is the full storage contract a repository is built on: objects,
// references with their reflog, the shallow-commit list, the staging
// index, merge/rebase state, and config.
type Storer interface {
	storer.EncodedObjectStorer
	storer.ReferenceStorer
	storer.ReflogStorer
	storer.ShallowStorer
	storer.IndexStorer
	config.ConfigStorer
	StateStorer
}

// Initializer is implemented by storers that must run setup logic (writing
// the initial directory layout and HEAD) when a repository
// is first created rather than opened.
type Initializer interface {
	Init() error
}
