package storer

import (
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/format/reflog"
)

// ReflogStorer is implemented by reference storers that keep an
// append-only log of updates to HEAD and branch references, mirroring
// .git/logs/HEAD and .git/logs/refs/heads/<branch>.
type ReflogStorer interface {
	// AppendReflog appends entry to name's log, creating it if this is
	// the first entry recorded against name. Callers append under the
	// same critical section that updates the reference itself, so a
	// reader never observes a ref move without the log entry
	// explaining it.
	AppendReflog(name plumbing.ReferenceName, entry reflog.Entry) error
	// Reflog returns every entry logged against name, oldest first. A
	// name with no log yet returns an empty slice, not an error.
	Reflog(name plumbing.ReferenceName) ([]reflog.Entry, error)
}
