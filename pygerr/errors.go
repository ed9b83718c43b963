// Package pygerr defines sentinel errors for the error kinds this module
// reports. ErrTransportError (wrapped by the transport package's errors),
// ErrRefUpdateRejected and ErrMergeConflict are returned by the transport
// and merge code; no code path returns the other sentinels, and the
// object, reference and revision layers report those conditions with
// their own errors (for example plumbing.ErrObjectNotFound and
// plumbing.ErrReferenceNotFound).
package pygerr

import "errors"

var (
	// ErrNotARepository is returned when an operation is attempted against
	// a path that is not a Git repository (no .git directory/file found).
	ErrNotARepository = errors.New("not a git repository")

	// ErrObjectNotFound is returned when a requested object hash does not
	// exist in the object database (loose or packed).
	ErrObjectNotFound = errors.New("object not found")

	// ErrMalformedObject is returned when an object's decoded framing or
	// body violates the format it claims (bad header, truncated content,
	// wrong declared size).
	ErrMalformedObject = errors.New("malformed object")

	// ErrMalformedPack is returned when a packfile's header, entry
	// framing, delta chain, or trailer checksum is invalid.
	ErrMalformedPack = errors.New("malformed pack")

	// ErrMalformedIndex is returned when a pack .idx file's fanout table,
	// entry count, or encoding is invalid.
	ErrMalformedIndex = errors.New("malformed index")

	// ErrIndexChecksumMismatch is returned when a pack .idx or staging
	// index trailer checksum does not match the computed hash of the
	// preceding bytes.
	ErrIndexChecksumMismatch = errors.New("index checksum mismatch")

	// ErrMalformedRef is returned when a loose ref file or packed-refs
	// line does not parse as either a hash or a symbolic target.
	ErrMalformedRef = errors.New("malformed reference")

	// ErrAmbiguousPrefix is returned when a short object-hash prefix
	// resolves to more than one object.
	ErrAmbiguousPrefix = errors.New("ambiguous object prefix")

	// ErrRefUpdateRejected is returned when a compare-and-swap reference
	// update's expected old value does not match the stored value.
	ErrRefUpdateRejected = errors.New("reference update rejected: stale value")

	// ErrLockHeld is returned when a ref or index lockfile already exists
	// and is held by another writer.
	ErrLockHeld = errors.New("lock already held")

	// ErrMergeConflict is returned when a three-way merge produces one or
	// more unresolved hunks.
	ErrMergeConflict = errors.New("merge conflict")

	// ErrDirtyWorkingTree is returned when an operation that requires a
	// clean working tree (checkout, rebase, merge) finds uncommitted
	// changes that would be overwritten.
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")

	// ErrNoCommitsYet is returned when an operation that requires at least
	// one commit (status against HEAD, log) is attempted on an
	// unborn-branch repository.
	ErrNoCommitsYet = errors.New("branch has no commits yet")

	// ErrTransportError is returned when a remote transport operation
	// (ls-refs, fetch negotiation, pack transfer) fails.
	ErrTransportError = errors.New("transport error")

	// ErrInvalidRevision is returned when a revision expression does not
	// parse per the rev-parse grammar, or resolves to nothing.
	ErrInvalidRevision = errors.New("invalid revision")
)
