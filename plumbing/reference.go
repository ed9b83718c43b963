package plumbing

import "strings"

// ReferenceType discriminates a Reference's target.
type ReferenceType int8

const (
	InvalidReference  ReferenceType = 0
	HashReference     ReferenceType = 1
	SymbolicReference ReferenceType = 2
)

// ReferenceName is a reference path under the hierarchical refs namespace,
// e.g. "refs/heads/main", or the distinguished name "HEAD".
type ReferenceName string

const (
	HEAD ReferenceName = "HEAD"
	// StashReferenceName is where `git stash push` stores the worktree
	// commit it creates.
	StashReferenceName ReferenceName = "refs/stash"
)

const (
	refHeadPrefix   = "refs/heads/"
	refTagPrefix    = "refs/tags/"
	refRemotePrefix = "refs/remotes/"
	refNotePrefix   = "refs/notes/"
)

// String returns the reference path.
func (r ReferenceName) String() string {
	return string(r)
}

// Short returns the short name for well-known namespaces (refs/heads/*,
// refs/tags/*, refs/remotes/*, refs/notes/*); returns the full name
// otherwise.
func (r ReferenceName) Short() string {
	s := string(r)
	res := s
	for _, prefix := range []string{refHeadPrefix, refTagPrefix, refRemotePrefix, refNotePrefix} {
		if strings.HasPrefix(s, prefix) {
			res = s[len(prefix):]
			break
		}
	}
	return res
}

// IsBranch returns whether r is under refs/heads/.
func (r ReferenceName) IsBranch() bool {
	return strings.HasPrefix(string(r), refHeadPrefix)
}

// IsTag returns whether r is under refs/tags/.
func (r ReferenceName) IsTag() bool {
	return strings.HasPrefix(string(r), refTagPrefix)
}

// IsRemote returns whether r is under refs/remotes/.
func (r ReferenceName) IsRemote() bool {
	return strings.HasPrefix(string(r), refRemotePrefix)
}

// NewBranchReferenceName builds refs/heads/<name>.
func NewBranchReferenceName(name string) ReferenceName {
	return ReferenceName(refHeadPrefix + name)
}

// NewTagReferenceName builds refs/tags/<name>.
func NewTagReferenceName(name string) ReferenceName {
	return ReferenceName(refTagPrefix + name)
}

// NewRemoteReferenceName builds refs/remotes/<remote>/<name>.
func NewRemoteReferenceName(remote, name string) ReferenceName {
	return ReferenceName(refRemotePrefix + remote + "/" + name)
}

// Reference is a named pointer: either a 40-hex object hash, or a symbolic
// alias to another reference name ("ref: <target>").
type Reference struct {
	t      ReferenceType
	n      ReferenceName
	h      Hash
	target ReferenceName
}

// NewHashReference creates a Reference pointing directly at a Hash.
func NewHashReference(n ReferenceName, h Hash) *Reference {
	return &Reference{t: HashReference, n: n, h: h}
}

// NewSymbolicReference creates a Reference aliasing another ReferenceName.
func NewSymbolicReference(n, target ReferenceName) *Reference {
	return &Reference{t: SymbolicReference, n: n, target: target}
}

// Type returns whether the reference is symbolic or a direct hash.
func (r *Reference) Type() ReferenceType { return r.t }

// Name returns the reference's own name.
func (r *Reference) Name() ReferenceName { return r.n }

// Hash returns the pointed-at object hash. Only meaningful for
// HashReference; returns the zero hash for a SymbolicReference.
func (r *Reference) Hash() Hash { return r.h }

// Target returns the aliased reference name. Only meaningful for
// SymbolicReference.
func (r *Reference) Target() ReferenceName { return r.target }

// String renders the reference the way it is stored on disk: either
// "ref: <target>\n" or "<hash>\n" — without the trailing newline, which
// callers add at the point of writing.
func (r *Reference) String() string {
	switch r.t {
	case SymbolicReference:
		return "ref: " + string(r.target)
	case HashReference:
		return r.h.String()
	default:
		return ""
	}
}

// IsBranch, IsTag, IsRemote forward to the reference's own name.
func (r *Reference) IsBranch() bool { return r.n.IsBranch() }
func (r *Reference) IsTag() bool    { return r.n.IsTag() }
func (r *Reference) IsRemote() bool { return r.n.IsRemote() }
