package config

import (
	"errors"
	"strings"

	"github.com/pygit-core/pygit/plumbing"
)

// ErrRefSpecMalformedSeparator is returned when a refspec string does not
// contain exactly one ':' separator.
var ErrRefSpecMalformedSeparator = errors.New("config: malformed refspec, separator is required")

// ErrRefSpecMalformedWildcard is returned when the source and destination
// sides of a refspec disagree on whether they carry a '*' wildcard.
var ErrRefSpecMalformedWildcard = errors.New("config: malformed refspec, wildcard mismatch")

// RefSpec maps remote references to local ones: an optional leading '+'
// (force, allow non-fast-forward), then "<src>:<dst>", where src and dst
// either both contain exactly one '*' (glob form) or neither does
// (exact form). e.g. "+refs/heads/*:refs/remotes/origin/*".
type RefSpec string

// IsValid reports whether s parses as a well-formed refspec.
func (s RefSpec) IsValid() bool {
	spec := string(s)
	if strings.Count(spec, ":") != 1 {
		return false
	}

	sep := strings.IndexByte(spec, ':')
	src := strings.TrimPrefix(spec[:sep], "+")
	dst := spec[sep+1:]

	ws := strings.Count(src, "*")
	wd := strings.Count(dst, "*")
	return ws == wd && ws < 2
}

// IsForceUpdate reports whether s allows a non-fast-forward update.
func (s RefSpec) IsForceUpdate() bool {
	return strings.HasPrefix(string(s), "+")
}

func (s RefSpec) isGlob() bool {
	return strings.Contains(s.Src(), "*")
}

// Src returns the remote-side pattern.
func (s RefSpec) Src() string {
	spec := strings.TrimPrefix(string(s), "+")
	return spec[:strings.IndexByte(spec, ':')]
}

// dst returns the raw local-side pattern (including any '*').
func (s RefSpec) dst() string {
	spec := string(s)
	return spec[strings.IndexByte(spec, ':')+1:]
}

// Match reports whether n matches this refspec's source side.
func (s RefSpec) Match(n plumbing.ReferenceName) bool {
	if !s.isGlob() {
		return s.Src() == n.String()
	}

	src := s.Src()
	i := strings.IndexByte(src, '*')
	prefix, suffix := src[:i], src[i+1:]
	name := n.String()
	return len(name) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(name, prefix) &&
		strings.HasSuffix(name, suffix)
}

// Dst returns the local reference name n maps to under this refspec.
func (s RefSpec) Dst(n plumbing.ReferenceName) plumbing.ReferenceName {
	dst := s.dst()
	if !s.isGlob() {
		return plumbing.ReferenceName(dst)
	}

	src := s.Src()
	ws := strings.IndexByte(src, '*')
	wd := strings.IndexByte(dst, '*')
	name := n.String()
	match := name[ws : len(name)-(len(src)-ws-1)]

	return plumbing.ReferenceName(dst[:wd] + match + dst[wd+1:])
}

func (s RefSpec) String() string { return string(s) }

// MatchAny reports whether any refspec in specs matches n.
func MatchAny(specs []RefSpec, n plumbing.ReferenceName) bool {
	for _, s := range specs {
		if s.Match(n) {
			return true
		}
	}
	return false
}
