// Package object implements the Git object model on top of the raw
// plumbing.EncodedObject representation: blobs, trees, commits and
// annotated tags, decoded from and encoded to their canonical byte forms.
package object

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// ErrUnsupportedObject is returned when an object of the wrong type is
// decoded into a Blob, Tree, Commit, or Tag.
var ErrUnsupportedObject = errors.New("unsupported object type")

// ErrEntryNotFound is returned when a path does not exist inside a tree.
var ErrEntryNotFound = errors.New("entry not found")

// ErrParentNotFound is returned when Commit.Parent is given an
// out-of-range index.
var ErrParentNotFound = errors.New("parent not found")

// Object is implemented by Commit, Tree, Blob, and Tag: anything storable
// directly as a top-level Git object.
type Object interface {
	ID() plumbing.Hash
	Type() plumbing.ObjectType
	Decode(plumbing.EncodedObject) error
	Encode(plumbing.EncodedObject) error
}

// DecodeObject decodes o, dispatching on o.Type(), into the matching
// concrete Object. AnyObject is not accepted; the caller must already know
// (or have read) the concrete type, matching how a pack/loose object
// always declares its type in its framing header.
func DecodeObject(s storer.EncodedObjectStorer, o plumbing.EncodedObject) (Object, error) {
	switch o.Type() {
	case plumbing.CommitObject:
		c := &Commit{s: s}
		return c, c.Decode(o)
	case plumbing.TreeObject:
		t := &Tree{s: s}
		return t, t.Decode(o)
	case plumbing.BlobObject:
		b := &Blob{}
		return b, b.Decode(o)
	case plumbing.TagObject:
		t := &Tag{s: s}
		return t, t.Decode(o)
	default:
		return nil, plumbing.ErrInvalidType
	}
}

// GetBlob resolves h through s and decodes it as a Blob.
func GetBlob(s storer.EncodedObjectStorer, h plumbing.Hash) (*Blob, error) {
	o, err := s.EncodedObject(plumbing.BlobObject, h)
	if err != nil {
		return nil, err
	}

	b := &Blob{}
	return b, b.Decode(o)
}

// GetTree resolves h through s and decodes it as a Tree.
func GetTree(s storer.EncodedObjectStorer, h plumbing.Hash) (*Tree, error) {
	o, err := s.EncodedObject(plumbing.TreeObject, h)
	if err != nil {
		return nil, err
	}

	t := &Tree{s: s}
	return t, t.Decode(o)
}

// GetCommit resolves h through s and decodes it as a Commit.
func GetCommit(s storer.EncodedObjectStorer, h plumbing.Hash) (*Commit, error) {
	o, err := s.EncodedObject(plumbing.CommitObject, h)
	if err != nil {
		return nil, err
	}

	c := &Commit{s: s}
	return c, c.Decode(o)
}

// GetTag resolves h through s and decodes it as a Tag.
func GetTag(s storer.EncodedObjectStorer, h plumbing.Hash) (*Tag, error) {
	o, err := s.EncodedObject(plumbing.TagObject, h)
	if err != nil {
		return nil, err
	}

	t := &Tag{s: s}
	return t, t.Decode(o)
}

// Signature represents an author or committer identity: name, email, and
// timestamp with UTC-offset, as recorded verbatim in a commit or tag
// header (e.g. "Jane Doe <jane@example.com> 1700000000 +0200").
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Decode parses b, the bytes following the header keyword (author/
// committer/tagger), into the Signature fields. Malformed input degrades
// gracefully: whatever can be parsed is kept, matching Git's own lenient
// behavior when reading commits written by other tools.
func (s *Signature) Decode(b []byte) {
	open := strings.LastIndexByte(string(b), '<')
	clos := strings.LastIndexByte(string(b), '>')
	if open == -1 || clos == -1 || clos < open {
		s.Name = strings.TrimSpace(string(b))
		return
	}

	s.Name = strings.TrimSpace(string(b[:open]))
	s.Email = string(b[open+1 : clos])

	fields := strings.Fields(strings.TrimSpace(string(b[clos+1:])))
	if len(fields) == 0 {
		return
	}

	sec, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return
	}

	loc := time.FixedZone("", 0)
	if len(fields) > 1 {
		if off, ok := parseTZOffset(fields[1]); ok {
			loc = time.FixedZone("", off)
		}
	}

	s.When = time.Unix(sec, 0).In(loc)
}

func parseTZOffset(s string) (int, bool) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return 0, false
	}

	hh, err := strconv.Atoi(s[1:3])
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(s[3:5])
	if err != nil {
		return 0, false
	}

	off := hh*3600 + mm*60
	if s[0] == '-' {
		off = -off
	}
	return off, true
}

// Encode writes the canonical on-disk form of the signature: "Name <email>
// seconds +hhmm".
func (s *Signature) Encode(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s <%s> %s", s.Name, s.Email, formatTimestamp(s.When))
	return err
}

func formatTimestamp(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%d %s%02d%02d", t.Unix(), sign, offset/3600, (offset%3600)/60)
}

// String renders the signature as "Name <email>", matching git's
// user-facing identity display (e.g. in `log` and `tag -v` output).
func (s *Signature) String() string {
	return fmt.Sprintf("%s <%s>", s.Name, s.Email)
}
