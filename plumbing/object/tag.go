package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// Tag is an annotated tag: a named, signable pointer at any other object
// (almost always a commit), distinct from a lightweight tag, which is
// just a ref pointing directly at the target.
type Tag struct {
	Hash         plumbing.Hash
	Name         string
	Tagger       Signature
	Message      string
	TargetType   plumbing.ObjectType
	Target       plumbing.Hash
	PGPSignature string

	s storer.EncodedObjectStorer
}

// ID returns the tag's hash.
func (t *Tag) ID() plumbing.Hash { return t.Hash }

// Type always returns plumbing.TagObject.
func (t *Tag) Type() plumbing.ObjectType { return plumbing.TagObject }

// Commit resolves the tag's target as a Commit. Returns ErrUnsupportedObject
// if the target is not a commit (e.g. a tag pointing at a tree or blob).
func (t *Tag) Commit() (*Commit, error) {
	if t.TargetType != plumbing.CommitObject {
		return nil, ErrUnsupportedObject
	}
	return GetCommit(t.s, t.Target)
}

// Decode parses o's content as a tag object body. o must be of type
// TagObject.
func (t *Tag) Decode(o plumbing.EncodedObject) error {
	if o.Type() != plumbing.TagObject {
		return ErrUnsupportedObject
	}

	t.Hash = o.Hash()

	r, err := o.Reader()
	if err != nil {
		return err
	}
	defer r.Close()

	br := bufio.NewReader(r)

	var message bytes.Buffer
	inHeader := true

	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if err == io.EOF && line == "" {
			break
		}

		if inHeader {
			trimmed := strings.TrimSuffix(line, "\n")
			if trimmed == "" {
				inHeader = false
				if err == io.EOF {
					break
				}
				continue
			}

			switch {
			case strings.HasPrefix(trimmed, "object "):
				t.Target = plumbing.NewHash(strings.TrimPrefix(trimmed, "object "))
			case strings.HasPrefix(trimmed, "type "):
				t.TargetType, _ = plumbing.ParseObjectType(strings.TrimPrefix(trimmed, "type "))
			case strings.HasPrefix(trimmed, "tag "):
				t.Name = strings.TrimPrefix(trimmed, "tag ")
			case strings.HasPrefix(trimmed, "tagger "):
				t.Tagger.Decode([]byte(strings.TrimPrefix(trimmed, "tagger ")))
			}

			if err == io.EOF {
				break
			}
			continue
		}

		message.WriteString(line)
		if err == io.EOF {
			break
		}
	}

	t.Message, t.PGPSignature = splitSignature(message.String())
	return nil
}

// splitSignature separates a trailing detached signature block (as
// recognized by DetectSignatureType) from the free-form tag message.
func splitSignature(body string) (message, signature string) {
	pos, typ := parseSignedBytes([]byte(body))
	if pos == -1 || typ == SignatureTypeUnknown {
		return body, ""
	}
	return body[:pos], body[pos:]
}

// Encode writes the canonical on-disk form of the tag into o.
func (t *Tag) Encode(o plumbing.EncodedObject) error {
	o.SetType(plumbing.TagObject)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", t.Target.String())
	fmt.Fprintf(&buf, "type %s\n", t.TargetType.String())
	fmt.Fprintf(&buf, "tag %s\n", t.Name)

	buf.WriteString("tagger ")
	t.Tagger.Encode(&buf)
	buf.WriteByte('\n')

	buf.WriteByte('\n')
	buf.WriteString(t.Message)
	buf.WriteString(t.PGPSignature)

	o.SetSize(int64(buf.Len()))

	w, err := o.Writer()
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = io.Copy(w, &buf)
	return err
}

// TagIter is a generic iterator of tags.
type TagIter struct {
	storer.EncodedObjectIter
	s storer.EncodedObjectStorer
}

// NewTagIter returns an iterator wrapping iter, decoding each object into
// a Tag as it is yielded.
func NewTagIter(s storer.EncodedObjectStorer, iter storer.EncodedObjectIter) *TagIter {
	return &TagIter{iter, s}
}

func (it *TagIter) Next() (*Tag, error) {
	obj, err := it.EncodedObjectIter.Next()
	if err != nil {
		return nil, err
	}

	t := &Tag{s: it.s}
	return t, t.Decode(obj)
}

func (it *TagIter) ForEach(cb func(*Tag) error) error {
	return it.EncodedObjectIter.ForEach(func(obj plumbing.EncodedObject) error {
		t := &Tag{s: it.s}
		if err := t.Decode(obj); err != nil {
			return err
		}
		return cb(t)
	})
}
