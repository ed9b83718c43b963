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

// Commit is a point-in-time snapshot of a Tree, with author/committer
// identity, a message, zero or more parents, and an optional detached
// signature over the rest of the header.
type Commit struct {
	Hash         plumbing.Hash
	Author       Signature
	Committer    Signature
	Message      string
	TreeHash     plumbing.Hash
	ParentHashes []plumbing.Hash
	PGPSignature string

	s storer.EncodedObjectStorer
}

// ID returns the commit's hash.
func (c *Commit) ID() plumbing.Hash { return c.Hash }

// Type always returns plumbing.CommitObject.
func (c *Commit) Type() plumbing.ObjectType { return plumbing.CommitObject }

// NumParents returns the number of parent commits.
func (c *Commit) NumParents() int { return len(c.ParentHashes) }

// Tree resolves and returns the commit's root tree.
func (c *Commit) Tree() (*Tree, error) {
	return GetTree(c.s, c.TreeHash)
}

// Parents returns an iterator over the commit's parent commits, in the
// order they are recorded in the header.
func (c *Commit) Parents() CommitIter {
	return NewCommitIter(c.s,
		storer.NewEncodedObjectLookupIter(c.s, plumbing.CommitObject, c.ParentHashes))
}

// Parent resolves and returns the i-th parent commit.
func (c *Commit) Parent(i int) (*Commit, error) {
	if i < 0 || i >= len(c.ParentHashes) {
		return nil, ErrParentNotFound
	}
	return GetCommit(c.s, c.ParentHashes[i])
}

// Decode parses o's content as a commit object body: header lines
// ("tree", "parent", "author", "committer", "gpgsig", ...), a blank line,
// then the free-form message. o must be of type CommitObject.
func (c *Commit) Decode(o plumbing.EncodedObject) error {
	if o.Type() != plumbing.CommitObject {
		return ErrUnsupportedObject
	}

	c.Hash = o.Hash()

	r, err := o.Reader()
	if err != nil {
		return err
	}
	defer r.Close()

	br := bufio.NewReader(r)

	var message bytes.Buffer
	inHeader := true
	var gpgsig bytes.Buffer
	inGPGSig := false

	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if err == io.EOF && line == "" {
			break
		}

		if inHeader {
			if inGPGSig {
				if strings.HasPrefix(line, " ") {
					gpgsig.WriteString(strings.TrimPrefix(line, " "))
					if err == io.EOF {
						break
					}
					continue
				}
				inGPGSig = false
				c.PGPSignature = gpgsig.String()
			}

			trimmed := strings.TrimSuffix(line, "\n")
			if trimmed == "" {
				inHeader = false
				if err == io.EOF {
					break
				}
				continue
			}

			switch {
			case strings.HasPrefix(trimmed, "tree "):
				c.TreeHash = plumbing.NewHash(strings.TrimPrefix(trimmed, "tree "))
			case strings.HasPrefix(trimmed, "parent "):
				c.ParentHashes = append(c.ParentHashes, plumbing.NewHash(strings.TrimPrefix(trimmed, "parent ")))
			case strings.HasPrefix(trimmed, "author "):
				c.Author.Decode([]byte(strings.TrimPrefix(trimmed, "author ")))
			case strings.HasPrefix(trimmed, "committer "):
				c.Committer.Decode([]byte(strings.TrimPrefix(trimmed, "committer ")))
			case strings.HasPrefix(trimmed, "gpgsig "):
				inGPGSig = true
				gpgsig.WriteString(strings.TrimPrefix(trimmed, "gpgsig ") + "\n")
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

	c.Message = message.String()
	return nil
}

// Encode writes the canonical on-disk form of the commit into o.
func (c *Commit) Encode(o plumbing.EncodedObject) error {
	o.SetType(plumbing.CommitObject)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash.String())
	for _, p := range c.ParentHashes {
		fmt.Fprintf(&buf, "parent %s\n", p.String())
	}

	buf.WriteString("author ")
	c.Author.Encode(&buf)
	buf.WriteByte('\n')

	buf.WriteString("committer ")
	c.Committer.Encode(&buf)
	buf.WriteByte('\n')

	if c.PGPSignature != "" {
		buf.WriteString("gpgsig ")
		lines := strings.Split(strings.TrimSuffix(c.PGPSignature, "\n"), "\n")
		buf.WriteString(lines[0])
		buf.WriteByte('\n')
		for _, l := range lines[1:] {
			buf.WriteByte(' ')
			buf.WriteString(l)
			buf.WriteByte('\n')
		}
	}

	buf.WriteByte('\n')
	buf.WriteString(c.Message)

	o.SetSize(int64(buf.Len()))

	w, err := o.Writer()
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = io.Copy(w, &buf)
	return err
}

// String renders the commit the way `git log` formats a single entry.
func (c *Commit) String() string {
	return fmt.Sprintf(
		"commit %s\nAuthor: %s\nDate:   %s\n\n%s\n",
		c.Hash, c.Author.String(), c.Author.When.Format("Mon Jan 2 15:04:05 2006 -0700"),
		indentMessage(c.Message),
	)
}

func indentMessage(msg string) string {
	lines := strings.Split(strings.TrimRight(msg, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}

// CommitIter is a generic iterator of commits.
type CommitIter interface {
	Next() (*Commit, error)
	ForEach(func(*Commit) error) error
	Close()
}

type commitIter struct {
	storer.EncodedObjectIter
	s storer.EncodedObjectStorer
}

// NewCommitIter returns an iterator wrapping iter, decoding each object
// into a Commit as it is yielded.
func NewCommitIter(s storer.EncodedObjectStorer, iter storer.EncodedObjectIter) CommitIter {
	return &commitIter{iter, s}
}

func (it *commitIter) Next() (*Commit, error) {
	obj, err := it.EncodedObjectIter.Next()
	if err != nil {
		return nil, err
	}

	c := &Commit{s: it.s}
	return c, c.Decode(obj)
}

func (it *commitIter) ForEach(cb func(*Commit) error) error {
	return it.EncodedObjectIter.ForEach(func(obj plumbing.EncodedObject) error {
		c := &Commit{s: it.s}
		if err := c.Decode(obj); err != nil {
			return err
		}
		return cb(c)
	})
}
