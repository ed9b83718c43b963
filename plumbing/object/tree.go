package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/filemode"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// TreeEntry is a single name/mode/hash tuple inside a Tree object body.
type TreeEntry struct {
	Name string
	Mode filemode.FileMode
	Hash plumbing.Hash
}

// Tree is a flat directory listing: a sorted set of TreeEntry, each
// naming either a blob (a file), another tree (a subdirectory), or a
// commit (a submodule gitlink).
type Tree struct {
	Entries []TreeEntry
	Hash    plumbing.Hash

	s storer.EncodedObjectStorer
	m map[string]*TreeEntry
}

// ID returns the tree's hash.
func (t *Tree) ID() plumbing.Hash { return t.Hash }

// Type always returns plumbing.TreeObject.
func (t *Tree) Type() plumbing.ObjectType { return plumbing.TreeObject }

// Decode parses o's content as a tree object body: a sequence of
// "<mode> <name>\0<20-byte-hash>" entries, with no separator between
// entries. o must be of type TreeObject.
func (t *Tree) Decode(o plumbing.EncodedObject) error {
	if o.Type() != plumbing.TreeObject {
		return ErrUnsupportedObject
	}

	t.Hash = o.Hash()

	r, err := o.Reader()
	if err != nil {
		return err
	}
	defer r.Close()

	br := bufio.NewReader(r)
	t.Entries = nil

	for {
		modeBytes, err := br.ReadString(' ')
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", plumbing.ErrInvalidType, err)
		}

		mode, err := filemode.New(strings.TrimSuffix(modeBytes, " "))
		if err != nil {
			return fmt.Errorf("malformed tree entry mode: %w", err)
		}

		name, err := br.ReadString(0)
		if err != nil {
			return fmt.Errorf("malformed tree entry name: %w", err)
		}
		name = strings.TrimSuffix(name, "\x00")

		var hash plumbing.Hash
		if _, err := io.ReadFull(br, hash[:]); err != nil {
			return fmt.Errorf("malformed tree entry hash: %w", err)
		}

		t.Entries = append(t.Entries, TreeEntry{Name: name, Mode: mode, Hash: hash})
	}

	return nil
}

// Encode writes the tree's entries, sorted per Git's tree-entry ordering
// (as if directory names ended in "/"), into o.
func (t *Tree) Encode(o plumbing.EncodedObject) error {
	o.SetType(plumbing.TreeObject)

	sorted := make([]TreeEntry, len(t.Entries))
	copy(sorted, t.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return treeEntryLess(sorted[i], sorted[j])
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		fmt.Fprintf(&buf, "%s %s", strconv.FormatUint(uint64(e.Mode), 8), e.Name)
		buf.WriteByte(0)
		buf.Write(e.Hash[:])
	}

	o.SetSize(int64(buf.Len()))

	w, err := o.Writer()
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = io.Copy(w, &buf)
	return err
}

// treeEntryLess orders two entries the way Git compares path components
// when writing a tree: a directory entry's name is compared as if
// suffixed with "/", so "foo" (a file) sorts before "foo.c" but "foo/"
// (a directory) sorts after it.
func treeEntryLess(a, b TreeEntry) bool {
	an, bn := a.Name, b.Name
	if a.Mode == filemode.Dir {
		an += "/"
	}
	if b.Mode == filemode.Dir {
		bn += "/"
	}
	return an < bn
}

func (t *Tree) buildMap() {
	if t.m != nil {
		return
	}

	t.m = make(map[string]*TreeEntry, len(t.Entries))
	for i := range t.Entries {
		t.m[t.Entries[i].Name] = &t.Entries[i]
	}
}

// entry returns the direct child entry named name.
func (t *Tree) entry(name string) (*TreeEntry, error) {
	t.buildMap()
	e, ok := t.m[name]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return e, nil
}

// subtree resolves the direct child entry named name as a Tree.
func (t *Tree) subtree(name string) (*Tree, error) {
	e, err := t.entry(name)
	if err != nil {
		return nil, err
	}

	if e.Mode != filemode.Dir {
		return nil, ErrEntryNotFound
	}

	return GetTree(t.s, e.Hash)
}

// Tree resolves a slash-separated relative path to a Tree.
func (t *Tree) Tree(relpath string) (*Tree, error) {
	e, err := t.FindEntry(relpath)
	if err != nil {
		return nil, err
	}

	if e.Mode != filemode.Dir {
		return nil, ErrEntryNotFound
	}

	return GetTree(t.s, e.Hash)
}

// File resolves a slash-separated relative path to a File (a blob entry).
func (t *Tree) File(relpath string) (*File, error) {
	e, err := t.FindEntry(relpath)
	if err != nil {
		return nil, err
	}

	if !e.Mode.IsFile() {
		return nil, ErrEntryNotFound
	}

	blob, err := GetBlob(t.s, e.Hash)
	if err != nil {
		return nil, err
	}

	return &File{Name: relpath, Mode: e.Mode, Blob: *blob}, nil
}

// FindEntry resolves a slash-separated relative path to its TreeEntry,
// descending through intermediate subtrees as needed.
func (t *Tree) FindEntry(relpath string) (*TreeEntry, error) {
	relpath = path.Clean(relpath)
	parts := strings.Split(relpath, "/")

	cur := t
	for i, name := range parts {
		e, err := cur.entry(name)
		if err != nil {
			return nil, err
		}

		if i == len(parts)-1 {
			return e, nil
		}

		cur, err = cur.subtree(name)
		if err != nil {
			return nil, err
		}
	}

	return nil, ErrEntryNotFound
}

// File is a named blob at a specific path within a Tree.
type File struct {
	Name string
	Mode filemode.FileMode
	Blob
}

// Reader returns a reader over the file's content.
func (f *File) Reader() (io.ReadCloser, error) {
	return f.Blob.Reader()
}

// Contents returns the file's entire content as a string.
func (f *File) Contents() (string, error) {
	r, err := f.Reader()
	if err != nil {
		return "", err
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// FileIter walks a tree recursively, yielding every entry that is a file
// (blob), skipping directories and submodule gitlinks.
type FileIter struct {
	s     storer.EncodedObjectStorer
	stack []*treeWalkFrame
}

type treeWalkFrame struct {
	t    *Tree
	pos  int
	base string
}

// Files returns an iterator over every regular file reachable from t,
// recursing into subdirectories in tree-entry order.
func (t *Tree) Files() *FileIter {
	return &FileIter{
		s:     t.s,
		stack: []*treeWalkFrame{{t: t, base: ""}},
	}
}

// Next returns the next File in depth-first, tree-entry order.
func (iter *FileIter) Next() (*File, error) {
	for {
		if len(iter.stack) == 0 {
			return nil, io.EOF
		}

		top := iter.stack[len(iter.stack)-1]
		if top.pos >= len(top.t.Entries) {
			iter.stack = iter.stack[:len(iter.stack)-1]
			continue
		}

		e := top.t.Entries[top.pos]
		top.pos++

		full := e.Name
		if top.base != "" {
			full = top.base + "/" + e.Name
		}

		switch {
		case e.Mode == filemode.Dir:
			sub, err := GetTree(iter.s, e.Hash)
			if err != nil {
				return nil, err
			}
			iter.stack = append(iter.stack, &treeWalkFrame{t: sub, base: full})
			continue
		case e.Mode.IsFile():
			blob, err := GetBlob(iter.s, e.Hash)
			if err != nil {
				return nil, err
			}
			return &File{Name: full, Mode: e.Mode, Blob: *blob}, nil
		default:
			continue
		}
	}
}

// ForEach calls cb for every File, stopping early (without error) if cb
// returns storer.ErrStop.
func (iter *FileIter) ForEach(cb func(*File) error) error {
	for {
		f, err := iter.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := cb(f); err != nil {
			if err == storer.ErrStop {
				return nil
			}
			return err
		}
	}
}

// Close releases the iterator's internal state.
func (iter *FileIter) Close() {
	iter.stack = nil
}
