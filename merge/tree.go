package merge

import (
	"io"
	"sort"
	"strings"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/filemode"
	"github.com/pygit-core/pygit/plumbing/object"
	"github.com/pygit-core/pygit/plumbing/storer"
)

// MergeTrees walks base, ours, and theirs entry by entry (recursing into
// shared subdirectories) and produces the merged tree: a path added or
// modified on only one side is taken as-is; a path modified differently
// on both sides is three-way merged as text (non-blob or binary-looking
// changes that disagree are reported as a Conflict and resolved by
// preferring ours, the same default `git merge` uses for unmergeable
// content after recording the conflict).
func MergeTrees(s storer.EncodedObjectStorer, base, ours, theirs *object.Tree, oursLabel, theirsLabel string) (*object.Tree, []Conflict, error) {
	names := unionNames(base, ours, theirs)

	var entries []object.TreeEntry
	var conflicts []Conflict

	for _, name := range names {
		be, bok := lookup(base, name)
		oe, ook := lookup(ours, name)
		te, tok := lookup(theirs, name)

		switch {
		case !ook && !tok:
			// deleted on both sides (or never existed on either) — drop it.
			continue

		case ook && !tok && bok && oe.Hash == be.Hash:
			// only theirs deleted it, ours left it unchanged — honor the deletion.
			continue

		case tok && !ook && bok && te.Hash == be.Hash:
			// only ours deleted it, theirs left it unchanged — honor the deletion.
			continue

		case !ook && tok:
			entries = append(entries, *te)
			continue

		case ook && !tok:
			entries = append(entries, *oe)
			continue

		case oe.Hash == te.Hash:
			entries = append(entries, *oe)
			continue

		case bok && oe.Hash == be.Hash:
			// unchanged on ours, changed on theirs.
			entries = append(entries, *te)
			continue

		case bok && te.Hash == be.Hash:
			// unchanged on theirs, changed on ours.
			entries = append(entries, *oe)
			continue
		}

		// Both sides changed this path differently: recurse if it's a
		// directory on both, otherwise three-way merge as text.
		if oe.Mode == filemode.Dir && te.Mode == filemode.Dir {
			baseSub, err := subtreeOrEmpty(s, base, name)
			if err != nil {
				return nil, nil, err
			}
			oursSub, err := object.GetTree(s, oe.Hash)
			if err != nil {
				return nil, nil, err
			}
			theirsSub, err := object.GetTree(s, te.Hash)
			if err != nil {
				return nil, nil, err
			}

			merged, subConflicts, err := MergeTrees(s, baseSub, oursSub, theirsSub, oursLabel, theirsLabel)
			if err != nil {
				return nil, nil, err
			}

			h, err := writeTree(s, merged)
			if err != nil {
				return nil, nil, err
			}

			for _, c := range subConflicts {
				conflicts = append(conflicts, Conflict{Path: name + "/" + c.Path})
			}
			entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: h})
			continue
		}

		if oe.Mode != te.Mode || oe.Mode == filemode.Dir || te.Mode == filemode.Dir {
			// a file/dir or mode-incompatible change disagree outright:
			// record the conflict and keep ours, as git does for
			// unmergeable content.
			conflicts = append(conflicts, Conflict{Path: name})
			entries = append(entries, *oe)
			continue
		}

		baseContent, err := blobContent(s, be, bok)
		if err != nil {
			return nil, nil, err
		}
		oursContent, err := blobContent(s, oe, true)
		if err != nil {
			return nil, nil, err
		}
		theirsContent, err := blobContent(s, te, true)
		if err != nil {
			return nil, nil, err
		}

		if strings.IndexByte(baseContent, 0) >= 0 || strings.IndexByte(oursContent, 0) >= 0 || strings.IndexByte(theirsContent, 0) >= 0 {
			// binary content (a NUL byte on any side) is not merged line
			// by line: record the conflict and keep ours.
			conflicts = append(conflicts, Conflict{Path: name})
			entries = append(entries, *oe)
			continue
		}

		merged, conflicted, err := ThreeWayMerge(baseContent, oursContent, theirsContent, oursLabel, theirsLabel)
		if err != nil {
			return nil, nil, err
		}
		if conflicted {
			conflicts = append(conflicts, Conflict{Path: name})
		}

		h, err := writeBlob(s, merged)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: oe.Mode, Hash: h})
	}

	return &object.Tree{Entries: entries}, conflicts, nil
}

func unionNames(trees ...*object.Tree) []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range trees {
		if t == nil {
			continue
		}
		for _, e := range t.Entries {
			if !seen[e.Name] {
				seen[e.Name] = true
				names = append(names, e.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func lookup(t *object.Tree, name string) (*object.TreeEntry, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.Entries {
		if t.Entries[i].Name == name {
			return &t.Entries[i], true
		}
	}
	return nil, false
}

func subtreeOrEmpty(s storer.EncodedObjectStorer, base *object.Tree, name string) (*object.Tree, error) {
	e, ok := lookup(base, name)
	if !ok || e.Mode != filemode.Dir {
		return &object.Tree{}, nil
	}
	return object.GetTree(s, e.Hash)
}

func blobContent(s storer.EncodedObjectStorer, e *object.TreeEntry, ok bool) (string, error) {
	if !ok {
		return "", nil
	}
	b, err := object.GetBlob(s, e.Hash)
	if err != nil {
		return "", err
	}
	r, err := b.Reader()
	if err != nil {
		return "", err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeBlob(s storer.EncodedObjectStorer, content string) (plumbing.Hash, error) {
	o := s.NewEncodedObject()
	o.SetType(plumbing.BlobObject)
	o.SetSize(int64(len(content)))

	w, err := o.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write([]byte(content)); err != nil {
		w.Close()
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}

	return s.SetEncodedObject(o)
}

func writeTree(s storer.EncodedObjectStorer, t *object.Tree) (plumbing.Hash, error) {
	o := s.NewEncodedObject()
	if err := t.Encode(o); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(o)
}
