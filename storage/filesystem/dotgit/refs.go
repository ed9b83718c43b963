package dotgit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/storage"
)

var (
	// ErrPackedRefsBadFormat is returned when a packed-refs line doesn't
	// parse as "<hash> <ref>".
	ErrPackedRefsBadFormat = errors.New("malformed packed-refs line")
	// ErrEmptyRefFile is returned when a loose ref file exists but is
	// empty, which CheckAndSetReference treats as "nothing to compare".
	ErrEmptyRefFile = errors.New("ref file is empty")
)

// Refs walks packed-refs and the refs/ tree (plus HEAD) and returns every
// reference found. Loose refs take precedence over a packed-refs entry of
// the same name, matching git's own read order.
func (d *DotGit) Refs() ([]*plumbing.Reference, error) {
	seen := make(map[plumbing.ReferenceName]bool)
	var refs []*plumbing.Reference

	if err := d.addRefsFromRefDir(&refs, seen); err != nil {
		return nil, err
	}
	if err := d.addRefsFromPackedRefs(&refs, seen); err != nil {
		return nil, err
	}
	if err := d.addRefFromHEAD(&refs, seen); err != nil {
		return nil, err
	}

	return refs, nil
}

// Ref looks up a single reference by name, checking loose refs first, then
// falling back to packed-refs.
func (d *DotGit) Ref(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	ref, err := d.readReferenceFile(n.String())
	if err == nil {
		return ref, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	refs, err := d.findPackedRefs()
	if err != nil {
		return nil, err
	}
	for _, r := range refs {
		if r.Name() == n {
			return r, nil
		}
	}

	return nil, plumbing.ErrReferenceNotFound
}

// SetRef writes r unconditionally (old == nil) or performs a
// compare-and-swap against old, returning storage.ErrReferenceHasChanged
// if the stored value has since diverged.
func (d *DotGit) SetRef(r, old *plumbing.Reference) error {
	content := r.String() + "\n"
	fileName := r.Name().String()

	if err := d.fs.MkdirAll(d.fs.Join(fileName, ".."), 0o755); err != nil {
		return err
	}

	mode := os.O_RDWR | os.O_CREATE
	if old == nil {
		mode |= os.O_TRUNC
	}

	f, err := d.fs.OpenFile(fileName, mode, 0o666)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Lock(); err != nil {
		return err
	}

	if old != nil {
		cur, err := d.readReferenceFrom(f, fileName)
		if err != nil && err != ErrEmptyRefFile {
			return err
		}
		if err == nil && cur.Hash() != old.Hash() {
			return storage.ErrReferenceHasChanged
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := f.Truncate(0); err != nil {
			return err
		}
	}

	_, err = f.Write([]byte(content))
	return err
}

// RemoveRef deletes a loose ref file. It is not an error if the ref only
// exists in packed-refs or doesn't exist at all; packed-refs is read-only
// here (never rewritten), matching this core's scope.
func (d *DotGit) RemoveRef(n plumbing.ReferenceName) error {
	err := d.fs.Remove(n.String())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (d *DotGit) addRefsFromPackedRefs(refs *[]*plumbing.Reference, seen map[plumbing.ReferenceName]bool) error {
	packed, err := d.findPackedRefs()
	if err != nil {
		return err
	}

	for _, r := range packed {
		if seen[r.Name()] {
			continue
		}
		seen[r.Name()] = true
		*refs = append(*refs, r)
	}

	return nil
}

func (d *DotGit) findPackedRefs() ([]*plumbing.Reference, error) {
	f, err := d.fs.Open(packedRefsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var refs []*plumbing.Reference
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := s.Text()
		if line == "" {
			continue
		}

		switch line[0] {
		case '#':
			continue
		case '^':
			// peeled annotated-tag commit hash for the previous line; not
			// needed to resolve the ref itself.
			continue
		}

		ref, err := parsePackedRefsLine(line)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	return refs, s.Err()
}

func parsePackedRefsLine(line string) (*plumbing.Reference, error) {
	ws := strings.SplitN(line, " ", 2)
	if len(ws) != 2 {
		return nil, ErrPackedRefsBadFormat
	}
	return plumbing.NewHashReference(plumbing.ReferenceName(ws[1]), plumbing.NewHash(ws[0])), nil
}

func (d *DotGit) addRefsFromRefDir(refs *[]*plumbing.Reference, seen map[plumbing.ReferenceName]bool) error {
	return d.walkReferencesTree(refs, seen, refsPath)
}

func (d *DotGit) walkReferencesTree(refs *[]*plumbing.Reference, seen map[plumbing.ReferenceName]bool, relPath string) error {
	entries, err := d.fs.ReadDir(relPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		newPath := d.fs.Join(relPath, e.Name())
		if e.IsDir() {
			if err := d.walkReferencesTree(refs, seen, newPath); err != nil {
				return err
			}
			continue
		}

		ref, err := d.readReferenceFile(newPath)
		if err != nil {
			return err
		}
		if ref != nil {
			seen[ref.Name()] = true
			*refs = append(*refs, ref)
		}
	}

	return nil
}

func (d *DotGit) addRefFromHEAD(refs *[]*plumbing.Reference, seen map[plumbing.ReferenceName]bool) error {
	ref, err := d.readReferenceFile(headPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if ref != nil && !seen[ref.Name()] {
		seen[ref.Name()] = true
		*refs = append(*refs, ref)
	}
	return nil
}

func (d *DotGit) readReferenceFile(path string) (*plumbing.Reference, error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return d.readReferenceFrom(f, path)
}

func (d *DotGit) readReferenceFrom(r io.Reader, name string) (*plumbing.Reference, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	line := strings.TrimSpace(string(b))
	if line == "" {
		return nil, ErrEmptyRefFile
	}

	if strings.HasPrefix(line, "ref: ") {
		target := plumbing.ReferenceName(strings.TrimPrefix(line, "ref: "))
		return plumbing.NewSymbolicReference(plumbing.ReferenceName(name), target), nil
	}

	if !plumbing.IsHash(line) {
		return nil, fmt.Errorf("%s: %w", name, ErrPackedRefsBadFormat)
	}

	return plumbing.NewHashReference(plumbing.ReferenceName(name), plumbing.NewHash(line)), nil
}
