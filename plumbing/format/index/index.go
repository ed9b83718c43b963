// Package index implements the DIRC (staging index) file format: the
// list of entries currently tracked between HEAD and the working tree.
//
// Only the version 2 base entry format is supported; index extensions
// (cache-tree, resolve-undo, split-index, untracked-cache, fsmonitor,
// the entry offset table, and anything else introduced after version 2)
// are skipped on read and never written, matching an index produced by
// plain `git add`/`git commit` activity without those optional caches.
package index

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/filemode"
)

var (
	// ErrUnsupportedVersion is returned by Decode when the index version
	// is not supported.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrEntryNotFound is returned by Index.Entry when no entry matches
	// the given path.
	ErrEntryNotFound = errors.New("entry not found")

	indexSignature = []byte{'D', 'I', 'R', 'C'}
)

// Stage identifies which side of a conflict an Entry represents during a
// merge. Merged (0 on disk) is the ordinary, fully-resolved state.
type Stage int

const (
	// Merged is the default stage: the path is fully merged.
	Merged Stage = 0
	// AncestorMode is the common-ancestor side of a conflict.
	AncestorMode Stage = 1
	// OurMode is "our" side of a conflict.
	OurMode Stage = 2
	// TheirMode is "their" side of a conflict.
	TheirMode Stage = 3
)

// Index is the staging area: every tracked path's last-known blob hash
// and working-tree stat signature, used to detect modifications without
// re-hashing every file.
type Index struct {
	// Version is the on-disk index format version (always 2 when
	// written by this package; 2-4 accepted in the header on read, but
	// version 4 entries are rejected because path compression is not
	// supported).
	Version uint32
	// Entries is the set of tracked paths. Order is not guaranteed after
	// mutation via Add/Remove; callers that need path order should sort
	// before encoding (Encode does this itself).
	Entries []*Entry
}

// Add appends a new, empty Entry for path and returns it for the caller
// to populate. Callers must ensure no other entry already exists at the
// same path and stage.
func (i *Index) Add(path string) *Entry {
	e := &Entry{Name: filepath.ToSlash(path)}
	i.Entries = append(i.Entries, e)
	return e
}

// Entry returns the stage-0 entry at path, if any.
func (i *Index) Entry(path string) (*Entry, error) {
	path = filepath.ToSlash(path)
	for _, e := range i.Entries {
		if e.Name == path && e.Stage == Merged {
			return e, nil
		}
	}
	return nil, ErrEntryNotFound
}

// EntryAtStage returns the entry at path for a specific conflict stage.
func (i *Index) EntryAtStage(path string, stage Stage) (*Entry, error) {
	path = filepath.ToSlash(path)
	for _, e := range i.Entries {
		if e.Name == path && e.Stage == stage {
			return e, nil
		}
	}
	return nil, ErrEntryNotFound
}

// Remove deletes the stage-0 entry at path and returns it.
func (i *Index) Remove(path string) (*Entry, error) {
	path = filepath.ToSlash(path)
	for idx, e := range i.Entries {
		if e.Name == path && e.Stage == Merged {
			i.Entries = append(i.Entries[:idx], i.Entries[idx+1:]...)
			return e, nil
		}
	}
	return nil, ErrEntryNotFound
}

// Glob returns every entry whose name matches pattern, using
// filepath.Match semantics against the slash-separated name.
func (i *Index) Glob(pattern string) ([]*Entry, error) {
	pattern = filepath.ToSlash(pattern)

	var matches []*Entry
	for _, e := range i.Entries {
		m, err := filepath.Match(pattern, e.Name)
		if err != nil {
			return nil, err
		}
		if m {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// String renders the index the way `git ls-files --stage --debug` does.
func (i *Index) String() string {
	var buf bytes.Buffer
	for _, e := range i.Entries {
		buf.WriteString(e.String())
	}
	return buf.String()
}

// Entry is a single tracked path at a specific merge stage. An unmerged
// path has up to three Entry values (AncestorMode/OurMode/TheirMode)
// instead of one at Merged.
type Entry struct {
	// Hash is the blob object this entry's content was last recorded as.
	Hash plumbing.Hash
	// Name is the path, relative to the worktree root, with '/'
	// separators regardless of OS.
	Name string
	// CreatedAt and ModifiedAt are the ctime/mtime stat fields sampled
	// when this entry was last written, at nanosecond resolution.
	CreatedAt  time.Time
	ModifiedAt time.Time
	// Dev and Inode identify the filesystem entry the stat cache refers
	// to (0 on platforms without a meaningful dev/inode pair).
	Dev, Inode uint32
	// Mode is the tracked file's mode (only Regular/Executable/Symlink/
	// Submodule are ever valid here; directories never appear in the
	// index).
	Mode filemode.FileMode
	// UID and GID are the owning user/group ids from the last stat.
	UID, GID uint32
	// Size is the file's length in bytes as of the last stat.
	Size uint32
	// Stage marks which side of a conflict this entry represents.
	Stage Stage
	// SkipWorktree marks a sparse-checkout-excluded path.
	SkipWorktree bool
	// IntentToAdd marks a path staged with `git add -N`: tracked, but
	// with no real content recorded yet.
	IntentToAdd bool
}

// String renders the entry the way `git ls-files --stage --debug` does.
func (e Entry) String() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%06o %s %d\t%s\n", uint32(e.Mode), e.Hash, e.Stage, e.Name)
	fmt.Fprintf(&buf, "  ctime: %d:%d\n", e.CreatedAt.Unix(), e.CreatedAt.Nanosecond())
	fmt.Fprintf(&buf, "  mtime: %d:%d\n", e.ModifiedAt.Unix(), e.ModifiedAt.Nanosecond())
	fmt.Fprintf(&buf, "  dev: %d\tino: %d\n", e.Dev, e.Inode)
	fmt.Fprintf(&buf, "  uid: %d\tgid: %d\n", e.UID, e.GID)
	fmt.Fprintf(&buf, "  size: %d\n", e.Size)

	return buf.String()
}

// Modified reports whether size and modTime differ from the entry's
// recorded stat cache, meaning the file must be re-read and re-hashed
// rather than trusted as unchanged.
func (e *Entry) Modified(size int64, modTime time.Time) bool {
	return int64(e.Size) != size || !e.ModifiedAt.Equal(modTime)
}
