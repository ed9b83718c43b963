// Package dotgit manages the on-disk layout of a .git directory: loose
// objects, pack files and their indexes, refs, packed-refs, and config.
// https://github.com/git/git/blob/master/Documentation/gitrepository-layout.txt
package dotgit

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/pygit-core/pygit/plumbing"
)

const (
	packedRefsPath = "packed-refs"
	configPath     = "config"
	headPath       = "HEAD"

	objectsPath = "objects"
	packPath    = "pack"
	refsPath    = "refs"

	packExt = ".pack"
	idxExt  = ".idx"
)

var (
	// ErrIdxNotFound is returned by ObjectPackIdx when the idx file is not found.
	ErrIdxNotFound = errors.New("idx file not found")
	// ErrPackfileNotFound is returned by ObjectPack when the packfile is not found.
	ErrPackfileNotFound = errors.New("packfile not found")
	// ErrConfigNotFound is returned by Config when the config file doesn't exist.
	ErrConfigNotFound = errors.New("config file not found")
)

// DotGit represents a .git directory on a billy.Filesystem. The zero value
// is not safe to use; construct one with New.
type DotGit struct {
	fs billy.Filesystem
}

// New returns a DotGit rooted at fs. fs is expected to already be chrooted
// to the .git directory (or to be the bare repository root).
func New(fs billy.Filesystem) *DotGit {
	return &DotGit{fs: fs}
}

// Initialize lays out a fresh .git directory: objects/, refs/heads,
// refs/tags, and an unborn HEAD pointing at refs/heads/master.
func (d *DotGit) Initialize() error {
	for _, p := range []string{
		d.fs.Join(objectsPath, packPath),
		d.fs.Join(refsPath, "heads"),
		d.fs.Join(refsPath, "tags"),
	} {
		if err := d.fs.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}

	if _, err := d.fs.Stat(headPath); err == nil {
		return nil
	}

	f, err := d.fs.Create(headPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write([]byte("ref: refs/heads/master\n"))
	return err
}

// ConfigWriter returns a writer truncating the config file.
func (d *DotGit) ConfigWriter() (billy.File, error) {
	return d.fs.Create(configPath)
}

// Config opens the config file for reading.
func (d *DotGit) Config() (billy.File, error) {
	f, err := d.fs.Open(configPath)
	if os.IsNotExist(err) {
		return nil, ErrConfigNotFound
	}
	return f, err
}

// Objects returns every loose object hash found under objects/.
func (d *DotGit) Objects() ([]plumbing.Hash, error) {
	entries, err := d.fs.ReadDir(objectsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var objects []plumbing.Hash
	for _, e := range entries {
		if !e.IsDir() || len(e.Name()) != 2 || !isHex(e.Name()) {
			continue
		}

		base := e.Name()
		inner, err := d.fs.ReadDir(d.fs.Join(objectsPath, base))
		if err != nil {
			return nil, err
		}

		for _, o := range inner {
			objects = append(objects, plumbing.NewHash(base+o.Name()))
		}
	}

	return objects, nil
}

// Object opens the loose object file for h, if present.
func (d *DotGit) Object(h plumbing.Hash) (billy.File, error) {
	hash := h.String()
	return d.fs.Open(d.fs.Join(objectsPath, hash[0:2], hash[2:40]))
}

// NewObject returns a writer for a new loose object: content is written to
// a temp file and renamed into place by hash once the writer is closed, so
// a reader never observes a partially-written object.
func (d *DotGit) NewObject() (*ObjectWriter, error) {
	return newObjectWriter(d.fs)
}

// NewObjectPack returns a writer for a new packfile: the raw bytes are
// streamed to a temp file, then parsed to build the matching .idx before
// both are renamed into objects/pack.
func (d *DotGit) NewObjectPack() (*PackWriter, error) {
	return newPackWriter(d.fs)
}

// ObjectPacks returns the checksum hash of every pack file present.
func (d *DotGit) ObjectPacks() ([]plumbing.Hash, error) {
	dir := d.fs.Join(objectsPath, packPath)
	entries, err := d.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var packs []plumbing.Hash
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, packExt) {
			continue
		}
		// pack-<hash>.pack
		packs = append(packs, plumbing.NewHash(name[5:len(name)-len(packExt)]))
	}

	return packs, nil
}

// ObjectPack opens the .pack file for the given checksum.
func (d *DotGit) ObjectPack(h plumbing.Hash) (billy.File, error) {
	f, err := d.fs.Open(d.packPath(h, packExt))
	if os.IsNotExist(err) {
		return nil, ErrPackfileNotFound
	}
	return f, err
}

// ObjectPackIdx opens the .idx file for the given checksum.
func (d *DotGit) ObjectPackIdx(h plumbing.Hash) (billy.File, error) {
	f, err := d.fs.Open(d.packPath(h, idxExt))
	if os.IsNotExist(err) {
		return nil, ErrIdxNotFound
	}
	return f, err
}

func (d *DotGit) packPath(h plumbing.Hash, ext string) string {
	return d.fs.Join(objectsPath, packPath, fmt.Sprintf("pack-%s%s", h, ext))
}

// IndexWriter returns a writer truncating the staging index file.
func (d *DotGit) IndexWriter() (billy.File, error) {
	return d.fs.Create("index")
}

// Index opens the staging index file for reading.
func (d *DotGit) Index() (billy.File, error) {
	return d.fs.Open("index")
}

func isHex(s string) bool {
	for _, b := range []byte(s) {
		switch {
		case b >= '0' && b <= '9':
		case b >= 'a' && b <= 'f':
		default:
			return false
		}
	}
	return true
}
