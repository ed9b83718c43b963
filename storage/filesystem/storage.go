// Package filesystem implements storage.Storer on top of a billy.Filesystem
// laid out as a real .git directory, mirroring the on-disk object database,
// staging index, reference graph, and config that git itself reads and
// writes.
package filesystem

import (
	"github.com/go-git/go-billy/v5"

	"github.com/pygit-core/pygit/plumbing/cache"
	"github.com/pygit-core/pygit/storage"
	"github.com/pygit-core/pygit/storage/filesystem/dotgit"
)

// Storage is a storage.Storer backed by an on-disk .git directory.
type Storage struct {
	fs  billy.Filesystem
	dir *dotgit.DotGit

	ObjectStorage
	ReferenceStorage
	IndexStorage
	ShallowStorage
	ConfigStorage
	StateStorage
}

var _ storage.Storer = (*Storage)(nil)
var _ storage.Initializer = (*Storage)(nil)

// NewStorage returns a Storage rooted at fs, using c to cache decoded pack
// objects (a default-sized LRU is used if c is nil).
func NewStorage(fs billy.Filesystem, c cache.Object) *Storage {
	dir := dotgit.New(fs)

	return &Storage{
		fs:  fs,
		dir: dir,

		ObjectStorage:    *NewObjectStorage(dir, c),
		ReferenceStorage: ReferenceStorage{dir: dir},
		IndexStorage:     IndexStorage{dir: dir},
		ShallowStorage:   ShallowStorage{fs: fs},
		ConfigStorage:    ConfigStorage{dir: dir},
		StateStorage:     StateStorage{dir: dir},
	}
}

// Init creates the directory skeleton of a fresh .git directory.
func (s *Storage) Init() error {
	return s.dir.Initialize()
}

// Filesystem returns the underlying billy.Filesystem.
func (s *Storage) Filesystem() billy.Filesystem {
	return s.fs
}
