package filesystem

import (
	"os"

	"github.com/pygit-core/pygit/plumbing/format/index"
	"github.com/pygit-core/pygit/storage/filesystem/dotgit"
)

// IndexStorage implements storer.IndexStorer against .git/index.
type IndexStorage struct {
	dir *dotgit.DotGit
}

func (s *IndexStorage) SetIndex(idx *index.Index) (err error) {
	f, err := s.dir.IndexWriter()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return index.NewEncoder(f).Encode(idx)
}

func (s *IndexStorage) Index() (*index.Index, error) {
	idx := &index.Index{Version: 2}

	f, err := s.dir.Index()
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer f.Close()

	err = index.NewDecoder(f).Decode(idx)
	return idx, err
}
