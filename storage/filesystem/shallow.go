package filesystem

import (
	"bufio"
	"os"

	"github.com/go-git/go-billy/v5"

	"github.com/pygit-core/pygit/plumbing"
)

const shallowPath = "shallow"

// ShallowStorage implements storer.ShallowStorer against .git/shallow, one
// commit hash per line.
type ShallowStorage struct {
	fs billy.Filesystem
}

func (s *ShallowStorage) SetShallow(commits []plumbing.Hash) (err error) {
	if len(commits) == 0 {
		err := s.fs.Remove(shallowPath)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	f, err := s.fs.Create(shallowPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	for _, h := range commits {
		if _, err = f.Write([]byte(h.String() + "\n")); err != nil {
			return err
		}
	}

	return nil
}

func (s *ShallowStorage) Shallow() ([]plumbing.Hash, error) {
	f, err := s.fs.Open(shallowPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var commits []plumbing.Hash
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		commits = append(commits, plumbing.NewHash(line))
	}

	return commits, scanner.Err()
}
