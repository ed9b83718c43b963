package filesystem

import (
	"github.com/pygit-core/pygit/storage"
	"github.com/pygit-core/pygit/storage/filesystem/dotgit"
)

// StateStorage implements storage.StateStorer directly against the
// .git directory, the way ReferenceStorage implements references.
type StateStorage struct {
	dir *dotgit.DotGit
}

func (s *StateStorage) SetState(key storage.StateKey, content []byte) error {
	return s.dir.SetState(key, content)
}

func (s *StateStorage) State(key storage.StateKey) ([]byte, error) {
	return s.dir.State(key)
}

func (s *StateStorage) RemoveState(key storage.StateKey) error {
	return s.dir.RemoveState(key)
}

func (s *StateStorage) HasState(key storage.StateKey) (bool, error) {
	return s.dir.HasState(key)
}
