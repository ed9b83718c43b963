package dotgit

import (
	"io"
	"os"

	"github.com/pygit-core/pygit/storage"
)

// SetState writes content for key, creating the parent directory (for
// the rebase-merge/ subdirectory keys) if needed.
func (d *DotGit) SetState(key storage.StateKey, content []byte) error {
	path := string(key)
	if dir := d.fs.Join(path, ".."); dir != "." {
		if err := d.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := d.fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(content)
	return err
}

// State reads the content written for key, or storage.ErrStateNotFound
// if key has not been set.
func (d *DotGit) State(key storage.StateKey) ([]byte, error) {
	f, err := d.fs.Open(string(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrStateNotFound
		}
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// RemoveState deletes key. Removing a key that isn't set is not an
// error.
func (d *DotGit) RemoveState(key storage.StateKey) error {
	err := d.fs.Remove(string(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// HasState reports whether key is currently set.
func (d *DotGit) HasState(key storage.StateKey) (bool, error) {
	_, err := d.fs.Stat(string(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
