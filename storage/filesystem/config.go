package filesystem

import (
	"io"
	"os"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/storage/filesystem/dotgit"
)

// ConfigStorage implements config.ConfigStorer against .git/config.
type ConfigStorage struct {
	dir *dotgit.DotGit
}

func (c *ConfigStorage) Config() (*config.Config, error) {
	f, err := c.dir.Config()
	if err != nil {
		if os.IsNotExist(err) || err == dotgit.ErrConfigNotFound {
			return config.NewConfig(), nil
		}
		return nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	if len(b) == 0 {
		return cfg, nil
	}

	if err := cfg.Unmarshal(b); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ConfigStorage) SetConfig(cfg *config.Config) (err error) {
	if err := cfg.Validate(); err != nil {
		return err
	}

	b, err := cfg.Marshal()
	if err != nil {
		return err
	}

	f, err := c.dir.ConfigWriter()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = f.Write(b)
	return err
}
