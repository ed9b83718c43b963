// Package config holds the parsed form of a repository's .git/config file.
package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/gcfg"
)

// ConfigStorer is implemented by storage backends that persist a Config.
type ConfigStorer interface {
	Config() (*Config, error)
	SetConfig(*Config) error
}

var (
	ErrInvalid             = errors.New("config invalid key in remote or branch")
	ErrRemoteConfigNotFound = errors.New("remote config not found")
	ErrRemoteConfigEmptyURL = errors.New("remote config: empty URL")
	ErrRemoteConfigEmptyName = errors.New("remote config: empty name")
)

// DefaultFetchRefSpec and DefaultPushRefSpec are the refspecs assumed for a
// remote that doesn't define its own.
const (
	DefaultFetchRefSpec = "+refs/heads/*:refs/remotes/%s/*"
	DefaultPushRefSpec  = "refs/heads/*:refs/heads/*"
)

// Config is the parsed representation of .git/config, laid out the way
// gcfg's reflection-based decoder expects: one exported struct field per
// section, tagged implicitly by field name, with `map[string]*T` fields
// for subsectioned sections like remote.<name> and branch.<name>.
type Config struct {
	Core struct {
		IsBare   bool
		Worktree string
		FileMode bool `gcfg:"filemode"`
	}
	User struct {
		Name  string
		Email string
	}
	Init struct {
		DefaultBranch string `gcfg:"defaultbranch"`
	}
	Pack struct {
		Window uint
	}
	Remotes  map[string]*RemoteConfig  `gcfg:"remote"`
	Branches map[string]*BranchConfig  `gcfg:"branch"`
}

// NewConfig returns a Config with Git's own defaults.
func NewConfig() *Config {
	c := &Config{}
	c.Core.FileMode = true
	c.Pack.Window = 10
	c.Remotes = make(map[string]*RemoteConfig)
	c.Branches = make(map[string]*BranchConfig)
	return c
}

// Unmarshal parses the raw bytes of a git-config file, in gcfg's ini
// dialect (section headers, optionally subsectioned: `[remote "origin"]`),
// and populates c.
func (c *Config) Unmarshal(b []byte) error {
	c.Remotes = make(map[string]*RemoteConfig)
	c.Branches = make(map[string]*BranchConfig)

	if err := gcfg.FatalOnly(gcfg.ReadStringInto(c, string(b))); err != nil {
		return err
	}

	for name, r := range c.Remotes {
		r.Name = name
		if len(r.Fetch) == 0 {
			r.Fetch = []string{fmt.Sprintf(DefaultFetchRefSpec, name)}
		}
	}
	for name, b := range c.Branches {
		b.Name = name
	}

	return c.Validate()
}

// Marshal renders c back into git-config ini form.
//
// gcfg only decodes; it does not provide a writer. The round trip is
// handled here by hand, one section at a time, matching the shape gcfg's
// decoder expects to read back.
func (c *Config) Marshal() ([]byte, error) {
	var buf []byte
	appendf := func(format string, args ...interface{}) {
		buf = append(buf, []byte(fmt.Sprintf(format, args...))...)
	}

	appendf("[core]\n")
	appendf("\tbare = %t\n", c.Core.IsBare)
	if c.Core.Worktree != "" {
		appendf("\tworktree = %s\n", c.Core.Worktree)
	}
	appendf("\tfilemode = %t\n", c.Core.FileMode)

	if c.User.Name != "" || c.User.Email != "" {
		appendf("[user]\n")
		if c.User.Name != "" {
			appendf("\tname = %s\n", c.User.Name)
		}
		if c.User.Email != "" {
			appendf("\temail = %s\n", c.User.Email)
		}
	}

	if c.Init.DefaultBranch != "" {
		appendf("[init]\n\tdefaultbranch = %s\n", c.Init.DefaultBranch)
	}

	if c.Pack.Window != 10 {
		appendf("[pack]\n\twindow = %d\n", c.Pack.Window)
	}

	for _, name := range sortedRemoteNames(c.Remotes) {
		r := c.Remotes[name]
		appendf("[remote %q]\n", name)
		appendf("\turl = %s\n", r.URL)
		for _, f := range r.Fetch {
			appendf("\tfetch = %s\n", f)
		}
	}

	for _, name := range sortedBranchNames(c.Branches) {
		b := c.Branches[name]
		appendf("[branch %q]\n", name)
		if b.Remote != "" {
			appendf("\tremote = %s\n", b.Remote)
		}
		if b.Merge != "" {
			appendf("\tmerge = %s\n", b.Merge)
		}
	}

	return buf, nil
}

// Validate checks that every remote section has a non-empty name and URL.
// Branch sections are not checked.
func (c *Config) Validate() error {
	for name, r := range c.Remotes {
		if name == "" {
			return ErrRemoteConfigEmptyName
		}
		if r.URL == "" {
			return ErrRemoteConfigEmptyURL
		}
	}
	return nil
}

// RemoteConfig holds one [remote "<name>"] section.
type RemoteConfig struct {
	Name  string   `gcfg:"-"`
	URL   string   `gcfg:"url"`
	Fetch []string `gcfg:"fetch"`
}

// BranchConfig holds one [branch "<name>"] section.
type BranchConfig struct {
	Name   string `gcfg:"-"`
	Remote string `gcfg:"remote"`
	Merge  string `gcfg:"merge"`
}

func sortedRemoteNames(m map[string]*RemoteConfig) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedBranchNames(m map[string]*BranchConfig) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
