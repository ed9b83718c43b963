package config

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestNewConfigDefaults() {
	c := NewConfig()
	s.True(c.Core.FileMode)
	s.Equal(uint(10), c.Pack.Window)
	s.NotNil(c.Remotes)
	s.NotNil(c.Branches)
}

func (s *ConfigSuite) TestUnmarshalParsesRemoteAndBranch() {
	raw := `[core]
	bare = false
	filemode = true
[user]
	name = Jane Doe
	email = jane@example.com
[remote "origin"]
	url = https://example.com/repo.git
	fetch = +refs/heads/*:refs/remotes/origin/*
[branch "master"]
	remote = origin
	merge = refs/heads/master
`
	c := NewConfig()
	s.Require().NoError(c.Unmarshal([]byte(raw)))

	s.Equal("Jane Doe", c.User.Name)
	s.Equal("jane@example.com", c.User.Email)

	origin, ok := c.Remotes["origin"]
	s.Require().True(ok)
	s.Equal("origin", origin.Name)
	s.Equal("https://example.com/repo.git", origin.URL)
	s.Equal([]string{"+refs/heads/*:refs/remotes/origin/*"}, origin.Fetch)

	master, ok := c.Branches["master"]
	s.Require().True(ok)
	s.Equal("origin", master.Remote)
	s.Equal("refs/heads/master", master.Merge)
}

func (s *ConfigSuite) TestUnmarshalDefaultsMissingFetchRefSpec() {
	raw := `[remote "origin"]
	url = https://example.com/repo.git
`
	c := NewConfig()
	s.Require().NoError(c.Unmarshal([]byte(raw)))

	origin := c.Remotes["origin"]
	s.Equal([]string{"+refs/heads/*:refs/remotes/origin/*"}, origin.Fetch)
}

func (s *ConfigSuite) TestUnmarshalRejectsEmptyURL() {
	raw := `[remote "origin"]
	fetch = +refs/heads/*:refs/remotes/origin/*
`
	c := NewConfig()
	s.ErrorIs(c.Unmarshal([]byte(raw)), ErrRemoteConfigEmptyURL)
}

func (s *ConfigSuite) TestMarshalRoundTrip() {
	c := NewConfig()
	c.User.Name = "Jane Doe"
	c.Remotes["origin"] = &RemoteConfig{
		Name:  "origin",
		URL:   "https://example.com/repo.git",
		Fetch: []string{"+refs/heads/*:refs/remotes/origin/*"},
	}
	c.Branches["master"] = &BranchConfig{Name: "master", Remote: "origin", Merge: "refs/heads/master"}

	b, err := c.Marshal()
	s.Require().NoError(err)

	round := NewConfig()
	s.Require().NoError(round.Unmarshal(b))

	s.Equal("Jane Doe", round.User.Name)
	s.Equal("https://example.com/repo.git", round.Remotes["origin"].URL)
	s.Equal("origin", round.Branches["master"].Remote)
}

func (s *ConfigSuite) TestValidateRejectsEmptyRemoteName() {
	c := NewConfig()
	c.Remotes[""] = &RemoteConfig{URL: "https://example.com/repo.git"}
	s.ErrorIs(c.Validate(), ErrRemoteConfigEmptyName)
}
