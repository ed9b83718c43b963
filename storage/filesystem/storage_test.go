package filesystem

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/suite"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/cache"
	"github.com/pygit-core/pygit/plumbing/format/index"
)

type StorageSuite struct {
	suite.Suite
	s *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.s = NewStorage(memfs.New(), cache.NewObjectLRUDefault())
	s.Require().NoError(s.s.Init())
}

func (s *StorageSuite) TestSetAndGetEncodedObject() {
	o := s.s.NewEncodedObject()
	o.SetType(plumbing.BlobObject)
	o.SetSize(5)
	w, err := o.Writer()
	s.Require().NoError(err)
	_, err = w.Write([]byte("hello"))
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	h, err := s.s.SetEncodedObject(o)
	s.Require().NoError(err)

	s.Require().NoError(s.s.HasEncodedObject(h))

	got, err := s.s.EncodedObject(plumbing.BlobObject, h)
	s.Require().NoError(err)
	s.Equal(h, got.Hash())
}

func (s *StorageSuite) TestEncodedObjectNotFound() {
	_, err := s.s.EncodedObject(plumbing.AnyObject, plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	s.ErrorIs(err, plumbing.ErrObjectNotFound)
}

func (s *StorageSuite) TestIterEncodedObjects() {
	o := s.s.NewEncodedObject()
	o.SetType(plumbing.BlobObject)
	o.SetSize(5)
	w, err := o.Writer()
	s.Require().NoError(err)
	_, err = w.Write([]byte("hello"))
	s.Require().NoError(err)
	s.Require().NoError(w.Close())
	h, err := s.s.SetEncodedObject(o)
	s.Require().NoError(err)

	iter, err := s.s.IterEncodedObjects(plumbing.BlobObject)
	s.Require().NoError(err)

	var found []plumbing.Hash
	s.Require().NoError(iter.ForEach(func(obj plumbing.EncodedObject) error {
		found = append(found, obj.Hash())
		return nil
	}))
	s.Contains(found, h)
}

func (s *StorageSuite) TestReferenceRoundTrip() {
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName("master"), plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	s.Require().NoError(s.s.SetReference(ref))

	got, err := s.s.Reference(plumbing.NewBranchReferenceName("master"))
	s.Require().NoError(err)
	s.Equal(ref.Hash(), got.Hash())
}

func (s *StorageSuite) TestIndexRoundTrip() {
	idx := &index.Index{Version: 2}
	idx.Add("a.txt")

	s.Require().NoError(s.s.SetIndex(idx))

	got, err := s.s.Index()
	s.Require().NoError(err)
	s.Require().Len(got.Entries, 1)
	s.Equal("a.txt", got.Entries[0].Name)
}

func (s *StorageSuite) TestShallowRoundTrip() {
	commits := []plumbing.Hash{plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}
	s.Require().NoError(s.s.SetShallow(commits))

	got, err := s.s.Shallow()
	s.Require().NoError(err)
	s.Equal(commits, got)
}

func (s *StorageSuite) TestConfigRoundTrip() {
	cfg, err := s.s.Config()
	s.Require().NoError(err)
	cfg.User.Name = "Jane Doe"
	s.Require().NoError(s.s.SetConfig(cfg))

	fresh := NewStorage(s.s.Filesystem(), cache.NewObjectLRUDefault())
	got, err := fresh.Config()
	s.Require().NoError(err)
	s.Equal("Jane Doe", got.User.Name)
}
