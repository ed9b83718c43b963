// Package memory implements an ephemeral, in-memory storage.Storer.
package memory

import (
	"fmt"

	"github.com/pygit-core/pygit/config"
	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/format/index"
	"github.com/pygit-core/pygit/plumbing/format/reflog"
	"github.com/pygit-core/pygit/plumbing/storer"
	"github.com/pygit-core/pygit/storage"
)

// ErrUnsupportedObjectType is returned by SetEncodedObject for an object
// type outside the four base git object types.
var ErrUnsupportedObjectType = fmt.Errorf("unsupported object type")

// Storage is a storage.Storer that keeps everything in memory. Useful for
// tests, and for repositories that are built up and thrown away (in-memory
// clones, scratch merges) without ever touching disk.
type Storage struct {
	ConfigStorage
	ObjectStorage
	ShallowStorage
	IndexStorage
	ReferenceStorage
	ReflogStorage
	StateStorage
}

// NewStorage returns an empty in-memory Storage.
func NewStorage() *Storage {
	return &Storage{
		ReferenceStorage: make(ReferenceStorage),
		ReflogStorage:    make(ReflogStorage),
		StateStorage:     StateStorage{data: make(map[storage.StateKey][]byte)},
		ObjectStorage: ObjectStorage{
			Objects: make(map[plumbing.Hash]plumbing.EncodedObject),
			Commits: make(map[plumbing.Hash]plumbing.EncodedObject),
			Trees:   make(map[plumbing.Hash]plumbing.EncodedObject),
			Blobs:   make(map[plumbing.Hash]plumbing.EncodedObject),
			Tags:    make(map[plumbing.Hash]plumbing.EncodedObject),
		},
	}
}

var _ storage.Storer = (*Storage)(nil)

// ConfigStorage implements config.ConfigStorer.
type ConfigStorage struct {
	config *config.Config
}

func (c *ConfigStorage) SetConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.config = cfg
	return nil
}

func (c *ConfigStorage) Config() (*config.Config, error) {
	if c.config == nil {
		c.config = config.NewConfig()
	}
	return c.config, nil
}

// IndexStorage implements storer.IndexStorer.
type IndexStorage struct {
	index *index.Index
}

func (s *IndexStorage) SetIndex(idx *index.Index) error {
	s.index = idx
	return nil
}

func (s *IndexStorage) Index() (*index.Index, error) {
	if s.index == nil {
		s.index = &index.Index{Version: 2}
	}
	return s.index, nil
}

// ObjectStorage implements storer.EncodedObjectStorer, keeping a type-split
// index alongside the flat Objects map so IterEncodedObjects doesn't have
// to scan-and-filter on every call.
type ObjectStorage struct {
	Objects map[plumbing.Hash]plumbing.EncodedObject
	Commits map[plumbing.Hash]plumbing.EncodedObject
	Trees   map[plumbing.Hash]plumbing.EncodedObject
	Blobs   map[plumbing.Hash]plumbing.EncodedObject
	Tags    map[plumbing.Hash]plumbing.EncodedObject
}

func (o *ObjectStorage) NewEncodedObject() plumbing.EncodedObject {
	return plumbing.NewMemoryObject()
}

func (o *ObjectStorage) SetEncodedObject(obj plumbing.EncodedObject) (plumbing.Hash, error) {
	h := obj.Hash()
	o.Objects[h] = obj

	switch obj.Type() {
	case plumbing.CommitObject:
		o.Commits[h] = obj
	case plumbing.TreeObject:
		o.Trees[h] = obj
	case plumbing.BlobObject:
		o.Blobs[h] = obj
	case plumbing.TagObject:
		o.Tags[h] = obj
	default:
		return h, ErrUnsupportedObjectType
	}

	return h, nil
}

func (o *ObjectStorage) HasEncodedObject(h plumbing.Hash) error {
	if _, ok := o.Objects[h]; !ok {
		return plumbing.ErrObjectNotFound
	}
	return nil
}

func (o *ObjectStorage) EncodedObjectSize(h plumbing.Hash) (int64, error) {
	obj, ok := o.Objects[h]
	if !ok {
		return 0, plumbing.ErrObjectNotFound
	}
	return obj.Size(), nil
}

func (o *ObjectStorage) EncodedObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	obj, ok := o.Objects[h]
	if !ok || (t != plumbing.AnyObject && obj.Type() != t) {
		return nil, plumbing.ErrObjectNotFound
	}
	return obj, nil
}

func (o *ObjectStorage) IterEncodedObjects(t plumbing.ObjectType) (storer.EncodedObjectIter, error) {
	var series []plumbing.EncodedObject
	switch t {
	case plumbing.AnyObject:
		series = flatten(o.Objects)
	case plumbing.CommitObject:
		series = flatten(o.Commits)
	case plumbing.TreeObject:
		series = flatten(o.Trees)
	case plumbing.BlobObject:
		series = flatten(o.Blobs)
	case plumbing.TagObject:
		series = flatten(o.Tags)
	}

	return storer.NewEncodedObjectSliceIter(series), nil
}

func flatten(m map[plumbing.Hash]plumbing.EncodedObject) []plumbing.EncodedObject {
	objects := make([]plumbing.EncodedObject, 0, len(m))
	for _, obj := range m {
		objects = append(objects, obj)
	}
	return objects
}

// ShallowStorage implements storer.ShallowStorer.
type ShallowStorage []plumbing.Hash

func (s *ShallowStorage) SetShallow(commits []plumbing.Hash) error {
	*s = commits
	return nil
}

func (s ShallowStorage) Shallow() ([]plumbing.Hash, error) {
	return s, nil
}

// ReferenceStorage implements storer.ReferenceStorer over a plain map: no
// reflog, no packed-refs split, since there's no disk to pack refs onto.
type ReferenceStorage map[plumbing.ReferenceName]*plumbing.Reference

func (r ReferenceStorage) SetReference(ref *plumbing.Reference) error {
	if ref != nil {
		r[ref.Name()] = ref
	}
	return nil
}

func (r ReferenceStorage) CheckAndSetReference(ref, old *plumbing.Reference) error {
	if ref == nil {
		return nil
	}

	if old != nil {
		cur := r[ref.Name()]
		if cur != nil && cur.Hash() != old.Hash() {
			return storage.ErrReferenceHasChanged
		}
	}

	r[ref.Name()] = ref
	return nil
}

func (r ReferenceStorage) Reference(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	ref, ok := r[n]
	if !ok {
		return nil, plumbing.ErrReferenceNotFound
	}
	return ref, nil
}

func (r ReferenceStorage) IterReferences() (storer.ReferenceIter, error) {
	refs := make([]*plumbing.Reference, 0, len(r))
	for _, ref := range r {
		refs = append(refs, ref)
	}
	return storer.NewReferenceSliceIter(refs), nil
}

func (r ReferenceStorage) CountLooseRefs() (int, error) {
	return len(r), nil
}

func (r ReferenceStorage) PackRefs() error {
	return nil
}

func (r ReferenceStorage) RemoveReference(n plumbing.ReferenceName) error {
	delete(r, n)
	return nil
}

// ReflogStorage implements storer.ReflogStorer over a plain map, one
// append-only slice of entries per reference name.
type ReflogStorage map[plumbing.ReferenceName][]reflog.Entry

func (r ReflogStorage) AppendReflog(name plumbing.ReferenceName, entry reflog.Entry) error {
	r[name] = append(r[name], entry)
	return nil
}

func (r ReflogStorage) Reflog(name plumbing.ReferenceName) ([]reflog.Entry, error) {
	return r[name], nil
}

// StateStorage implements storage.StateStorer over a plain map; there
// is no .git directory to write ORIG_HEAD/MERGE_HEAD/rebase-merge/...
// into, so the state simply lives for as long as the Storage does.
type StateStorage struct {
	data map[storage.StateKey][]byte
}

func (s *StateStorage) SetState(key storage.StateKey, content []byte) error {
	if s.data == nil {
		s.data = make(map[storage.StateKey][]byte)
	}
	s.data[key] = content
	return nil
}

func (s *StateStorage) State(key storage.StateKey) ([]byte, error) {
	v, ok := s.data[key]
	if !ok {
		return nil, storage.ErrStateNotFound
	}
	return v, nil
}

func (s *StateStorage) RemoveState(key storage.StateKey) error {
	delete(s.data, key)
	return nil
}

func (s *StateStorage) HasState(key storage.StateKey) (bool, error) {
	_, ok := s.data[key]
	return ok, nil
}
