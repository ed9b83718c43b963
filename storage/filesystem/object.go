package filesystem

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/cache"
	"github.com/pygit-core/pygit/plumbing/format/idxfile"
	"github.com/pygit-core/pygit/plumbing/format/objfile"
	"github.com/pygit-core/pygit/plumbing/format/packfile"
	"github.com/pygit-core/pygit/plumbing/storer"
	"github.com/pygit-core/pygit/storage/filesystem/dotgit"
)

// ObjectStorage implements storer.EncodedObjectStorer against a .git
// directory: new objects are always written loose; lookups check loose
// storage first, then fall back to scanning every on-disk pack's index.
type ObjectStorage struct {
	dir         *dotgit.DotGit
	objectCache cache.Object

	mu    sync.RWMutex
	index map[plumbing.Hash]idxfile.Index
}

// NewObjectStorage returns an ObjectStorage rooted at dir, using c to
// cache decoded pack objects (falls back to a default-sized LRU if nil).
func NewObjectStorage(dir *dotgit.DotGit, c cache.Object) *ObjectStorage {
	if c == nil {
		c = cache.NewObjectLRUDefault()
	}
	return &ObjectStorage{dir: dir, objectCache: c}
}

func (s *ObjectStorage) NewEncodedObject() plumbing.EncodedObject {
	return plumbing.NewMemoryObject()
}

// SetEncodedObject always writes a new loose object; delta objects cannot
// be stored directly, since the delta codec expects to live only inside a
// packfile.
func (s *ObjectStorage) SetEncodedObject(o plumbing.EncodedObject) (h plumbing.Hash, err error) {
	if o.Type() == plumbing.OFSDeltaObject || o.Type() == plumbing.REFDeltaObject {
		return plumbing.ZeroHash, plumbing.ErrInvalidType
	}

	ow, err := s.dir.NewObject()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer func() {
		if cerr := ow.Close(); err == nil {
			err = cerr
		}
	}()

	or, err := o.Reader()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer or.Close()

	if err = ow.WriteHeader(o.Type(), o.Size()); err != nil {
		return plumbing.ZeroHash, err
	}

	if _, err = io.Copy(ow, or); err != nil {
		return plumbing.ZeroHash, err
	}

	return o.Hash(), nil
}

// PackfileWriter returns a writer that, once closed, parses the streamed
// bytes into a pack + matching idx under objects/pack and makes its
// objects visible to subsequent lookups.
func (s *ObjectStorage) PackfileWriter() (io.WriteCloser, error) {
	if err := s.requireIndex(); err != nil {
		return nil, err
	}

	w, err := s.dir.NewObjectPack()
	if err != nil {
		return nil, err
	}

	return &packfileWriterCloser{PackWriter: w, s: s}, nil
}

type packfileWriterCloser struct {
	*dotgit.PackWriter
	s *ObjectStorage
}

func (w *packfileWriterCloser) Close() error {
	if err := w.PackWriter.Close(); err != nil {
		return err
	}
	return w.s.loadIdxFile(w.Checksum)
}

func (s *ObjectStorage) requireIndex() error {
	s.mu.RLock()
	if s.index != nil {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = make(map[plumbing.Hash]idxfile.Index)
	packs, err := s.dir.ObjectPacks()
	if err != nil {
		return err
	}

	for _, h := range packs {
		if err := s.loadIdxFileLocked(h); err != nil {
			return err
		}
	}

	return nil
}

func (s *ObjectStorage) loadIdxFile(h plumbing.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadIdxFileLocked(h)
}

func (s *ObjectStorage) loadIdxFileLocked(h plumbing.Hash) error {
	f, err := s.dir.ObjectPackIdx(h)
	if err != nil {
		return err
	}
	defer f.Close()

	idx := &idxfile.MemoryIndex{}
	if err := idxfile.NewDecoder(f).Decode(idx); err != nil {
		return err
	}

	if s.index == nil {
		s.index = make(map[plumbing.Hash]idxfile.Index)
	}
	s.index[h] = idx
	return nil
}

// HasEncodedObject reports whether h is present, loose or packed, without
// reading its content.
func (s *ObjectStorage) HasEncodedObject(h plumbing.Hash) error {
	if f, err := s.dir.Object(h); err == nil {
		f.Close()
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := s.requireIndex(); err != nil {
		return err
	}

	if _, _, offset := s.findInPacks(h); offset != -1 {
		return nil
	}

	return plumbing.ErrObjectNotFound
}

// EncodedObjectSize returns the plaintext size of h, checking loose
// storage before scanning pack indexes.
func (s *ObjectStorage) EncodedObjectSize(h plumbing.Hash) (int64, error) {
	if size, err := s.looseObjectSize(h); err == nil {
		return size, nil
	} else if !errors.Is(err, plumbing.ErrObjectNotFound) {
		return 0, err
	}

	obj, err := s.EncodedObject(plumbing.AnyObject, h)
	if err != nil {
		return 0, err
	}
	return obj.Size(), nil
}

func (s *ObjectStorage) looseObjectSize(h plumbing.Hash) (int64, error) {
	f, err := s.dir.Object(h)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, plumbing.ErrObjectNotFound
		}
		return 0, err
	}
	defer f.Close()

	r, err := objfile.NewReader(f)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	_, size, err := r.Header()
	return size, err
}

// EncodedObject returns the object with the given hash, checking loose
// storage first and then every pack's index.
func (s *ObjectStorage) EncodedObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	obj, err := s.getFromUnpacked(h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		obj, err = s.getFromPack(h)
	}
	if err != nil {
		return nil, err
	}

	if t != plumbing.AnyObject && obj.Type() != t {
		return nil, plumbing.ErrObjectNotFound
	}

	return obj, nil
}

func (s *ObjectStorage) getFromUnpacked(h plumbing.Hash) (plumbing.EncodedObject, error) {
	f, err := s.dir.Object(h)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plumbing.ErrObjectNotFound
		}
		return nil, err
	}
	defer f.Close()

	r, err := objfile.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	t, size, err := r.Header()
	if err != nil {
		return nil, err
	}

	obj := plumbing.NewMemoryObject()
	obj.SetType(t)
	obj.SetSize(size)

	w, err := obj.Writer()
	if err != nil {
		return nil, err
	}
	defer w.Close()

	if _, err := io.Copy(w, r); err != nil {
		return nil, err
	}

	return obj, nil
}

func (s *ObjectStorage) getFromPack(h plumbing.Hash) (plumbing.EncodedObject, error) {
	if err := s.requireIndex(); err != nil {
		return nil, err
	}

	pack, idx, offset := s.findInPacks(h)
	if offset == -1 {
		return nil, plumbing.ErrObjectNotFound
	}

	if obj, ok := s.objectCache.Get(h); ok {
		return obj, nil
	}

	f, err := s.dir.ObjectPack(pack)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := packfile.NewPackfile(idx, f, packfile.WithCache(s.objectCache))
	return p.GetByOffset(offset)
}

func (s *ObjectStorage) findInPacks(h plumbing.Hash) (pack plumbing.Hash, idx idxfile.Index, offset int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for p, i := range s.index {
		if off, err := i.FindOffset(h); err == nil {
			return p, i, off
		}
	}
	return plumbing.ZeroHash, nil, -1
}

// IterEncodedObjects returns an iterator over every object of type t, loose
// and packed.
func (s *ObjectStorage) IterEncodedObjects(t plumbing.ObjectType) (storer.EncodedObjectIter, error) {
	hashes, err := s.dir.Objects()
	if err != nil {
		return nil, err
	}

	var objs []plumbing.EncodedObject
	for _, h := range hashes {
		obj, err := s.getFromUnpacked(h)
		if err != nil {
			return nil, err
		}
		if t == plumbing.AnyObject || obj.Type() == t {
			objs = append(objs, obj)
		}
	}

	if err := s.requireIndex(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	packs := make([]plumbing.Hash, 0, len(s.index))
	for p := range s.index {
		packs = append(packs, p)
	}
	s.mu.RUnlock()

	for _, pack := range packs {
		f, err := s.dir.ObjectPack(pack)
		if err != nil {
			return nil, err
		}

		s.mu.RLock()
		idx := s.index[pack]
		s.mu.RUnlock()

		p := packfile.NewPackfile(idx, f, packfile.WithCache(s.objectCache))
		it, err := p.GetAll()
		if err != nil {
			f.Close()
			return nil, err
		}

		err = it.ForEach(func(obj plumbing.EncodedObject) error {
			if t == plumbing.AnyObject || obj.Type() == t {
				objs = append(objs, obj)
			}
			return nil
		})
		it.Close()
		f.Close()
		if err != nil {
			return nil, err
		}
	}

	return storer.NewEncodedObjectSliceIter(objs), nil
}
