package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/pygit-core/pygit/plumbing"
)

// DefaultMaxSize is the default size for a new ObjectLRU, used by
// NewObjectLRUDefault.
const DefaultMaxSize = 96 * MiByte

// ObjectLRU is a cache.Object implementation backed by groupcache's LRU,
// bounded by total object size rather than entry count: groupcache's
// count-based eviction is driven down by hand whenever the cumulative
// size of cached objects exceeds MaxSize.
type ObjectLRU struct {
	MaxSize FileSize

	mu         sync.Mutex
	actualSize FileSize
	ll         *lru.Cache
}

// NewObjectLRU returns an ObjectLRU whose total cached object size never
// exceeds maxSize.
func NewObjectLRU(maxSize FileSize) *ObjectLRU {
	c := &ObjectLRU{MaxSize: maxSize}
	c.ll = &lru.Cache{
		OnEvicted: func(key lru.Key, value interface{}) {
			c.actualSize -= FileSize(value.(plumbing.EncodedObject).Size())
		},
	}
	return c
}

// NewObjectLRUDefault returns an ObjectLRU sized to DefaultMaxSize.
func NewObjectLRUDefault() *ObjectLRU {
	return NewObjectLRU(DefaultMaxSize)
}

// Put inserts or updates obj in the cache, evicting least-recently-used
// entries until the cache's total size is within MaxSize again.
func (c *ObjectLRU) Put(obj plumbing.EncodedObject) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := obj.Hash()
	if old, ok := c.ll.Get(h); ok {
		c.actualSize -= FileSize(old.(plumbing.EncodedObject).Size())
	}

	c.ll.Add(h, obj)
	c.actualSize += FileSize(obj.Size())

	for c.actualSize > c.MaxSize && c.ll.Len() > 0 {
		c.ll.RemoveOldest()
	}
}

// Get returns the cached object for h, if present.
func (c *ObjectLRU) Get(h plumbing.Hash) (plumbing.EncodedObject, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.ll.Get(h)
	if !ok {
		return nil, false
	}
	return v.(plumbing.EncodedObject), true
}

// Clear empties the cache.
func (c *ObjectLRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Clear()
	c.actualSize = 0
}
