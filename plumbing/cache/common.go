package cache

import "github.com/pygit-core/pygit/plumbing"

const (
	Byte = 1 << (iota * 10)
	KiByte
	MiByte
	GiByte
)

// FileSize represents a file size in bytes.
type FileSize int64

// Object is a cache of EncodedObjects keyed by hash, used to avoid
// re-resolving the same delta base repeatedly while walking a packfile.
type Object interface {
	Put(o plumbing.EncodedObject)
	Get(k plumbing.Hash) (plumbing.EncodedObject, bool)
	Clear()
}
