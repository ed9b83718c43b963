package packfile

import "github.com/pygit-core/pygit/plumbing"

// Version is a packfile format version number.
type Version uint32

// V2 is the only packfile version this package reads and writes.
const V2 Version = 2

// Supported reports whether v is a version this package can decode.
func (v Version) Supported() bool {
	return v == V2
}

// ObjectHeader describes one object entry inside a packfile: its type,
// declared size, and (for delta entries) the base object it patches
// against. OFSDeltaObject entries reference their base by a negative
// offset from Offset; REFDeltaObject entries reference it by hash.
type ObjectHeader struct {
	Type            plumbing.ObjectType
	Offset          int64
	Size            int64
	Reference       plumbing.Hash
	OffsetReference int64
	Crc32           uint32
	Hash            plumbing.Hash

	content  []byte
	diskType plumbing.ObjectType
}
