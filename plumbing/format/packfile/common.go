// Package packfile implements the packfile format: a PACK signature and
// version, a count of objects, each object's zlib-compressed content
// (stored either whole or as an OFS/REF delta against another object in
// the same pack), and a trailing SHA-1 checksum of everything preceding
// it.
package packfile

import (
	"io"

	"github.com/pygit-core/pygit/plumbing/storer"
)

var signature = []byte{'P', 'A', 'C', 'K'}

// VersionSupported is the packfile version this package reads and writes.
const VersionSupported uint32 = 2

const (
	firstLengthBits = uint8(4)   // the first byte of an object header has 4 bits of length
	lengthBits      = uint8(7)   // each subsequent byte has 7 bits of length
	maskFirstLength = int64(15)  // 0000 1111
	maskContinue    = 0x80       // 1000 0000
	maskLength      = uint8(127) // 0111 1111
)

// UpdateObjectStorage decodes packfile and stores every object it
// contains (after delta resolution) into s.
func UpdateObjectStorage(s storer.EncodedObjectStorer, packfile io.Reader) error {
	p := NewParser(packfile, WithStorage(s))
	_, err := p.Parse()
	return err
}
