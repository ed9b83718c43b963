// Package idxfile implements the pack index (.idx) format: a sorted table
// mapping every object hash stored in a packfile to its CRC32 and byte
// offset, letting a reader locate an object without scanning the pack.
package idxfile

import (
	"bytes"
	"errors"
	"io"
	"math"
	"sort"

	"github.com/pygit-core/pygit/plumbing"
)

// VersionSupported is the only idx version this package reads and writes.
const VersionSupported = 2

// fanout is the number of buckets in the first-byte fanout table.
const fanout = 256

// noMapping marks a fanout bucket with no objects.
const noMapping = -1

var (
	// ErrUnsupportedVersion is returned when the idx file's version is not
	// VersionSupported.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrMalformedIdxFile is returned when the idx file's signature,
	// length, or internal structure is invalid.
	ErrMalformedIdxFile = errors.New("malformed idx file")
)

// idxHeader is the magic 4 bytes preceding the version, present in every
// version 2+ idx file (version 1 has no header, and is not supported).
var idxHeader = []byte{255, 't', 'O', 'c'}

// Entry is a single object's position inside a packfile.
type Entry struct {
	Hash   plumbing.Hash
	Offset uint64
	CRC32  uint32
}

// EntryIter iterates over the Entries of an Index.
type EntryIter interface {
	Next() (*Entry, error)
}

// Index looks up objects stored in a packfile by hash or pack offset.
type Index interface {
	// Contains reports whether h is present in the index.
	Contains(h plumbing.Hash) (bool, error)
	// FindOffset returns the pack offset of h.
	FindOffset(h plumbing.Hash) (int64, error)
	// FindCRC32 returns the CRC32 checksum recorded for h.
	FindCRC32(h plumbing.Hash) (uint32, error)
	// FindHash returns the hash of the object at pack offset o.
	FindHash(o int64) (plumbing.Hash, error)
	// Count returns the number of objects indexed.
	Count() (int64, error)
	// Entries iterates entries in hash order.
	Entries() (EntryIter, error)
	// EntriesByOffset iterates entries in pack-offset order.
	EntriesByOffset() (EntryIter, error)
}

// MemoryIndex is a fully materialized, in-memory Index, structured the way
// the on-disk format lays entries out: per first-byte bucket, a
// concatenated run of hashes, CRC32s, and 32-bit offsets (with a side
// table of 64-bit offsets for packs larger than 2GiB).
type MemoryIndex struct {
	Version uint32

	Fanout        [fanout]uint32
	FanoutMapping [fanout]int

	Names    [][]byte
	CRC32    [][]byte
	Offset32 [][]byte
	Offset64 []byte

	PackfileChecksum plumbing.Hash
	IdxChecksum      plumbing.Hash

	offsetHashCache map[int64]plumbing.Hash
}

var _ Index = (*MemoryIndex)(nil)

func (idx *MemoryIndex) bucketFor(h plumbing.Hash) (lo, hi int, pos int, ok bool) {
	first := h[0]
	if first > 0 {
		lo = int(idx.Fanout[first-1])
	}
	hi = int(idx.Fanout[first])
	pos = idx.FanoutMapping[first]
	return lo, hi, pos, pos != noMapping
}

// Contains implements Index.
func (idx *MemoryIndex) Contains(h plumbing.Hash) (bool, error) {
	_, err := idx.FindOffset(h)
	if err == plumbing.ErrObjectNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (idx *MemoryIndex) search(h plumbing.Hash) (bucket, i int, found bool) {
	lo, hi, bucket, ok := idx.bucketFor(h)
	if !ok {
		return 0, 0, false
	}

	n := hi - lo
	names := idx.Names[bucket]

	i = sort.Search(n, func(k int) bool {
		return bytes.Compare(names[k*20:(k+1)*20], h[:]) >= 0
	})

	if i < n && bytes.Equal(names[i*20:(i+1)*20], h[:]) {
		return bucket, i, true
	}
	return 0, 0, false
}

// FindOffset implements Index.
func (idx *MemoryIndex) FindOffset(h plumbing.Hash) (int64, error) {
	bucket, i, found := idx.search(h)
	if !found {
		return 0, plumbing.ErrObjectNotFound
	}

	off32 := beUint32(idx.Offset32[bucket][i*4 : i*4+4])
	if off32&0x80000000 == 0 {
		return int64(off32), nil
	}

	lo := int(off32 &^ 0x80000000)
	return int64(beUint64(idx.Offset64[lo*8 : lo*8+8])), nil
}

// FindCRC32 implements Index.
func (idx *MemoryIndex) FindCRC32(h plumbing.Hash) (uint32, error) {
	bucket, i, found := idx.search(h)
	if !found {
		return 0, plumbing.ErrObjectNotFound
	}
	return beUint32(idx.CRC32[bucket][i*4 : i*4+4]), nil
}

// FindHash implements Index.
func (idx *MemoryIndex) FindHash(o int64) (plumbing.Hash, error) {
	if idx.offsetHashCache == nil {
		idx.buildOffsetHashCache()
	}

	h, ok := idx.offsetHashCache[o]
	if !ok {
		return plumbing.ZeroHash, plumbing.ErrObjectNotFound
	}
	return h, nil
}

func (idx *MemoryIndex) buildOffsetHashCache() {
	idx.offsetHashCache = make(map[int64]plumbing.Hash)
	it, _ := idx.Entries()
	for {
		e, err := it.Next()
		if err != nil {
			break
		}
		idx.offsetHashCache[int64(e.Offset)] = e.Hash
	}
}

// Count implements Index.
func (idx *MemoryIndex) Count() (int64, error) {
	return int64(idx.Fanout[fanout-1]), nil
}

// Entries implements Index, iterating in ascending hash order (the order
// entries are physically stored in).
func (idx *MemoryIndex) Entries() (EntryIter, error) {
	return &memoryEntryIter{idx: idx}, nil
}

// EntriesByOffset implements Index, iterating in ascending pack-offset
// order, the order a streaming packfile decoder naturally visits objects.
func (idx *MemoryIndex) EntriesByOffset() (EntryIter, error) {
	it, err := idx.Entries()
	if err != nil {
		return nil, err
	}

	var all []*Entry
	for {
		e, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		all = append(all, e)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Offset < all[j].Offset })
	return &sliceEntryIter{entries: all}, nil
}

type sliceEntryIter struct {
	entries []*Entry
	pos     int
}

func (i *sliceEntryIter) Next() (*Entry, error) {
	if i.pos >= len(i.entries) {
		return nil, io.EOF
	}
	e := i.entries[i.pos]
	i.pos++
	return e, nil
}

type memoryEntryIter struct {
	idx    *MemoryIndex
	bucket int
	pos    int
}

func (i *memoryEntryIter) Next() (*Entry, error) {
	for i.bucket < fanout {
		b := i.idx.FanoutMapping[i.bucket]
		if b == noMapping {
			i.bucket++
			i.pos = 0
			continue
		}

		names := i.idx.Names[b]
		count := len(names) / 20
		if i.pos >= count {
			i.bucket++
			i.pos = 0
			continue
		}

		var h plumbing.Hash
		copy(h[:], names[i.pos*20:i.pos*20+20])

		e := &Entry{
			Hash:  h,
			CRC32: beUint32(i.idx.CRC32[b][i.pos*4 : i.pos*4+4]),
		}

		off32 := beUint32(i.idx.Offset32[b][i.pos*4 : i.pos*4+4])
		if off32&0x80000000 == 0 {
			e.Offset = uint64(off32)
		} else {
			lo := int(off32 &^ 0x80000000)
			e.Offset = beUint64(i.idx.Offset64[lo*8 : lo*8+8])
		}

		i.pos++
		return e, nil
	}

	return nil, io.EOF
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// Writer accumulates (hash, offset, CRC32) triples emitted while scanning
// or decoding a packfile, then materializes them into a MemoryIndex sorted
// the way the on-disk format requires.
type Writer struct {
	objects objects
}

type object struct {
	hash   plumbing.Hash
	offset int64
	crc    uint32
}

type objects []object

func (o objects) Len() int           { return len(o) }
func (o objects) Less(i, j int) bool { return bytes.Compare(o[i].hash[:], o[j].hash[:]) < 0 }
func (o objects) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }

// Add records one object's placement in the pack being indexed.
func (w *Writer) Add(h plumbing.Hash, offset int64, crc uint32) {
	w.objects = append(w.objects, object{h, offset, crc})
}

// CreateIndex builds a MemoryIndex from every object added so far.
func (w *Writer) CreateIndex(packfileChecksum plumbing.Hash) (*MemoryIndex, error) {
	sort.Sort(w.objects)

	idx := &MemoryIndex{
		Version:          VersionSupported,
		PackfileChecksum: packfileChecksum,
	}
	for i := range idx.FanoutMapping {
		idx.FanoutMapping[i] = noMapping
	}

	last := -1
	bucket := -1
	var off64 []uint64

	for i, o := range w.objects {
		first := int(o.hash[0])

		for j := last + 1; j < first; j++ {
			idx.Fanout[j] = uint32(i)
		}
		idx.Fanout[first] = uint32(i + 1)

		if last != first {
			bucket++
			idx.FanoutMapping[first] = bucket
			last = first

			idx.Names = append(idx.Names, nil)
			idx.CRC32 = append(idx.CRC32, nil)
			idx.Offset32 = append(idx.Offset32, nil)
		}

		idx.Names[bucket] = append(idx.Names[bucket], o.hash[:]...)
		idx.CRC32[bucket] = append(idx.CRC32[bucket], be32Bytes(o.crc)...)

		if o.offset > math.MaxInt32 {
			off64 = append(off64, uint64(o.offset))
			idx.Offset32[bucket] = append(idx.Offset32[bucket], be32Bytes(uint32(0x80000000|uint32(len(off64)-1)))...)
		} else {
			idx.Offset32[bucket] = append(idx.Offset32[bucket], be32Bytes(uint32(o.offset))...)
		}
	}

	for j := last + 1; j < fanout; j++ {
		idx.Fanout[j] = uint32(len(w.objects))
	}

	for _, o := range off64 {
		idx.Offset64 = append(idx.Offset64, be64Bytes(o)...)
	}

	return idx, nil
}

func be32Bytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func be64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
