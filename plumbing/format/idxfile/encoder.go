package idxfile

import (
	"crypto"
	"io"

	"github.com/pygit-core/pygit/plumbing/hash"
	"github.com/pygit-core/pygit/utils/binary"
)

// Encoder writes a MemoryIndex to an output stream in idx v2 format.
type Encoder struct {
	w    io.Writer
	hash hash.Hash
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	h := hash.New(crypto.SHA1)
	return &Encoder{w: io.MultiWriter(w, h), hash: h}
}

// Encode writes idx, returning the number of bytes written.
func (e *Encoder) Encode(idx *MemoryIndex) (int, error) {
	steps := []func(*MemoryIndex) (int, error){
		e.encodeHeader,
		e.encodeFanout,
		e.encodeNames,
		e.encodeCRC32,
		e.encodeOffsets,
		e.encodeChecksums,
	}

	sz := 0
	for _, step := range steps {
		n, err := step(idx)
		sz += n
		if err != nil {
			return sz, err
		}
	}
	return sz, nil
}

func (e *Encoder) encodeHeader(idx *MemoryIndex) (int, error) {
	if _, err := e.w.Write(idxHeader); err != nil {
		return 0, err
	}
	if err := binary.WriteUint32(e.w, VersionSupported); err != nil {
		return len(idxHeader), err
	}
	return len(idxHeader) + 4, nil
}

func (e *Encoder) encodeFanout(idx *MemoryIndex) (int, error) {
	for _, v := range idx.Fanout {
		if err := binary.WriteUint32(e.w, v); err != nil {
			return 0, err
		}
	}
	return fanout * 4, nil
}

func (e *Encoder) encodeNames(idx *MemoryIndex) (int, error) {
	var n int
	for k := 0; k < fanout; k++ {
		pos := idx.FanoutMapping[k]
		if pos == noMapping {
			continue
		}
		w, err := e.w.Write(idx.Names[pos])
		n += w
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (e *Encoder) encodeCRC32(idx *MemoryIndex) (int, error) {
	var n int
	for k := 0; k < fanout; k++ {
		pos := idx.FanoutMapping[k]
		if pos == noMapping {
			continue
		}
		w, err := e.w.Write(idx.CRC32[pos])
		n += w
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (e *Encoder) encodeOffsets(idx *MemoryIndex) (int, error) {
	var n int
	for k := 0; k < fanout; k++ {
		pos := idx.FanoutMapping[k]
		if pos == noMapping {
			continue
		}
		w, err := e.w.Write(idx.Offset32[pos])
		n += w
		if err != nil {
			return n, err
		}
	}

	if len(idx.Offset64) > 0 {
		w, err := e.w.Write(idx.Offset64)
		n += w
		if err != nil {
			return n, err
		}
	}

	return n, nil
}

func (e *Encoder) encodeChecksums(idx *MemoryIndex) (int, error) {
	n1, err := idx.PackfileChecksum.WriteTo(e.w)
	if err != nil {
		return int(n1), err
	}

	copy(idx.IdxChecksum[:], e.hash.Sum(nil))

	n2, err := e.w.Write(idx.IdxChecksum[:])
	return int(n1) + n2, err
}
