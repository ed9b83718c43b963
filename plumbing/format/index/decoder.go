package index

import (
	"bufio"
	"bytes"
	"crypto"
	"errors"
	"io"
	"time"

	"github.com/pygit-core/pygit/plumbing"
	"github.com/pygit-core/pygit/plumbing/hash"
	"github.com/pygit-core/pygit/utils/binary"
)

// DecodeVersionSupported is the range of index versions Decode accepts.
var DecodeVersionSupported = struct{ Min, Max uint32 }{Min: 2, Max: 4}

var (
	// ErrMalformedSignature is returned when the 4-byte "DIRC" header is
	// missing or wrong.
	ErrMalformedSignature = errors.New("malformed index signature file")
	// ErrInvalidChecksum is returned when the trailing SHA-1 does not
	// match the hash of the preceding bytes.
	ErrInvalidChecksum = errors.New("invalid checksum")
)

const (
	entryHeaderLength = 62
	entryExtended     = 0x4000
	nameMask          = 0xfff
	intentToAddMask   = 1 << 13
	skipWorkTreeMask  = 1 << 14
)

// A Decoder reads DIRC index files.
type Decoder struct {
	buf  *bufio.Reader
	r    io.Reader
	hash hash.Hash
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	h := hash.New(crypto.SHA1)
	buf := bufio.NewReader(r)
	return &Decoder{
		buf:  buf,
		r:    io.TeeReader(buf, h),
		hash: h,
	}
}

// Decode reads a whole index file into idx.
func (d *Decoder) Decode(idx *Index) error {
	version, err := validateHeader(d.r)
	if err != nil {
		return err
	}
	idx.Version = version

	count, err := binary.ReadUint32(d.r)
	if err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		e, err := d.readEntry(idx.Version)
		if err != nil {
			return err
		}
		idx.Entries = append(idx.Entries, e)
	}

	return d.skipExtensionsAndVerify()
}

func validateHeader(r io.Reader) (uint32, error) {
	var sig [4]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return 0, err
	}
	if !bytes.Equal(sig[:], indexSignature) {
		return 0, ErrMalformedSignature
	}

	version, err := binary.ReadUint32(r)
	if err != nil {
		return 0, err
	}
	if version < DecodeVersionSupported.Min || version > DecodeVersionSupported.Max {
		return 0, ErrUnsupportedVersion
	}

	return version, nil
}

func (d *Decoder) readEntry(version uint32) (*Entry, error) {
	e := &Entry{}

	var msec, mnsec, sec, nsec uint32
	var flags uint16

	if err := binary.Read(d.r,
		&sec, &nsec,
		&msec, &mnsec,
		&e.Dev,
		&e.Inode,
		&e.Mode,
		&e.UID,
		&e.GID,
		&e.Size,
	); err != nil {
		return nil, err
	}

	if _, err := e.Hash.ReadFrom(d.r); err != nil {
		return nil, err
	}

	if err := binary.Read(d.r, &flags); err != nil {
		return nil, err
	}

	read := entryHeaderLength

	if sec != 0 || nsec != 0 {
		e.CreatedAt = time.Unix(int64(sec), int64(nsec))
	}
	if msec != 0 || mnsec != 0 {
		e.ModifiedAt = time.Unix(int64(msec), int64(mnsec))
	}

	e.Stage = Stage((flags >> 12) & 0x3)

	if flags&entryExtended != 0 {
		extended, err := binary.ReadUint16(d.r)
		if err != nil {
			return nil, err
		}
		read += 2
		e.IntentToAdd = extended&intentToAddMask != 0
		e.SkipWorktree = extended&skipWorkTreeMask != 0
	}

	if version == 4 {
		return nil, errUnsupportedPathCompression
	}

	nameLen := int(flags & nameMask)
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(d.r, name); err != nil {
		return nil, err
	}
	e.Name = string(name)

	entrySize := read + nameLen
	padLen := 8 - entrySize%8
	if _, err := io.CopyN(io.Discard, d.r, int64(padLen)); err != nil {
		return nil, err
	}

	return e, nil
}

// errUnsupportedPathCompression is returned for version 4 indexes, whose
// path-prefix-compressed name encoding is an extension beyond the base
// entry format this package targets.
var errUnsupportedPathCompression = errors.New("index version 4 path compression not supported")

// skipExtensionsAndVerify discards any trailing index extensions
// (cache-tree, resolve-undo, and anything else) without parsing them,
// then verifies the trailing checksum against the bytes read so far.
func (d *Decoder) skipExtensionsAndVerify() error {
	const trailerSize = 20

	for {
		peekLen := 4 + 4 + trailerSize
		peeked, err := d.buf.Peek(peekLen)
		if len(peeked) < peekLen {
			break
		}
		if err != nil {
			return err
		}

		var header [4]byte
		if _, err := io.ReadFull(d.r, header[:]); err != nil {
			return err
		}

		extLen, err := binary.ReadUint32(d.r)
		if err != nil {
			return err
		}

		if _, err := io.CopyN(io.Discard, d.r, int64(extLen)); err != nil {
			return err
		}
	}

	expected := d.hash.Sum(nil)

	var trailer plumbing.Hash
	if _, err := trailer.ReadFrom(d.r); err != nil {
		return err
	}

	if trailer.Compare(expected) != 0 {
		return ErrInvalidChecksum
	}

	return nil
}
