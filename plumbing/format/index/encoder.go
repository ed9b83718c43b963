package index

import (
	"crypto"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/pygit-core/pygit/plumbing/hash"
	"github.com/pygit-core/pygit/utils/binary"
)

// EncodeVersionSupported is the only version this package writes.
const EncodeVersionSupported = 2

// ErrInvalidTimestamp is returned by Encode when an entry's CreatedAt or
// ModifiedAt predates the Unix epoch, which cannot be represented in the
// on-disk 32-bit seconds/nanoseconds fields.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// An Encoder writes DIRC index files.
type Encoder struct {
	w    io.Writer
	hash hash.Hash
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	h := hash.New(crypto.SHA1)
	return &Encoder{
		w:    io.MultiWriter(w, h),
		hash: h,
	}
}

// Encode writes idx as a version 2 index: header, entries sorted by name
// (then stage), and a trailing checksum. No extensions are ever written.
func (e *Encoder) Encode(idx *Index) error {
	if err := e.encodeHeader(len(idx.Entries)); err != nil {
		return err
	}

	entries := make([]*Entry, len(idx.Entries))
	copy(entries, idx.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Stage < entries[j].Stage
	})

	for _, e2 := range entries {
		if err := e.encodeEntry(e2); err != nil {
			return err
		}
	}

	return e.encodeChecksum()
}

func (e *Encoder) encodeHeader(count int) error {
	if _, err := e.w.Write(indexSignature); err != nil {
		return err
	}
	return binary.Write(e.w, uint32(EncodeVersionSupported), uint32(count))
}

func (e *Encoder) encodeEntry(entry *Entry) error {
	sec, nsec, err := timeToUnix(entry.CreatedAt)
	if err != nil {
		return err
	}
	msec, mnsec, err := timeToUnix(entry.ModifiedAt)
	if err != nil {
		return err
	}

	flags := uint16(len(entry.Name))
	if flags > nameMask {
		flags = nameMask
	}
	flags |= uint16(entry.Stage&0x3) << 12

	extended := entry.IntentToAdd || entry.SkipWorktree
	if extended {
		flags |= entryExtended
	}

	if err := binary.Write(e.w,
		sec, nsec,
		msec, mnsec,
		entry.Dev,
		entry.Inode,
		uint32(entry.Mode),
		entry.UID,
		entry.GID,
		entry.Size,
	); err != nil {
		return err
	}

	if _, err := entry.Hash.WriteTo(e.w); err != nil {
		return err
	}

	if err := binary.Write(e.w, flags); err != nil {
		return err
	}

	written := entryHeaderLength

	if extended {
		var ext uint16
		if entry.IntentToAdd {
			ext |= intentToAddMask
		}
		if entry.SkipWorktree {
			ext |= skipWorkTreeMask
		}
		if err := binary.Write(e.w, ext); err != nil {
			return err
		}
		written += 2
	}

	name := []byte(entry.Name)
	if _, err := e.w.Write(name); err != nil {
		return err
	}

	entrySize := written + len(name)
	padLen := 8 - entrySize%8
	_, err = e.w.Write(make([]byte, padLen))
	return err
}

func (e *Encoder) encodeChecksum() error {
	sum := e.hash.Sum(nil)
	_, err := e.w.Write(sum)
	return err
}

func timeToUnix(t time.Time) (sec, nsec uint32, err error) {
	if t.IsZero() {
		return 0, 0, nil
	}
	u := t.Unix()
	if u < 0 {
		return 0, 0, ErrInvalidTimestamp
	}
	return uint32(u), uint32(t.Nanosecond()), nil
}
