package packfile

import (
	"bytes"

	"github.com/pygit-core/pygit/plumbing"
	packutil "github.com/pygit-core/pygit/plumbing/format/packfile/util"
	"github.com/pygit-core/pygit/utils/ioutil"
	gogitsync "github.com/pygit-core/pygit/utils/sync"
)

// See https://github.com/git/git/blob/master/delta.h and
// https://github.com/git/git/blob/master/patch-delta.c for details about
// the delta format implemented here.

const (
	// maxPatchPreemptionSize caps how many bytes of target buffer this
	// package will preemptively grow for, to avoid blowing up memory on a
	// corrupt or hostile declared target size.
	maxPatchPreemptionSize uint = 65536

	// minDeltaSize is the shortest delta, in bytes, that PatchDelta
	// accepts.
	minDeltaSize = 4

	// minCopySize equals minDeltaSize and is the shortest delta patchDelta
	// accepts. maxCopySize is the byte count of a copy-from-source command
	// whose encoded size is zero.
	minCopySize = minDeltaSize
	maxCopySize = 0x10000
)

type deltaOffset struct {
	mask  byte
	shift uint
}

var offsets = []deltaOffset{
	{mask: 0x01, shift: 0},
	{mask: 0x02, shift: 8},
	{mask: 0x04, shift: 16},
	{mask: 0x08, shift: 24},
}

var sizes = []deltaOffset{
	{mask: 0x10, shift: 0},
	{mask: 0x20, shift: 8},
	{mask: 0x40, shift: 16},
}

// ApplyDelta writes to target the result of applying delta to base.
func ApplyDelta(target, base plumbing.EncodedObject, delta *bytes.Buffer) (err error) {
	r, err := base.Reader()
	if err != nil {
		return err
	}
	defer ioutil.CheckClose(r, &err)

	w, err := target.Writer()
	if err != nil {
		return err
	}
	defer ioutil.CheckClose(w, &err)

	buf := gogitsync.GetBytesBuffer()
	defer gogitsync.PutBytesBuffer(buf)
	if _, err := buf.ReadFrom(r); err != nil {
		return err
	}
	src := buf.Bytes()

	dst := gogitsync.GetBytesBuffer()
	defer gogitsync.PutBytesBuffer(dst)
	if err := patchDelta(dst, src, delta.Bytes()); err != nil {
		return err
	}

	target.SetSize(int64(dst.Len()))

	_, err = ioutil.Copy(w, dst)
	return err
}

// PatchDelta returns the result of applying delta to src. It returns
// ErrInvalidDelta if delta is corrupt and ErrDeltaCmd if it contains a
// command byte that is neither copy-from-source nor copy-from-delta.
func PatchDelta(src, delta []byte) ([]byte, error) {
	if len(src) == 0 || len(delta) < minDeltaSize {
		return nil, ErrInvalidDelta
	}

	b := &bytes.Buffer{}
	if err := patchDelta(b, src, delta); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func patchDelta(dst *bytes.Buffer, src, delta []byte) error {
	if len(delta) < minCopySize {
		return ErrInvalidDelta
	}

	srcSz, delta := packutil.DecodeLEB128(delta)
	if srcSz != uint(len(src)) {
		return ErrInvalidDelta
	}

	targetSz, delta := packutil.DecodeLEB128(delta)
	remainingTargetSz := targetSz

	growSz := min(targetSz, maxPatchPreemptionSize)
	dst.Grow(int(growSz))

	var cmd byte
	for {
		if len(delta) == 0 {
			return ErrInvalidDelta
		}

		cmd = delta[0]
		delta = delta[1:]

		switch {
		case isCopyFromSrc(cmd):
			var offset, sz uint
			var err error
			offset, delta, err = decodeOffset(cmd, delta)
			if err != nil {
				return err
			}

			sz, delta, err = decodeSize(cmd, delta)
			if err != nil {
				return err
			}

			if invalidSize(sz, targetSz) || invalidOffsetSize(offset, sz, srcSz) {
				return ErrInvalidDelta
			}
			dst.Write(src[offset : offset+sz])
			remainingTargetSz -= sz

		case isCopyFromDelta(cmd):
			sz := uint(cmd)
			if invalidSize(sz, targetSz) {
				return ErrInvalidDelta
			}
			if uint(len(delta)) < sz {
				return ErrInvalidDelta
			}

			dst.Write(delta[0:sz])
			remainingTargetSz -= sz
			delta = delta[sz:]

		default:
			return ErrDeltaCmd
		}

		if remainingTargetSz <= 0 {
			break
		}
	}

	return nil
}

func isCopyFromSrc(cmd byte) bool {
	return (cmd & maskContinue) != 0
}

func isCopyFromDelta(cmd byte) bool {
	return (cmd&maskContinue) == 0 && cmd != 0
}

func decodeOffset(cmd byte, delta []byte) (uint, []byte, error) {
	var offset uint
	for _, o := range offsets {
		if (cmd & o.mask) != 0 {
			if len(delta) == 0 {
				return 0, nil, ErrInvalidDelta
			}
			offset |= uint(delta[0]) << o.shift
			delta = delta[1:]
		}
	}

	return offset, delta, nil
}

func decodeSize(cmd byte, delta []byte) (uint, []byte, error) {
	var sz uint
	for _, s := range sizes {
		if (cmd & s.mask) != 0 {
			if len(delta) == 0 {
				return 0, nil, ErrInvalidDelta
			}
			sz |= uint(delta[0]) << s.shift
			delta = delta[1:]
		}
	}
	if sz == 0 {
		sz = maxCopySize
	}

	return sz, delta, nil
}

func invalidSize(sz, targetSz uint) bool {
	return sz > targetSz
}

func invalidOffsetSize(offset, sz, srcSz uint) bool {
	return sumOverflows(offset, sz) || offset+sz > srcSz
}

func sumOverflows(a, b uint) bool {
	return a+b < a
}
