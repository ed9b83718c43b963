// Package filemode defines the small set of Unix file modes Git records in
// tree entries and index entries.
package filemode

import (
	"fmt"
	"os"
)

// FileMode is one of the modes Git stores in a tree entry or an index
// entry. Unlike a full os.FileMode, it only distinguishes the handful of
// bit patterns Git itself ever writes to disk.
type FileMode uint32

const (
	Empty      FileMode = 0
	Dir        FileMode = 0040000
	Regular    FileMode = 0100644
	Deprecated FileMode = 0100664
	Executable FileMode = 0100755
	Symlink    FileMode = 0120000
	Submodule  FileMode = 0160000
)

// New parses the octal textual representation Git uses in tree object
// bodies and in `ls-tree`/`cat-file -p` output (e.g. "100644").
func New(s string) (FileMode, error) {
	var m FileMode
	_, err := fmt.Sscanf(s, "%o", &m)
	return m, err
}

// IsMalformed reports whether m is not one of the modes Git ever writes.
func (m FileMode) IsMalformed() bool {
	switch m {
	case Empty, Dir, Regular, Deprecated, Executable, Symlink, Submodule:
		return false
	default:
		return true
	}
}

// String returns the zero-padded octal representation, as used in tree
// object bodies.
func (m FileMode) String() string {
	return fmt.Sprintf("%06o", uint32(m))
}

// Bytes returns the non-zero-padded octal representation Git writes in a
// tree entry header (e.g. "100644", not "0100644").
func (m FileMode) Bytes() []byte {
	return []byte(fmt.Sprintf("%o", uint32(m)))
}

// IsRegular reports whether m is Regular or Deprecated.
func (m FileMode) IsRegular() bool {
	return m == Regular || m == Deprecated
}

// IsFile reports whether m denotes something with file content: a regular
// file (including executable and deprecated modes) or a symlink. A
// submodule gitlink is not a file.
func (m FileMode) IsFile() bool {
	switch m {
	case Regular, Deprecated, Executable, Symlink:
		return true
	default:
		return false
	}
}

// ToOSFileMode converts m to the closest os.FileMode equivalent.
func (m FileMode) ToOSFileMode() (os.FileMode, error) {
	switch m {
	case Dir, Submodule:
		return os.ModeDir, nil
	case Symlink:
		return os.ModeSymlink, nil
	case Executable:
		return 0755, nil
	case Regular, Deprecated:
		return 0644, nil
	case Empty:
		return 0, nil
	default:
		return 0, fmt.Errorf("malformed file mode: %o", uint32(m))
	}
}

// NewFromOSFileMode converts an os.FileMode into the nearest Git FileMode.
func NewFromOSFileMode(m os.FileMode) (FileMode, error) {
	switch {
	case m.IsDir():
		return Dir, nil
	case m&os.ModeSymlink != 0:
		return Symlink, nil
	case m&0111 != 0:
		return Executable, nil
	case m.IsRegular():
		return Regular, nil
	default:
		return 0, fmt.Errorf("unsupported file mode: %v", m)
	}
}
