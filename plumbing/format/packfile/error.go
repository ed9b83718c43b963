package packfile

import "errors"

var (
	// ErrEmptyPackfile is returned when a packfile declares zero objects.
	ErrEmptyPackfile = errors.New("empty packfile")
	// ErrBadSignature is returned when a packfile's leading 4 bytes are not "PACK".
	ErrBadSignature = errors.New("malformed pack file signature")
	// ErrMalformedPackfile is returned for any other structurally invalid packfile.
	ErrMalformedPackfile = errors.New("malformed pack file")
	// ErrUnsupportedVersion is returned when the packfile's version is not V2.
	ErrUnsupportedVersion = errors.New("unsupported packfile version")
	// ErrInvalidObject is returned when an object entry's type is not a
	// recognized commit/tree/blob/tag/ofs-delta/ref-delta.
	ErrInvalidObject = errors.New("invalid object type")
	// ErrReferenceDeltaNotFound is returned when a REFDeltaObject's base
	// hash is not present in the packfile or its storage.
	ErrReferenceDeltaNotFound = errors.New("reference delta not found")
	// ErrInvalidDelta is returned when a delta's encoding is malformed.
	ErrInvalidDelta = errors.New("invalid delta")
	// ErrDeltaCmd is returned when a delta contains an unrecognized command byte.
	ErrDeltaCmd = errors.New("wrong delta command")
)
