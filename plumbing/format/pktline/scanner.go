package pktline

import "io"

// Scanner provides a convenient interface for reading the payloads of a
// series of pkt-lines. It takes an io.Reader providing the source, which
// is then tokenized through repeated calls to Scan.
//
// After each Scan, Bytes returns the payload of the corresponding
// pkt-line on a buffer shared across calls. Flush/delim/response-end
// pkt-lines and empty data pkts all yield an empty payload and a Len of
// 0; the Scanner does not report which kind was read (callers that must
// distinguish a genuinely empty payload from a flush should use
// ReadPacket directly instead).
//
// Scanning stops at EOF or the first I/O error.
type Scanner struct {
	r   io.Reader
	err error
	buf [MaxSize]byte
	n   int
}

// NewScanner returns a new Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: r}
}

// Err returns the first error encountered by the Scanner, or nil if
// scanning stopped at io.EOF.
func (s *Scanner) Err() error {
	return s.err
}

// Scan advances the Scanner to the next pkt-line.
func (s *Scanner) Scan() bool {
	if s.r == nil {
		return false
	}

	_, p, err := ReadPacket(s.r)
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return false
	}

	s.n = copy(s.buf[:], p)
	return true
}

// Bytes returns the most recent packet produced by Scan. The underlying
// array may be overwritten by a subsequent call to Scan.
func (s *Scanner) Bytes() []byte {
	return s.buf[:s.n]
}

// Text returns the most recent packet produced by Scan as a string.
func (s *Scanner) Text() string {
	return string(s.Bytes())
}

// Len returns the length of the most recent packet produced by Scan.
func (s *Scanner) Len() int {
	return s.n
}
