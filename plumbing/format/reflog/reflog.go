// Package reflog implements the on-disk format of a reference log: one
// line per update, recording the old and new hash, the identity that
// made the change, and the message describing it.
// https://git-scm.com/docs/git-reflog
package reflog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pygit-core/pygit/plumbing"
)

// Ident is the identity recorded against a reflog entry. It mirrors
// object.Signature's fields without importing plumbing/object, which
// itself depends on plumbing/storer — a package this one must stay
// reachable from without a cycle.
type Ident struct {
	Name  string
	Email string
	When  time.Time
}

// String renders the identity the way git writes it into a reflog
// line: "Name <email> seconds +hhmm".
func (id Ident) String() string {
	return fmt.Sprintf("%s <%s> %s", id.Name, id.Email, formatTimestamp(id.When))
}

func formatTimestamp(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%d %s%02d%02d", t.Unix(), sign, offset/3600, (offset%3600)/60)
}

// Entry is a single reflog line: the hash before and after the update,
// the identity that made it, and the one-line message porcelain
// operations supply ("commit: add foo", "pull: Fast-forward", ...).
type Entry struct {
	Old     plumbing.Hash
	New     plumbing.Hash
	Who     Ident
	Message string
}

// String renders e the way it is appended to logs/HEAD and
// logs/refs/heads/<branch>: "<old> <new> <ident>\t<message>\n".
func (e Entry) String() string {
	return fmt.Sprintf("%s %s %s\t%s\n", e.Old, e.New, e.Who, e.Message)
}

// ParseEntry parses a single reflog line, without its trailing
// newline.
func ParseEntry(line string) (Entry, error) {
	head, message, _ := strings.Cut(line, "\t")

	parts := strings.Fields(head)
	if len(parts) < 2 {
		return Entry{}, fmt.Errorf("reflog: malformed entry %q", line)
	}

	e := Entry{
		Old:     plumbing.NewHash(parts[0]),
		New:     plumbing.NewHash(parts[1]),
		Message: message,
	}

	if len(parts) > 2 {
		who, err := parseIdent(strings.Join(parts[2:], " "))
		if err != nil {
			return Entry{}, err
		}
		e.Who = who
	}

	return e, nil
}

func parseIdent(s string) (Ident, error) {
	open := strings.LastIndexByte(s, '<')
	clos := strings.LastIndexByte(s, '>')
	if open == -1 || clos == -1 || clos < open {
		return Ident{}, fmt.Errorf("reflog: malformed identity %q", s)
	}

	id := Ident{
		Name:  strings.TrimSpace(s[:open]),
		Email: s[open+1 : clos],
	}

	fields := strings.Fields(strings.TrimSpace(s[clos+1:]))
	if len(fields) == 0 {
		return id, nil
	}

	sec, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return id, nil
	}

	loc := time.FixedZone("", 0)
	if len(fields) > 1 {
		if off, ok := parseTZOffset(fields[1]); ok {
			loc = time.FixedZone("", off)
		}
	}
	id.When = time.Unix(sec, 0).In(loc)

	return id, nil
}

func parseTZOffset(s string) (int, bool) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return 0, false
	}

	hh, err := strconv.Atoi(s[1:3])
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(s[3:5])
	if err != nil {
		return 0, false
	}

	off := hh*3600 + mm*60
	if s[0] == '-' {
		off = -off
	}
	return off, true
}

// Encoder appends Entry lines to an underlying writer. Callers must
// open that writer O_APPEND so concurrent appends from other processes
// never interleave within a line.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode appends entry.
func (e *Encoder) Encode(entry Entry) error {
	_, err := io.WriteString(e.w, entry.String())
	return err
}

// Decoder reads Entry lines from an underlying reader, in the order
// they were appended (oldest first).
type Decoder struct {
	s *bufio.Scanner
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{s: bufio.NewScanner(r)}
}

// Decode reads the next entry, returning io.EOF once the log is
// exhausted.
func (d *Decoder) Decode() (Entry, error) {
	if !d.s.Scan() {
		if err := d.s.Err(); err != nil {
			return Entry{}, err
		}
		return Entry{}, io.EOF
	}
	return ParseEntry(d.s.Text())
}

// All reads every entry from r.
func All(r io.Reader) ([]Entry, error) {
	dec := NewDecoder(r)
	var entries []Entry
	for {
		e, err := dec.Decode()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
}
