package pktline

import (
	"fmt"
	"io"
)

// Writer is a pkt-line writer.
type Writer struct {
	w io.Writer
}

var _ io.Writer = (*Writer)(nil)

// NewWriter returns a Writer writing to w. If w is already a *Writer, it
// is returned unchanged.
func NewWriter(w io.Writer) *Writer {
	if wtr, ok := w.(*Writer); ok {
		return wtr
	}
	return &Writer{w: w}
}

// Write implements io.Writer, writing raw bytes with no pkt-line framing.
func (w *Writer) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

// WritePacket frames p as a single pkt-line and writes it.
func (w *Writer) WritePacket(p []byte) (n int, err error) {
	return WritePacket(w.w, p)
}

// WritePacketString frames s as a single pkt-line and writes it.
func (w *Writer) WritePacketString(s string) (n int, err error) {
	return WritePacket(w.w, []byte(s))
}

// WritePacketf frames a formatted string as a single pkt-line and writes
// it.
func (w *Writer) WritePacketf(format string, a ...interface{}) (n int, err error) {
	if len(a) == 0 {
		return w.WritePacketString(format)
	}
	return w.WritePacketString(fmt.Sprintf(format, a...))
}

// WriteFlush writes a flush-pkt.
func (w *Writer) WriteFlush() error {
	return WriteFlush(w.w)
}

// WriteDelim writes a delim-pkt.
func (w *Writer) WriteDelim() error {
	return WriteDelim(w.w)
}

// WriteError writes e as an ERR pkt-line.
func (w *Writer) WriteError(e error) (n int, err error) {
	return w.WritePacketString("ERR " + e.Error() + "\n")
}

// WritePacket frames p as a single pkt-line (4 hex-digit length prefix +
// payload) and writes it to w. An empty payload writes the "0004"
// empty-line pkt.
func WritePacket(w io.Writer, p []byte) (n int, err error) {
	if len(p) == 0 {
		return w.Write(emptyPkt)
	}

	if len(p) > MaxPayloadSize {
		return 0, ErrPayloadTooLong
	}

	pktlen := len(p) + lenSize
	n, err = w.Write(asciiHex16(pktlen))
	if err != nil {
		return n, err
	}

	n2, err := w.Write(p)
	return n + n2, err
}

// WritePacketf frames a formatted string as a pkt-line and writes it.
func WritePacketf(w io.Writer, format string, a ...interface{}) (n int, err error) {
	if len(a) == 0 {
		return WritePacket(w, []byte(format))
	}
	return WritePacket(w, []byte(fmt.Sprintf(format, a...)))
}

// WritePacketln frames s, with a trailing newline, as a pkt-line.
func WritePacketln(w io.Writer, s string) (n int, err error) {
	return WritePacket(w, []byte(s+"\n"))
}

// WritePacketString frames s as a pkt-line.
func WritePacketString(w io.Writer, s string) (n int, err error) {
	return WritePacket(w, []byte(s))
}

// WriteErrorPacket frames e as an ERR pkt-line.
func WriteErrorPacket(w io.Writer, e error) (n int, err error) {
	return WritePacketf(w, "%s%s\n", errPrefix, e.Error())
}

// WriteFlush writes a flush-pkt ("0000").
func WriteFlush(w io.Writer) error {
	_, err := w.Write(FlushPkt)
	return err
}

// WriteDelim writes a delim-pkt ("0001").
func WriteDelim(w io.Writer) error {
	_, err := w.Write(DelimPkt)
	return err
}

// WriteResponseEnd writes a response-end-pkt ("0002").
func WriteResponseEnd(w io.Writer) error {
	_, err := w.Write(ResponseEndPkt)
	return err
}
