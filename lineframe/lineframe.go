// Package lineframe provides the simplest possible MessageReader and
// MessageWriter: one JSON value per line. It mirrors the reference
// implementation's ReadLineMessageReader/WriteLineMessageWriter
// (service_util.rs), which the original author notes are "of use
// mainly for tests and example code" — the wire framing itself is
// explicitly out of scope for the jsonrpc package proper.
package lineframe

import (
	"bufio"
	"io"
	"sync"
)

// Reader reads one newline-terminated payload per ReadMessage call. It
// implements jsonrpc.MessageReader.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadMessage reads up to and including the next '\n', returning the
// line with the newline stripped. It returns io.EOF once the
// underlying reader is exhausted with no partial line pending.
func (r *Reader) ReadMessage() ([]byte, error) {
	line, err := r.br.ReadBytes('\n')
	if len(line) > 0 {
		if line[len(line)-1] == '\n' {
			line = line[:len(line)-1]
		}
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if err == io.EOF {
			// A final line with no trailing newline: deliver it, then
			// report EOF on the next call.
			return line, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return line, nil
}

// Writer writes each payload followed by a newline, flushing on every
// call so that one WriteMessage call is one atomic frame on the wire.
// A mutex serializes concurrent writers, matching the guarantee the
// jsonrpc package's OutputAgent already provides by construction (only
// one goroutine ever calls WriteMessage at a time) — kept here too so
// Writer is safe to hand to unrelated callers.
type Writer struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteMessage implements jsonrpc.MessageWriter.
func (w *Writer) WriteMessage(payload string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.WriteString(payload); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}
