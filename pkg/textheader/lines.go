// Package textheader splits and parses the key/value text headers that many
// instrument formats put in front of their binary payload.
package textheader

import "iter"

// LineReader yields successive lines of a buffer without copying. Lines may
// be terminated by "\n", "\r\n" or a bare "\r", freely mixed. The terminator
// is not part of the returned line.
type LineReader struct {
	buf []byte
}

func NewLineReader(buf []byte) *LineReader {
	return &LineReader{buf: buf}
}

// Next returns the next line. It reports false once the buffer is exhausted.
// A final segment without a terminator is returned as a line; an empty
// remainder is not.
func (r *LineReader) Next() ([]byte, bool) {
	if len(r.buf) == 0 {
		return nil, false
	}
	for i, c := range r.buf {
		switch c {
		case '\n':
			line := r.buf[:i:i]
			r.buf = r.buf[i+1:]
			return line, true
		case '\r':
			line := r.buf[:i:i]
			if i+1 < len(r.buf) && r.buf[i+1] == '\n' {
				r.buf = r.buf[i+2:]
			} else {
				r.buf = r.buf[i+1:]
			}
			return line, true
		}
	}
	line := r.buf
	r.buf = nil
	return line, true
}

// Rest returns the bytes not yet consumed.
func (r *LineReader) Rest() []byte {
	return r.buf
}

// Lines iterates over the lines of buf with the same rules as LineReader.
func Lines(buf []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		r := NewLineReader(buf)
		for {
			line, ok := r.Next()
			if !ok || !yield(line) {
				return
			}
		}
	}
}
