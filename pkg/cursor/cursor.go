// Package cursor decodes fixed-width integers, floats and strings from byte
// buffers with an explicit byte order.
//
// Two flavours are provided. The package-level getters advance a *[]byte and
// perform no bounds checking of their own: callers verify the header length
// once and then read field after field. Cursor wraps a buffer with an offset
// and checks every read, failing without advancing when the buffer is short.
package cursor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

var (
	LE binary.ByteOrder = binary.LittleEndian
	BE binary.ByteOrder = binary.BigEndian
)

// ShortError reports a read that needed more bytes than remained.
type ShortError struct {
	Offset int
	Need   int
	Have   int
}

func (e *ShortError) Error() string {
	return fmt.Sprintf("short buffer at offset %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

func (e *ShortError) Unwrap() error {
	return io.ErrUnexpectedEOF
}

// Cursor is a bounds-checked read position over an immutable buffer.
type Cursor struct {
	buf []byte
	off int
}

// New returns a cursor positioned at the start of buf.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// At returns a cursor positioned at off. Offsets past the end are clamped.
func At(buf []byte, off int) *Cursor {
	c := &Cursor{buf: buf}
	c.off = min(max(off, 0), len(buf))
	return c
}

func (c *Cursor) Offset() int    { return c.off }
func (c *Cursor) Len() int       { return len(c.buf) }
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// Rest returns the unread part of the buffer without advancing.
func (c *Cursor) Rest() []byte { return c.buf[c.off:] }

// Need fails unless at least n bytes remain.
func (c *Cursor) Need(n int) error {
	if n < 0 || c.Remaining() < n {
		return &ShortError{Offset: c.off, Need: n, Have: c.Remaining()}
	}
	return nil
}

// Skip advances by n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.Need(n); err != nil {
		return err
	}
	c.off += n
	return nil
}

// Seek moves to an absolute offset in [0, Len()].
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.buf) {
		return &ShortError{Offset: c.off, Need: off - c.off, Have: c.Remaining()}
	}
	c.off = off
	return nil
}

func (c *Cursor) take(n int) ([]byte, error) {
	if err := c.Need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.off : c.off+n : c.off+n]
	c.off += n
	return b, nil
}

// Bytes returns a view of the next n bytes. The view aliases the buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	return c.take(n)
}

func (c *Cursor) Uint8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) Int8() (int8, error) {
	v, err := c.Uint8()
	return int8(v), err
}

func (c *Cursor) Uint16(order binary.ByteOrder) (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

func (c *Cursor) Int16(order binary.ByteOrder) (int16, error) {
	v, err := c.Uint16(order)
	return int16(v), err
}

func (c *Cursor) Uint32(order binary.ByteOrder) (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (c *Cursor) Int32(order binary.ByteOrder) (int32, error) {
	v, err := c.Uint32(order)
	return int32(v), err
}

func (c *Cursor) Uint64(order binary.ByteOrder) (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

func (c *Cursor) Int64(order binary.ByteOrder) (int64, error) {
	v, err := c.Uint64(order)
	return int64(v), err
}

// Float32 reads an IEEE-754 single and widens it.
func (c *Cursor) Float32(order binary.ByteOrder) (float64, error) {
	v, err := c.Uint32(order)
	return float64(math.Float32frombits(v)), err
}

func (c *Cursor) Float64(order binary.ByteOrder) (float64, error) {
	v, err := c.Uint64(order)
	return math.Float64frombits(v), err
}

// CharArray reads a fixed n-byte field and returns the text before the first
// NUL, or all n bytes when there is none.
func (c *Cursor) CharArray(n int) (string, error) {
	b, err := c.take(n)
	if err != nil {
		return "", err
	}
	return cstring(b), nil
}

// CharArray0 is CharArray with the last byte of the field forced to NUL, so
// at most n-1 characters survive.
func (c *Cursor) CharArray0(n int) (string, error) {
	b, err := c.take(n)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	return cstring(b[:n-1]), nil
}

// PascalString reads a one-byte length followed by that many bytes.
func (c *Cursor) PascalString() (string, error) {
	start := c.off
	n, err := c.Uint8()
	if err != nil {
		return "", err
	}
	b, err := c.take(int(n))
	if err != nil {
		c.off = start
		return "", err
	}
	return string(b), nil
}

// Index searches for marker in the next limit bytes (or the rest of the
// buffer when limit <= 0) and returns its offset relative to the cursor, or -1.
// The cursor does not move.
func (c *Cursor) Index(marker []byte, limit int) int {
	rest := c.Rest()
	if limit > 0 && limit < len(rest) {
		rest = rest[:limit]
	}
	return bytes.Index(rest, marker)
}

// HasPrefix reports whether the unread bytes start with p.
func (c *Cursor) HasPrefix(p []byte) bool {
	return bytes.HasPrefix(c.Rest(), p)
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
