package cursor

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

// byteOrder encodes fixtures and decodes them with the same value.
type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func TestGettersRoundTrip(t *testing.T) {
	t.Parallel()

	for _, order := range []byteOrder{binary.LittleEndian, binary.BigEndian} {
		buf := make([]byte, 0, 64)
		buf = append(buf, 0xfe)
		buf = order.AppendUint16(buf, 0xfffe)
		buf = order.AppendUint32(buf, 0x80000001)
		buf = order.AppendUint64(buf, 0x0102030405060708)
		buf = order.AppendUint32(buf, math.Float32bits(-1.5))
		buf = order.AppendUint64(buf, math.Float64bits(6.25e-9))

		p := buf
		if got := GetInt8(&p); got != -2 {
			t.Fatalf("%v int8: got %d", order, got)
		}
		if got := GetInt16(&p, order); got != -2 {
			t.Fatalf("%v int16: got %d", order, got)
		}
		if got := GetUint32(&p, order); got != 0x80000001 {
			t.Fatalf("%v uint32: got %#x", order, got)
		}
		if got := GetUint64(&p, order); got != 0x0102030405060708 {
			t.Fatalf("%v uint64: got %#x", order, got)
		}
		if got := GetFloat32(&p, order); got != -1.5 {
			t.Fatalf("%v float32: got %v", order, got)
		}
		if got := GetFloat64(&p, order); got != 6.25e-9 {
			t.Fatalf("%v float64: got %v", order, got)
		}
		if len(p) != 0 {
			t.Fatalf("%v: %d bytes left over", order, len(p))
		}
	}
}

func TestSignExtension(t *testing.T) {
	t.Parallel()

	c := New([]byte{0xff, 0xff, 0xff, 0xff})
	v, err := c.Int32(LE)
	if err != nil {
		t.Fatalf("int32: %v", err)
	}
	if v != -1 {
		t.Fatalf("int32 sign extension: got %d want -1", v)
	}

	c = New([]byte{0xff, 0xff})
	u, err := c.Uint16(BE)
	if err != nil {
		t.Fatalf("uint16: %v", err)
	}
	if u != 0xffff {
		t.Fatalf("uint16 zero extension: got %d", u)
	}
}

func TestCharArrays(t *testing.T) {
	t.Parallel()

	field := []byte{'a', 'b', 'c', 'd'}
	p := field
	if got := GetCharArray(&p, 4); got != "abcd" {
		t.Fatalf("unterminated char array: got %q", got)
	}
	p = field
	if got := GetCharArray0(&p, 4); got != "abc" {
		t.Fatalf("char array0: got %q", got)
	}
	p = []byte{'n', 'm', 0, 'x', 'y', 'z'}
	if got := GetCharArray(&p, 6); got != "nm" {
		t.Fatalf("nul terminated: got %q", got)
	}

	c := New([]byte{3, 'd', 'e', 'g', 9})
	s, err := c.PascalString()
	if err != nil {
		t.Fatalf("pascal string: %v", err)
	}
	if s != "deg" || c.Offset() != 4 {
		t.Fatalf("pascal string: got %q offset %d", s, c.Offset())
	}
}

func TestCursorFailsWithoutAdvancing(t *testing.T) {
	t.Parallel()

	buf := []byte{1, 2, 3, 4, 5, 6, 7}
	for off := 0; off <= len(buf); off++ {
		reads := []struct {
			name string
			size int
			read func(c *Cursor) error
		}{
			{"uint16", 2, func(c *Cursor) error { _, err := c.Uint16(LE); return err }},
			{"uint32", 4, func(c *Cursor) error { _, err := c.Uint32(BE); return err }},
			{"float64", 8, func(c *Cursor) error { _, err := c.Float64(LE); return err }},
			{"chars", 5, func(c *Cursor) error { _, err := c.CharArray(5); return err }},
		}
		for _, r := range reads {
			c := At(buf, off)
			err := r.read(c)
			fits := len(buf)-off >= r.size
			if fits && err != nil {
				t.Fatalf("%s at %d: unexpected error %v", r.name, off, err)
			}
			if !fits {
				if !errors.Is(err, io.ErrUnexpectedEOF) {
					t.Fatalf("%s at %d: got %v want ErrUnexpectedEOF", r.name, off, err)
				}
				if c.Offset() != off {
					t.Fatalf("%s at %d: cursor moved to %d on failure", r.name, off, c.Offset())
				}
			}
		}
	}
}

func TestPascalStringShortPayload(t *testing.T) {
	t.Parallel()

	c := New([]byte{10, 'a', 'b'})
	if _, err := c.PascalString(); err == nil {
		t.Fatal("expected error for short pascal string")
	}
	if c.Offset() != 0 {
		t.Fatalf("offset after failure: got %d want 0", c.Offset())
	}
}

func TestSeekAndIndex(t *testing.T) {
	t.Parallel()

	buf := []byte("header\r\nData_section  \r\npayload")
	c := New(buf)
	i := c.Index([]byte("Data_section"), 0)
	if i != 8 {
		t.Fatalf("index: got %d want 8", i)
	}
	if got := c.Index([]byte("Data_section"), 10); got != -1 {
		t.Fatalf("bounded index: got %d want -1", got)
	}
	if err := c.Seek(len(buf)); err != nil {
		t.Fatalf("seek to end: %v", err)
	}
	if err := c.Seek(len(buf) + 1); err == nil {
		t.Fatal("seek past end should fail")
	}
	if err := c.Skip(1); err == nil {
		t.Fatal("skip past end should fail")
	}
}
