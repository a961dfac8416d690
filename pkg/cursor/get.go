package cursor

import (
	"encoding/binary"
	"math"
)

// The getters below read from the front of *p and advance it. They assume the
// caller has already checked that enough bytes remain; an overrun panics with
// an index error rather than reading past the slice.

func GetUint8(p *[]byte) uint8 {
	v := (*p)[0]
	*p = (*p)[1:]
	return v
}

func GetInt8(p *[]byte) int8 {
	return int8(GetUint8(p))
}

func GetUint16(p *[]byte, order binary.ByteOrder) uint16 {
	v := order.Uint16(*p)
	*p = (*p)[2:]
	return v
}

func GetInt16(p *[]byte, order binary.ByteOrder) int16 {
	return int16(GetUint16(p, order))
}

func GetUint32(p *[]byte, order binary.ByteOrder) uint32 {
	v := order.Uint32(*p)
	*p = (*p)[4:]
	return v
}

func GetInt32(p *[]byte, order binary.ByteOrder) int32 {
	return int32(GetUint32(p, order))
}

func GetUint64(p *[]byte, order binary.ByteOrder) uint64 {
	v := order.Uint64(*p)
	*p = (*p)[8:]
	return v
}

func GetInt64(p *[]byte, order binary.ByteOrder) int64 {
	return int64(GetUint64(p, order))
}

func GetFloat32(p *[]byte, order binary.ByteOrder) float64 {
	return float64(math.Float32frombits(GetUint32(p, order)))
}

func GetFloat64(p *[]byte, order binary.ByteOrder) float64 {
	return math.Float64frombits(GetUint64(p, order))
}

// GetBytes copies the next n bytes.
func GetBytes(p *[]byte, n int) []byte {
	out := make([]byte, n)
	copy(out, (*p)[:n])
	*p = (*p)[n:]
	return out
}

// GetCharArray reads an n-byte NUL-padded text field.
func GetCharArray(p *[]byte, n int) string {
	s := cstring((*p)[:n])
	*p = (*p)[n:]
	return s
}

// GetCharArray0 reads an n-byte field whose last byte is treated as NUL.
func GetCharArray0(p *[]byte, n int) string {
	b := (*p)[:n]
	*p = (*p)[n:]
	if n == 0 {
		return ""
	}
	return cstring(b[:n-1])
}

// GetRawCharArray reads an n-byte field as raw bytes trimmed at the first NUL.
// Use it when the text needs code page conversion.
func GetRawCharArray(p *[]byte, n int) []byte {
	b := (*p)[:n:n]
	*p = (*p)[n:]
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

func Skip(p *[]byte, n int) {
	*p = (*p)[n:]
}
