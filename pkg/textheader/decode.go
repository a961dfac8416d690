package textheader

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Windows1252 converts legacy Western code page text to UTF-8. Invalid input
// is returned unchanged.
func Windows1252(b []byte) string {
	return decodeCharmap(charmap.Windows1252, b)
}

// Windows1251 converts legacy Cyrillic code page text to UTF-8.
func Windows1251(b []byte) string {
	return decodeCharmap(charmap.Windows1251, b)
}

func decodeCharmap(cm *charmap.Charmap, b []byte) string {
	out, err := cm.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// UTF16LE converts little endian UTF-16 text without a byte order mark to
// UTF-8. Decoding stops at the first NUL code unit.
func UTF16LE(b []byte) ([]byte, error) {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			b = b[:i]
			break
		}
	}
	if len(b)%2 == 1 {
		b = b[:len(b)-1]
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	return dec.Bytes(b)
}

// EncodeUTF16LE is the inverse of UTF16LE and is mostly useful for building
// fixtures.
func EncodeUTF16LE(s string) []byte {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil
	}
	return out
}

// TrimNUL cuts b at its first NUL byte.
func TrimNUL(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}
