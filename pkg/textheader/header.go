package textheader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Header holds parsed key/value pairs. When a key repeats, the last value wins.
type Header map[string]string

// Parser describes one text header dialect.
type Parser struct {
	// Comments lists the bytes that start a comment line.
	Comments string
	// Separator splits key from value, e.g. "=" or ":".
	Separator string
	// KeyWidth, when positive, splits lines at a fixed column instead of
	// at Separator.
	KeyWidth int
}

// Split parses one line. It reports false for blank lines, comments and
// lines without a separator.
func (p Parser) Split(line []byte) (key, value string, ok bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return "", "", false
	}
	if p.Comments != "" && bytes.IndexByte([]byte(p.Comments), trimmed[0]) >= 0 {
		return "", "", false
	}
	if p.KeyWidth > 0 {
		// The key column is counted from the start of the raw line.
		if len(line) <= p.KeyWidth {
			return string(trimmed), "", true
		}
		k := bytes.TrimSpace(line[:p.KeyWidth])
		if len(k) == 0 {
			return "", "", false
		}
		return string(k), string(bytes.TrimSpace(line[p.KeyWidth:])), true
	}
	line = trimmed
	i := bytes.Index(line, []byte(p.Separator))
	if i <= 0 {
		return "", "", false
	}
	k := bytes.TrimSpace(line[:i])
	if len(k) == 0 {
		return "", "", false
	}
	return string(k), string(bytes.TrimSpace(line[i+len(p.Separator):])), true
}

// Parse reads every line of buf into a Header.
func (p Parser) Parse(buf []byte) Header {
	h := make(Header)
	for line := range Lines(buf) {
		if k, v, ok := p.Split(line); ok {
			h[k] = v
		}
	}
	return h
}

func (h Header) String(key string) (string, bool) {
	v, ok := h[key]
	return v, ok
}

// StringOr returns the value for key or def when it is missing or empty.
func (h Header) StringOr(key, def string) string {
	if v, ok := h[key]; ok && v != "" {
		return v
	}
	return def
}

func (h Header) Int(key string) (int, bool) {
	v, ok := h[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float parses the leading number of the value, so "12.5 nm" yields 12.5.
func (h Header) Float(key string) (float64, bool) {
	v, ok := h[key]
	if !ok {
		return 0, false
	}
	f, _, ok := LeadingFloat(v)
	return f, ok
}

func (h Header) MustString(key string) (string, error) {
	v, ok := h[key]
	if !ok || v == "" {
		return "", fmt.Errorf("missing header field %s", key)
	}
	return v, nil
}

func (h Header) MustInt(key string) (int, error) {
	v, ok := h.Int(key)
	if !ok {
		return 0, fmt.Errorf("missing or invalid header field %s", key)
	}
	return v, nil
}

func (h Header) MustFloat(key string) (float64, error) {
	v, ok := h.Float(key)
	if !ok {
		return 0, fmt.Errorf("missing or invalid header field %s", key)
	}
	return v, nil
}

// LeadingFloat parses a number at the start of s and returns the trimmed
// remainder, typically a unit.
func LeadingFloat(s string) (float64, string, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || c == '+' || c == '-' {
			end++
			continue
		}
		if (c == 'e' || c == 'E') && end > 0 && end+1 < len(s) {
			n := s[end+1]
			if (n >= '0' && n <= '9') || n == '+' || n == '-' {
				end++
				continue
			}
		}
		break
	}
	for end > 0 {
		f, err := strconv.ParseFloat(s[:end], 64)
		if err == nil {
			return f, strings.TrimSpace(s[end:]), true
		}
		end--
	}
	return 0, s, false
}
