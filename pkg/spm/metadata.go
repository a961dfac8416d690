package spm

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Sink receives metadata entries from a loader. Setting a key twice keeps the
// last value.
type Sink interface {
	Set(key, value string)
}

// Metadata is the map-backed Sink used by loaders.
type Metadata map[string]string

func (m Metadata) Set(key, value string) {
	m[key] = value
}

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys returns the keys in sorted order.
func (m Metadata) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// SetQuantity stores a number with its unit, e.g. "12.5 nm".
func SetQuantity(s Sink, key string, v float64, unit string) {
	val := strconv.FormatFloat(v, 'g', -1, 64)
	if unit != "" {
		val += " " + unit
	}
	s.Set(key, val)
}

// Setf stores a formatted value.
func Setf(s Sink, key, format string, args ...any) {
	s.Set(key, fmt.Sprintf(format, args...))
}

// SetNonEmpty stores value only when it is not empty.
func SetNonEmpty(s Sink, key, value string) {
	if value != "" {
		s.Set(key, value)
	}
}
