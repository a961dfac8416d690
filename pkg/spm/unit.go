package spm

import (
	"math"
	"strings"
	"unicode/utf8"
)

var siPrefixes = map[string]int{
	"Y": 24, "Z": 21, "E": 18, "P": 15, "T": 12, "G": 9, "M": 6, "k": 3,
	"c": -2, "m": -3, "u": -6, "\u00b5": -6, "\u03bc": -6, "~": -6,
	"n": -9, "p": -12, "f": -15, "a": -18, "z": -21, "y": -24,
}

var baseUnits = map[string]bool{
	"m": true, "g": true, "s": true, "A": true, "K": true, "V": true,
	"N": true, "J": true, "W": true, "Hz": true, "Pa": true, "C": true,
	"F": true, "T": true, "Ohm": true, "Ω": true, "S": true, "Wb": true,
	"H": true, "eV": true, "rad": true, "deg": true, "cd": true, "mol": true,
	"cal": true, "px": true, "pt": true, "cps": true,
}

// ParseUnit splits a unit string such as "nm" or "µV" into its base unit and
// the decimal power of its prefix. Angstroms become metres with power -10, a
// percent sign becomes a unitless -2. Unknown strings are returned verbatim
// with power 0.
func ParseUnit(s string) (unit string, power10 int) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return "", 0
	case "\u00c5", "\u212b", "AA", "Angstrom":
		return "m", -10
	case "%":
		return "", -2
	case "°", "deg":
		return "deg", 0
	}
	if baseUnits[s] {
		return s, 0
	}
	_, size := utf8.DecodeRuneInString(s)
	if size < len(s) {
		if p, ok := siPrefixes[s[:size]]; ok && baseUnits[s[size:]] {
			return s[size:], p
		}
	}
	// Latin-1 micro sign left over from legacy text headers.
	if s[0] == 0xb5 && baseUnits[s[1:]] {
		return s[1:], -6
	}
	return s, 0
}

// Pow10 returns 10**n.
func Pow10(n int) float64 {
	return math.Pow10(n)
}

// UnitScale returns the base unit of s and the factor converting values in s
// to that unit.
func UnitScale(s string) (string, float64) {
	u, p := ParseUnit(s)
	return u, Pow10(p)
}
