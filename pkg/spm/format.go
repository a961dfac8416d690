package spm

import (
	"context"
	"strings"
)

// DetectBufferSize bounds the head and tail slices handed to detectors.
const DetectBufferSize = 4096

// Score bounds.
const (
	ScoreNone = 0
	ScoreMax  = 100
)

// DetectInfo is what a detector may look at: the file name, its size, and
// bounded slices from the start and end of the file.
type DetectInfo struct {
	Name      string
	NameLower string
	FileSize  int64
	Head      []byte
	Tail      []byte
}

// NewDetectInfo builds detect info for a file held entirely in memory.
func NewDetectInfo(name string, data []byte) *DetectInfo {
	n := min(len(data), DetectBufferSize)
	return &DetectInfo{
		Name:      name,
		NameLower: strings.ToLower(name),
		FileSize:  int64(len(data)),
		Head:      data[:n:n],
		Tail:      data[len(data)-n:],
	}
}

// NameOnly builds detect info carrying just a file name.
func NameOnly(name string) *DetectInfo {
	return &DetectInfo{Name: name, NameLower: strings.ToLower(name)}
}

// Info identifies a format.
type Info struct {
	ID         string
	Label      string
	Extensions []string
}

// Input is a file to load.
type Input struct {
	Name string
	Data []byte
}

// Format is one file format decoder.
//
// DetectName scores a file by name alone. DetectContent scores it by its
// bytes and must never fail or panic on short or garbage input. For a well
// formed file the content score is at least the name score. Load decodes the
// whole file or returns an error wrapping one of the sentinel kinds.
type Format interface {
	Info() Info
	DetectName(info *DetectInfo) int
	DetectContent(info *DetectInfo) int
	Load(ctx context.Context, in *Input) (*Result, error)
}

// ExtensionScore returns score when the lower-cased name ends in one of exts.
func ExtensionScore(nameLower string, score int, exts ...string) int {
	for _, ext := range exts {
		if strings.HasSuffix(nameLower, ext) {
			return score
		}
	}
	return ScoreNone
}

// HasMagic reports whether head starts with any of magics.
func HasMagic(head []byte, magics ...string) bool {
	for _, m := range magics {
		if len(head) >= len(m) && string(head[:len(m)]) == m {
			return true
		}
	}
	return false
}
