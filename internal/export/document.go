// Package export serialises decoded results for other tools.
package export

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/samcharles93/spmio/pkg/spm"
)

var ErrUnknownKind = errors.New("unknown export format")

// Kind names an output encoding.
type Kind string

const (
	KindJSON Kind = "json"
	KindYAML Kind = "yaml"
	KindGSF  Kind = "gsf"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindJSON, KindYAML, KindGSF:
		return k, nil
	case "yml":
		return KindYAML, nil
	default:
		return "", fmt.Errorf("%w %q (want json, yaml or gsf)", ErrUnknownKind, s)
	}
}

// Options controls what a Document carries besides geometry and metadata.
type Options struct {
	Data  bool
	Stats bool
}

type Document struct {
	Format   string            `json:"format" yaml:"format"`
	Channels []ChannelDocument `json:"channels" yaml:"channels"`
	Meta     map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
	Warnings []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type ChannelDocument struct {
	Index   int               `json:"index" yaml:"index"`
	Title   string            `json:"title" yaml:"title"`
	XRes    int               `json:"xres" yaml:"xres"`
	YRes    int               `json:"yres" yaml:"yres"`
	XReal   float64           `json:"xreal" yaml:"xreal"`
	YReal   float64           `json:"yreal" yaml:"yreal"`
	XOffset float64           `json:"xoffset" yaml:"xoffset"`
	YOffset float64           `json:"yoffset" yaml:"yoffset"`
	XYUnit  string            `json:"xy_unit" yaml:"xy_unit"`
	ZUnit   string            `json:"z_unit" yaml:"z_unit"`
	Stats   *StatsDocument    `json:"stats,omitempty" yaml:"stats,omitempty"`
	Meta    map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
	// Data is row-major. Void samples are listed by index in Void and hold 0.
	Data []float64 `json:"data,omitempty" yaml:"-"`
	Void []int     `json:"void,omitempty" yaml:"-"`
}

type StatsDocument struct {
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Mean  float64 `json:"mean" yaml:"mean"`
	RMS   float64 `json:"rms" yaml:"rms"`
	Valid int     `json:"valid" yaml:"valid"`
}

// NewDocument flattens res. Non-finite samples are reported as void so the
// document always encodes.
func NewDocument(res *spm.Result, opts Options) *Document {
	doc := &Document{
		Format:   res.Format,
		Channels: make([]ChannelDocument, 0, len(res.Channels)),
		Meta:     res.Meta,
		Warnings: res.Warnings,
	}
	for i, ch := range res.Channels {
		g := ch.Grid
		cd := ChannelDocument{
			Index:   i,
			Title:   ch.Title,
			XRes:    g.XRes,
			YRes:    g.YRes,
			XReal:   g.XReal,
			YReal:   g.YReal,
			XOffset: g.XOffset,
			YOffset: g.YOffset,
			XYUnit:  g.XYUnit,
			ZUnit:   g.ZUnit,
			Meta:    ch.Meta,
		}
		if opts.Stats {
			s := g.Stats()
			cd.Stats = &StatsDocument{Min: s.Min, Max: s.Max, Mean: s.Mean, RMS: s.RMS, Valid: s.Valid}
		}
		if opts.Data {
			cd.Data = make([]float64, len(g.Data))
			for j, v := range g.Data {
				if !g.Valid(j) || math.IsNaN(v) || math.IsInf(v, 0) {
					cd.Void = append(cd.Void, j)
					continue
				}
				cd.Data[j] = v
			}
		}
		doc.Channels = append(doc.Channels, cd)
	}
	return doc
}
