package spm

import (
	"fmt"
	"math"
)

// Grid is a calibrated two dimensional sample field stored row-major.
// Lateral sizes are physical extents in XYUnit; samples are in ZUnit.
type Grid struct {
	XRes    int
	YRes    int
	XReal   float64
	YReal   float64
	XOffset float64
	YOffset float64
	XYUnit  string
	ZUnit   string
	Data    []float64
	// Void marks samples with no valid measurement. Nil when every sample is
	// valid.
	Void []bool
}

// NewGrid allocates a zeroed grid.
func NewGrid(xres, yres int, xreal, yreal float64) *Grid {
	return &Grid{
		XRes:  xres,
		YRes:  yres,
		XReal: xreal,
		YReal: yreal,
		Data:  make([]float64, xres*yres),
	}
}

// Validate checks the structural invariants of the grid.
func (g *Grid) Validate() error {
	if g.XRes <= 0 || g.YRes <= 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrMalformed, g.XRes, g.YRes)
	}
	if len(g.Data) != g.XRes*g.YRes {
		return fmt.Errorf("%w: %d samples for %dx%d grid", ErrSizeMismatch, len(g.Data), g.XRes, g.YRes)
	}
	if g.Void != nil && len(g.Void) != len(g.Data) {
		return fmt.Errorf("%w: void mask has %d entries, want %d", ErrSizeMismatch, len(g.Void), len(g.Data))
	}
	return nil
}

// SanitizeReal replaces non-finite or non-positive physical extents with 1
// and reports whether anything was changed.
func (g *Grid) SanitizeReal() bool {
	fixed := false
	if !(g.XReal > 0) || math.IsInf(g.XReal, 0) {
		g.XReal = 1
		fixed = true
	}
	if !(g.YReal > 0) || math.IsInf(g.YReal, 0) {
		g.YReal = 1
		fixed = true
	}
	return fixed
}

func (g *Grid) At(col, row int) float64 {
	return g.Data[row*g.XRes+col]
}

func (g *Grid) Set(col, row int, v float64) {
	g.Data[row*g.XRes+col] = v
}

// Valid reports whether sample i carries a measurement.
func (g *Grid) Valid(i int) bool {
	return g.Void == nil || !g.Void[i]
}

// Multiply scales every sample.
func (g *Grid) Multiply(q float64) {
	for i := range g.Data {
		g.Data[i] *= q
	}
}

// Add shifts every sample.
func (g *Grid) Add(v float64) {
	for i := range g.Data {
		g.Data[i] += v
	}
}

// FlipRows reverses row order, turning bottom-up storage into top-down.
func (g *Grid) FlipRows() {
	for top, bot := 0, g.YRes-1; top < bot; top, bot = top+1, bot-1 {
		a := g.Data[top*g.XRes : (top+1)*g.XRes]
		b := g.Data[bot*g.XRes : (bot+1)*g.XRes]
		for i := range a {
			a[i], b[i] = b[i], a[i]
		}
		if g.Void != nil {
			va := g.Void[top*g.XRes : (top+1)*g.XRes]
			vb := g.Void[bot*g.XRes : (bot+1)*g.XRes]
			for i := range va {
				va[i], vb[i] = vb[i], va[i]
			}
		}
	}
}

// Stats summarises the valid samples of a grid.
type Stats struct {
	Min   float64
	Max   float64
	Mean  float64
	RMS   float64
	Valid int
}

// Stats computes summary statistics over valid samples. RMS is the root mean
// square deviation from the mean.
func (g *Grid) Stats() Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for i, v := range g.Data {
		if !g.Valid(i) {
			continue
		}
		s.Valid++
		sum += v
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
	}
	if s.Valid == 0 {
		return Stats{}
	}
	s.Mean = sum / float64(s.Valid)
	var sq float64
	for i, v := range g.Data {
		if g.Valid(i) {
			d := v - s.Mean
			sq += d * d
		}
	}
	s.RMS = math.Sqrt(sq / float64(s.Valid))
	return s
}

// Channel is one named plane of a loaded file.
type Channel struct {
	Title string
	Grid  *Grid
	Meta  Metadata
}

// Result is everything a loader extracted from one file.
type Result struct {
	Format   string
	Channels []Channel
	Meta     Metadata
	Warnings []string
}

// Warnf records a non-fatal problem encountered while loading.
func (r *Result) Warnf(msg string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(msg, args...))
}
