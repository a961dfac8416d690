// Package hitachi reads Hitachi AFM .afm files in two generations. Newer
// files carry an "AFM/Ver. " signature and a 640-byte header; older ones
// have no signature and a 256-byte header. Both store a single uint16 plane.
package hitachi

import (
	"context"
	"math"

	"github.com/samcharles93/spmio/pkg/cursor"
	"github.com/samcharles93/spmio/pkg/spm"
)

const (
	IDNew = "hitachi-afm"
	IDOld = "hitachi-afm-old"

	Magic = "AFM/Ver. "
)

// layout describes where one generation keeps its fields.
type layout struct {
	id         string
	label      string
	headerSize int
	parse      func(data []byte) header
	// flip is set when rows are stored bottom-up.
	flip bool
}

type header struct {
	xres, yres   int
	xreal, yreal float64
	q            float64
	meta         spm.Metadata
}

var newLayout = layout{
	id:         IDNew,
	label:      "Hitachi AFM",
	headerSize: 0x280,
	parse:      parseNew,
	flip:       true,
}

var oldLayout = layout{
	id:         IDOld,
	label:      "Hitachi AFM (old)",
	headerSize: 0x100,
	parse:      parseOld,
}

func parseNew(data []byte) header {
	le := cursor.LE
	p := data[0x16c:]
	xreal := cursor.GetFloat64(&p, le)
	p = data[0x176:]
	yreal := cursor.GetFloat64(&p, le)
	p = data[0x184:]
	zscale := cursor.GetFloat64(&p, le)
	p = data[0x1dc:]
	xres := cursor.GetUint32(&p, le)
	yres := cursor.GetUint32(&p, le)

	h := header{
		xres:  int(xres),
		yres:  int(yres),
		xreal: xreal * 1e-9,
		yreal: yreal * 1e-9,
		q:     zscale * 1e-9 / 2 / 65536,
		meta:  spm.Metadata{},
	}
	spm.SetQuantity(h.meta, "Z scale", zscale, "nm")
	return h
}

func parseOld(data []byte) header {
	le := cursor.LE
	p := data[0xc2:]
	xres := int(cursor.GetUint16(&p, le))
	yres := int(cursor.GetUint16(&p, le))

	p = data[0x42:]
	xscale := cursor.GetFloat64(&p, le)
	yscale := cursor.GetFloat64(&p, le)
	zscale := cursor.GetFloat64(&p, le)

	// The unit doubles at 0x62 carry no calibration.
	p = data[0x62:]
	var units [3]float64
	for i := range units {
		units[i] = cursor.GetFloat64(&p, le)
	}

	p = data[0x82:]
	vx := cursor.GetUint32(&p, le)
	vy := cursor.GetUint32(&p, le)
	vz := cursor.GetUint32(&p, le)

	h := header{
		xres:  xres,
		yres:  yres,
		xreal: xscale * float64(vx),
		yreal: yscale * float64(vy),
		q:     zscale,
		meta:  spm.Metadata{},
	}
	spm.Setf(h.meta, "Range counts", "%d %d %d", vx, vy, vz)
	spm.Setf(h.meta, "Unit fields", "%g %g %g", units[0], units[1], units[2])
	return h
}

// Format decodes one of the two generations.
type Format struct {
	l layout
}

// New returns the decoder for the 640-byte header generation that starts with
// the "AFM/Ver. " signature.
func New() Format { return Format{l: newLayout} }

// NewOld returns the decoder for the older 256-byte header without a
// signature.
func NewOld() Format { return Format{l: oldLayout} }

func (f Format) Info() spm.Info {
	return spm.Info{ID: f.l.id, Label: f.l.label, Extensions: []string{".afm"}}
}

func (f Format) DetectName(info *spm.DetectInfo) int {
	return spm.ExtensionScore(info.NameLower, 10, ".afm")
}

func (f Format) DetectContent(info *spm.DetectInfo) int {
	head := info.Head
	if len(head) < f.l.headerSize || info.FileSize < int64(f.l.headerSize) {
		return spm.ScoreNone
	}
	if f.l.id == IDNew {
		if spm.HasMagic(head, Magic) {
			return spm.ScoreMax
		}
		return spm.ScoreNone
	}
	if head[0] != 0 || head[1] != 1 {
		return spm.ScoreNone
	}
	h := parseOld(head)
	if h.xres > 0 && h.yres > 0 && int64(f.l.headerSize)+2*int64(h.xres)*int64(h.yres) == info.FileSize {
		return spm.ScoreMax
	}
	return spm.ScoreNone
}

func (f Format) Load(ctx context.Context, in *spm.Input) (*spm.Result, error) {
	data := in.Data
	id := f.l.id
	if len(data) < f.l.headerSize {
		return nil, spm.Truncated(id, "header", f.l.headerSize, len(data))
	}
	if id == IDNew && !spm.HasMagic(data, Magic) {
		return nil, spm.Errorf(id, spm.ErrNotThisFormat, "missing %q signature", Magic)
	}
	if id == IDOld && (data[0] != 0 || data[1] != 1) {
		return nil, spm.Errorf(id, spm.ErrNotThisFormat, "unexpected leading bytes %#x %#x", data[0], data[1])
	}
	h := f.l.parse(data)
	pl := spm.PlaneLayout{XRes: h.xres, YRes: h.yres, Type: spm.Uint16, Order: cursor.LE}
	if err := pl.Validate(); err != nil {
		return nil, spm.Wrap(id, err)
	}
	if want, have := pl.PlaneSize(), len(data)-f.l.headerSize; want != have {
		return nil, spm.SizeMismatch(id, want, have)
	}
	values, err := spm.ReadPlane(data[f.l.headerSize:], pl, spm.Calibration{Scale: h.q})
	if err != nil {
		return nil, spm.Wrap(id, err)
	}

	res := &spm.Result{Format: id, Meta: h.meta}
	g := spm.NewGrid(h.xres, h.yres, h.xreal, h.yreal)
	g.Data = values
	g.XYUnit = "m"
	g.ZUnit = "m"
	if f.l.flip {
		g.FlipRows()
	}
	if g.SanitizeReal() {
		res.Warnf("invalid physical size, using 1 m")
	}
	if aspect := (g.XReal / float64(g.XRes)) / (g.YReal / float64(g.YRes)); aspect > math.Sqrt2 || aspect < 1/math.Sqrt2 {
		res.Meta.Set("Non-square pixels", "yes")
		res.Warnf("pixel aspect ratio %.3g", aspect)
	}
	res.Channels = []spm.Channel{{Title: "Topography", Grid: g}}
	return res, nil
}
