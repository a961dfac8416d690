// Package nanotop reads Nanotop .spm scans. The format has no signature; a
// file is recognised when its 512-byte header declares a resolution that
// accounts for the file size exactly.
package nanotop

import (
	"context"
	"strings"

	"github.com/samcharles93/spmio/pkg/cursor"
	"github.com/samcharles93/spmio/pkg/spm"
	"github.com/samcharles93/spmio/pkg/textheader"
)

const (
	ID         = "nanotop"
	HeaderSize = 512
	// MinFileSize is a header plus one sample.
	MinFileSize = HeaderSize + 2
)

// Header is the fixed 512-byte little endian header.
type Header struct {
	TX, MX   uint16
	TY, MY   uint16
	Kx, Ky   float64
	Kz       float64
	ZUnit    string
	XYUnit   string
	Min, Max uint16
	Timeline uint16
	Date     string
	Time     string
	Note     string
	Version  string
}

// ParseHeader decodes the header. data must hold at least HeaderSize bytes.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, spm.Truncated(ID, "header", HeaderSize, len(data))
	}
	le := cursor.LE
	p := data[:HeaderSize]
	h := &Header{}
	h.TX = cursor.GetUint16(&p, le)
	h.MX = cursor.GetUint16(&p, le)
	h.TY = cursor.GetUint16(&p, le)
	h.MY = cursor.GetUint16(&p, le)
	h.Kx = cursor.GetFloat32(&p, le)
	h.Ky = cursor.GetFloat32(&p, le)
	h.Kz = cursor.GetFloat32(&p, le)
	h.ZUnit = strings.TrimSpace(cursor.GetCharArray0(&p, 6))
	h.XYUnit = strings.TrimSpace(cursor.GetCharArray0(&p, 6))
	h.Min = cursor.GetUint16(&p, le)
	h.Max = cursor.GetUint16(&p, le)
	h.Timeline = cursor.GetUint16(&p, le)
	h.Date = cursor.GetCharArray0(&p, 8)
	h.Time = cursor.GetCharArray0(&p, 5)
	h.Note = textheader.Windows1251(cursor.GetRawCharArray(&p, 301))
	cursor.Skip(&p, 94)
	h.Version = cursor.GetCharArray0(&p, 64)
	return h, nil
}

// DataSize is the payload size implied by the resolution.
func (h *Header) DataSize() int {
	return 2 * int(h.MX) * int(h.MY)
}

type Format struct{}

func New() Format { return Format{} }

func (Format) Info() spm.Info {
	return spm.Info{ID: ID, Label: "Nanotop SPM", Extensions: []string{".spm"}}
}

func (Format) DetectName(info *spm.DetectInfo) int {
	return spm.ExtensionScore(info.NameLower, 15, ".spm")
}

func (Format) DetectContent(info *spm.DetectInfo) int {
	if info.FileSize < MinFileSize || len(info.Head) < 8 {
		return spm.ScoreNone
	}
	p := info.Head
	_ = cursor.GetUint16(&p, cursor.LE)
	mx := int64(cursor.GetUint16(&p, cursor.LE))
	_ = cursor.GetUint16(&p, cursor.LE)
	my := int64(cursor.GetUint16(&p, cursor.LE))
	if HeaderSize+2*mx*my == info.FileSize {
		return spm.ScoreMax
	}
	return spm.ScoreNone
}

func (Format) Load(ctx context.Context, in *spm.Input) (*spm.Result, error) {
	data := in.Data
	if len(data) < MinFileSize {
		return nil, spm.Truncated(ID, "file", MinFileSize, len(data))
	}
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.MX == 0 || h.MY == 0 {
		return nil, spm.Errorf(ID, spm.ErrMalformed, "resolution %dx%d", h.MX, h.MY)
	}
	if want := h.DataSize(); len(data)-HeaderSize != want {
		return nil, spm.SizeMismatch(ID, want, len(data)-HeaderSize)
	}

	layout := spm.PlaneLayout{XRes: int(h.MX), YRes: int(h.MY), Type: spm.Int16, Order: cursor.LE}
	zunit := "m"
	cal := spm.NewCalibration(h.Kz, -9, 0)
	if h.ZUnit == "deg" {
		zunit = "deg"
		cal = spm.NewCalibration(h.Kz, 0, 0)
	}
	values, err := spm.ReadPlane(data[HeaderSize:], layout, cal)
	if err != nil {
		return nil, spm.Wrap(ID, err)
	}

	res := &spm.Result{Format: ID, Meta: spm.Metadata{}}
	g := spm.NewGrid(layout.XRes, layout.YRes, float64(h.MX)*h.Kx*1e-9, float64(h.MY)*h.Ky*1e-9)
	g.Data = values
	g.XYUnit = "m"
	g.ZUnit = zunit
	if g.SanitizeReal() {
		res.Warnf("invalid step size %g x %g nm, using 1 m", h.Kx, h.Ky)
	}
	h.describe(res.Meta)
	res.Channels = []spm.Channel{{Title: "Topography", Grid: g}}
	return res, nil
}

func (h *Header) describe(m spm.Sink) {
	spm.SetNonEmpty(m, "Date", strings.TrimSpace(h.Date))
	spm.SetNonEmpty(m, "Time", strings.TrimSpace(h.Time))
	spm.SetNonEmpty(m, "Note", strings.TrimSpace(h.Note))
	spm.SetNonEmpty(m, "Version", strings.TrimSpace(h.Version))
	spm.SetNonEmpty(m, "Z unit", h.ZUnit)
	spm.SetNonEmpty(m, "XY unit", h.XYUnit)
	spm.Setf(m, "Scan range", "%d x %d", h.TX, h.TY)
	spm.Setf(m, "Timeline", "%d", h.Timeline)
	spm.Setf(m, "Raw range", "%d .. %d", h.Min, h.Max)
}
