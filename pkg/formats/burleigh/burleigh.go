// Package burleigh reads Burleigh IMG v2.1 images: an 8-byte header, int16
// samples and a 40-byte footer with ranges and scan parameters.
package burleigh

import (
	"context"
	"fmt"
	"math"

	"github.com/samcharles93/spmio/pkg/cursor"
	"github.com/samcharles93/spmio/pkg/spm"
)

const (
	ID         = "burleigh"
	HeaderSize = 8
	FooterSize = 40
	// Version is the only supported version times ten.
	Version = 21
)

// DataType says what the z channel measures.
type DataType uint16

const (
	Current DataType = iota
	Topography
)

// Header is the header and footer together.
type Header struct {
	Version   float64
	XRes      int
	YRes      int
	XRangeMax uint32
	YRangeMax uint32
	ZRangeMax uint32
	XRange    uint32
	YRange    uint32
	ZRange    uint32
	ScanSpeed uint16
	ZoomLevel uint16
	DataType  DataType
	ZGain     uint16
	Bias      float64
	Current   float64
}

func readPreamble(data []byte) (version float64, xres, yres int) {
	p := data[:HeaderSize]
	version = cursor.GetFloat32(&p, cursor.LE)
	xres = int(cursor.GetUint16(&p, cursor.LE))
	yres = int(cursor.GetUint16(&p, cursor.LE))
	return version, xres, yres
}

func versionOK(v float64) bool {
	return math.Round(10*v) == Version
}

// ParseHeader reads the header and the footer that follows the samples.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize+FooterSize {
		return nil, spm.Truncated(ID, "header and footer", HeaderSize+FooterSize, len(data))
	}
	h := &Header{}
	h.Version, h.XRes, h.YRes = readPreamble(data)
	if !versionOK(h.Version) {
		return nil, spm.Errorf(ID, spm.ErrNotThisFormat, "version %.2f", h.Version)
	}
	if h.XRes == 0 || h.YRes == 0 {
		return nil, spm.Errorf(ID, spm.ErrMalformed, "resolution %dx%d", h.XRes, h.YRes)
	}
	if want, have := 2*h.XRes*h.YRes, len(data)-HeaderSize-FooterSize; want != have {
		return nil, spm.SizeMismatch(ID, want, have)
	}

	le := cursor.LE
	p := data[len(data)-FooterSize:]
	h.XRangeMax = cursor.GetUint32(&p, le)
	h.YRangeMax = cursor.GetUint32(&p, le)
	h.ZRangeMax = cursor.GetUint32(&p, le)
	h.XRange = cursor.GetUint32(&p, le)
	h.YRange = cursor.GetUint32(&p, le)
	h.ZRange = cursor.GetUint32(&p, le)
	h.ScanSpeed = cursor.GetUint16(&p, le)
	h.ZoomLevel = cursor.GetUint16(&p, le)
	h.DataType = DataType(cursor.GetUint16(&p, le))
	h.ZGain = cursor.GetUint16(&p, le)
	h.Bias = cursor.GetFloat32(&p, le)
	h.Current = cursor.GetFloat32(&p, le)
	return h, nil
}

type Format struct{}

func New() Format { return Format{} }

func (Format) Info() spm.Info {
	return spm.Info{ID: ID, Label: "Burleigh IMG v2.1", Extensions: []string{".img"}}
}

func (Format) DetectName(info *spm.DetectInfo) int {
	return spm.ExtensionScore(info.NameLower, 10, ".img")
}

func (Format) DetectContent(info *spm.DetectInfo) int {
	if len(info.Head) < HeaderSize || info.FileSize < HeaderSize+FooterSize {
		return spm.ScoreNone
	}
	v, xres, yres := readPreamble(info.Head)
	if !versionOK(v) || xres == 0 || yres == 0 {
		return spm.ScoreNone
	}
	if HeaderSize+FooterSize+2*int64(xres)*int64(yres) == info.FileSize {
		return spm.ScoreMax
	}
	return spm.ScoreNone
}

func (Format) Load(ctx context.Context, in *spm.Input) (*spm.Result, error) {
	h, err := ParseHeader(in.Data)
	if err != nil {
		return nil, err
	}
	res := &spm.Result{Format: ID, Meta: spm.Metadata{}}
	title, zunit := "Topography", "m"
	switch h.DataType {
	case Topography:
	case Current:
		title, zunit = "Current", "A"
	default:
		title = fmt.Sprintf("Data type %d", h.DataType)
		res.Warnf("unknown data type %d, assuming height in m", h.DataType)
	}

	layout := spm.PlaneLayout{XRes: h.XRes, YRes: h.YRes, Type: spm.Int16, Order: cursor.LE}
	cal := spm.NewCalibration(float64(h.ZGain)*float64(h.ZRange), -10, 0)
	values, err := spm.ReadPlane(in.Data[HeaderSize:], layout, cal)
	if err != nil {
		return nil, spm.Wrap(ID, err)
	}

	g := spm.NewGrid(h.XRes, h.YRes, float64(h.XRange)*1e-10, float64(h.YRange)*1e-10)
	g.Data = values
	g.XYUnit = "m"
	g.ZUnit = zunit
	if g.SanitizeReal() {
		res.Warnf("scan range %dx%d, using 1 m", h.XRange, h.YRange)
	}
	h.describe(res.Meta)
	res.Channels = []spm.Channel{{Title: title, Grid: g}}
	return res, nil
}

func (h *Header) describe(m spm.Sink) {
	spm.SetQuantity(m, "Version", h.Version, "")
	spm.Setf(m, "Scan speed", "%d", h.ScanSpeed)
	spm.Setf(m, "Zoom level", "%d", h.ZoomLevel)
	spm.Setf(m, "Z gain", "%d", h.ZGain)
	spm.SetQuantity(m, "Bias voltage", h.Bias, "V")
	spm.SetQuantity(m, "Tunneling current", h.Current, "nA")
	spm.Setf(m, "Maximum range", "%d x %d x %d", h.XRangeMax, h.YRangeMax, h.ZRangeMax)
}
