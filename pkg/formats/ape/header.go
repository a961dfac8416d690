package ape

import (
	"fmt"
	"math"
	"time"

	"github.com/samcharles93/spmio/pkg/cursor"
	"github.com/samcharles93/spmio/pkg/spm"
	"github.com/samcharles93/spmio/pkg/textheader"
)

const (
	HeaderSize  = 240
	MagicOffset = 234
	Magic       = "APERES"
	// MinFileSize is the smallest file accepted by detection and loading.
	MinFileSize = 1294

	maxSizeFlag = 6
	remarkSize  = 120
)

// Mode is the acquisition mode recorded in the header.
type Mode uint8

const (
	ModeSNOM Mode = iota
	ModeAFMNonContact
	ModeAFMContact
	ModeSTM
	ModePhaseDetectAFM
	modeLast
)

func (m Mode) String() string {
	switch m {
	case ModeSNOM:
		return "SNOM"
	case ModeAFMNonContact:
		return "AFM non-contact"
	case ModeAFMContact:
		return "AFM contact"
	case ModeSTM:
		return "STM"
	case ModePhaseDetectAFM:
		return "Phase detection AFM"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Header is the fixed file header. Fields that version 1 stores as integers
// are widened to the version 2 float representation.
type Header struct {
	Version      uint8
	Mode         Mode
	Date         float64
	MaxRangeX    float64
	MaxRangeY    float64
	XOffset      uint32
	YOffset      uint32
	SizeFlag     uint16
	Res          int
	AcquireDelay float64
	RasterDelay  float64
	TipDist      float64
	VRef         float64
	VPMT1        float64
	VPMT2        float64
	Remark       string
	XPiezo       uint32
	YPiezo       uint32
	ZPiezo       uint32
	HVGain       float64
	FreqOscTip   float64
	Rotate       float64
	SlopeX       float64
	SlopeY       float64
	TopoMeans    uint16
	OpticalMeans uint16
	ErrorMeans   uint16
	Channels     uint32
	RangeX       float64
	RangeY       float64
}

// ParseHeader decodes and validates the header at the start of data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, spm.Truncated(ID, "header", HeaderSize, len(data))
	}
	if string(data[MagicOffset:MagicOffset+len(Magic)]) != Magic {
		return nil, spm.Errorf(ID, spm.ErrNotThisFormat, "missing %s signature", Magic)
	}

	le := cursor.LE
	p := data[:MagicOffset]
	h := &Header{}
	h.Version = cursor.GetUint8(&p)
	h.Mode = Mode(cursor.GetUint8(&p))
	if h.Version < 1 || h.Version > 2 {
		return nil, spm.Errorf(ID, spm.ErrMalformed, "unsupported version %d", h.Version)
	}
	if h.Mode >= modeLast {
		return nil, spm.Errorf(ID, spm.ErrMalformed, "unknown SPM mode %d", h.Mode)
	}
	h.Date = cursor.GetFloat64(&p, le)
	cursor.Skip(&p, 2)
	h.MaxRangeX = cursor.GetFloat32(&p, le)
	h.MaxRangeY = cursor.GetFloat32(&p, le)
	h.XOffset = cursor.GetUint32(&p, le)
	h.YOffset = cursor.GetUint32(&p, le)
	h.SizeFlag = cursor.GetUint16(&p, le)
	if h.SizeFlag > maxSizeFlag {
		return nil, spm.Errorf(ID, spm.ErrMalformed, "size flag %d out of range", h.SizeFlag)
	}
	h.Res = 1 << (4 + h.SizeFlag)
	h.AcquireDelay = cursor.GetFloat32(&p, le)
	h.RasterDelay = cursor.GetFloat32(&p, le)
	h.TipDist = cursor.GetFloat32(&p, le)
	h.VRef = cursor.GetFloat32(&p, le)
	if h.Version == 1 {
		h.VPMT1 = float64(cursor.GetUint16(&p, le))
		h.VPMT2 = float64(cursor.GetUint16(&p, le))
	} else {
		h.VPMT1 = cursor.GetFloat32(&p, le)
		h.VPMT2 = cursor.GetFloat32(&p, le)
	}
	h.Remark = textheader.Windows1252(cursor.GetRawCharArray(&p, remarkSize))
	h.XPiezo = cursor.GetUint32(&p, le)
	h.YPiezo = cursor.GetUint32(&p, le)
	h.ZPiezo = cursor.GetUint32(&p, le)
	h.HVGain = cursor.GetFloat32(&p, le)
	h.FreqOscTip = cursor.GetFloat64(&p, le)
	h.Rotate = cursor.GetFloat32(&p, le)
	h.SlopeX = cursor.GetFloat32(&p, le)
	h.SlopeY = cursor.GetFloat32(&p, le)
	h.TopoMeans = cursor.GetUint16(&p, le)
	h.OpticalMeans = cursor.GetUint16(&p, le)
	h.ErrorMeans = cursor.GetUint16(&p, le)
	h.Channels = cursor.GetUint32(&p, le)
	h.RangeX = cursor.GetFloat32(&p, le)
	h.RangeY = cursor.GetFloat32(&p, le)
	return h, nil
}

// PlaneSize is the stored size of one channel: Res rows of one padding word
// followed by Res samples.
func (h *Header) PlaneSize() int {
	return h.Res * (h.Res + 1) * 2
}

// ScanTime converts the Delphi day count to a time. It reports false for
// values outside a plausible range.
func (h *Header) ScanTime() (time.Time, bool) {
	if !(h.Date > 0 && h.Date < 2958466) {
		return time.Time{}, false
	}
	days := math.Floor(h.Date)
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	t := epoch.AddDate(0, 0, int(days))
	return t.Add(time.Duration((h.Date - days) * float64(24*time.Hour))).Round(time.Second), true
}
