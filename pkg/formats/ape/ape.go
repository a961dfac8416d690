// Package ape reads APE Research .dat scans.
//
// A file holds a 240-byte little endian header followed by one square int16
// plane per bit set in the channel mask. Every stored row begins with a
// padding word. Files cut short keep the complete planes that are present.
package ape

import (
	"context"
	"fmt"
	"time"

	"github.com/samcharles93/spmio/pkg/cursor"
	"github.com/samcharles93/spmio/pkg/spm"
)

const ID = "ape"

var channelNames = []string{
	"Height", "Height-R", "NSOM", "NSOM-R", "Error", "Error-R",
	"NSOM2", "NSOM2-R", "Lateral", "Lateral-R",
}

// ChannelName returns the title of mask bit i.
func ChannelName(i int) string {
	if i >= 0 && i < len(channelNames) {
		return channelNames[i]
	}
	return fmt.Sprintf("Channel %d", i)
}

// isHeight reports whether bit i carries topography rather than a voltage.
func isHeight(i int) bool {
	return i == 0 || i == 1
}

type Format struct{}

func New() Format { return Format{} }

func (Format) Info() spm.Info {
	return spm.Info{ID: ID, Label: "APE Research DAT", Extensions: []string{".dat"}}
}

func (Format) DetectName(info *spm.DetectInfo) int {
	return spm.ExtensionScore(info.NameLower, 10, ".dat")
}

func (Format) DetectContent(info *spm.DetectInfo) int {
	if info.FileSize < MinFileSize || len(info.Head) < HeaderSize {
		return spm.ScoreNone
	}
	h := info.Head
	if h[0] < 1 || h[0] > 2 || Mode(h[1]) >= modeLast {
		return spm.ScoreNone
	}
	if string(h[MagicOffset:MagicOffset+len(Magic)]) != Magic {
		return spm.ScoreNone
	}
	return spm.ScoreMax
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
	if h.Channels == 0 {
		return nil, spm.Errorf(ID, spm.ErrNoData, "channel mask is empty")
	}

	res := &spm.Result{Format: ID, Meta: spm.Metadata{}}
	h.describe(res.Meta)

	bits := spm.Channels(h.Channels)
	planeSize := h.PlaneSize()
	n, err := spm.FitPlanes(len(data)-HeaderSize, planeSize, len(bits), spm.PolicyClamp)
	if err != nil {
		return nil, spm.Wrap(ID, err)
	}
	if n < len(bits) {
		res.Warnf("file holds %d of %d channels", n, len(bits))
	}

	layout := spm.PlaneLayout{
		XRes:   h.Res,
		YRes:   h.Res,
		Type:   spm.Int16,
		Order:  cursor.LE,
		RowPad: 1,
	}
	xreal, yreal := h.RangeX, h.RangeY
	for k, bit := range bits[:n] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		off := HeaderSize + k*planeSize
		cal, zunit := h.calibration(bit)
		values, err := spm.ReadPlane(data[off:off+planeSize], layout, cal)
		if err != nil {
			return nil, spm.Wrap(ID, err)
		}
		g := spm.NewGrid(h.Res, h.Res, xreal*1e-9, yreal*1e-9)
		g.Data = values
		g.XYUnit = "m"
		g.ZUnit = zunit
		if g.SanitizeReal() && k == 0 {
			res.Warnf("invalid scan range %gx%g nm, using 1 m", xreal, yreal)
		}
		res.Channels = append(res.Channels, spm.Channel{Title: ChannelName(bit), Grid: g})
	}
	return res, nil
}

// calibration converts raw counts to volts, and height channels further to
// metres through the HV amplifier gain and the z piezo factor in nm/V.
func (h *Header) calibration(bit int) (spm.Calibration, string) {
	volts := h.VRef / 32768
	if isHeight(bit) {
		return spm.NewCalibration(volts*h.HVGain*float64(h.ZPiezo), -9, 0), "m"
	}
	return spm.NewCalibration(volts, 0, 0), "V"
}

func (h *Header) describe(m spm.Sink) {
	spm.Setf(m, "Version", "%d", h.Version)
	m.Set("SPM mode", h.Mode.String())
	if t, ok := h.ScanTime(); ok {
		m.Set("Date", t.Format(time.DateTime))
	}
	spm.SetNonEmpty(m, "Remark", h.Remark)
	spm.SetQuantity(m, "Maximum range X", h.MaxRangeX, "nm")
	spm.SetQuantity(m, "Maximum range Y", h.MaxRangeY, "nm")
	spm.Setf(m, "X offset", "%d", h.XOffset)
	spm.Setf(m, "Y offset", "%d", h.YOffset)
	spm.SetQuantity(m, "Acquire delay", h.AcquireDelay, "s")
	spm.SetQuantity(m, "Raster delay", h.RasterDelay, "s")
	spm.SetQuantity(m, "Tip distance", h.TipDist, "nm")
	spm.SetQuantity(m, "Reference voltage", h.VRef, "V")
	spm.SetQuantity(m, "PMT voltage 1", h.VPMT1, "V")
	spm.SetQuantity(m, "PMT voltage 2", h.VPMT2, "V")
	spm.Setf(m, "Piezo factor X", "%d nm/V", h.XPiezo)
	spm.Setf(m, "Piezo factor Y", "%d nm/V", h.YPiezo)
	spm.Setf(m, "Piezo factor Z", "%d nm/V", h.ZPiezo)
	spm.SetQuantity(m, "HV gain", h.HVGain, "")
	spm.SetQuantity(m, "Tip oscillation frequency", h.FreqOscTip, "Hz")
	spm.SetQuantity(m, "Scan rotation", h.Rotate, "deg")
	spm.SetQuantity(m, "X slope", h.SlopeX, "")
	spm.SetQuantity(m, "Y slope", h.SlopeY, "")
	spm.Setf(m, "Topography samples per point", "%d", h.TopoMeans)
	spm.Setf(m, "Optical samples per point", "%d", h.OpticalMeans)
	spm.Setf(m, "Error samples per point", "%d", h.ErrorMeans)
	spm.Setf(m, "Channel mask", "%#x", h.Channels)
}
