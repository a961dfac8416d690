package spm

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
)

// SampleType is the on-disk encoding of one sample.
type SampleType uint8

const (
	Int8 SampleType = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
)

// Size returns the sample width in bytes.
func (t SampleType) Size() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64:
		return 8
	}
	panic(fmt.Sprintf("spm: unknown sample type %d", t))
}

func (t SampleType) String() string {
	switch t {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return fmt.Sprintf("SampleType(%d)", uint8(t))
}

// MaxPixels bounds the resolution a header may declare.
const MaxPixels = 1 << 28

// PlaneLayout describes how one plane is laid out in the payload. RowPad is
// the number of padding samples at the start of every row; they are skipped
// and never become pixels.
type PlaneLayout struct {
	XRes   int
	YRes   int
	Type   SampleType
	Order  binary.ByteOrder
	RowPad int
}

func (l PlaneLayout) Validate() error {
	if l.XRes <= 0 || l.YRes <= 0 || l.RowPad < 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrMalformed, l.XRes, l.YRes)
	}
	if l.XRes > MaxPixels/l.YRes {
		return fmt.Errorf("%w: resolution %dx%d too large", ErrMalformed, l.XRes, l.YRes)
	}
	if l.Type.Size() > 1 && l.Order == nil {
		return fmt.Errorf("%w: no byte order for %v samples", ErrMalformed, l.Type)
	}
	return nil
}

// RowSize is the stored size of one row including padding.
func (l PlaneLayout) RowSize() int {
	return (l.XRes + l.RowPad) * l.Type.Size()
}

// PlaneSize is the stored size of the whole plane.
func (l PlaneLayout) PlaneSize() int {
	return l.RowSize() * l.YRes
}

// Calibration maps raw samples to physical values: v = raw*Scale + Offset.
type Calibration struct {
	Scale  float64
	Offset float64
}

// Identity leaves raw values unchanged.
var Identity = Calibration{Scale: 1}

// NewCalibration folds a unit prefix power into a per-format factor. It is
// the only place where the two are combined.
func NewCalibration(factor float64, power10 int, offset float64) Calibration {
	return Calibration{Scale: factor * Pow10(power10), Offset: offset}
}

// ReadRaw decodes a plane without calibration. data must hold at least
// l.PlaneSize() bytes; nothing is decoded otherwise.
func ReadRaw(data []byte, l PlaneLayout) ([]float64, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if need := l.PlaneSize(); len(data) < need {
		return nil, fmt.Errorf("%w: plane needs %d bytes, have %d", ErrTruncated, need, len(data))
	}
	out := make([]float64, l.XRes*l.YRes)
	size := l.Type.Size()
	rowSize := l.RowSize()
	pad := l.RowPad * size
	for row := range l.YRes {
		src := data[row*rowSize+pad : (row+1)*rowSize]
		dst := out[row*l.XRes : (row+1)*l.XRes]
		for col := range dst {
			dst[col] = decodeSample(src[col*size:], l.Type, l.Order)
		}
	}
	return out, nil
}

// ReadPlane decodes a plane and applies cal exactly once.
func ReadPlane(data []byte, l PlaneLayout, cal Calibration) ([]float64, error) {
	out, err := ReadRaw(data, l)
	if err != nil {
		return nil, err
	}
	cal.Apply(out)
	return out, nil
}

// Apply calibrates values in place.
func (c Calibration) Apply(values []float64) {
	for i, v := range values {
		values[i] = v*c.Scale + c.Offset
	}
}

func decodeSample(b []byte, t SampleType, order binary.ByteOrder) float64 {
	switch t {
	case Int8:
		return float64(int8(b[0]))
	case Uint8:
		return float64(b[0])
	case Int16:
		return float64(int16(order.Uint16(b)))
	case Uint16:
		return float64(order.Uint16(b))
	case Int32:
		return float64(int32(order.Uint32(b)))
	case Uint32:
		return float64(order.Uint32(b))
	case Float32:
		return float64(math.Float32frombits(order.Uint32(b)))
	case Float64:
		return math.Float64frombits(order.Uint64(b))
	}
	panic(fmt.Sprintf("spm: unknown sample type %d", t))
}

// SizePolicy decides what happens when a payload holds fewer planes than the
// header declares.
type SizePolicy uint8

const (
	// PolicyStrict fails the load.
	PolicyStrict SizePolicy = iota
	// PolicyClamp keeps the complete planes that are present.
	PolicyClamp
)

func (p SizePolicy) String() string {
	if p == PolicyClamp {
		return "clamp"
	}
	return "strict"
}

// FitPlanes returns how many of the wanted planes of planeSize bytes can be
// read from avail bytes under policy. Under PolicyClamp a short payload
// yields the number of complete planes, or ErrNoData when there are none.
func FitPlanes(avail, planeSize, wanted int, policy SizePolicy) (int, error) {
	if planeSize <= 0 || wanted < 0 {
		return 0, fmt.Errorf("%w: plane size %d", ErrMalformed, planeSize)
	}
	have := max(avail, 0) / planeSize
	if have >= wanted {
		return wanted, nil
	}
	if policy == PolicyStrict {
		return 0, fmt.Errorf("%w: expected %d bytes of data, got %d", ErrSizeMismatch, wanted*planeSize, avail)
	}
	if have == 0 {
		return 0, fmt.Errorf("%w: %d bytes cannot hold a %d byte plane", ErrNoData, avail, planeSize)
	}
	return have, nil
}

// Channels lists the set bits of mask in ascending order.
func Channels(mask uint32) []int {
	out := make([]int, 0, bits.OnesCount32(mask))
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		out = append(out, i)
		mask &^= 1 << i
	}
	return out
}

// CountChannels returns the number of set bits in mask.
func CountChannels(mask uint32) int {
	return bits.OnesCount32(mask)
}
