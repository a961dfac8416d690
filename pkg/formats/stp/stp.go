// Package stp reads STP scan files. A text header starting with "UK SOFT"
// runs up to a "Data_section" marker line and describes one or more buffers;
// the buffers follow the marker back to back as uint16 samples.
package stp

import (
	"context"

	"github.com/samcharles93/spmio/pkg/cursor"
	"github.com/samcharles93/spmio/pkg/spm"
	"github.com/samcharles93/spmio/pkg/textheader"
)

const (
	ID     = "stp"
	Magic  = "UK SOFT\r\n"
	Marker = "Data_section  \r\n"

	// MaxHeaderSize bounds the marker search.
	MaxHeaderSize = 1 << 16
	keyWidth      = 14
)

var lineParser = textheader.Parser{KeyWidth: keyWidth}

// Buffer is one data block described in the header.
type Buffer struct {
	ID     string
	Fields textheader.Header
}

// Header is the parsed text header.
type Header struct {
	Global  textheader.Header
	Buffers []Buffer
	// DataOffset is where the first buffer starts.
	DataOffset int
}

// ParseHeader splits the header at the data marker and groups its fields by
// buffer. Fields before the first buffer_id line are global. Header text is
// Windows-1252.
func ParseHeader(data []byte) (*Header, error) {
	if !spm.HasMagic(data, Magic) {
		return nil, spm.Errorf(ID, spm.ErrNotThisFormat, "missing signature")
	}
	c := cursor.New(data)
	end := c.Index([]byte(Marker), MaxHeaderSize)
	if end < 0 {
		return nil, spm.Errorf(ID, spm.ErrMalformed, "no %q marker within %d bytes", "Data_section", MaxHeaderSize)
	}

	h := &Header{Global: textheader.Header{}, DataOffset: end + len(Marker)}
	cur := h.Global
	text := textheader.Windows1252(data[len(Magic):end])
	r := textheader.NewLineReader([]byte(text))
	for {
		line, ok := r.Next()
		if !ok {
			break
		}
		key, value, ok := lineParser.Split(line)
		if !ok {
			continue
		}
		if key == "buffer_id" {
			h.Buffers = append(h.Buffers, Buffer{ID: value, Fields: textheader.Header{}})
			cur = h.Buffers[len(h.Buffers)-1].Fields
			continue
		}
		cur[key] = value
	}
	if len(h.Buffers) == 0 {
		return nil, spm.Errorf(ID, spm.ErrNoData, "header declares no buffers")
	}
	return h, nil
}

type Format struct{}

func New() Format { return Format{} }

func (Format) Info() spm.Info {
	return spm.Info{ID: ID, Label: "STP scan", Extensions: []string{".stp"}}
}

func (Format) DetectName(info *spm.DetectInfo) int {
	return spm.ExtensionScore(info.NameLower, 20, ".stp")
}

func (Format) DetectContent(info *spm.DetectInfo) int {
	if spm.HasMagic(info.Head, Magic) {
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
	for k, v := range h.Global {
		res.Meta.Set(k, v)
	}

	c := cursor.At(in.Data, h.DataOffset)
	for _, b := range h.Buffers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ch, err := readBuffer(c, b, res)
		if err != nil {
			return nil, spm.Wrap(ID, err)
		}
		if ch.Title == "" {
			ch.Title = "Buffer " + b.ID
		}
		res.Channels = append(res.Channels, ch)
	}
	if c.Remaining() > 0 {
		res.Warnf("%d trailing bytes after last buffer", c.Remaining())
	}
	return res, nil
}

func readBuffer(c *cursor.Cursor, b Buffer, res *spm.Result) (spm.Channel, error) {
	f := b.Fields
	xres, err := f.MustInt("samples_x")
	if err != nil {
		return spm.Channel{}, spm.Errorf(ID, spm.ErrMalformed, "buffer %s: %v", b.ID, err)
	}
	yres, err := f.MustInt("samples_y")
	if err != nil {
		return spm.Channel{}, spm.Errorf(ID, spm.ErrMalformed, "buffer %s: %v", b.ID, err)
	}
	layout := spm.PlaneLayout{XRes: xres, YRes: yres, Type: spm.Uint16, Order: cursor.LE}
	if err := layout.Validate(); err != nil {
		return spm.Channel{}, err
	}
	need := layout.PlaneSize()
	raw, err := c.Bytes(need)
	if err != nil {
		return spm.Channel{}, spm.SizeMismatch(ID, need, c.Remaining())
	}

	xyunit, xq := spm.UnitScale(f.StringOr("unit_x", "nm"))
	zunit, zpow := spm.ParseUnit(f.StringOr("unit_z", ""))
	zscale, ok := f.Float("z_scale")
	if !ok {
		zscale = 1
	}
	values, err := spm.ReadPlane(raw, layout, spm.NewCalibration(zscale, zpow, 0))
	if err != nil {
		return spm.Channel{}, err
	}

	xlen, _ := f.Float("length_x")
	ylen, ok := f.Float("length_y")
	if !ok {
		ylen = xlen * float64(yres) / float64(xres)
	}
	g := spm.NewGrid(xres, yres, xlen*xq, ylen*xq)
	g.Data = values
	g.XYUnit = xyunit
	g.ZUnit = zunit
	if g.SanitizeReal() {
		res.Warnf("buffer %s: missing physical size, using 1 %s", b.ID, xyunit)
	}

	meta := spm.Metadata{}
	for k, v := range f {
		meta.Set(k, v)
	}
	return spm.Channel{Title: f["source_name"], Grid: g, Meta: meta}, nil
}
