// Package bcr reads Image Metrology BCR and BCRF files: a text header of
// "key = value" lines padded to a fixed size, followed by int16 (BCR) or
// float32 (BCRF) samples. Unicode variants store the header as UTF-16.
package bcr

import (
	"bytes"
	"context"
	"math"

	"github.com/samcharles93/spmio/pkg/cursor"
	"github.com/samcharles93/spmio/pkg/spm"
	"github.com/samcharles93/spmio/pkg/textheader"
)

const ID = "bcr"

const (
	// HeaderChars is the default header length in characters.
	HeaderChars = 2048

	voidInt16   = 32767
	voidFloat32 = 1.7e38
)

// Variant is one of the header signatures.
type Variant struct {
	Magic   []byte
	Type    spm.SampleType
	Unicode bool
}

var variants = []Variant{
	{Magic: []byte("fileformat = bcrstm\n"), Type: spm.Int16},
	{Magic: []byte("fileformat = bcrf\n"), Type: spm.Float32},
	{Magic: []byte("fileformat = bcrf\r\n"), Type: spm.Float32},
	{Magic: textheader.EncodeUTF16LE("fileformat = bcrstm_unicode\n"), Type: spm.Int16, Unicode: true},
	{Magic: textheader.EncodeUTF16LE("fileformat = bcrf_unicode\n"), Type: spm.Float32, Unicode: true},
}

// Sniff returns the variant whose signature starts head.
func Sniff(head []byte) (Variant, bool) {
	for _, v := range variants {
		if bytes.HasPrefix(head, v.Magic) {
			return v, true
		}
	}
	return Variant{}, false
}

var headerParser = textheader.Parser{Comments: "#%", Separator: "="}

type Format struct{}

func New() Format { return Format{} }

func (Format) Info() spm.Info {
	return spm.Info{ID: ID, Label: "Image Metrology BCR, BCRF", Extensions: []string{".bcr", ".bcrf"}}
}

func (Format) DetectName(info *spm.DetectInfo) int {
	return spm.ExtensionScore(info.NameLower, 20, ".bcr", ".bcrf")
}

func (Format) DetectContent(info *spm.DetectInfo) int {
	if _, ok := Sniff(info.Head); ok {
		return spm.ScoreMax
	}
	return spm.ScoreNone
}

// ReadHeader decodes the text header and returns it with the payload offset.
func ReadHeader(data []byte) (textheader.Header, Variant, int, error) {
	v, ok := Sniff(data)
	if !ok {
		return nil, v, 0, spm.Errorf(ID, spm.ErrNotThisFormat, "missing fileformat signature")
	}
	size := HeaderChars
	if v.Unicode {
		size *= 2
	}
	if len(data) < size {
		return nil, v, 0, spm.Truncated(ID, "header", size, len(data))
	}
	var text []byte
	if v.Unicode {
		var err error
		text, err = textheader.UTF16LE(data[:size])
		if err != nil {
			return nil, v, 0, spm.Errorf(ID, spm.ErrMalformed, "header is not valid UTF-16: %v", err)
		}
	} else {
		text = textheader.TrimNUL(data[:size])
	}
	hdr := headerParser.Parse(text)

	if n, ok := hdr.Int("headersize"); ok && v.Unicode {
		if n <= 0 || 2*n > len(data) {
			return nil, v, 0, spm.Errorf(ID, spm.ErrMalformed, "header size %d out of range", n)
		}
		size = 2 * n
	}
	return hdr, v, size, nil
}

func (Format) Load(ctx context.Context, in *spm.Input) (*spm.Result, error) {
	data := in.Data
	hdr, v, offset, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	xres, err := hdr.MustInt("xpixels")
	if err != nil {
		return nil, spm.Errorf(ID, spm.ErrMalformed, "%v", err)
	}
	yres, err := hdr.MustInt("ypixels")
	if err != nil {
		return nil, spm.Errorf(ID, spm.ErrMalformed, "%v", err)
	}

	order := cursor.LE
	if mode, ok := hdr.Int("intelmode"); ok && mode == 0 {
		order = cursor.BE
	}
	layout := spm.PlaneLayout{XRes: xres, YRes: yres, Type: v.Type, Order: order}
	if err := layout.Validate(); err != nil {
		return nil, spm.Wrap(ID, err)
	}
	payload := data[offset:]
	if need := layout.PlaneSize(); len(payload) < need {
		return nil, spm.SizeMismatch(ID, need, len(payload))
	}

	res := &spm.Result{Format: ID, Meta: spm.Metadata{}}

	xunit, xq := spm.UnitScale(hdr.StringOr("xunit", "nm"))
	yunit, yq := spm.UnitScale(hdr.StringOr("yunit", "nm"))
	if xunit != yunit {
		res.Warnf("x and y units differ: %s, %s", xunit, yunit)
	}
	xlen, _ := hdr.Float("xlength")
	ylen, _ := hdr.Float("ylength")

	zunit, zpow := spm.ParseUnit(hdr.StringOr("zunit", "nm"))
	factor := 1.0
	if v.Type == spm.Int16 {
		if b, ok := hdr.Float("bit2nm"); ok && b > 0 {
			factor = b
		}
	}
	cal := spm.NewCalibration(factor, zpow, 0)

	raw, err := spm.ReadRaw(payload, layout)
	if err != nil {
		return nil, spm.Wrap(ID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := spm.NewGrid(xres, yres, xlen*xq, ylen*yq)
	g.XYUnit = xunit
	g.ZUnit = zunit
	g.Data = raw
	g.Void = markVoids(raw, v.Type)
	cal.Apply(g.Data)
	if g.SanitizeReal() {
		res.Warnf("missing or invalid physical size, using 1 %s", xunit)
	}

	if zmin, ok := hdr.Float("zmin"); ok && zmin > 0 {
		if s := g.Stats(); s.Valid > 0 {
			// zmin is in z units; bit2nm does not apply to it.
			g.Add(spm.Pow10(zpow)*zmin - s.Min)
		}
	}
	if x, ok := hdr.Float("xoffset"); ok {
		g.XOffset = x * 1e-9
	}
	if y, ok := hdr.Float("yoffset"); ok {
		g.YOffset = y * 1e-9
	}

	describe(res.Meta, hdr)
	res.Channels = []spm.Channel{{Title: "Topography", Grid: g}}
	return res, nil
}

// markVoids flags samples holding the format's "no data" value and zeroes
// them. It returns nil when every sample is valid.
func markVoids(values []float64, t spm.SampleType) []bool {
	var void []bool
	for i, v := range values {
		var bad bool
		if t == spm.Int16 {
			bad = v == voidInt16
		} else {
			bad = v > voidFloat32 || math.IsNaN(v)
		}
		if !bad {
			continue
		}
		if void == nil {
			void = make([]bool, len(values))
		}
		void[i] = true
		values[i] = 0
	}
	return void
}

var metaFields = []struct {
	key   string
	title string
	unit  string
}{
	{"scanspeed", "Scan speed", "nm/s"},
	{"xoffset", "X offset", "nm"},
	{"yoffset", "Y offset", "nm"},
	{"bias", "Bias voltage", "V"},
	{"current", "Tunneling current", "nA"},
	{"starttime", "Scan time", ""},
}

func describe(m spm.Sink, hdr textheader.Header) {
	for _, f := range metaFields {
		v, ok := hdr.String(f.key)
		if !ok || v == "" {
			continue
		}
		if f.unit != "" {
			v += " " + f.unit
		}
		m.Set(f.title, v)
	}
	spm.SetNonEmpty(m, "File format", hdr["fileformat"])
}
