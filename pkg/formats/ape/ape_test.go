package ape

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/samcharles93/spmio/pkg/spm"
)

type fixture struct {
	version  uint8
	mode     uint8
	sizeFlag uint16
	vref     float32
	hvGain   float32
	zPiezo   uint32
	mask     uint32
	rangeX   float32
	rangeY   float32
	remark   []byte
	planes   int
}

func defaultFixture() fixture {
	return fixture{
		version:  1,
		mode:     uint8(ModeAFMContact),
		sizeFlag: 0,
		vref:     10,
		hvGain:   2,
		zPiezo:   1000,
		mask:     0b101,
		rangeX:   500,
		rangeY:   250,
		remark:   []byte{'t', 'i', 'p', ' ', 0xb5, 'm'},
		planes:   2,
	}
}

// build lays out a header the way the loader expects and appends planes whose
// pixel values encode their plane, row and column.
func (f fixture) build() []byte {
	le := binary.LittleEndian
	b := make([]byte, 0, HeaderSize)
	b = append(b, f.version, f.mode)
	b = le.AppendUint64(b, math.Float64bits(45000.5))
	b = append(b, 0, 0)
	b = le.AppendUint32(b, math.Float32bits(1000))
	b = le.AppendUint32(b, math.Float32bits(1000))
	b = le.AppendUint32(b, 7)
	b = le.AppendUint32(b, 9)
	b = le.AppendUint16(b, f.sizeFlag)
	for _, v := range []float32{0.1, 0.2, 3, f.vref} {
		b = le.AppendUint32(b, math.Float32bits(v))
	}
	if f.version == 1 {
		b = le.AppendUint16(b, 600)
		b = le.AppendUint16(b, 700)
	} else {
		b = le.AppendUint32(b, math.Float32bits(600))
		b = le.AppendUint32(b, math.Float32bits(700))
	}
	remark := make([]byte, remarkSize)
	copy(remark, f.remark)
	b = append(b, remark...)
	b = le.AppendUint32(b, 100)
	b = le.AppendUint32(b, 100)
	b = le.AppendUint32(b, f.zPiezo)
	b = le.AppendUint32(b, math.Float32bits(f.hvGain))
	b = le.AppendUint64(b, math.Float64bits(32768))
	for range 3 {
		b = le.AppendUint32(b, 0)
	}
	b = le.AppendUint16(b, 1)
	b = le.AppendUint16(b, 2)
	b = le.AppendUint16(b, 3)
	b = le.AppendUint32(b, f.mask)
	b = le.AppendUint32(b, math.Float32bits(f.rangeX))
	b = le.AppendUint32(b, math.Float32bits(f.rangeY))
	b = append(b, make([]byte, MagicOffset-len(b))...)
	b = append(b, Magic...)

	res := 1 << (4 + f.sizeFlag)
	for p := range f.planes {
		for row := range res {
			b = le.AppendUint16(b, 0x7fff)
			for col := range res {
				b = le.AppendUint16(b, uint16(int16(p*1000+row*res+col-100)))
			}
		}
	}
	if len(b) < MinFileSize {
		b = append(b, make([]byte, MinFileSize-len(b))...)
	}
	return b
}

func TestDetectBoundary(t *testing.T) {
	t.Parallel()

	head := make([]byte, MinFileSize)
	head[0] = 1
	head[1] = 3
	copy(head[MagicOffset:], Magic)

	f := New()
	info := spm.NewDetectInfo("scan.dat", head)
	if got := f.DetectContent(info); got != 100 {
		t.Fatalf("full size: got %d want 100", got)
	}
	info = spm.NewDetectInfo("scan.dat", head[:MinFileSize-1])
	if got := f.DetectContent(info); got != 0 {
		t.Fatalf("one byte short: got %d want 0", got)
	}
	if got := f.DetectName(info); got != 10 {
		t.Fatalf("name score: got %d want 10", got)
	}
}

func TestDetectRejects(t *testing.T) {
	t.Parallel()

	base := defaultFixture().build()
	mutations := map[string]func(b []byte){
		"version 0": func(b []byte) { b[0] = 0 },
		"version 3": func(b []byte) { b[0] = 3 },
		"mode 5":    func(b []byte) { b[1] = 5 },
		"magic":     func(b []byte) { b[MagicOffset] = 'X' },
	}
	for name, mutate := range mutations {
		b := append([]byte(nil), base...)
		mutate(b)
		if got := New().DetectContent(spm.NewDetectInfo("a.dat", b)); got != 0 {
			t.Fatalf("%s: got %d want 0", name, got)
		}
	}
}

func TestContentBeatsName(t *testing.T) {
	t.Parallel()

	info := spm.NewDetectInfo("scan.dat", defaultFixture().build())
	f := New()
	if f.DetectContent(info) < f.DetectName(info) {
		t.Fatal("content score below name score for a valid file")
	}
}

func TestLoadCalibratesChannels(t *testing.T) {
	t.Parallel()

	fx := defaultFixture()
	res, err := New().Load(context.Background(), &spm.Input{Name: "a.dat", Data: fx.build()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Channels) != 2 || len(res.Warnings) != 0 {
		t.Fatalf("channels %d warnings %v", len(res.Channels), res.Warnings)
	}
	height, nsom := res.Channels[0], res.Channels[1]
	if height.Title != "Height" || nsom.Title != "NSOM" {
		t.Fatalf("titles: %q %q", height.Title, nsom.Title)
	}
	g := height.Grid
	if g.XRes != 16 || g.YRes != 16 || g.ZUnit != "m" || g.XYUnit != "m" {
		t.Fatalf("height grid: %dx%d %s %s", g.XRes, g.YRes, g.ZUnit, g.XYUnit)
	}
	if math.Abs(g.XReal-500e-9) > 1e-15 || math.Abs(g.YReal-250e-9) > 1e-15 {
		t.Fatalf("real size: %g %g", g.XReal, g.YReal)
	}
	// raw value at (0,0) of plane 0 is -100; padding words are skipped.
	wantZ := -100.0 * 10 / 32768 * 2 * 1000 * 1e-9
	if math.Abs(g.At(0, 0)-wantZ) > 1e-18 {
		t.Fatalf("height(0,0): got %g want %g", g.At(0, 0), wantZ)
	}
	wantV := float64(1000+16+1-100) * 10 / 32768
	if math.Abs(nsom.Grid.At(1, 1)-wantV) > 1e-12 || nsom.Grid.ZUnit != "V" {
		t.Fatalf("nsom(1,1): got %g %s want %g V", nsom.Grid.At(1, 1), nsom.Grid.ZUnit, wantV)
	}
	if res.Meta["Remark"] != "tip µm" {
		t.Fatalf("remark: %q", res.Meta["Remark"])
	}
	if res.Meta["SPM mode"] != "AFM contact" {
		t.Fatalf("mode: %q", res.Meta["SPM mode"])
	}
	if _, ok := res.Meta["Date"]; !ok {
		t.Fatal("missing scan date")
	}
}

func TestLoadVersion2(t *testing.T) {
	t.Parallel()

	fx := defaultFixture()
	fx.version = 2
	res, err := New().Load(context.Background(), &spm.Input{Data: fx.build()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Meta["PMT voltage 2"] != "700 V" {
		t.Fatalf("pmt voltage: %q", res.Meta["PMT voltage 2"])
	}
	if res.Meta["Topography samples per point"] != "1" {
		t.Fatalf("v2 field alignment: %q", res.Meta["Topography samples per point"])
	}
}

func TestLoadClampsShortFile(t *testing.T) {
	t.Parallel()

	fx := defaultFixture()
	fx.sizeFlag = 1 // 32x32, 2112 bytes per plane
	fx.mask = 0b111
	fx.planes = 2
	res, err := New().Load(context.Background(), &spm.Input{Data: fx.build()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Channels) != 2 {
		t.Fatalf("channels: got %d want 2", len(res.Channels))
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", res.Warnings)
	}

	fx.sizeFlag = 3 // 128x128 does not fit in a minimum-size file
	fx.planes = 0
	_, err = New().Load(context.Background(), &spm.Input{Data: fx.build()})
	if !errors.Is(err, spm.ErrNoData) {
		t.Fatalf("no planes: got %v want ErrNoData", err)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	good := defaultFixture().build()
	if _, err := New().Load(context.Background(), &spm.Input{Data: good[:MinFileSize-1]}); !errors.Is(err, spm.ErrTruncated) {
		t.Fatalf("short: got %v", err)
	}

	bad := append([]byte(nil), good...)
	bad[MagicOffset] = 0
	if _, err := New().Load(context.Background(), &spm.Input{Data: bad}); !errors.Is(err, spm.ErrNotThisFormat) {
		t.Fatalf("magic: got %v", err)
	}

	fx := defaultFixture()
	fx.sizeFlag = 9
	fx.planes = 0
	if _, err := New().Load(context.Background(), &spm.Input{Data: fx.build()[:MinFileSize]}); !errors.Is(err, spm.ErrMalformed) {
		t.Fatalf("size flag: got %v", err)
	}

	fx = defaultFixture()
	fx.mask = 0
	if _, err := New().Load(context.Background(), &spm.Input{Data: fx.build()}); !errors.Is(err, spm.ErrNoData) {
		t.Fatalf("empty mask: got %v", err)
	}
}

func TestTruncationNeverPanics(t *testing.T) {
	t.Parallel()

	data := defaultFixture().build()
	f := New()
	for n := range len(data) {
		in := &spm.Input{Data: data[:n]}
		_ = f.DetectContent(spm.NewDetectInfo("x.dat", in.Data))
		if _, err := f.Load(context.Background(), in); err == nil && n < MinFileSize {
			t.Fatalf("length %d: expected error", n)
		}
	}
}

func FuzzLoad(f *testing.F) {
	f.Add(defaultFixture().build())
	f.Add([]byte{})
	f.Add([]byte{1, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		info := spm.NewDetectInfo("fuzz.dat", data)
		_ = New().DetectContent(info)
		_, _ = New().Load(context.Background(), &spm.Input{Data: data})
	})
}
