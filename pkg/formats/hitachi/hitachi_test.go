package hitachi

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/samcharles93/spmio/pkg/spm"
)

var le = binary.LittleEndian

func putF64(b []byte, off int, v float64) {
	le.PutUint64(b[off:], math.Float64bits(v))
}

func samples(n int) []byte {
	var b []byte
	for i := range n {
		b = le.AppendUint16(b, uint16(i*100))
	}
	return b
}

func buildNew(xres, yres uint32, xreal, yreal float64) []byte {
	b := make([]byte, 0x280)
	copy(b, Magic+"1.0")
	putF64(b, 0x16c, xreal)
	putF64(b, 0x176, yreal)
	putF64(b, 0x184, 65536)
	le.PutUint32(b[0x1dc:], xres)
	le.PutUint32(b[0x1e0:], yres)
	return append(b, samples(int(xres*yres))...)
}

func buildOld(xres, yres uint16) []byte {
	return buildOldScaled(xres, yres, 1e-8, 10)
}

// buildOldScaled writes x and y scale factors and range counts; the unit
// doubles hold values that must not affect the extent.
func buildOldScaled(xres, yres uint16, scale float64, counts uint32) []byte {
	b := make([]byte, 0x100)
	b[0], b[1] = 0, 1
	le.PutUint16(b[0xc2:], xres)
	le.PutUint16(b[0xc4:], yres)
	putF64(b, 0x42, scale)
	putF64(b, 0x4a, scale)
	putF64(b, 0x52, 2e-10)
	putF64(b, 0x62, 3)
	putF64(b, 0x6a, 3)
	putF64(b, 0x72, 5)
	le.PutUint32(b[0x82:], counts)
	le.PutUint32(b[0x86:], counts)
	le.PutUint32(b[0x8a:], 7)
	return append(b, samples(int(xres)*int(yres))...)
}

func TestDetect(t *testing.T) {
	t.Parallel()

	newer, older := New(), NewOld()
	nd := spm.NewDetectInfo("a.afm", buildNew(4, 4, 100, 100))
	od := spm.NewDetectInfo("a.afm", buildOld(4, 4))

	if got := newer.DetectContent(nd); got != 100 {
		t.Fatalf("new on new: got %d", got)
	}
	if got := older.DetectContent(nd); got != 0 {
		t.Fatalf("old on new: got %d", got)
	}
	if got := older.DetectContent(od); got != 100 {
		t.Fatalf("old on old: got %d", got)
	}
	if got := newer.DetectContent(od); got != 0 {
		t.Fatalf("new on old: got %d", got)
	}
	short := buildOld(4, 4)
	if got := older.DetectContent(spm.NewDetectInfo("a.afm", short[:len(short)-1])); got != 0 {
		t.Fatalf("old short: got %d", got)
	}
	if newer.DetectName(nd) != 10 || older.DetectName(od) != 10 {
		t.Fatal("name score")
	}
	if newer.Info().ID == older.Info().ID {
		t.Fatal("generations must have distinct ids")
	}
}

func TestLoadNewFlipsRows(t *testing.T) {
	t.Parallel()

	res, err := New().Load(context.Background(), &spm.Input{Data: buildNew(2, 3, 200, 300)})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	g := res.Channels[0].Grid
	q := 65536 * 1e-9 / 2 / 65536
	// raw sample i is i*100; the last stored row becomes the first.
	if math.Abs(g.At(0, 0)-400*q) > 1e-18 || math.Abs(g.At(1, 2)-100*q) > 1e-18 {
		t.Fatalf("flip: %v", g.Data)
	}
	if math.Abs(g.XReal-200e-9) > 1e-18 || math.Abs(g.YReal-300e-9) > 1e-18 {
		t.Fatalf("real: %g %g", g.XReal, g.YReal)
	}
	if _, ok := res.Meta["Non-square pixels"]; ok {
		t.Fatal("square pixels flagged")
	}
}

func TestLoadOld(t *testing.T) {
	t.Parallel()

	res, err := NewOld().Load(context.Background(), &spm.Input{Data: buildOld(3, 2)})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	g := res.Channels[0].Grid
	if math.Abs(g.XReal-1e-7) > 1e-20 || g.At(1, 0) != 100*2e-10 {
		t.Fatalf("old grid: %g %v", g.XReal, g.Data)
	}
	if res.Meta["Non-square pixels"] != "yes" {
		t.Fatalf("3x2 over a square area should flag non-square pixels: %v", res.Meta)
	}
}

func TestLoadOldExtentFromRangeCounts(t *testing.T) {
	t.Parallel()

	res, err := NewOld().Load(context.Background(), &spm.Input{Data: buildOldScaled(2, 2, 2e-9, 500)})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	g := res.Channels[0].Grid
	if math.Abs(g.XReal-1e-6) > 1e-18 || math.Abs(g.YReal-1e-6) > 1e-18 {
		t.Fatalf("real: got %g %g want 1e-06", g.XReal, g.YReal)
	}
	if res.Meta["Range counts"] != "500 500 7" {
		t.Fatalf("meta: %v", res.Meta)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	data := buildNew(4, 4, 1, 1)
	if _, err := New().Load(context.Background(), &spm.Input{Data: data[:len(data)-2]}); !errors.Is(err, spm.ErrSizeMismatch) {
		t.Fatalf("short: got %v", err)
	}
	if _, err := New().Load(context.Background(), &spm.Input{Data: append(data, 0, 0)}); !errors.Is(err, spm.ErrSizeMismatch) {
		t.Fatalf("long: got %v", err)
	}
	if _, err := New().Load(context.Background(), &spm.Input{Data: data[:100]}); !errors.Is(err, spm.ErrTruncated) {
		t.Fatalf("header: got %v", err)
	}
	if _, err := New().Load(context.Background(), &spm.Input{Data: buildOld(16, 16)}); !errors.Is(err, spm.ErrNotThisFormat) {
		t.Fatalf("magic: got %v", err)
	}
	if _, err := NewOld().Load(context.Background(), &spm.Input{Data: buildOld(0, 4)}); !errors.Is(err, spm.ErrMalformed) {
		t.Fatalf("zero res: got %v", err)
	}
}

func FuzzLoad(f *testing.F) {
	f.Add(buildNew(2, 2, 1, 1))
	f.Add(buildOld(2, 2))
	f.Add([]byte{})
	f.Fuzz(func(t *testing.T, data []byte) {
		info := spm.NewDetectInfo("f.afm", data)
		for _, fm := range []Format{New(), NewOld()} {
			_ = fm.DetectContent(info)
			_, _ = fm.Load(context.Background(), &spm.Input{Data: data})
		}
	})
}
