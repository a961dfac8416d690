package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/samcharles93/spmio/pkg/spm"
)

// GSFMagic opens every Gwyddion Simple Field file.
const GSFMagic = "Gwyddion Simple Field 1.0\n"

// WriteGSF writes one channel as a Gwyddion Simple Field: a text header of
// "Key = Value" lines, NUL padding to a multiple of four bytes (at least
// one), then little-endian float32 samples row by row. Void samples are
// written as zero.
func WriteGSF(w io.Writer, ch spm.Channel) error {
	g := ch.Grid
	if err := g.Validate(); err != nil {
		return err
	}

	var hdr strings.Builder
	hdr.WriteString(GSFMagic)
	field := func(k, v string) {
		if v == "" {
			return
		}
		hdr.WriteString(k)
		hdr.WriteString(" = ")
		hdr.WriteString(v)
		hdr.WriteByte('\n')
	}
	num := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	field("XRes", strconv.Itoa(g.XRes))
	field("YRes", strconv.Itoa(g.YRes))
	field("XReal", num(g.XReal))
	field("YReal", num(g.YReal))
	field("XOffset", num(g.XOffset))
	field("YOffset", num(g.YOffset))
	field("XYUnits", g.XYUnit)
	field("ZUnits", g.ZUnit)
	field("Title", oneLine(ch.Title))
	for _, k := range ch.Meta.Keys() {
		if key := gsfKey(k); key != "" {
			field(key, oneLine(ch.Meta[k]))
		}
	}

	pad := 4 - hdr.Len()%4
	hdr.WriteString(strings.Repeat("\x00", pad))

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(hdr.String()); err != nil {
		return err
	}
	var b [4]byte
	for i, v := range g.Data {
		if !g.Valid(i) {
			v = 0
		}
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(v)))
		if _, err := bw.Write(b[:]); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write gsf: %w", err)
	}
	return nil
}

var gsfReserved = map[string]bool{
	"XRes": true, "YRes": true, "XReal": true, "YReal": true,
	"XOffset": true, "YOffset": true, "XYUnits": true, "ZUnits": true, "Title": true,
}

// gsfKey maps a metadata key to a header key. Keys may not contain '=' and
// may not shadow the geometry fields.
func gsfKey(k string) string {
	k = strings.TrimSpace(strings.ReplaceAll(oneLine(k), "=", "_"))
	if k == "" || gsfReserved[k] {
		return ""
	}
	return k
}

func oneLine(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', 0:
			return ' '
		}
		return r
	}, s)
}
