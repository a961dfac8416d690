package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/spmio/internal/export"
	"github.com/samcharles93/spmio/pkg/spm"
)

func inspectCmd() *cli.Command {
	var (
		asJSON    bool
		showMeta  bool
		showStats bool
		withData  bool
		forceAs   string
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Decode a file and print its channels and metadata",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the decoded document as JSON",
				Destination: &asJSON,
			},
			&cli.BoolFlag{
				Name:        "meta",
				Usage:       "print file and channel metadata",
				Destination: &showMeta,
			},
			&cli.BoolFlag{
				Name:        "stats",
				Usage:       "print per-channel min, max, mean and rms",
				Destination: &showStats,
			},
			&cli.BoolFlag{
				Name:        "data",
				Usage:       "include samples in --json output",
				Destination: &withData,
			},
			asFlag(&forceAs),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("error: inspect takes exactly one file", 1)
			}
			path := cmd.Args().First()
			stat, err := os.Stat(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: stat %q: %v", path, err), 1)
			}

			res, err := newImporter(ctx).LoadFile(ctx, path, forceAs)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			if asJSON {
				return export.WriteJSON(os.Stdout, res, export.Options{Data: withData, Stats: true})
			}
			printResult(os.Stdout, filepath.Base(path), stat.Size(), res, showMeta, showStats)
			return nil
		},
	}
}

func printResult(w io.Writer, name string, size int64, res *spm.Result, showMeta, showStats bool) {
	_, _ = fmt.Fprintf(w, "File: %s (%s)\n", name, formatBytes(uint64(size)))
	row(w, "Format", res.Format)
	rowInt(w, "Channels", len(res.Channels))

	for i, ch := range res.Channels {
		g := ch.Grid
		section(w, fmt.Sprintf("Channel %d: %s", i, ch.Title))
		row(w, "Resolution", fmt.Sprintf("%d x %d", g.XRes, g.YRes))
		row(w, "Size", formatQuantity(g.XReal, g.XYUnit)+" x "+formatQuantity(g.YReal, g.XYUnit))
		if g.XOffset != 0 || g.YOffset != 0 {
			row(w, "Offset", formatQuantity(g.XOffset, g.XYUnit)+", "+formatQuantity(g.YOffset, g.XYUnit))
		}
		row(w, "Value unit", g.ZUnit)
		if showStats {
			s := g.Stats()
			row(w, "Min", formatQuantity(s.Min, g.ZUnit))
			row(w, "Max", formatQuantity(s.Max, g.ZUnit))
			row(w, "Mean", formatQuantity(s.Mean, g.ZUnit))
			row(w, "RMS", formatQuantity(s.RMS, g.ZUnit))
			if s.Valid != len(g.Data) {
				row(w, "Valid samples", fmt.Sprintf("%d of %d", s.Valid, len(g.Data)))
			}
		}
		if showMeta {
			for _, k := range ch.Meta.Keys() {
				row(w, k, ch.Meta[k])
			}
		}
	}

	if showMeta && len(res.Meta) > 0 {
		section(w, "Metadata")
		for _, k := range res.Meta.Keys() {
			row(w, k, res.Meta[k])
		}
	}
	if len(res.Warnings) > 0 {
		section(w, "Warnings")
		for _, msg := range res.Warnings {
			_, _ = fmt.Fprintf(w, "- %s\n", msg)
		}
	}
}

func section(w io.Writer, title string) {
	line := strings.Repeat("-", len(title)+8)
	_, _ = fmt.Fprintf(w, "\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	_, _ = fmt.Fprintf(w, "%-24s %s\n", label+":", value)
}

func rowInt(w io.Writer, label string, v int) {
	row(w, label, fmt.Sprintf("%d", v))
}

var siPrefixes = []struct {
	exp    int
	prefix string
}{
	{9, "G"}, {6, "M"}, {3, "k"}, {0, ""}, {-3, "m"}, {-6, "µ"}, {-9, "n"}, {-12, "p"}, {-15, "f"},
}

// formatQuantity renders v in unit with an engineering SI prefix. Units that
// do not take prefixes are printed as is.
func formatQuantity(v float64, unit string) string {
	if unit == "" || unit == "deg" || v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return strings.TrimSpace(fmt.Sprintf("%.4g %s", v, unit))
	}
	exp := int(math.Floor(math.Log10(math.Abs(v))/3)) * 3
	for _, p := range siPrefixes {
		if exp >= p.exp {
			return fmt.Sprintf("%.4g %s%s", v/math.Pow10(p.exp), p.prefix, unit)
		}
	}
	last := siPrefixes[len(siPrefixes)-1]
	return fmt.Sprintf("%.4g %s%s", v/math.Pow10(last.exp), last.prefix, unit)
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
