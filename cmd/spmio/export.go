package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/spmio/internal/export"
	"github.com/samcharles93/spmio/internal/logger"
)

func exportCmd() *cli.Command {
	var (
		kindName string
		outPath  string
		channel  int64
		withData bool
		forceAs  string
	)

	return &cli.Command{
		Name:      "export",
		Usage:     "Decode a file and write it as JSON, YAML or Gwyddion Simple Field",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (json, yaml, gsf)",
				Value:       string(export.KindJSON),
				Destination: &kindName,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path, - for stdout (default: input name with the format's extension)",
				Destination: &outPath,
			},
			&cli.Int64Flag{
				Name:        "channel",
				Aliases:     []string{"c"},
				Usage:       "channel index for gsf output",
				Destination: &channel,
			},
			&cli.BoolFlag{
				Name:        "data",
				Usage:       "include samples in json output",
				Value:       true,
				Destination: &withData,
			},
			asFlag(&forceAs),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyExportConfig(cmd, appConfig, &kindName)
			log := logger.FromContext(ctx)

			if cmd.Args().Len() != 1 {
				return cli.Exit("error: export takes exactly one file", 1)
			}
			in := cmd.Args().First()
			kind, err := export.ParseKind(kindName)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			res, err := newImporter(ctx).LoadFile(ctx, in, forceAs)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			out, err := resolveExportOut(in, outPath, kind, int(channel))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if out == "" {
				return export.Write(os.Stdout, res, kind, int(channel), export.Options{Data: withData, Stats: true})
			}

			if err := writeFile(out, func(w io.Writer) error {
				return export.Write(w, res, kind, int(channel), export.Options{Data: withData, Stats: true})
			}); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Info("exported", "file", in, "out", out, "format", kind)
			return nil
		},
	}
}

// writeFile runs fn against a temporary file in the target directory and
// renames it to path only when fn succeeds.
func writeFile(path string, fn func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".spmio-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := fn(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
