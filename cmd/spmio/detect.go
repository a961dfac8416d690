package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/spmio/internal/logger"
)

func detectCmd() *cli.Command {
	var (
		nameOnly bool
		all      bool
	)

	return &cli.Command{
		Name:      "detect",
		Usage:     "Report which format each file is",
		ArgsUsage: "FILE|DIR...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "name-only",
				Usage:       "score file names only, without reading content",
				Destination: &nameOnly,
			},
			&cli.BoolFlag{
				Name:        "all",
				Aliases:     []string{"a"},
				Usage:       "list every candidate with its score",
				Destination: &all,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyDetectConfig(cmd, appConfig, &nameOnly)
			log := logger.FromContext(ctx)

			paths, err := collectInputs(cmd.Args().Slice())
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			im := newImporter(ctx)

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			unknown := 0
			for _, path := range paths {
				cands, err := im.DetectFile(ctx, path, nameOnly)
				if err != nil {
					log.Error("detect failed", "file", path, "error", err)
					unknown++
					continue
				}
				if len(cands) == 0 {
					unknown++
					_, _ = fmt.Fprintf(tw, "%s\t-\t0\n", path)
					continue
				}
				shown := cands[:1]
				if all {
					shown = cands
				}
				for _, c := range shown {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", path, c.ID(), c.Score)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if unknown == len(paths) {
				return cli.Exit("no file was recognised", 2)
			}
			return nil
		},
	}
}
