package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/spmio/pkg/spm"
)

func formatsCmd() *cli.Command {
	return &cli.Command{
		Name:  "formats",
		Usage: "List supported formats in detection order",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			printFormats(os.Stdout, newImporter(ctx).Registry().Formats())
			return nil
		},
	}
}

func printFormats(w io.Writer, formats []spm.Format) {
	for _, f := range formats {
		info := f.Info()
		_, _ = fmt.Fprintf(w, "  %-18s %-36s %s\n", info.ID, info.Label, strings.Join(info.Extensions, " "))
	}
	_, _ = fmt.Fprintf(w, "\n%d format(s)\n", len(formats))
}
