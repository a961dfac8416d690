package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/spmio/internal/api"
	"github.com/samcharles93/spmio/internal/logger"
	"github.com/samcharles93/spmio/internal/version"
	"github.com/samcharles93/spmio/internal/webui"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxUpload   int64
		keep        int64
		ui          bool
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the detection and decoding HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-upload",
				Usage:       "largest accepted upload in bytes",
				Value:       api.DefaultMaxUpload,
				Destination: &maxUpload,
			},
			&cli.Int64Flag{
				Name:        "keep",
				Usage:       "number of decoded uploads kept for later export",
				Value:       api.DefaultStoreCapacity,
				Destination: &keep,
			},
			&cli.BoolFlag{
				Name:        "ui",
				Usage:       "serve the upload page at /",
				Value:       true,
				Destination: &ui,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, appConfig, &addr, &maxUpload)
			log := logger.FromContext(ctx)

			server := api.NewServer(api.Config{
				Importer:  newImporter(ctx),
				Store:     api.NewLoadStore(int(keep)),
				MaxUpload: maxUpload,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
				return func(c *echo.Context) error {
					c.Response().Header().Set("Server", version.UserAgent())
					return next(c)
				}
			})
			server.Register(e)
			if ui {
				webui.Register(e)
			}

			log.Info("starting server", "address", addr, "max_upload", maxUpload)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					srv.ReadTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
