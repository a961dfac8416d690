package main

import "github.com/urfave/cli/v3"

var (
	logLevel   string
	logFormat  string
	debug      bool
	configFile string

	// appConfig is the file configuration loaded by setup.
	appConfig Config
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Usage:       "path to config.yaml",
		Sources:     cli.EnvVars(envConfig),
		Destination: &configFile,
	}
}

// asFlag forces a decoder instead of running detection.
func asFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "as",
		Usage:       "decode as this format id instead of detecting (see spmio formats)",
		Destination: dest,
	}
}
