package main

import (
	"os"

	"mail-unsubscriber/internal/logging"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig   = "config"
	flagEnvFile  = "env-file"
	flagDryRun   = "dry-run"
	flagLogDir   = "log-dir"
	flagLogLevel = "log-level"
	flagLogFile  = "log-file"
	flagOutput   = "output"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logging.Log.Error(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "unsubscriber",
		Usage: "find unsubscribe links in a mailbox and visit them",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "scan the mailbox once, dispatch every distinct unsubscribe link and record them",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagConfig, Aliases: []string{"c"}, Value: "config.yaml", Usage: "YAML configuration file"},
					&cli.StringFlag{Name: flagEnvFile, Value: ".env", Usage: "dotenv file with EMAIL and PASSWORD"},
					&cli.BoolFlag{Name: flagDryRun, Usage: "scan and record links without visiting them"},
					&cli.StringFlag{Name: flagLogDir, Usage: "directory for the per-run log file"},
					&cli.StringFlag{Name: flagLogLevel, Usage: "log level (debug, info, warn, error)"},
					&cli.BoolFlag{Name: flagLogFile, Usage: "also write logs to logfile_YYYYMMDD_HHMMSS.log"},
					&cli.StringFlag{Name: flagOutput, Aliases: []string{"o"}, Usage: "file receiving the distinct links"},
				},
				Action: runAction,
			},
		},
	}
}
