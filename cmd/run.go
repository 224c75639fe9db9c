package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mail-unsubscriber/internal/config"
	imapclient "mail-unsubscriber/internal/imap"
	"mail-unsubscriber/internal/logging"
	"mail-unsubscriber/internal/models"
	"mail-unsubscriber/internal/pipeline"
	"mail-unsubscriber/internal/record"
	"mail-unsubscriber/internal/telemetry"
	"mail-unsubscriber/internal/unsubscribe"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// overrides are the command line values that take precedence over the config file
type overrides struct {
	DryRun   bool
	LogDir   string
	LogLevel string
	LogFile  bool
	Output   string
}

func overridesFrom(c *cli.Context) overrides {
	return overrides{
		DryRun:   c.Bool(flagDryRun),
		LogDir:   c.String(flagLogDir),
		LogLevel: c.String(flagLogLevel),
		LogFile:  c.Bool(flagLogFile),
		Output:   c.String(flagOutput),
	}
}

func (o overrides) apply(cfg *models.Config) {
	if o.DryRun {
		cfg.Dispatch.DryRun = true
	}
	if o.LogDir != "" {
		cfg.Logging.Dir = o.LogDir
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFile {
		cfg.Logging.File = true
	}
	if o.Output != "" {
		cfg.Output.Path = o.Output
	}
}

// loadConfig resolves the configuration: dotenv, file, environment, flags, keyring, then validation
func loadConfig(c *cli.Context) (*models.Config, error) {
	if err := config.LoadEnvFile(c.String(flagEnvFile)); err != nil {
		return nil, &config.Error{Err: err}
	}

	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return nil, err
	}

	overridesFrom(c).apply(cfg)
	config.ApplyDefaults(cfg)

	if err := config.ResolvePassword(cfg, config.KeyringPassword); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRecorder(cfg *models.Config) (record.Recorder, error) {
	recorders := record.MultiRecorder{record.NewFileRecorder(cfg.Output.Path)}
	if cfg.Output.S3 != nil {
		s3Recorder, err := record.NewS3Recorder(*cfg.Output.S3)
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, s3Recorder)
	}
	return recorders, nil
}

func runAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	closeLog, err := logging.Setup(logging.Options{
		Level: cfg.Logging.Level,
		Dir:   cfg.Logging.Dir,
		File:  cfg.Logging.File,
	})
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer func() {
		_ = closeLog()
	}()

	provider := telemetry.New()
	provider.SetGlobal()
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	recorder, err := newRecorder(cfg)
	if err != nil {
		return cli.Exit(err, 1)
	}

	session := imapclient.NewStandardClient(imapclient.WithTimeout(cfg.Email.Timeout))
	dispatcher := unsubscribe.NewHTTPDispatcher(
		unsubscribe.WithTimeout(cfg.Dispatch.Timeout),
		unsubscribe.WithUserAgent(cfg.Dispatch.UserAgent),
	)

	logging.Log.Infof("Starting unsubscribe run on %s, folder %s", cfg.Email.Imap, cfg.Email.MailBox)

	report, err := pipeline.New(cfg, session, dispatcher, recorder).Run(ctx)
	logSummary(report, provider)
	if err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func logSummary(report *pipeline.Report, provider *telemetry.Provider) {
	if report == nil {
		return
	}
	fields := logrus.Fields{
		"run_id":           report.RunID,
		"messages_found":   report.MessagesFound,
		"messages_scanned": report.MessagesScanned,
		"messages_skipped": report.MessagesSkipped,
		"links_extracted":  report.LinksExtracted,
		"links_distinct":   len(report.Links),
		"dispatched":       len(report.Results),
		"not_dispatched":   report.NotDispatched,
		"failures":         report.Failures(),
		"dry_run":          report.DryRun,
	}
	counts, err := provider.Snapshot(context.Background())
	if err != nil {
		logging.Log.WithError(err).Warn("Failed to collect metrics")
	}
	for name, value := range counts {
		fields[name] = value
	}
	logging.Log.WithFields(fields).Info("Run summary")
}
