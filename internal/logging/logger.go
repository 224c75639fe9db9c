package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

func init() {
	Log = logrus.New()
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	Log.SetOutput(os.Stdout)
	Log.SetLevel(logrus.InfoLevel)
}

// Options configures the log stream for a single run
type Options struct {
	Level string
	Dir   string
	File  bool
	Now   func() time.Time
}

// FileName returns the per-run log file name, e.g. logfile_20240102_150405.log
func FileName(t time.Time) string {
	return fmt.Sprintf("logfile_%s.log", t.Format("20060102_150405"))
}

// Setup applies the level and, when requested, tees the stream into a timestamped file.
// The returned func closes the file and restores stdout.
func Setup(opts Options) (func() error, error) {
	noop := func() error { return nil }

	if opts.Level != "" {
		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return noop, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		Log.SetLevel(level)
	}

	if !opts.File {
		return noop, nil
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return noop, fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, FileName(now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return noop, fmt.Errorf("open log file: %w", err)
	}

	Log.SetOutput(io.MultiWriter(os.Stdout, f))
	Log.Infof("Logging to %s", path)

	return func() error {
		Log.SetOutput(os.Stdout)
		return f.Close()
	}, nil
}
