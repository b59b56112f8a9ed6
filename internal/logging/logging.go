package logging

import (
	"io"
	"os"
	"strings"

	"github.com/ppiankov/termslens/internal/model"
	"github.com/sirupsen/logrus"
)

// Init configures the standard logrus logger from the logging config.
// The returned closer releases the log file, if one was opened.
func Init(cfg model.LoggingConfig) io.Closer {
	return Configure(logrus.StandardLogger(), cfg)
}

// Configure applies level, format and output to l. Bad values fall back to
// info level and stderr with a warning instead of failing startup.
func Configure(l *logrus.Logger, cfg model.LoggingConfig) io.Closer {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		l.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", cfg.Level, err)
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	var closer io.Closer = nopCloser{}
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
	case "", "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.Warnf("Failed to open log file '%s', using 'stderr' instead. Error: %v", cfg.Output, err)
			output = os.Stderr
		} else {
			output = file
			closer = file
		}
	}
	l.SetOutput(output)

	l.Debug("Logger initialized")
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
