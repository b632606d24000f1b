// Package log wraps logrus with settings read from the active configuration.
package log

import (
	"fmt"
	"io"
	"os"

	"animius/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var logger = newLogger(os.Stderr)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// Setup applies log.level, log.json and log.file from viper.
// Unknown levels fall back to warn.
func Setup() error {
	if path := viper.GetString(config.LogFile); path != "" {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
	}

	if viper.GetBool(config.LogJSON) {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: viper.GetString(config.LogFile) == ""})
	}

	lvl, err := logrus.ParseLevel(viper.GetString(config.LogLevel))
	if err != nil {
		lvl = logrus.WarnLevel
	}
	logger.SetLevel(lvl)
	return nil
}

// SetOutput redirects all log output; used by tests.
func SetOutput(w io.Writer) { logger.SetOutput(w) }

// SetLevel overrides the current level.
func SetLevel(lvl logrus.Level) { logger.SetLevel(lvl) }

// WithField returns an entry carrying one structured field.
func WithField(key string, value any) *logrus.Entry {
	return logger.WithField(key, value)
}

// WithFields returns an entry carrying several structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

func Debugf(format string, args ...any) { logger.Debugf(format, args...) }
func Infof(format string, args ...any)  { logger.Infof(format, args...) }
func Warnf(format string, args ...any)  { logger.Warnf(format, args...) }
func Errorf(format string, args ...any) { logger.Errorf(format, args...) }
