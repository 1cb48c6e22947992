// Package logger configures the process-wide logrus logger and hands out
// module-scoped entries.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"fizibilite/internal/config"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Init applies the log settings of cfg to the standard logrus logger.
// Output "file" or "both" writes to a rotated file under LogPath.
func Init(cfg *config.Config) error {
	return configure(logrus.StandardLogger(), cfg)
}

func configure(l *logrus.Logger, cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.Debug && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)

	if cfg.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timestampFormat})
	}

	var writers []io.Writer
	if cfg.LogOutput == "file" || cfg.LogOutput == "both" {
		if err := os.MkdirAll(cfg.LogPath, 0o755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogPath, "app.log"),
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
			Compress:   cfg.LogCompress,
		})
	}
	if cfg.LogOutput != "file" {
		writers = append(writers, os.Stdout)
	}
	l.SetOutput(io.MultiWriter(writers...))
	return nil
}

// WithModule returns an entry tagged with the calling module's name.
func WithModule(name string) *logrus.Entry {
	return logrus.WithField("module", name)
}
