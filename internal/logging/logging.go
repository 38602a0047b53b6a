// Package logging configures logrus loggers.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures a logger.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // json or text
	Output     string // stdout, stderr, file or both
	Filename   string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// New builds a logger from opts. Unknown levels fall back to info and
// unknown formats to JSON.
func New(opts Options) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch opts.Format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	logger.SetOutput(writer(opts))
	return logger
}

func writer(opts Options) io.Writer {
	if opts.Output == "stderr" {
		return os.Stderr
	}
	if opts.Filename == "" {
		return os.Stdout
	}
	switch opts.Output {
	case "file":
		return fileWriter(opts)
	case "both":
		return io.MultiWriter(os.Stdout, fileWriter(opts))
	}
	return os.Stdout
}

// fileWriter returns a rotating file writer.
func fileWriter(opts Options) io.Writer {
	return &lumberjack.Logger{
		Filename:   opts.Filename,
		MaxSize:    opts.MaxSizeMB,
		MaxAge:     opts.MaxAgeDays,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
	}
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
