// Package logging builds the process logger: JSON lines on stdout, plus an
// optional rotating file.
package logging

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      slog.Level `env:"LEVEL" envDefault:"INFO"`
	File       string     `env:"FILE"`
	MaxSizeMB  int        `env:"MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int        `env:"MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int        `env:"MAX_AGE_DAYS" envDefault:"28"`
}

// New returns a logger writing to stdout and, when cfg.File is set, to a
// rotated file. Close the returned closer on shutdown.
func New(stdout io.Writer, cfg Config) (*slog.Logger, io.Closer) {
	w := stdout
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(stdout, lj)
		closer = lj
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.Level,
	}))
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
