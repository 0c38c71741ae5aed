package main

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/arloliu/go-fps/logger"
)

// newLogger builds the process logger: stdout, plus a rotating file when
// configured. The returned closer is nil when no file is written.
func newLogger(cfg LoggingConfig, stdout io.Writer) (logger.Logger, io.Closer) {
	if stdout == nil {
		stdout = os.Stdout
	}

	level := logger.ParseLevel(cfg.Level)
	if cfg.File.Filename == "" {
		return logger.NewSlogWriter(stdout, level, false), nil
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.File.Filename,
		MaxSize:    cfg.File.MaxSizeMB,
		MaxBackups: cfg.File.MaxBackups,
		MaxAge:     cfg.File.MaxAgeDays,
		Compress:   cfg.File.Compress,
	}

	return logger.NewSlogWriter(io.MultiWriter(stdout, lj), level, false), lj
}
