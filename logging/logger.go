package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where log output goes and how the file rotates.
type Config struct {
	// File is the rotated log file path. Empty disables file output.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console mirrors output to stderr.
	Console bool
	Debug   bool
}

// DefaultConfig writes cathedral.log next to the binary and mirrors to stderr.
func DefaultConfig() Config {
	return Config{
		File:       "cathedral.log",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Console:    true,
	}
}

// New builds a sugared zap logger. The returned closer flushes and closes
// the rotated file.
func New(cfg Config) (*zap.SugaredLogger, func() error) {
	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	var (
		syncers []zapcore.WriteSyncer
		closers []io.Closer
	)
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		syncers = append(syncers, zapcore.AddSync(lj))
		closers = append(closers, lj)
	}
	if cfg.Console {
		syncers = append(syncers, zapcore.Lock(os.Stderr))
	}
	if len(syncers) == 0 {
		return Nop(), func() error { return nil }
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.NewMultiWriteSyncer(syncers...), level)
	logger := zap.New(core, zap.AddCaller())
	sugar := logger.Sugar()

	return sugar, func() error {
		_ = sugar.Sync()
		var first error
		for _, c := range closers {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
}

// Nop is the logger packages fall back to when none is supplied.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
