// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.SugaredLogger
	security *SecurityLogger
}

func (l *Logger) Security() *SecurityLogger {
	return l.security
}

func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}

// NewLogger creates a production JSON logger at the given level. An
// unparseable level falls back to error so a misconfigured deployment still
// logs failures.
func NewLogger(level string) *Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q, defaulting to error\n", level)
		lvl = zapcore.ErrorLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}

	return &Logger{
		SugaredLogger: l.Sugar(),
		security:      &SecurityLogger{l: l.Named("security")},
	}
}
