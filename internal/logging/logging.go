// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the diagnostic logger used by the CLI. Output is a
// terse console format on stderr so it never mixes with the extracted script
// on stdout.
package logging

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the diagnostic logger.
type Config struct {
	// Level is a zap level name (debug, info, warn, error). Empty means warn.
	Level string

	// Quiet discards every message.
	Quiet bool

	// Output receives log lines. Nil means stderr.
	Output zapcore.WriteSyncer
}

// New returns a sugared zap logger configured by cfg.
func New(cfg Config) (*zap.SugaredLogger, error) {
	if cfg.Quiet {
		return zap.NewNop().Sugar(), nil
	}

	levelName := cfg.Level
	if levelName == "" {
		levelName = "warn"
	}
	var l = new(zapcore.Level)
	if err := l.UnmarshalText([]byte(levelName)); err != nil {
		return nil, errors.Wrapf(err, "log level %q", levelName)
	}

	out := cfg.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(consoleEncoder(), out, l)
	return zap.New(core).Sugar(), nil
}

func consoleEncoder() zapcore.Encoder {
	encoderConfig := zap.NewDevelopmentEncoderConfig()

	encoderConfig.TimeKey = ""
	encoderConfig.CallerKey = ""
	encoderConfig.NameKey = ""
	encoderConfig.StacktraceKey = ""
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	return zapcore.NewConsoleEncoder(encoderConfig)
}
