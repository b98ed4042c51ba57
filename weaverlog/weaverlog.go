// Package weaverlog builds the structured logger used across the
// engine: a thin style switch over zap, generalized from the
// logger-construction helper the rest of this codebase's sibling
// services share.
package weaverlog

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Style is the closed set of output encodings a logger can use.
type Style string

const (
	StyleTerminal Style = "terminal"
	StyleJSON     Style = "json"
	StyleLogfmt   Style = "logfmt"
	StyleNoop     Style = "noop"
)

// Config configures logger construction.
type Config struct {
	Style Style
	Level string
}

// New builds a *zap.Logger for the given config. A zero Config
// defaults to terminal output at info level.
func New(c Config) (*zap.Logger, error) {
	style := c.Style
	if style == "" {
		style = StyleTerminal
	}
	level := zapcore.InfoLevel
	if c.Level != "" {
		lvl, err := zapcore.ParseLevel(c.Level)
		if err == nil {
			level = lvl
		}
	}

	switch style {
	case StyleNoop:
		return zap.NewNop(), nil

	case StyleJSON:
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		return cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))

	case StyleTerminal:
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		return cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))

	case StyleLogfmt:
		encCfg := zapcore.EncoderConfig{
			TimeKey:       "ts",
			LevelKey:      "lvl",
			NameKey:       "logger",
			CallerKey:     "caller",
			MessageKey:    "msg",
			StacktraceKey: "stacktrace",
			LineEnding:    zapcore.DefaultLineEnding,
		}
		core := zapcore.NewCore(newLogfmtEncoder(encCfg), zapcore.Lock(zapcore.AddSync(os.Stderr)), level)
		return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)), nil

	default:
		return nil, fmt.Errorf("invalid logging style %q: must be one of terminal, json, logfmt, noop", style)
	}
}
