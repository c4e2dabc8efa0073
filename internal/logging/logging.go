// Package logging builds the zerolog loggers used across the screener and
// carries them through request contexts.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	JSON       bool // console lines as JSON instead of human-readable
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig logs info and above to the console only.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		FilePath:   filepath.Join(home, ".config", "options-screener", "logs", "screener.log"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
	}
}

// NewLogger creates a logger with DefaultLogConfig.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a logger writing to every sink enabled in cfg.
// With no sink enabled the logger discards everything.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	sinks := make([]io.Writer, 0, 2)
	if cfg.Console {
		sinks = append(sinks, consoleWriter(cfg.JSON))
	}
	if cfg.File {
		if w, ok := rotatingFile(cfg); ok {
			sinks = append(sinks, w)
		}
	}

	var out io.Writer
	switch len(sinks) {
	case 0:
		out = io.Discard
	case 1:
		out = sinks[0]
	default:
		out = zerolog.MultiLevelWriter(sinks...)
	}

	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

func consoleWriter(asJSON bool) io.Writer {
	if asJSON {
		return os.Stderr
	}
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
}

// rotatingFile returns a lumberjack writer, or false when the log directory
// cannot be created.
func rotatingFile(cfg LogConfig) (io.Writer, bool) {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, false
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}, true
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type ctxKey struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or a disabled logger.
// The result is a pointer so events can be started on it directly.
func FromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return &logger
	}
	nop := zerolog.Nop()
	return &nop
}

// WithSymbol tags logger with an underlying symbol.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithOperation tags logger with an operation name.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// LogScreen logs the outcome of screening one symbol.
func LogScreen(logger zerolog.Logger, symbol, strategy string, evPercentage float64, recommendation string) {
	logger.Info().
		Str("event", "screen").
		Str("symbol", symbol).
		Str("strategy", strategy).
		Float64("ev_percentage", evPercentage).
		Str("recommendation", recommendation).
		Msg("Symbol screened")
}

// LogAPICall logs an upstream market-data call at debug level.
func LogAPICall(logger zerolog.Logger, source, endpoint string, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "api_call").
		Str("source", source).
		Str("endpoint", endpoint).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("API call failed")
		return
	}
	event.Msg("API call completed")
}

// LogRequest logs a served HTTP request. Client errors log at warn and
// server errors at error.
func LogRequest(logger zerolog.Logger, method, route string, status int, latency time.Duration, clientIP string) {
	event := logger.Info()
	switch {
	case status >= 500:
		event = logger.Error()
	case status >= 400:
		event = logger.Warn()
	}
	event.
		Str("event", "http_request").
		Str("method", method).
		Str("path", route).
		Int("status", status).
		Dur("latency", latency).
		Str("client_ip", clientIP).
		Msg("Request handled")
}
