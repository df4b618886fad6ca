// Package logger configures the application's logging.
//
// It uses *ZeroLog* for structured logs, optionally mirrored to a
// rotating file, and adapts the same logger for the pgx driver's SQL
// tracing so statement logs share one output.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/deppfellow/conn2db/internal/config"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
	logFileMaxAgeDays = 28
)

// New builds the logger described by cfg.
//
// Output goes to stderr as JSON or as a human-readable console stream. When
// cfg.File is set, the same events are also written as JSON to a rotating
// file; a directory that cannot be created disables the file silently and
// the console logger is still returned.
func New(cfg config.LoggingConfig) *zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with the console/json output sent to out.
func NewWithWriter(cfg config.LoggingConfig, out io.Writer) *zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var writer io.Writer = out
	if cfg.Format != "json" {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err == nil {
			writer = zerolog.MultiLevelWriter(writer, &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    logFileMaxSizeMB,
				MaxBackups: logFileMaxBackups,
				MaxAge:     logFileMaxAgeDays,
				Compress:   true,
			})
		}
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return &logger
}

// NewPgxLogger returns a logger tagged for SQL trace output from pgx.
func NewPgxLogger(base *zerolog.Logger) zerolog.Logger {
	return base.With().Str("component", "pgx").Logger()
}

// GetPgxTraceLogLevel converts a zerolog level to the pgx tracelog level.
func GetPgxTraceLogLevel(level zerolog.Level) tracelog.LogLevel {
	switch level {
	case zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return tracelog.LogLevelError
	default:
		return tracelog.LogLevelNone
	}
}

// Nop returns a disabled logger, used when callers pass none.
func Nop() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}
