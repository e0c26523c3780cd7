package services

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogField represents a structured log field
type LogField struct {
	Key   string
	Value interface{}
}

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, err error, fields ...LogField)
	With(fields ...LogField) Logger
}

// StructuredLogger implements Logger on top of zap
type StructuredLogger struct {
	zl *zap.Logger
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  LogLevel
	Format string // "json" or "console"
	Output io.Writer
}

// NewStructuredLogger creates a JSON logger writing to output
func NewStructuredLogger(level LogLevel, output io.Writer) *StructuredLogger {
	return newZapLogger(level, "json", output)
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *StructuredLogger {
	return NewStructuredLogger(LogLevelInfo, os.Stdout)
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return &StructuredLogger{zl: zap.NewNop()}
}

// NewLoggerFromConfig creates a logger from configuration
func NewLoggerFromConfig(config *LoggerConfig) Logger {
	if config == nil {
		return NewDefaultLogger()
	}

	level := config.Level
	if level == "" {
		level = LogLevelInfo
	}

	return newZapLogger(level, config.Format, config.Output)
}

func newZapLogger(level LogLevel, format string, output io.Writer) *StructuredLogger {
	if output == nil {
		output = os.Stdout
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		NameKey:        "logger",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var encoder zapcore.Encoder
	if format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), zap.NewAtomicLevelAt(toZapLevel(level)))
	return &StructuredLogger{zl: zap.New(core)}
}

// Debug logs a debug message
func (l *StructuredLogger) Debug(msg string, fields ...LogField) {
	l.zl.Debug(msg, toZapFields(fields)...)
}

// Info logs an info message
func (l *StructuredLogger) Info(msg string, fields ...LogField) {
	l.zl.Info(msg, toZapFields(fields)...)
}

// Warn logs a warning message
func (l *StructuredLogger) Warn(msg string, fields ...LogField) {
	l.zl.Warn(msg, toZapFields(fields)...)
}

// Error logs an error message
func (l *StructuredLogger) Error(msg string, err error, fields ...LogField) {
	zf := toZapFields(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	l.zl.Error(msg, zf...)
}

// With creates a new logger with additional base fields
func (l *StructuredLogger) With(fields ...LogField) Logger {
	return &StructuredLogger{zl: l.zl.With(toZapFields(fields)...)}
}

// Sync flushes buffered entries
func (l *StructuredLogger) Sync() error {
	return l.zl.Sync()
}

func toZapFields(fields []LogField) []zap.Field {
	zf := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		zf = append(zf, zap.Any(field.Key, field.Value))
	}
	return zf
}

func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// String field helper
func String(key, value string) LogField {
	return LogField{Key: key, Value: value}
}

// Int field helper
func Int(key string, value int) LogField {
	return LogField{Key: key, Value: value}
}

// Bool field helper
func Bool(key string, value bool) LogField {
	return LogField{Key: key, Value: value}
}

// Duration field helper
func Duration(key string, value time.Duration) LogField {
	return LogField{Key: key, Value: value.String()}
}

// Strings field helper
func Strings(key string, value []string) LogField {
	return LogField{Key: key, Value: value}
}

// Any field helper for arbitrary values
func Any(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// ParseLogLevel parses a log level string
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

type loggerContextKey struct{}

// ContextWithLogger returns a copy of ctx carrying a request-scoped logger
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// LoggerFromContext returns the request-scoped logger, or fallback when ctx has none
func LoggerFromContext(ctx context.Context, fallback Logger) Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(Logger); ok && logger != nil {
		return logger
	}
	if fallback == nil {
		return NewNopLogger()
	}
	return fallback
}
