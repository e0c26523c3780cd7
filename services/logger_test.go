package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestStructuredLogger_LogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LogLevelInfo, &buf)

	// Debug is below info
	logger.Debug("debug message")
	assert.Empty(t, buf.String())

	buf.Reset()
	logger.Info("info message")
	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "info message", entry["message"])
	assert.NotEmpty(t, entry["timestamp"])

	buf.Reset()
	logger.Warn("warn message")
	entry = decodeLogLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])

	buf.Reset()
	logger.Error("error message", errors.New("test error"))
	entry = decodeLogLine(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "test error", entry["error"])
}

func TestStructuredLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LogLevelInfo, &buf)

	logger.Info("vector search completed",
		String("namespace", "effect_1"),
		Int("raw_match_count", 3),
		Bool("fallback", true),
		Duration("took", 1500*time.Millisecond),
		Any("upstash_status_codes", []int{200, 404}))

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "effect_1", entry["namespace"])
	assert.Equal(t, float64(3), entry["raw_match_count"])
	assert.Equal(t, true, entry["fallback"])
	assert.Equal(t, "1.5s", entry["took"])
	assert.Equal(t, []interface{}{float64(200), float64(404)}, entry["upstash_status_codes"])
}

func TestStructuredLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LogLevelDebug, &buf)

	requestLogger := logger.With(String("request_id", "abc"))
	requestLogger.Debug("directive parsed", String("namespace", "effect_2"))

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "abc", entry["request_id"])
	assert.Equal(t, "effect_2", entry["namespace"])

	buf.Reset()
	logger.Info("no base fields")
	entry = decodeLogLine(t, &buf)
	assert.NotContains(t, entry, "request_id")
}

func TestNewLoggerFromConfig_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerFromConfig(&LoggerConfig{Level: LogLevelWarn, Format: "console", Output: &buf})

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("catalog empty")
	assert.True(t, strings.Contains(buf.String(), "catalog empty"))
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		"warning": LogLevelWarn,
		" warn ":  LogLevelWarn,
		"error":   LogLevelError,
		"verbose": LogLevelInfo,
	}

	for input, expected := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, expected, ParseLogLevel(input))
		})
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	scoped := NewStructuredLogger(LogLevelInfo, &buf).With(String("request_id", "req-1"))

	ctx := ContextWithLogger(context.Background(), scoped)
	LoggerFromContext(ctx, nil).Info("scoped")

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])

	fallback := NewNopLogger()
	assert.Equal(t, fallback, LoggerFromContext(context.Background(), fallback))
	assert.NotNil(t, LoggerFromContext(context.Background(), nil))
}
