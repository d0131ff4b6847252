package logger

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

func decodeLines(t *testing.T, buf *bytes.Buffer) []Entry {
	t.Helper()
	var out []Entry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		out = append(out, e)
	}
	return out
}

func TestLogger_JSONAndLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo})

	log.Debug("hidden")
	log.Info("student saved", StudentID(7), GroupID(2))
	log.Error("lookup failed", Err(errors.New("boom")), Latency(1500*time.Millisecond))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "student saved", entries[0].Message)
	assert.Equal(t, float64(7), entries[0].Fields["student_id"])
	assert.Equal(t, float64(2), entries[0].Fields["group_id"])

	assert.Equal(t, "ERROR", entries[1].Level)
	assert.Equal(t, "boom", entries[1].Fields["error"])
	assert.Equal(t, "1.5s", entries[1].Fields["latency"])
	assert.NotEmpty(t, entries[1].Timestamp)
}

func TestLogger_WithDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Output: &buf})
	child := base.With(Component("student_service")).WithRequestID("req-1")

	child.Info("child")
	base.Info("base")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "student_service", entries[0].Fields["component"])
	assert.Equal(t, "req-1", entries[0].Fields[RequestIDKey])
	assert.Nil(t, entries[1].Fields)
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Format: FormatText})

	log.Warn("cache down", String("b", "2"), String("a", "1"))

	line := buf.String()
	assert.Contains(t, line, " WARN cache down a=1 b=2")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestLogger_Context(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf}).With(Operation("getAll"))

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("from ctx")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "getAll", entries[0].Fields["operation"])
	assert.NotNil(t, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, LevelInfo, ParseLevel("FATAL"))
}

func TestLogger_CallerPointsAtCallSite(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Output: &buf, AddCaller: true}).With(Component("x")).Info("here")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Caller, "logger_test.go:"), entries[0].Caller)
}
