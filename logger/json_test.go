package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedJSONLogger(level LogLevel) (*jsonLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &jsonLogger{out: &buf, logLevel: level, ts: &ts}, &buf
}

func TestJSONLoggerEntry(t *testing.T) {
	log, buf := newBufferedJSONLogger(LevelDebug)
	log.Info("hello %s", "world")

	var entry JSONLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello world", entry.Message)
	assert.Equal(t, "INFO", entry.Severity)
	assert.True(t, entry.Timestamp.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestJSONLoggerLevelGate(t *testing.T) {
	log, buf := newBufferedJSONLogger(LevelWarn)
	log.Debug("should not appear")
	log.Info("should not appear")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestJSONLoggerMetadataAndComponent(t *testing.T) {
	log, buf := newBufferedJSONLogger(LevelTrace)
	child := log.With(map[string]interface{}{"artifact": "app.tar.zst"}).WithPrefix("deploy")
	child.Trace("uploading")

	var entry JSONLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "deploy", entry.Component)
	assert.Equal(t, "app.tar.zst", entry.Metadata["artifact"])

	// The parent logger must not have been mutated.
	buf.Reset()
	log.Trace("plain")
	entry = JSONLogEntry{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Empty(t, entry.Component)
	assert.Nil(t, entry.Metadata)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace": LevelTrace,
		"DEBUG": LevelDebug,
		"info":  LevelInfo,
		"Warn":  LevelWarn,
		"error": LevelError,
		"":      LevelInfo,
		"junk":  LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTestLoggerCaptures(t *testing.T) {
	log := NewTestLogger()
	log.Info("one %d", 1)
	log.Error("two")

	require.Len(t, log.Logs, 2)
	assert.Equal(t, "INFO", log.Logs[0].Severity)
	assert.Equal(t, "one %d", log.Logs[0].Message)
	assert.Equal(t, "ERROR", log.Logs[1].Severity)
}

func TestConsoleLoggerLevelGate(t *testing.T) {
	log := NewConsoleLogger(LevelError)
	if log.IsLevelEnabled(LevelInfo) {
		t.Fatal("info should be gated at error level")
	}
	if !log.IsLevelEnabled(LevelError) {
		t.Fatal("error should be enabled at error level")
	}
	if !strings.Contains("TRACE DEBUG INFO WARN ERROR", consoleStyles[LevelWarn].label) {
		t.Fatal("unexpected level label")
	}
}
