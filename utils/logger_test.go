package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "eden", "info", "json")

	logger.Debug("hidden", nil)
	logger.Info("Order placed", map[string]interface{}{
		"order_id": "abc",
		"level":    "should not override",
		"error":    errors.New("boom"),
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug is below the configured level")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "eden", entry["service"])
	assert.Equal(t, "Order placed", entry["message"])
	assert.Equal(t, "abc", entry["order_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "eden", "bogus", "text")

	logger.Warn("Cache miss", map[string]interface{}{"key": "categories", "attempt": 2})
	out := buf.String()
	assert.Contains(t, out, "[WARN] [eden] Cache miss")
	assert.Contains(t, out, "attempt=2 key=categories", "fields are sorted")
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "eden", "error", "text")
	logger.Info("skip", nil)
	logger.Warn("skip", nil)
	assert.Empty(t, buf.String())

	logger.Error("kept", nil)
	assert.Contains(t, buf.String(), "[ERROR]")
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	assert.NotPanics(t, func() { l.Error("ignored", map[string]interface{}{"k": "v"}) })
}
