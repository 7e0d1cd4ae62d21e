package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "info", Format: "json"})

	logger.Debug("hidden")
	logger.Info("Realm created", "realm", "spending-monitor")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Realm created", entry["msg"])
	assert.Equal(t, "spending-monitor", entry["realm"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "warn", NoColor: true})

	logger.Info("hidden")
	logger.Warn("Using default password", "environment", "production")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Using default password")
	assert.Contains(t, out, "environment=production")
}
