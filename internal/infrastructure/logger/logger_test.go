package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/otec/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestPresetConfigs(t *testing.T) {
	dev := DefaultConfig()
	assert.Equal(t, "console", dev.Format)
	assert.Equal(t, "stdout", dev.Output)

	prod := ProductionConfig()
	assert.Equal(t, "json", prod.Format)
	assert.Equal(t, "info", prod.Level)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func readJSONLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNewFromConfig_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backoffice.log")

	logger, err := NewFromConfig(
		config.AppConfig{Name: "backoffice", Env: "production"},
		config.LogConfig{Level: "warn", Output: path},
	)
	require.NoError(t, err)

	logger.Info("dropped below level")
	logger.Warn("sync failed", zap.Int64("course_id", 3))
	require.NoError(t, logger.Sync())

	entries := readJSONLines(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "sync failed", entries[0]["msg"])
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "backoffice", entries[0]["service"])
	assert.Equal(t, float64(3), entries[0]["course_id"])
}

func TestNewFromConfig_OverridesFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.log")

	logger, err := NewFromConfig(
		config.AppConfig{Name: "backoffice", Env: "development"},
		config.LogConfig{Format: "json", Output: path},
	)
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())

	entries := readJSONLines(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0]["msg"])
}

func TestCreateWriter(t *testing.T) {
	assert.NotNil(t, createWriter("stdout"))
	assert.NotNil(t, createWriter("STDERR"))
	// unwritable paths fall back to stdout
	assert.NotNil(t, createWriter(filepath.Join(t.TempDir(), "missing", "dir", "x.log")))
}

func TestHelpers(t *testing.T) {
	base, logs := newObservedLogger()

	With(base, zap.String("component", "sync")).Info("one")
	Named(base, "registry").Info("two")
	assert.NoError(t, Sync(base))

	all := logs.All()
	require.Len(t, all, 2)
	assert.Equal(t, "sync", all[0].ContextMap()["component"])
	assert.Equal(t, "registry", all[1].LoggerName)
}
