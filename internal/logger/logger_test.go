package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewWithWriter_JSON(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "json"

	var buf bytes.Buffer
	l := NewWithWriter(cfg, &buf)
	l.Debug("hidden")
	l.Info("published", "venue", "Ingestor.Go")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "published", entry["msg"])
	assert.Equal(t, "Ingestor.Go", entry["venue"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_FileOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(t.TempDir(), "logs", "ingestor.log")

	l, err := New(cfg)
	require.NoError(t, err)
	l.Info("publish loop started")

	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "publish loop started")
}

func TestHelpers_UseGlobal(t *testing.T) {
	var buf bytes.Buffer
	prev := globalLogger
	globalLogger = NewWithWriter(Config{Level: "debug"}, &buf)
	t.Cleanup(func() { globalLogger = prev })

	ctx := context.Background()
	Info(ctx, "one", "target", "localhost:50051")
	Warn(ctx, "two")

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=one target=localhost:50051")
	assert.Contains(t, out, "level=WARN msg=two")
}
