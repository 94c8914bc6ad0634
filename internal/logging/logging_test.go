package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesJSONToOutputPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	logger, err := New(Config{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)

	logger.Info("file validated", zap.String("file_id", "f1"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "file validated", line["msg"])
	assert.Equal(t, "f1", line["file_id"])
	assert.Equal(t, "costcore", line["service"])
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	logger, err := New(Config{Level: "loud", OutputPath: path})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Info("dropped") })
}
