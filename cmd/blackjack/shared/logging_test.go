package shared

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger("warn", "text", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "round", "r1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "round=r1")
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger("debug", "json", &buf)
	require.NoError(t, err)

	logger.Debug("dealt", "status", "in_progress")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dealt", entry["msg"])
	assert.Equal(t, "in_progress", entry["status"])
}

func TestSetupLogger_Rejects(t *testing.T) {
	_, err := SetupLogger("loud", "text", nil)
	assert.Error(t, err)
	_, err = SetupLogger("info", "yaml", nil)
	assert.Error(t, err)
}

func TestOpenLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blackjack.log")
	f, err := OpenLogFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.FileExists(t, path)

	_, err = OpenLogFile(filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, err)
}
