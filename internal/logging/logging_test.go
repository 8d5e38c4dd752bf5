package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer closeLog()

	logger.WithFields(logrus.Fields{"run_id": "r1", "turns": 3}).Debug("dialogue finished")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dialogue finished", entry["msg"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.EqualValues(t, 3, entry["turns"])
}

func TestNewLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)
	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "duologue.log")
	logger, closeLog, err := New(Options{File: path})
	require.NoError(t, err)
	logger.Info("to file")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
	_, _, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	logger, _, err := New(Options{})
	require.NoError(t, err)
	assert.NotPanics(t, func() { logger.Error("dropped") })
	assert.NotNil(t, Discard())
}
