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

func TestNew_LevelAndFormat(t *testing.T) {
	logger := New(Options{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.WithField("asset", "SOL").Info("Cycle complete")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Cycle complete", line["message"])
	assert.Equal(t, "SOL", line["asset"])
	assert.Contains(t, line, "timestamp")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger := New(Options{Level: "chatty", Format: "text"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	_, ok := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.log")
	logger := New(Options{Output: "file", Filename: path, MaxSizeMB: 1})
	logger.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNew_StderrOutput(t *testing.T) {
	logger := New(Options{Output: "stderr", Filename: "ignored.log"})
	assert.Equal(t, os.Stderr, logger.Out)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() { logger.Error("dropped") })
}
