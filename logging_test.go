package quash

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerWithoutFileIsSilent(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel))
}

func TestNewLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quash.log")
	logger, err := NewLogger(LogConfig{Level: "info", File: path})
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("job started", zap.Int("job_id", 1))
	require.NoError(t, logger.Sync())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.Len(t, entries, 1)
	assert.Equal(t, "job started", entries[0]["msg"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.EqualValues(t, 1, entries[0]["job_id"])
	assert.Contains(t, entries[0], "timestamp")
}

func TestNewLoggerRejectsLevel(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "loud", File: filepath.Join(t.TempDir(), "quash.log")})
	assert.Error(t, err)
}
