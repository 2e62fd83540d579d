package quash

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0644, int(cfg.FileMode()))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	want := DefaultConfig()
	assert.Equal(t, want.MaxJobs, cfg.MaxJobs)
	assert.Equal(t, want.OutputSuffix, cfg.OutputSuffix)
	assert.Equal(t, want.OutputMode, cfg.OutputMode)
	assert.Equal(t, want.Prompt, cfg.Prompt)
	assert.Equal(t, want.WaitDelay, cfg.WaitDelay)
	assert.Equal(t, want.Log.Level, cfg.Log.Level)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("QUASH_MAX_JOBS", "5")
	t.Setenv("QUASH_OUTPUT_DIR", "/var/tmp/quash")
	t.Setenv("QUASH_OUTPUT_SUFFIX", ".log")
	t.Setenv("QUASH_OUTPUT_MODE", "0600")
	t.Setenv("QUASH_WAIT_DELAY", "250ms")
	t.Setenv("QUASH_LOG_LEVEL", "debug")
	t.Setenv("QUASH_LOG_FILE", "/var/tmp/quash.log")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxJobs)
	assert.Equal(t, "/var/tmp/quash", cfg.OutputDir)
	assert.Equal(t, ".log", cfg.OutputSuffix)
	assert.Equal(t, 0600, int(cfg.FileMode()))
	assert.Equal(t, 250*time.Millisecond, cfg.WaitDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/tmp/quash.log", cfg.Log.File)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-octal mode", "QUASH_OUTPUT_MODE", "0999"},
		{"mode out of range", "QUASH_OUTPUT_MODE", "7777"},
		{"unknown log level", "QUASH_LOG_LEVEL", "loud"},
		{"negative job limit", "QUASH_MAX_JOBS", "-1"},
		{"job limit not a number", "QUASH_MAX_JOBS", "many"},
		{"empty suffix", "QUASH_OUTPUT_SUFFIX", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
