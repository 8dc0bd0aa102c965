package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 80, cfg.SafeThreshold)
		assert.Equal(t, 50, cfg.ModerateThreshold)
		assert.Equal(t, 24*time.Hour, cfg.TaskCooldown)
	})

	t.Run("env overrides win over defaults", func(t *testing.T) {
		t.Setenv("ROADRANK_PORT", "9090")
		t.Setenv("ROADRANK_SAFE_THRESHOLD", "85")
		t.Setenv("ROADRANK_TASK_COOLDOWN", "1h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, 85, cfg.SafeThreshold)
		assert.Equal(t, time.Hour, cfg.TaskCooldown)
	})

	t.Run("env overrides win over file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\nlog_level: debug\n"), 0644))

		t.Setenv("ROADRANK_CONFIG", path)
		t.Setenv("ROADRANK_PORT", "9091")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9091", cfg.Port)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("inverted thresholds are rejected", func(t *testing.T) {
		t.Setenv("ROADRANK_MODERATE_THRESHOLD", "90")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("missing config file is an error", func(t *testing.T) {
		t.Setenv("ROADRANK_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

		_, err := Load()
		assert.Error(t, err)
	})
}
