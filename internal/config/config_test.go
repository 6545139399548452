package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, format validations and default filling.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil config.
	require.Error(t, Validate(nil))

	// Empty config is filled with defaults.
	cfg := new(Config)

	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultListenAddress, cfg.ListenAddress)
	require.Equal(t, DefaultDefinitionsFilename, cfg.DefinitionsFile)
	require.Equal(t, DefaultCheckInterval, cfg.CheckInterval)
	require.Equal(t, DefaultSnoozeFallbackDeadline, cfg.SnoozeFallbackDeadline)
	require.NotEmpty(t, cfg.RampOffsets)

	// Bad listen address.
	cfg = &Config{
		ListenAddress: "bad:address",
	}
	require.Error(t, Validate(cfg))

	// Bad redis address.
	cfg = &Config{
		RedisAddress: "bad:address",
	}
	require.Error(t, Validate(cfg))

	// Non-positive ramp offset.
	cfg = &Config{
		RampOffsets: []time.Duration{-time.Minute},
	}
	require.Error(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		ListenAddress:   "127.0.0.1:8543",
		DefinitionsFile: "defs.json",
		CheckInterval:   5 * time.Minute,
		LogLevel:        "debug",
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ListenAddress, loaded.ListenAddress)
	require.Equal(t, cfg.DefinitionsFile, loaded.DefinitionsFile)
	require.Equal(t, 5*time.Minute, loaded.CheckInterval)
	require.Equal(t, "debug", loaded.LogLevel)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoadMissingFile falls back to defaults instead of failing.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultListenAddress, cfg.ListenAddress)
}
