package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of the wake-scheduler daemon.
type Config struct {
	// ListenAddress is the HTTP listen address for the command API.
	ListenAddress string `yaml:"listen_addr"`
	// DefinitionsFile is the path to the JSON file storing alarm definitions
	// when no Redis address is configured.
	DefinitionsFile string `yaml:"definitions_file"`
	// RedisAddress optionally selects a Redis-backed definition store.
	RedisAddress string `yaml:"redis_addr"`
	// RedisDB is the Redis database number used with RedisAddress.
	RedisDB int `yaml:"redis_db"`
	// CheckInterval is the spacing of smart-wake check instants.
	CheckInterval time.Duration `yaml:"check_interval"`
	// RampOffsets are the pre-alarm offsets used for the gradual ramp,
	// largest first.
	RampOffsets []time.Duration `yaml:"ramp_offsets"`
	// SnoozeFallbackDeadline bounds a fired occurrence without a backup
	// alarm before it auto-exhausts.
	SnoozeFallbackDeadline time.Duration `yaml:"snooze_fallback_deadline"`
	// LogLevel is the minimum level emitted by the daemon ("debug".."fatal").
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for daemon settings.
	DefaultConfigFilename = "wake-scheduler-settings.yaml"

	// DefaultDefinitionsFilename is the default filename for stored definitions.
	DefaultDefinitionsFilename = "wake-scheduler-definitions.json"

	// DefaultListenAddress is the default HTTP listen address.
	DefaultListenAddress = ":8543"

	// DefaultCheckInterval is the default smart-wake check spacing.
	DefaultCheckInterval = 10 * time.Minute

	// DefaultSnoozeFallbackDeadline applies to fired occurrences without a
	// backup alarm.
	DefaultSnoozeFallbackDeadline = 5 * time.Minute

	// DefaultFilePermissions is the default file permission for config and
	// state files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeRampOffset is returned when a ramp offset is not positive.
	errNegativeRampOffset = errors.New("ramp offsets must be positive")
)

// Default returns a configuration populated with every default value. The
// daemon runs without a settings file at all.
func Default() *Config {
	return &Config{
		ListenAddress:          DefaultListenAddress,
		DefinitionsFile:        DefaultDefinitionsFilename,
		CheckInterval:          DefaultCheckInterval,
		RampOffsets:            []time.Duration{10 * time.Minute, 5 * time.Minute},
		SnoozeFallbackDeadline: DefaultSnoozeFallbackDeadline,
		LogLevel:               "info",
	}
}

// Load reads configuration from the provided path and validates essential
// fields. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// filling in defaults for anything left empty.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.RedisAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.RedisAddress); err != nil {
			return fmt.Errorf("invalid redis address: %w", err)
		}
	}

	if cfg.DefinitionsFile == "" {
		cfg.DefinitionsFile = DefaultDefinitionsFilename
	}

	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}

	if cfg.SnoozeFallbackDeadline <= 0 {
		cfg.SnoozeFallbackDeadline = DefaultSnoozeFallbackDeadline
	}

	if len(cfg.RampOffsets) == 0 {
		cfg.RampOffsets = Default().RampOffsets
	}

	for _, offset := range cfg.RampOffsets {
		if offset <= 0 {
			return errNegativeRampOffset
		}
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return nil
}
