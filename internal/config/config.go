package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Project  ProjectConfig  `toml:"project"`
	Playback PlaybackConfig `toml:"playback"`
	History  HistoryConfig  `toml:"history"`
	Assets   AssetsConfig   `toml:"assets"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ProjectConfig contains defaults for newly created projects
type ProjectConfig struct {
	FrameRate       float64 `toml:"frame_rate"`
	Width           int     `toml:"width"`
	Height          int     `toml:"height"`
	AudioSampleRate int     `toml:"audio_sample_rate"`
}

// PlaybackConfig contains clock-sync loop configuration
type PlaybackConfig struct {
	TickRateHz int     `toml:"tick_rate_hz"`
	Volume     float64 `toml:"volume"`
}

// HistoryConfig contains undo stack configuration
type HistoryConfig struct {
	MaxDepth int `toml:"max_depth"`
}

// AssetsConfig contains asset catalog configuration
type AssetsConfig struct {
	CatalogPath     string `toml:"catalog_path"`
	MediaDir        string `toml:"media_dir"`
	WatchForChanges bool   `toml:"watch_for_changes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			FrameRate:       30,
			Width:           1920,
			Height:          1080,
			AudioSampleRate: 48000,
		},
		Playback: PlaybackConfig{
			TickRateHz: 60,
			Volume:     1.0,
		},
		History: HistoryConfig{
			MaxDepth: 500,
		},
		Assets: AssetsConfig{
			CatalogPath:     "./montage.db",
			MediaDir:        "./media",
			WatchForChanges: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a TOML file, creating it with defaults
// when missing.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# Montage Configuration
# Settings for the timeline engine, playback sync and asset catalog.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Project.FrameRate < 1 || c.Project.FrameRate > 240 {
		return fmt.Errorf("project frame rate must be within [1, 240]")
	}
	if c.Project.Width < 1 || c.Project.Height < 1 {
		return fmt.Errorf("project resolution must be positive")
	}
	if c.Project.AudioSampleRate < 1 {
		return fmt.Errorf("audio sample rate must be positive")
	}

	if c.Playback.TickRateHz < 1 {
		return fmt.Errorf("playback tick rate must be at least 1 Hz")
	}
	if c.Playback.Volume < 0 || c.Playback.Volume > 1 {
		return fmt.Errorf("playback volume must be within [0, 1]")
	}

	if c.History.MaxDepth < 1 {
		return fmt.Errorf("history max depth must be at least 1")
	}

	if c.Assets.CatalogPath == "" {
		return fmt.Errorf("asset catalog path cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}
