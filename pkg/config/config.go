// Package config handles configuration loading and management
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fluxyoga/batchcaption/pkg/types"
)

// DefaultConfigName is the config file searched for in the working directory.
const DefaultConfigName = "batchcaption.yaml"

// Config holds the full runtime configuration. Flag values override file
// values, which override the built-in defaults.
type Config struct {
	// SourceFolder contains the images to caption.
	SourceFolder string `mapstructure:"source_folder" yaml:"source_folder"`
	// Model is the backend identifier used for every image in a run.
	Model string `mapstructure:"model" yaml:"model"`
	// Style selects the caption tone passed to the backend.
	Style string `mapstructure:"style" yaml:"style"`
	// Template optionally wraps captions; the {caption} placeholder is
	// replaced by the generated text.
	Template string `mapstructure:"template" yaml:"template"`
	// Overwrite regenerates captions even when a sidecar file exists.
	Overwrite bool `mapstructure:"overwrite" yaml:"overwrite"`
	// MaxTokens bounds the caption length requested from the backend.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`
	// TimeoutSeconds is the wall-clock limit per backend invocation.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	// CaptionExt is the sidecar file extension, including the dot.
	CaptionExt string `mapstructure:"caption_ext" yaml:"caption_ext"`
	// Python is the interpreter used to run the worker scripts.
	Python string `mapstructure:"python" yaml:"python"`
	// ScriptsDir holds the captioning worker scripts.
	ScriptsDir string `mapstructure:"scripts_dir" yaml:"scripts_dir"`

	Logging       LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Watch         WatchConfig        `mapstructure:"watch" yaml:"watch"`
}

// LoggingConfig controls diagnostic output on stderr.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// NotificationConfig controls desktop notifications at run end.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// WatchConfig controls continuous watch mode.
type WatchConfig struct {
	// SettlingDelayMS is how long to wait after a file appears before
	// dispatching it, so partially written images are not captioned.
	SettlingDelayMS int `mapstructure:"settling_delay_ms" yaml:"settling_delay_ms"`
}

// Timeout returns the per-invocation timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SettlingDelay returns the watch-mode settling delay as a duration.
func (c *Config) SettlingDelay() time.Duration {
	return time.Duration(c.Watch.SettlingDelayMS) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model:          string(types.DefaultBackend),
		Style:          string(types.DefaultStyle),
		MaxTokens:      150,
		TimeoutSeconds: 120,
		CaptionExt:     ".txt",
		Python:         "python3",
		ScriptsDir:     "scripts",
		Logging:        LoggingConfig{Level: "info"},
		Notifications:  NotificationConfig{Enabled: false},
		Watch:          WatchConfig{SettlingDelayMS: 500},
	}
}

// Load reads configuration through the given viper instance and applies
// defaults and validation. The instance is expected to have its config file
// and env bindings already set up by the CLI layer.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills unset values with defaults and rejects invalid ones.
func (c *Config) Validate() error {
	if c.Model == "" {
		c.Model = string(types.DefaultBackend)
	}
	if _, err := types.ParseBackend(c.Model); err != nil {
		return err
	}

	if c.Style == "" {
		c.Style = string(types.DefaultStyle)
	}
	if _, err := types.ParseStyle(c.Style); err != nil {
		return err
	}

	if c.MaxTokens <= 0 {
		c.MaxTokens = 150
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 120
	}
	if c.CaptionExt == "" {
		c.CaptionExt = ".txt"
	}
	if c.CaptionExt[0] != '.' {
		return fmt.Errorf("caption_ext must start with a dot: %s", c.CaptionExt)
	}
	if c.Python == "" {
		c.Python = "python3"
	}
	if c.ScriptsDir == "" {
		c.ScriptsDir = "scripts"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Watch.SettlingDelayMS < 0 {
		return fmt.Errorf("watch.settling_delay_ms must not be negative")
	}
	if c.Watch.SettlingDelayMS == 0 {
		c.Watch.SettlingDelayMS = 500
	}

	return nil
}

// WriteDefault writes a starter config file to path. It refuses to clobber
// an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
