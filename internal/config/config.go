// Package config loads Awaken configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (AWAKEN_SOUND_ENABLED, ...).
const EnvPrefix = "AWAKEN"

// Config is the root configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Sound   SoundConfig   `mapstructure:"sound"`
	Scripts ScriptsConfig `mapstructure:"scripts"`
	Demo    DemoConfig    `mapstructure:"demo"`
	TUI     TUIConfig     `mapstructure:"tui"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is a zerolog level name. Default: info.
	Level string `mapstructure:"level"`

	// File is where logs are written. Empty disables logging.
	File string `mapstructure:"file"`
}

// SoundConfig controls sound cues and the ambient drone.
type SoundConfig struct {
	// Enabled turns every cue on or off. Default: true.
	Enabled bool `mapstructure:"enabled"`

	// Volume is the master gain applied to synthesized cues. Default: 0.3.
	Volume float64 `mapstructure:"volume"`

	// MaxConcurrent caps simultaneous cue playback. Default: 4.
	MaxConcurrent int `mapstructure:"max_concurrent"`

	// AmbientFadeOut is how long the ambient drone takes to stop. Default: 2s.
	AmbientFadeOut time.Duration `mapstructure:"ambient_fade_out"`

	// Events holds per-cue overrides keyed by cue name.
	Events map[string]SoundEventConfig `mapstructure:"events"`
}

// SoundEventConfig configures a single cue.
type SoundEventConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	OverrideSounds []string `mapstructure:"override_sounds"`
}

// ScriptsConfig selects which presentation scripts run.
type ScriptsConfig struct {
	// Dir is an extra project directory searched before the defaults.
	Dir string `mapstructure:"dir"`

	// Intro is the name of the intro script. Default: intro.
	Intro string `mapstructure:"intro"`

	// Demo is the name of the demo script. Default: demo.
	Demo string `mapstructure:"demo"`
}

// DemoConfig controls when the chat demo starts.
type DemoConfig struct {
	// VisibilityThreshold is the visible fraction that starts the demo. Default: 0.5.
	VisibilityThreshold float64 `mapstructure:"visibility_threshold"`

	// VisibilityTimeout starts the demo anyway after this long. Zero waits forever.
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout"`
}

// TUIConfig controls the terminal UI.
type TUIConfig struct {
	Theme string `mapstructure:"theme"`
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(DefaultConfigDir(), "awaken.log"),
		},
		Sound: SoundConfig{
			Enabled:        true,
			Volume:         0.3,
			MaxConcurrent:  4,
			AmbientFadeOut: 2 * time.Second,
		},
		Scripts: ScriptsConfig{
			Intro: "intro",
			Demo:  "demo",
		},
		Demo: DemoConfig{
			VisibilityThreshold: 0.5,
		},
		TUI: TUIConfig{
			Theme: "default",
		},
	}
}

// configDirFunc is swapped in tests.
var configDirFunc = defaultConfigDir

// DefaultConfigDir returns the directory holding config.yaml.
func DefaultConfigDir() string {
	return configDirFunc()
}

func defaultConfigDir() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "awaken")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", ".awaken")
	}
	return filepath.Join(home, ".config", "awaken")
}

// Load reads configuration from path (or the default location when empty),
// applying AWAKEN_* environment overrides. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("sound.enabled", d.Sound.Enabled)
	v.SetDefault("sound.volume", d.Sound.Volume)
	v.SetDefault("sound.max_concurrent", d.Sound.MaxConcurrent)
	v.SetDefault("sound.ambient_fade_out", d.Sound.AmbientFadeOut)
	v.SetDefault("scripts.dir", d.Scripts.Dir)
	v.SetDefault("scripts.intro", d.Scripts.Intro)
	v.SetDefault("scripts.demo", d.Scripts.Demo)
	v.SetDefault("demo.visibility_threshold", d.Demo.VisibilityThreshold)
	v.SetDefault("demo.visibility_timeout", d.Demo.VisibilityTimeout)
	v.SetDefault("tui.theme", d.TUI.Theme)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Sound.Volume < 0 || c.Sound.Volume > 1 {
		return fmt.Errorf("sound.volume must be between 0 and 1, got %v", c.Sound.Volume)
	}
	if c.Sound.MaxConcurrent < 1 {
		return fmt.Errorf("sound.max_concurrent must be at least 1, got %d", c.Sound.MaxConcurrent)
	}
	if c.Sound.AmbientFadeOut < 0 {
		return fmt.Errorf("sound.ambient_fade_out must not be negative")
	}
	if c.Demo.VisibilityThreshold <= 0 || c.Demo.VisibilityThreshold > 1 {
		return fmt.Errorf("demo.visibility_threshold must be in (0, 1], got %v", c.Demo.VisibilityThreshold)
	}
	if c.Demo.VisibilityTimeout < 0 {
		return fmt.Errorf("demo.visibility_timeout must not be negative")
	}
	if strings.TrimSpace(c.Scripts.Intro) == "" || strings.TrimSpace(c.Scripts.Demo) == "" {
		return fmt.Errorf("scripts.intro and scripts.demo are required")
	}
	return nil
}
