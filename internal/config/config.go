// Package config loads gridboard settings from an optional TOML file and
// GRIDBOARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Board BoardConfig `mapstructure:"board"`
	Hooks HooksConfig `mapstructure:"hooks"`
	Log   LogConfig   `mapstructure:"log"`
}

// BoardConfig holds board file and layout settings.
type BoardConfig struct {
	Path              string         `mapstructure:"path"`
	CollapsedWidth    int            `mapstructure:"collapsed_width"`
	CompactLaneHeight int            `mapstructure:"compact_lane_height"`
	CardHeight        int            `mapstructure:"card_height"`
	Overscan          int            `mapstructure:"overscan"`
	Mouse             bool           `mapstructure:"mouse"`
	WIPLimits         map[string]int `mapstructure:"wip_limits"`
}

// HooksConfig holds validation hook settings.
type HooksConfig struct {
	BeforeDrop string        `mapstructure:"before_drop"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LogConfig holds log file settings. An empty File disables logging.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	if p := os.Getenv("GRIDBOARD_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "gridboard", "config.toml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("board.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "gridboard", "board.yaml"))
	v.SetDefault("board.collapsed_width", 4)
	v.SetDefault("board.compact_lane_height", 1)
	v.SetDefault("board.card_height", 1)
	v.SetDefault("board.overscan", 3)
	v.SetDefault("board.mouse", true)
	v.SetDefault("board.wip_limits", map[string]int{})
	v.SetDefault("hooks.before_drop", "")
	v.SetDefault("hooks.timeout", "5s")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
}

// Default returns the configuration used when no file or env overrides exist.
// It panics if the built-in defaults do not decode, which only a broken
// setDefaults can cause.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	c, err := decode(v)
	if err != nil {
		panic(fmt.Sprintf("config: built-in defaults: %v", err))
	}
	return c
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Load reads configuration from path and env. An empty path falls back to
// DefaultPath, which may be missing; an explicit path must exist.
// Env var overrides use prefix GRIDBOARD_, e.g. GRIDBOARD_BOARD_PATH.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetConfigFile(DefaultPath())
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("GRIDBOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.Is(err, os.ErrNotExist) || errors.As(err, &notFound)
		if path != "" || !missing {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	c, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Board.Path) == "" {
		return errors.New("board.path is required")
	}
	if c.Board.CollapsedWidth < 1 {
		return fmt.Errorf("board.collapsed_width must be >= 1, got %d", c.Board.CollapsedWidth)
	}
	if c.Board.CompactLaneHeight < 1 {
		return fmt.Errorf("board.compact_lane_height must be >= 1, got %d", c.Board.CompactLaneHeight)
	}
	if c.Board.CardHeight < 1 {
		return fmt.Errorf("board.card_height must be >= 1, got %d", c.Board.CardHeight)
	}
	if c.Board.Overscan < 0 {
		return fmt.Errorf("board.overscan must be >= 0, got %d", c.Board.Overscan)
	}
	for col, limit := range c.Board.WIPLimits {
		if limit < 0 {
			return fmt.Errorf("board.wip_limits.%s must be >= 0, got %d", col, limit)
		}
	}
	if c.Hooks.Timeout <= 0 {
		return fmt.Errorf("hooks.timeout must be positive, got %s", c.Hooks.Timeout)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	return nil
}

// LogLevel returns the parsed log level, defaulting to info.
func (c Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
