// Package config loads user settings from ~/.config/autorefresh/config.yaml
// and AUTOREFRESH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ensigniasec/autorefresh/internal/validate"
)

const (
	DefaultStore       = "~/.config/autorefresh/store.json"
	DefaultFadeDelay   = 3 * time.Second
	DefaultFadeOpacity = 0.35
	DefaultHTTPTimeout = 15 * time.Second
)

// Settings holds everything the CLI and TUI read from configuration.
type Settings struct {
	Store       string        `mapstructure:"store"        validate:"required"`
	FadeDelay   time.Duration `mapstructure:"fade-delay"   validate:"gt=0"`
	FadeOpacity float64       `mapstructure:"fade-opacity" validate:"gt=0,lte=1"`
	Draggable   bool          `mapstructure:"draggable"`
	FadeIdle    bool          `mapstructure:"fade-idle"`
	HTTPTimeout time.Duration `mapstructure:"http-timeout" validate:"gt=0"`
	Exec        string        `mapstructure:"exec"`
	LogFile     string        `mapstructure:"log-file"`
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "autorefresh", "config.yaml"), nil
}

// Load reads settings from configPath (or the default location). A missing
// file is not an error.
func Load(configPath string) (Settings, error) {
	var cfg Settings

	v := viper.New()
	v.SetEnvPrefix("AUTOREFRESH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("store", DefaultStore)
	v.SetDefault("fade-delay", DefaultFadeDelay)
	v.SetDefault("fade-opacity", DefaultFadeOpacity)
	v.SetDefault("draggable", true)
	v.SetDefault("fade-idle", true)
	v.SetDefault("http-timeout", DefaultHTTPTimeout)
	v.SetDefault("exec", "")
	v.SetDefault("log-file", "")

	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		configPath = p
	}
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}
