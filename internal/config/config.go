// Package config manages application configuration using viper.
// It supports configuration from YAML files (.devdash.yaml), environment
// variables (DEVDASH_ prefix), and command-line flags with sensible defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/buker/devdash/internal/backend"
	"github.com/buker/devdash/internal/capture"
	"github.com/buker/devdash/internal/render"
)

// DefaultModel is used by the claude-code provider unless overridden.
const DefaultModel = "claude-opus-4-5-20251101"

// Config holds all application configuration values.
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	AI      AIConfig      `mapstructure:"ai"`
	Screen  ScreenConfig  `mapstructure:"screen"`
	Render  RenderConfig  `mapstructure:"render"`
}

// BackendConfig points at the AI backend.
type BackendConfig struct {
	URL      string `mapstructure:"url"`      // Base URL of the HTTP backend
	Timeout  int    `mapstructure:"timeout"`  // Request timeout in seconds
	Provider string `mapstructure:"provider"` // "http" or "claude-code" for ask
}

// AIConfig holds settings for the local claude-code provider.
type AIConfig struct {
	Model string `mapstructure:"model"`
}

// ScreenConfig tunes screen-assist captures.
type ScreenConfig struct {
	Countdown     int    `mapstructure:"countdown"`      // Countdown ticks before capture
	Frames        int    `mapstructure:"frames"`         // Frames per capture
	IntervalMS    int    `mapstructure:"interval_ms"`    // Milliseconds between frames
	SubmitTimeout int    `mapstructure:"submit_timeout"` // Seconds allowed for analysis
	MaxWidth      int    `mapstructure:"max_width"`      // Frames are scaled down to this width
	Dir           string `mapstructure:"dir"`            // Screenshot directory to watch
}

// RenderConfig controls terminal output.
type RenderConfig struct {
	Width int    `mapstructure:"width"`
	Style string `mapstructure:"style"`
}

var (
	cfg        Config
	configFile string
)

// Init initializes the configuration system by setting defaults,
// loading config files from current and home directories, and
// enabling environment variable overrides with the DEVDASH_ prefix.
func Init() {
	setDefaults()
	loadConfigFile()
	loadEnvVars()
}

func setDefaults() {
	viper.SetDefault("backend.url", backend.DefaultURL)
	viper.SetDefault("backend.timeout", 60)
	viper.SetDefault("backend.provider", backend.ProviderHTTP)

	viper.SetDefault("ai.model", DefaultModel)

	viper.SetDefault("screen.countdown", 5)
	viper.SetDefault("screen.frames", 3)
	viper.SetDefault("screen.interval_ms", 1000)
	viper.SetDefault("screen.submit_timeout", 20)
	viper.SetDefault("screen.max_width", 1920)
	viper.SetDefault("screen.dir", "")

	viper.SetDefault("render.width", render.DefaultWidth)
	viper.SetDefault("render.style", render.StyleAuto)
}

func loadConfigFile() {
	viper.SetConfigName(".devdash")
	viper.SetConfigType("yaml")

	// 1. Current directory (project config)
	viper.AddConfigPath(".")
	// 2. Home directory (global config)
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	if err := viper.ReadInConfig(); err == nil {
		configFile = viper.ConfigFileUsed()
	}
}

func loadEnvVars() {
	viper.SetEnvPrefix("DEVDASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// BindFlags binds the root command's persistent flags to viper keys.
func BindFlags(cmd *cobra.Command) {
	// Errors are ignored as flags are guaranteed to exist
	_ = viper.BindPFlag("backend.url", cmd.PersistentFlags().Lookup("backend-url"))
	_ = viper.BindPFlag("backend.timeout", cmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("backend.provider", cmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("ai.model", cmd.PersistentFlags().Lookup("model"))
}

// BindScreenFlags binds the screen command's local flags.
func BindScreenFlags(cmd *cobra.Command) {
	_ = viper.BindPFlag("screen.countdown", cmd.Flags().Lookup("countdown"))
	_ = viper.BindPFlag("screen.frames", cmd.Flags().Lookup("frames"))
	_ = viper.BindPFlag("screen.dir", cmd.Flags().Lookup("dir"))
}

// Get returns the current configuration by unmarshaling all viper values.
func Get() *Config {
	// Error is ignored as defaults are always valid
	_ = viper.Unmarshal(&cfg)
	return &cfg
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.url %q must be an http(s) URL", c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %d", c.Backend.Timeout)
	}
	switch c.Backend.Provider {
	case backend.ProviderHTTP, backend.ProviderClaudeCode:
	default:
		return fmt.Errorf("backend.provider %q is not one of %s, %s",
			c.Backend.Provider, backend.ProviderHTTP, backend.ProviderClaudeCode)
	}
	if c.Screen.Frames < 1 {
		return fmt.Errorf("screen.frames must be at least 1, got %d", c.Screen.Frames)
	}
	if c.Screen.Countdown < 0 {
		return fmt.Errorf("screen.countdown must not be negative, got %d", c.Screen.Countdown)
	}
	return nil
}

// BackendTimeout returns the HTTP client timeout.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.Timeout) * time.Second
}

// ScreenOptions converts the screen settings into capture options.
func (c *Config) ScreenOptions() capture.Options {
	opts := capture.DefaultOptions()
	opts.CountdownSteps = c.Screen.Countdown
	opts.Frames = c.Screen.Frames
	if c.Screen.IntervalMS > 0 {
		opts.Interval = time.Duration(c.Screen.IntervalMS) * time.Millisecond
	}
	if c.Screen.SubmitTimeout > 0 {
		opts.SubmitTimeout = time.Duration(c.Screen.SubmitTimeout) * time.Second
	}
	opts.MaxWidth = c.Screen.MaxWidth
	return opts
}

// GetConfigPath returns the path to the config file that was loaded,
// or an empty string if no config file was found.
func GetConfigPath() string {
	return configFile
}

// GetDefaultConfigPath returns the default global config file path (~/.devdash.yaml).
func GetDefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".devdash.yaml")
}
