// Package config provides YAML/env configuration for the editor server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/plc-visualizer/twin-editor/internal/storage"
)

// EnvPrefix is prepended to every environment override, e.g. TWIN_SERVER_PORT.
const EnvPrefix = "TWIN"

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Editor    EditorConfig    `mapstructure:"editor" yaml:"editor"`
	Simulator SimulatorConfig `mapstructure:"simulator" yaml:"simulator"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Advanced  AdvancedConfig  `mapstructure:"advanced" yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host           string        `mapstructure:"host" yaml:"host"`
	Port           int           `mapstructure:"port" yaml:"port"`
	EnableCORS     bool          `mapstructure:"enable_cors" yaml:"enable_cors"`
	AllowOrigins   []string      `mapstructure:"allow_origins" yaml:"allow_origins"`
	BodyLimit      string        `mapstructure:"body_limit" yaml:"body_limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	RequestLogging bool          `mapstructure:"request_logging" yaml:"request_logging"`
}

// StorageConfig selects the saved-layout backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // local or sqlite
	Path    string `mapstructure:"path" yaml:"path"`       // directory (local) or database file (sqlite)
}

// EditorConfig contains per-workspace editor settings
type EditorConfig struct {
	HistoryCapacity int           `mapstructure:"history_capacity" yaml:"history_capacity"`
	AutosaveDelay   time.Duration `mapstructure:"autosave_delay" yaml:"autosave_delay"`
	MaxSessions     int           `mapstructure:"max_sessions" yaml:"max_sessions"`
	SessionMaxAge   time.Duration `mapstructure:"session_max_age" yaml:"session_max_age"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

// SimulatorConfig tunes the route motion simulator.
type SimulatorConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Speed    float64       `mapstructure:"speed" yaml:"speed"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	// EventDir holds the per-workspace DuckDB transition logs. Empty disables them.
	EventDir         string `mapstructure:"event_dir" yaml:"event_dir"`
	ShowErrorDetails bool   `mapstructure:"show_error_details" yaml:"show_error_details"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8090,
			EnableCORS:     true,
			AllowOrigins:   []string{"*"},
			BodyLimit:      "16M",
			RequestTimeout: 30 * time.Second,
			RequestLogging: true,
		},
		Storage: StorageConfig{
			Backend: storage.BackendLocal,
			Path:    "./data/layouts",
		},
		Editor: EditorConfig{
			HistoryCapacity: 100,
			AutosaveDelay:   300 * time.Millisecond,
			MaxSessions:     10,
			SessionMaxAge:   30 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Simulator: SimulatorConfig{
			Interval: 500 * time.Millisecond,
			Speed:    100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Advanced: AdvancedConfig{
			EventDir:         "./data/events",
			ShowErrorDetails: true,
		},
	}
}

func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.enable_cors", d.Server.EnableCORS)
	v.SetDefault("server.allow_origins", d.Server.AllowOrigins)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.request_logging", d.Server.RequestLogging)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)

	v.SetDefault("editor.history_capacity", d.Editor.HistoryCapacity)
	v.SetDefault("editor.autosave_delay", d.Editor.AutosaveDelay)
	v.SetDefault("editor.max_sessions", d.Editor.MaxSessions)
	v.SetDefault("editor.session_max_age", d.Editor.SessionMaxAge)
	v.SetDefault("editor.cleanup_interval", d.Editor.CleanupInterval)

	v.SetDefault("simulator.interval", d.Simulator.Interval)
	v.SetDefault("simulator.speed", d.Simulator.Speed)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("advanced.event_dir", d.Advanced.EventDir)
	v.SetDefault("advanced.show_error_details", d.Advanced.ShowErrorDetails)
}

// Load reads configuration from configPath, creating a default file there when
// it does not exist. An empty path uses defaults and the environment only.
// Precedence: environment > file > defaults.
func Load(configPath string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			if err := DefaultConfig().Save(configPath); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		}
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if configPath != "" {
		cfg.resolvePaths(filepath.Dir(configPath))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Twin layout editor configuration\n# This file is auto-generated on first run\n\n")
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, append(header, output...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *AppConfig) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Storage.Backend {
	case storage.BackendLocal, storage.BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q",
			storage.BackendLocal, storage.BackendSQLite, c.Storage.Backend)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Editor.HistoryCapacity <= 0 {
		return fmt.Errorf("editor.history_capacity must be positive, got %d", c.Editor.HistoryCapacity)
	}
	if c.Editor.AutosaveDelay < 0 {
		return fmt.Errorf("editor.autosave_delay must be >= 0, got %v", c.Editor.AutosaveDelay)
	}
	if c.Editor.MaxSessions <= 0 {
		return fmt.Errorf("editor.max_sessions must be positive, got %d", c.Editor.MaxSessions)
	}
	if c.Editor.SessionMaxAge <= 0 {
		return fmt.Errorf("editor.session_max_age must be positive, got %v", c.Editor.SessionMaxAge)
	}
	if c.Simulator.Interval <= 0 {
		return fmt.Errorf("simulator.interval must be positive, got %v", c.Simulator.Interval)
	}
	if c.Simulator.Speed <= 0 {
		return fmt.Errorf("simulator.speed must be positive, got %v", c.Simulator.Speed)
	}
	return nil
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.Path) {
		c.Storage.Path = filepath.Join(configDir, c.Storage.Path)
	}
	if c.Advanced.EventDir != "" && !filepath.IsAbs(c.Advanced.EventDir) {
		c.Advanced.EventDir = filepath.Join(configDir, c.Advanced.EventDir)
	}
}

// ServerAddr returns the server bind address
func (c *AppConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{}
	switch c.Storage.Backend {
	case storage.BackendSQLite:
		dirs = append(dirs, filepath.Dir(c.Storage.Path))
	default:
		dirs = append(dirs, c.Storage.Path)
	}
	if c.Advanced.EventDir != "" {
		dirs = append(dirs, c.Advanced.EventDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
