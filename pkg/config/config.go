// Package config loads jsonflow configuration from an optional TOML file
// with environment variable overrides.
//
// Settings resolve in three layers, later layers winning: built-in
// defaults, the config file (by default $XDG_CONFIG_HOME/jsonflow/
// config.toml), and JSONFLOW_* environment variables. Every consumer
// receives a fully populated Config; zero values never leak out of Load.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/jsonflow/jsonflow/pkg/errors"
)

// ===== Config Sections =====

// Config holds every tunable the CLI and server read.
type Config struct {
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Limits LimitsConfig `toml:"limits"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `toml:"addr"`
	// MaxViews caps concurrently open views; the least recently used
	// view is evicted beyond this.
	MaxViews int `toml:"max_views"`
}

// CacheConfig selects and configures the pipeline cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`
	// Dir is the file backend's directory. Empty means the user cache
	// directory, $XDG_CACHE_HOME/jsonflow.
	Dir string `toml:"dir"`
	// RedisURL is the redis backend's connection URL.
	RedisURL string `toml:"redis_url"`
	// Prefix namespaces cache keys, e.g. per environment.
	Prefix string `toml:"prefix"`
}

// LayoutConfig overrides layout spacing.
type LayoutConfig struct {
	ColumnGap float64 `toml:"column_gap"`
	RowGap    float64 `toml:"row_gap"`
}

// RenderConfig sets default render output options.
type RenderConfig struct {
	// Theme is "light" or "dark".
	Theme string `toml:"theme"`
	// Format is the default output format when none is given.
	Format string `toml:"format"`
	// Detailed includes value previews in DOT output.
	Detailed bool `toml:"detailed"`
}

// LimitsConfig bounds untrusted input.
type LimitsConfig struct {
	// MaxNodes caps graph size; documents needing more nodes are rejected.
	MaxNodes int `toml:"max_nodes"`
	// MaxDepth caps JSON nesting depth.
	MaxDepth int `toml:"max_depth"`
	// MaxBytes caps raw document size in bytes.
	MaxBytes int `toml:"max_bytes"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `toml:"level"`
}

// ===== Defaults =====

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:     ":8464",
			MaxViews: 128,
		},
		Cache: CacheConfig{
			Backend: "file",
		},
		Layout: LayoutConfig{
			ColumnGap: 80,
			RowGap:    24,
		},
		Render: RenderConfig{
			Theme:  "light",
			Format: "svg",
		},
		Limits: LimitsConfig{
			MaxNodes: 10000,
			MaxDepth: 512,
			MaxBytes: 10 << 20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Dir returns the jsonflow config directory, honoring XDG_CONFIG_HOME.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "jsonflow")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// ===== Loading =====

// Load resolves configuration from defaults, the TOML file at path, and
// JSONFLOW_* environment variables, in that order. An empty path means
// DefaultPath; a missing file at the default location is not an error,
// while an explicitly given path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config file %s", path)
			}
		case os.IsNotExist(err) && !explicit:
			// No config file is fine; defaults apply.
		default:
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config file %s", path)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = getenv("JSONFLOW_ADDR", cfg.Server.Addr)
	cfg.Server.MaxViews = getenvInt("JSONFLOW_MAX_VIEWS", cfg.Server.MaxViews)
	cfg.Cache.Backend = getenv("JSONFLOW_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.Dir = getenv("JSONFLOW_CACHE_DIR", cfg.Cache.Dir)
	cfg.Cache.RedisURL = getenv("JSONFLOW_REDIS_URL", cfg.Cache.RedisURL)
	cfg.Cache.Prefix = getenv("JSONFLOW_CACHE_PREFIX", cfg.Cache.Prefix)
	cfg.Render.Theme = getenv("JSONFLOW_THEME", cfg.Render.Theme)
	cfg.Render.Format = getenv("JSONFLOW_FORMAT", cfg.Render.Format)
	cfg.Limits.MaxNodes = getenvInt("JSONFLOW_MAX_NODES", cfg.Limits.MaxNodes)
	cfg.Limits.MaxDepth = getenvInt("JSONFLOW_MAX_DEPTH", cfg.Limits.MaxDepth)
	cfg.Limits.MaxBytes = getenvInt("JSONFLOW_MAX_BYTES", cfg.Limits.MaxBytes)
	cfg.Log.Level = getenv("JSONFLOW_LOG_LEVEL", cfg.Log.Level)
}

// Validate rejects values no component can act on.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cache backend redis requires a redis URL")
	}
	switch c.Render.Theme {
	case "light", "dark":
	default:
		return errors.New(errors.ErrCodeInvalidTheme, "unknown theme %q", c.Render.Theme)
	}
	if c.Server.MaxViews < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "max views must be at least 1, got %d", c.Server.MaxViews)
	}
	if c.Layout.ColumnGap < 0 || c.Layout.RowGap < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layout gaps cannot be negative")
	}
	return nil
}

// Save writes cfg as TOML to path, creating parent directories.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
