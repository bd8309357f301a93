package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsonflow/jsonflow/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":8464" {
		t.Errorf("Addr = %q, want :8464", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Render.Theme != "light" {
		t.Errorf("Theme = %q, want light", cfg.Render.Theme)
	}
	if cfg.Limits.MaxNodes != 10000 {
		t.Errorf("MaxNodes = %d, want 10000", cfg.Limits.MaxNodes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[server]
addr = "127.0.0.1:9000"

[cache]
backend = "none"

[layout]
column_gap = 120.0

[render]
theme = "dark"
detailed = true

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != "none" {
		t.Errorf("Backend = %q", cfg.Cache.Backend)
	}
	if cfg.Layout.ColumnGap != 120 {
		t.Errorf("ColumnGap = %v", cfg.Layout.ColumnGap)
	}
	if cfg.Render.Theme != "dark" || !cfg.Render.Detailed {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
	// Sections absent from the file keep defaults.
	if cfg.Limits.MaxDepth != 512 {
		t.Errorf("MaxDepth = %d, want 512", cfg.Limits.MaxDepth)
	}
	if cfg.Layout.RowGap != 24 {
		t.Errorf("RowGap = %v, want 24", cfg.Layout.RowGap)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("server = {"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Load() error = %v, want INVALID_FORMAT", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[render]\ntheme = \"light\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JSONFLOW_THEME", "dark")
	t.Setenv("JSONFLOW_ADDR", ":7777")
	t.Setenv("JSONFLOW_MAX_NODES", "42")
	t.Setenv("JSONFLOW_CACHE_BACKEND", "none")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Render.Theme != "dark" {
		t.Errorf("Theme = %q, env should win over file", cfg.Render.Theme)
	}
	if cfg.Server.Addr != ":7777" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Limits.MaxNodes != 42 {
		t.Errorf("MaxNodes = %d", cfg.Limits.MaxNodes)
	}
	if cfg.Cache.Backend != "none" {
		t.Errorf("Backend = %q", cfg.Cache.Backend)
	}
}

func TestLoadEnvBadInt(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("JSONFLOW_MAX_NODES", "lots")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Limits.MaxNodes != 10000 {
		t.Errorf("MaxNodes = %d, unparseable env should keep default", cfg.Limits.MaxNodes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode errors.Code
	}{
		{
			name:     "unknown backend",
			mutate:   func(c *Config) { c.Cache.Backend = "memcached" },
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name: "redis without url",
			mutate: func(c *Config) {
				c.Cache.Backend = "redis"
				c.Cache.RedisURL = ""
			},
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name:     "unknown theme",
			mutate:   func(c *Config) { c.Render.Theme = "sepia" },
			wantCode: errors.ErrCodeInvalidTheme,
		},
		{
			name:     "zero max views",
			mutate:   func(c *Config) { c.Server.MaxViews = 0 },
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name:     "negative gap",
			mutate:   func(c *Config) { c.Layout.ColumnGap = -1 },
			wantCode: errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Validate() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Render.Theme = "dark"
	cfg.Server.Addr = ":1234"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Render.Theme != "dark" || loaded.Server.Addr != ":1234" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}
