package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("default timeout = %v, want %v", cfg.API.Timeout, 15*time.Second)
	}
	if cfg.Selector.Debounce != 300*time.Millisecond {
		t.Errorf("default debounce = %v, want %v", cfg.Selector.Debounce, 300*time.Millisecond)
	}
	if cfg.List.PageLimit != 10 || cfg.List.MaxLimit != 100 {
		t.Errorf("default list = %+v, want 10/100", cfg.List)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(`
api:
  base_url: https://atelier.example.com/api
  timeout: 5s
cache:
  max_age: 2m
log:
  format: json
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "https://atelier.example.com/api" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want %v", cfg.API.Timeout, 5*time.Second)
	}
	if cfg.Cache.MaxAge != 2*time.Minute {
		t.Errorf("max age = %v, want %v", cfg.Cache.MaxAge, 2*time.Minute)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q, want json", cfg.Log.Format)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load() should return defaults for missing file, got error: %v", err)
	}
	want := DefaultConfig()
	if *cfg != want {
		t.Errorf("Load(missing) = %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(cfgPath)
	if err == nil {
		t.Fatal("Load(invalid YAML) should return error")
	}
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(`
list:
  page_limit: 25
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.List.PageLimit != 25 {
		t.Errorf("page limit = %d, want 25", cfg.List.PageLimit)
	}
	// Unset fields should retain defaults.
	if cfg.List.MaxLimit != 100 {
		t.Errorf("max limit = %d, want default 100", cfg.List.MaxLimit)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("timeout = %v, want default %v", cfg.API.Timeout, 15*time.Second)
	}
}

func TestLoad_LayeredPriority(t *testing.T) {
	// Setup: user config sets the server, project config overrides its timeout.
	userDir := t.TempDir()
	projectDir := t.TempDir()

	userCfg := filepath.Join(userDir, "config.yaml")
	if err := os.WriteFile(userCfg, []byte(`
api:
  base_url: https://prod.example.com/api
  timeout: 20s
metrics:
  enabled: true
`), 0o644); err != nil {
		t.Fatal(err)
	}

	projectCfg := filepath.Join(projectDir, "config.yaml")
	if err := os.WriteFile(projectCfg, []byte(`
api:
  timeout: 3s
metrics:
  enabled: false
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadLayered(userCfg, projectCfg)
	if err != nil {
		t.Fatalf("LoadLayered() error = %v", err)
	}
	// Base URL from user config (project doesn't set it).
	if cfg.API.BaseURL != "https://prod.example.com/api" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	// Timeout from project config (overrides user).
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want %v", cfg.API.Timeout, 3*time.Second)
	}
	// An explicit false overrides an earlier true.
	if cfg.Metrics.Enabled {
		t.Error("metrics.enabled = true, want false from project layer")
	}
	// Namespace retains default when neither layer sets it.
	if cfg.Metrics.Namespace != "atelier" {
		t.Errorf("namespace = %q, want default %q", cfg.Metrics.Namespace, "atelier")
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr bool
		check   func(*testing.T, Config)
	}{
		{
			name: "ATELIER_API_URL overrides base url",
			envs: map[string]string{"ATELIER_API_URL": "http://staging/api"},
			check: func(t *testing.T, c Config) {
				if c.API.BaseURL != "http://staging/api" {
					t.Errorf("base url = %q, want %q", c.API.BaseURL, "http://staging/api")
				}
			},
		},
		{
			name: "ATELIER_API_TOKEN sets token",
			envs: map[string]string{"ATELIER_API_TOKEN": "tok"},
			check: func(t *testing.T, c Config) {
				if c.API.Token != "tok" {
					t.Errorf("token = %q, want %q", c.API.Token, "tok")
				}
			},
		},
		{
			name: "ATELIER_API_TIMEOUT overrides timeout",
			envs: map[string]string{"ATELIER_API_TIMEOUT": "30s"},
			check: func(t *testing.T, c Config) {
				if c.API.Timeout != 30*time.Second {
					t.Errorf("timeout = %v, want %v", c.API.Timeout, 30*time.Second)
				}
			},
		},
		{
			name: "ATELIER_LOG_LEVEL and ATELIER_PAGE_LIMIT",
			envs: map[string]string{"ATELIER_LOG_LEVEL": "debug", "ATELIER_PAGE_LIMIT": "50"},
			check: func(t *testing.T, c Config) {
				if c.Log.Level != "debug" {
					t.Errorf("log level = %q, want debug", c.Log.Level)
				}
				if c.List.PageLimit != 50 {
					t.Errorf("page limit = %d, want 50", c.List.PageLimit)
				}
			},
		},
		{
			name: "unset variables leave defaults",
			envs: map[string]string{},
			check: func(t *testing.T, c Config) {
				if c != DefaultConfig() {
					t.Errorf("config changed: %+v", c)
				}
			},
		},
		{
			name:    "invalid ATELIER_API_TIMEOUT returns error",
			envs:    map[string]string{"ATELIER_API_TIMEOUT": "notaduration"},
			wantErr: true,
		},
		{
			name:    "invalid ATELIER_PAGE_LIMIT returns error",
			envs:    map[string]string{"ATELIER_PAGE_LIMIT": "ten"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			err := cfg.ApplyEnv()

			if tt.wantErr {
				if err == nil {
					t.Fatal("ApplyEnv() should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnv() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_UnknownField(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(`
api:
  base_ulr: http://x
`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(cfgPath)
	if err == nil {
		t.Fatal("Load() should return error for unknown field 'base_ulr'")
	}
	if _, err := LoadLayered(cfgPath); err == nil {
		t.Fatal("LoadLayered() should return error for unknown field 'base_ulr'")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:    "empty base url",
			modify:  func(c *Config) { c.API.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.API.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero cache entries",
			modify:  func(c *Config) { c.Cache.MaxEntries = 0 },
			wantErr: true,
		},
		{
			name:    "negative max age",
			modify:  func(c *Config) { c.Cache.MaxAge = -time.Second },
			wantErr: true,
		},
		{
			name:    "max limit below page limit",
			modify:  func(c *Config) { c.List.MaxLimit = 5 },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Selector.Debounce = -time.Millisecond },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "unknown log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "metrics without namespace",
			modify:  func(c *Config) { c.Metrics = Metrics{Enabled: true} },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLog_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := Log{Level: tt.level}.SlogLevel()
		if err != nil || got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, %v; want %v", tt.level, got, err, tt.want)
		}
	}
}

func TestLoad_CommentOnlyFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("# just a comment\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load(comment-only) error = %v", err)
	}
	want := DefaultConfig()
	if *cfg != want {
		t.Errorf("Load(comment-only) = %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoadLayered_AllMissing(t *testing.T) {
	cfg, err := LoadLayered("/no/user.yaml", "/no/project.yaml")
	if err != nil {
		t.Fatalf("LoadLayered(all missing) error = %v", err)
	}
	want := DefaultConfig()
	if *cfg != want {
		t.Errorf("got %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load(empty) error = %v", err)
	}
	want := DefaultConfig()
	if *cfg != want {
		t.Errorf("Load(empty) = %+v, want defaults %+v", *cfg, want)
	}
}
