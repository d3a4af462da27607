// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all atelier configuration.
type Config struct {
	API      API      `yaml:"api"`
	Cache    Cache    `yaml:"cache"`
	List     List     `yaml:"list"`
	Selector Selector `yaml:"selector"`
	Notify   Notify   `yaml:"notify"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
}

// API holds back-office server settings.
type API struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// Cache holds resource cache settings.
type Cache struct {
	MaxEntries int           `yaml:"max_entries"`
	MaxAge     time.Duration `yaml:"max_age"` // 0 keeps pages until invalidated
}

// List holds paging settings.
type List struct {
	PageLimit int `yaml:"page_limit"`
	MaxLimit  int `yaml:"max_limit"`
}

// Selector holds searchable selector settings.
type Selector struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Notify holds notification settings.
type Notify struct {
	TTL time.Duration `yaml:"ttl"`
}

// Log holds logging settings.
type Log struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "text" | "json"
	File   string `yaml:"file"`   // Dashboard log file; the TUI owns stdout.
}

// Metrics holds cache metrics settings.
type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: API{
			BaseURL: "http://localhost:3000/api",
			Timeout: 15 * time.Second,
		},
		Cache: Cache{
			MaxEntries: 256,
		},
		List: List{
			PageLimit: 10,
			MaxLimit:  100,
		},
		Selector: Selector{
			Debounce: 300 * time.Millisecond,
		},
		Notify: Notify{
			TTL: 4 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
			File:   ".atelier/atelier.log",
		},
		Metrics: Metrics{
			Namespace: "atelier",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("config: api.base_url cannot be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %v", c.API.Timeout)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("config: cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.MaxAge < 0 {
		return fmt.Errorf("config: cache.max_age must be non-negative, got %v", c.Cache.MaxAge)
	}
	if c.List.PageLimit <= 0 {
		return fmt.Errorf("config: list.page_limit must be positive, got %d", c.List.PageLimit)
	}
	if c.List.MaxLimit < c.List.PageLimit {
		return fmt.Errorf("config: list.max_limit (%d) must be at least list.page_limit (%d)", c.List.MaxLimit, c.List.PageLimit)
	}
	if c.Selector.Debounce < 0 {
		return fmt.Errorf("config: selector.debounce must be non-negative, got %v", c.Selector.Debounce)
	}
	if c.Notify.TTL < 0 {
		return fmt.Errorf("config: notify.ttl must be non-negative, got %v", c.Notify.TTL)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
		// valid
	default:
		return fmt.Errorf("config: log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return errors.New("config: metrics.namespace cannot be empty when metrics are enabled")
	}
	return nil
}

// SlogLevel parses Level. An empty level is info.
func (l Log) SlogLevel() (slog.Level, error) {
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("config: log.level %q: %w", l.Level, err)
	}
	return lvl, nil
}

// envOverrides lists the supported environment variables. Unset or empty
// variables leave the config untouched.
type envOverrides struct {
	APIURL     string        `env:"ATELIER_API_URL"`
	APIToken   string        `env:"ATELIER_API_TOKEN"`
	APITimeout time.Duration `env:"ATELIER_API_TIMEOUT"`
	LogLevel   string        `env:"ATELIER_LOG_LEVEL"`
	PageLimit  int           `env:"ATELIER_PAGE_LIMIT"`
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: ATELIER_API_URL, ATELIER_API_TOKEN,
// ATELIER_API_TIMEOUT, ATELIER_LOG_LEVEL, ATELIER_PAGE_LIMIT.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	if o.APIURL != "" {
		c.API.BaseURL = o.APIURL
	}
	if o.APIToken != "" {
		c.API.Token = o.APIToken
	}
	if o.APITimeout != 0 {
		c.API.Timeout = o.APITimeout
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.PageLimit != 0 {
		c.List.PageLimit = o.PageLimit
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	API      *rawAPI      `yaml:"api"`
	Cache    *rawCache    `yaml:"cache"`
	List     *rawList     `yaml:"list"`
	Selector *rawSelector `yaml:"selector"`
	Notify   *rawNotify   `yaml:"notify"`
	Log      *rawLog      `yaml:"log"`
	Metrics  *rawMetrics  `yaml:"metrics"`
}

type rawAPI struct {
	BaseURL *string        `yaml:"base_url"`
	Token   *string        `yaml:"token"`
	Timeout *time.Duration `yaml:"timeout"`
}

type rawCache struct {
	MaxEntries *int           `yaml:"max_entries"`
	MaxAge     *time.Duration `yaml:"max_age"`
}

type rawList struct {
	PageLimit *int `yaml:"page_limit"`
	MaxLimit  *int `yaml:"max_limit"`
}

type rawSelector struct {
	Debounce *time.Duration `yaml:"debounce"`
}

type rawNotify struct {
	TTL *time.Duration `yaml:"ttl"`
}

type rawLog struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
	File   *string `yaml:"file"`
}

type rawMetrics struct {
	Enabled   *bool   `yaml:"enabled"`
	Namespace *string `yaml:"namespace"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if l := layer.API; l != nil {
		set(&c.API.BaseURL, l.BaseURL)
		set(&c.API.Token, l.Token)
		set(&c.API.Timeout, l.Timeout)
	}
	if l := layer.Cache; l != nil {
		set(&c.Cache.MaxEntries, l.MaxEntries)
		set(&c.Cache.MaxAge, l.MaxAge)
	}
	if l := layer.List; l != nil {
		set(&c.List.PageLimit, l.PageLimit)
		set(&c.List.MaxLimit, l.MaxLimit)
	}
	if l := layer.Selector; l != nil {
		set(&c.Selector.Debounce, l.Debounce)
	}
	if l := layer.Notify; l != nil {
		set(&c.Notify.TTL, l.TTL)
	}
	if l := layer.Log; l != nil {
		set(&c.Log.Level, l.Level)
		set(&c.Log.Format, l.Format)
		set(&c.Log.File, l.File)
	}
	if l := layer.Metrics; l != nil {
		set(&c.Metrics.Enabled, l.Enabled)
		set(&c.Metrics.Namespace, l.Namespace)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
