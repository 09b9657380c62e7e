package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Provider ProviderConfig `koanf:"provider"`
	Feed     FeedConfig     `koanf:"feed"`
	Taxonomy TaxonomyConfig `koanf:"taxonomy"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// ProviderConfig configures the upstream event discovery API client.
type ProviderConfig struct {
	BaseURL    string `koanf:"base_url"`
	APIKey     string `koanf:"api_key"`
	PageSize   int    `koanf:"page_size"`
	Timeout    string `koanf:"timeout"`   // parsed and validated on startup
	CacheTTL   string `koanf:"cache_ttl"` // parsed and validated on startup
	DailyQuota int    `koanf:"daily_quota"`
}

// FeedConfig configures the per-user aggregation engine.
type FeedConfig struct {
	DebounceMS         int     `koanf:"debounce_ms"`
	DefaultRadiusMiles float64 `koanf:"default_radius_miles"`
	LoadTimeout        string  `koanf:"load_timeout"` // parsed and validated on startup
}

// TaxonomyConfig points at optional keyword overlay files that extend the
// built-in category mapping.
type TaxonomyConfig struct {
	OverlayDir string `koanf:"overlay_dir"`
}

func (c ProviderConfig) EffectiveTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

func (c ProviderConfig) EffectiveCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

func (c FeedConfig) EffectiveLoadTimeout() time.Duration {
	d, err := time.ParseDuration(c.LoadTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if strings.TrimSpace(c.Provider.BaseURL) == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	if c.Provider.PageSize <= 0 {
		return fmt.Errorf("provider.page_size must be > 0")
	}
	if c.Provider.DailyQuota <= 0 {
		return fmt.Errorf("provider.daily_quota must be > 0")
	}
	if _, err := time.ParseDuration(c.Provider.Timeout); err != nil {
		return fmt.Errorf("invalid provider.timeout %q: %w", c.Provider.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Provider.CacheTTL); err != nil {
		return fmt.Errorf("invalid provider.cache_ttl %q: %w", c.Provider.CacheTTL, err)
	}

	if c.Feed.DebounceMS < 0 {
		return fmt.Errorf("feed.debounce_ms must be >= 0")
	}
	if c.Feed.DefaultRadiusMiles < 0 {
		return fmt.Errorf("feed.default_radius_miles must be >= 0")
	}
	if _, err := time.ParseDuration(c.Feed.LoadTimeout); err != nil {
		return fmt.Errorf("invalid feed.load_timeout %q: %w", c.Feed.LoadTimeout, err)
	}

	return nil
}

// Load parses config from file + env and validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":               8080,
		"server.host":               "0.0.0.0",
		"server.max_body_size_mb":   1,
		"server.mode":               "release",
		"database.type":             "postgres",
		"database.dsn":              "",
		"database.max_open_conns":   25,
		"database.max_idle_conns":   25,
		"database.auto_migrate":     true,
		"provider.base_url":         "https://app.ticketmaster.com/discovery/v2",
		"provider.api_key":          "",
		"provider.page_size":        50,
		"provider.timeout":          "10s",
		"provider.cache_ttl":        "15m",
		"provider.daily_quota":      200,
		"feed.debounce_ms":          500,
		"feed.default_radius_miles": 25.0,
		"feed.load_timeout":         "30s",
		"taxonomy.overlay_dir":      "",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("ROAM_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ROAM_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
