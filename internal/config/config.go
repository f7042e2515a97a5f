// Package config loads the runtime configuration of the journal binaries.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/journal/pkg/core"
)

// Config is the root configuration.
type Config struct {
	Storage StorageConfig `koanf:"storage"`
	Policy  PolicyConfig  `koanf:"policy"`
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
}

// StorageConfig selects and tunes the reflection store.
type StorageConfig struct {
	Adapter     string        `koanf:"adapter"` // "fs", "sqlite" or empty to infer from Path
	Path        string        `koanf:"path"`
	Order       string        `koanf:"order"` // oldest_first | newest_first
	LockTimeout time.Duration `koanf:"lock_timeout"`
	StaleLock   time.Duration `koanf:"stale_lock"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`
	Versioned   bool          `koanf:"versioned"`
	MustExist   bool          `koanf:"must_exist"`
}

// PolicyConfig mirrors core.Policy.
type PolicyConfig struct {
	MinLength     int    `koanf:"min_length"`
	MaxLength     int    `koanf:"max_length"`
	DefaultTitle  string `koanf:"default_title"`
	DefaultName   string `koanf:"default_name"`
	DefaultSource string `koanf:"default_source"`
	DateLayout    string `koanf:"date_layout"`
	LocalTime     bool   `koanf:"local_time"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	StaticDir       string        `koanf:"static_dir"`
	Assets          []string      `koanf:"assets"` // doublestar patterns allowed under /static
	RateRPS         float64       `koanf:"rate_rps"`
	RateBurst       int           `koanf:"rate_burst"`
	BodyLimit       string        `koanf:"body_limit"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text | json
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg, func(string) bool { return false })
	return cfg
}

// applyDefaults fills unset fields. isSet reports whether a key was given
// explicitly, so fields where 0 means "disabled" keep an explicit 0.
func applyDefaults(cfg *Config, isSet func(key string) bool) {
	// Storage defaults
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/reflections.json"
	}
	if cfg.Storage.Order == "" {
		cfg.Storage.Order = string(core.OldestFirst)
	}
	if cfg.Storage.LockTimeout == 0 {
		cfg.Storage.LockTimeout = 5 * time.Second
	}
	if cfg.Storage.StaleLock == 0 {
		cfg.Storage.StaleLock = 30 * time.Second
	}

	// Policy defaults
	def := core.DefaultPolicy()
	if cfg.Policy.MinLength == 0 && !isSet("policy.min_length") {
		cfg.Policy.MinLength = def.MinLength
	}
	if cfg.Policy.MaxLength == 0 && !isSet("policy.max_length") {
		cfg.Policy.MaxLength = def.MaxLength
	}
	if cfg.Policy.DefaultTitle == "" {
		cfg.Policy.DefaultTitle = def.DefaultTitle
	}
	if cfg.Policy.DefaultName == "" {
		cfg.Policy.DefaultName = def.DefaultName
	}
	if cfg.Policy.DefaultSource == "" {
		cfg.Policy.DefaultSource = def.DefaultSource
	}
	if cfg.Policy.DateLayout == "" {
		cfg.Policy.DateLayout = def.DateLayout
	}

	// Server defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "public"
	}
	if len(cfg.Server.Assets) == 0 {
		cfg.Server.Assets = []string{"**/*.{css,js,png,jpg,svg,ico,webp,woff2,json}"}
	}
	if cfg.Server.RateRPS == 0 && !isSet("server.rate_rps") {
		cfg.Server.RateRPS = 5
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 10
	}
	if cfg.Server.BodyLimit == "" {
		cfg.Server.BodyLimit = "64K"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// Log defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if _, err := core.ParseOrder(c.Storage.Order); err != nil {
		return fmt.Errorf("storage.order: %w", err)
	}
	switch strings.ToLower(c.Storage.Adapter) {
	case "", "fs", "sqlite":
	default:
		return fmt.Errorf("storage.adapter: unknown adapter %q", c.Storage.Adapter)
	}
	if c.Storage.LockTimeout < 0 {
		return fmt.Errorf("storage.lock_timeout must not be negative")
	}
	if c.Policy.MinLength < 0 || c.Policy.MaxLength < 0 {
		return fmt.Errorf("policy lengths must not be negative")
	}
	if c.Policy.MaxLength > 0 && c.Policy.MinLength > c.Policy.MaxLength {
		return fmt.Errorf("policy.min_length (%d) exceeds policy.max_length (%d)", c.Policy.MinLength, c.Policy.MaxLength)
	}
	if c.Server.RateRPS < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("server rate limit must not be negative")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: want text or json, got %q", c.Log.Format)
	}
	return nil
}

// ParsedOrder returns the parsed storage order.
func (s StorageConfig) ParsedOrder() core.Order {
	order, err := core.ParseOrder(s.Order)
	if err != nil {
		return core.OldestFirst
	}
	return order
}

// CorePolicy converts the policy section to the domain type.
func (p PolicyConfig) CorePolicy() core.Policy {
	return core.Policy{
		MinLength:     p.MinLength,
		MaxLength:     p.MaxLength,
		DefaultTitle:  p.DefaultTitle,
		DefaultName:   p.DefaultName,
		DefaultSource: p.DefaultSource,
		DateLayout:    p.DateLayout,
		UTC:           !p.LocalTime,
	}
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
