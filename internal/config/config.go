// Package config loads the TOML configuration for the fetch layer.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Cache configures the on-disk content cache.
type Cache struct {
	Dir    string `toml:"dir"`
	MaxAge string `toml:"max_age"` // Go duration string; empty means no expiry
}

// HTTP configures remote retrieval.
type HTTP struct {
	Timeout   string `toml:"timeout"` // Go duration string
	UserAgent string `toml:"user_agent"`
}

// Config is the root configuration.
type Config struct {
	Cache Cache `toml:"cache"`
	HTTP  HTTP  `toml:"http"`
}

// Default returns the built-in configuration. The cache lives under the
// user cache directory; when that cannot be resolved, under the temp dir.
func Default() Config {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return Config{
		Cache: Cache{Dir: filepath.Join(base, "lumen")},
		HTTP:  HTTP{Timeout: "30s", UserAgent: "lumen/" + Version},
	}
}

// Version is the toolkit version stamped into the default user agent.
const Version = "0.3.0"

// Load reads the configuration at path, applies defaults for unset fields,
// then environment overrides. A missing file is not an error: defaults and
// environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path) //nolint:gosec // G304: config path comes from the caller.
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if _, err := cfg.HTTPTimeout(); err != nil {
		return Config{}, err
	}
	if _, err := cfg.CacheMaxAge(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// HTTPTimeout parses the configured HTTP timeout.
func (c Config) HTTPTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.HTTP.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 0, fmt.Errorf("http timeout: %w", err)
	}
	return d, nil
}

// CacheMaxAge parses the configured cache entry lifetime. Zero means
// entries never expire.
func (c Config) CacheMaxAge() (time.Duration, error) {
	if strings.TrimSpace(c.Cache.MaxAge) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.MaxAge)
	if err != nil {
		return 0, fmt.Errorf("cache max_age: %w", err)
	}
	return d, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LUMEN_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("LUMEN_CACHE_MAX_AGE"); v != "" {
		cfg.Cache.MaxAge = v
	}
	if v := os.Getenv("LUMEN_HTTP_TIMEOUT"); v != "" {
		cfg.HTTP.Timeout = v
	}
	if v := os.Getenv("LUMEN_HTTP_USER_AGENT"); v != "" {
		cfg.HTTP.UserAgent = v
	}
}
