// Package config holds the immutable application configuration.
//
// Values are resolved in three layers: built-in defaults, an optional TOML
// file, and BLOGSYNC_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const (
	DefaultBaseURL        = "https://open-api.xyz/api/"
	DefaultNetworkTimeout = 6 * time.Second
	DefaultPageSize       = 10
	DefaultCachePath      = "blogsync.db"
	DefaultPrefsPath      = "blogsync_prefs.toml"
	DefaultServerAddr     = ":8000"
)

// Config is loaded once at startup and passed by value.
type Config struct {
	// Remote API
	BaseURL        string        `toml:"base_url" env:"BLOGSYNC_BASE_URL"`
	NetworkTimeout time.Duration `toml:"network_timeout" env:"BLOGSYNC_NETWORK_TIMEOUT"`
	// Artificial delays, only useful to observe the loading states
	NetworkDelay time.Duration `toml:"network_delay" env:"BLOGSYNC_NETWORK_DELAY"`
	CacheDelay   time.Duration `toml:"cache_delay" env:"BLOGSYNC_CACHE_DELAY"`
	// Pagination
	PageSize int `toml:"page_size" env:"BLOGSYNC_PAGE_SIZE"`
	// Local state
	CachePath string `toml:"cache_path" env:"BLOGSYNC_CACHE_PATH"`
	PrefsPath string `toml:"prefs_path" env:"BLOGSYNC_PREFS_PATH"`
	// Session
	AuthToken string `toml:"auth_token" env:"BLOGSYNC_AUTH_TOKEN"`
	AccountPk int    `toml:"account_pk" env:"BLOGSYNC_ACCOUNT_PK"`
	// Development API server
	ServerAddr string `toml:"server_addr" env:"BLOGSYNC_SERVER_ADDR"`
	LogLevel   string `toml:"log_level" env:"BLOGSYNC_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		NetworkTimeout: DefaultNetworkTimeout,
		PageSize:       DefaultPageSize,
		CachePath:      DefaultCachePath,
		PrefsPath:      DefaultPrefsPath,
		ServerAddr:     DefaultServerAddr,
	}
}

// Load resolves the configuration. An empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		if err := loadToml(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%s: empty", "base_url")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("%s: invalid: %w", "base_url", err)
	}
	if c.NetworkTimeout <= 0 {
		return fmt.Errorf("%s: must be GT 0", "network_timeout")
	}
	if c.NetworkDelay < 0 {
		return fmt.Errorf("%s: must be GTE 0", "network_delay")
	}
	if c.CacheDelay < 0 {
		return fmt.Errorf("%s: must be GTE 0", "cache_delay")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%s: must be GT 0", "page_size")
	}

	return nil
}

func loadToml(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if _, err := toml.Decode(string(data), out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
