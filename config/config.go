// Package config loads the settings of the tracker from defaults, an
// optional TOML file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Environment variables overriding the configuration file.
const (
	EnvDatabasePath = "PIT_DATABASE_PATH"
	EnvBaseCurrency = "PIT_BASE_CURRENCY"
	EnvLogLevel     = "PIT_LOG_LEVEL"
	EnvAddr         = "PIT_ADDR"
)

// Config holds application configuration
type Config struct {
	BaseCurrency string         `toml:"base_currency"` // default reporting currency, the stored setting wins
	Database     DatabaseConfig `toml:"database"`
	Log          LogConfig      `toml:"log"`
	Server       ServerConfig   `toml:"server"`
	Quotes       QuotesConfig   `toml:"quotes"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// ServerConfig configures the local HTTP bridge.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// QuotesConfig configures the quote fetcher.
//
// URL may contain a {ticker} placeholder, Path is a JSONPath expression
// selecting the price in the response.
type QuotesConfig struct {
	URL      string        `toml:"url"`
	Path     string        `toml:"path"`
	Timeout  string        `toml:"timeout"`
	Schedule string        `toml:"schedule"` // cron spec, empty disables the refresh job
	Sources  []QuoteSource `toml:"sources"`
}

// QuoteSource overrides the quote URL and path for a single ticker.
type QuoteSource struct {
	Ticker string `toml:"ticker"`
	URL    string `toml:"url"`
	Path   string `toml:"path"`
}

// GetTimeout parses and returns the timeout duration
func (c *QuotesConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// Source returns the URL and JSONPath to use for a ticker.
func (c *QuotesConfig) Source(ticker string) (url, path string) {
	url, path = c.URL, c.Path
	for _, s := range c.Sources {
		if s.Ticker != ticker {
			continue
		}
		if s.URL != "" {
			url = s.URL
		}
		if s.Path != "" {
			path = s.Path
		}
	}
	return url, path
}

// DefaultDatabasePath returns the database location used when nothing is configured.
func DefaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "pit.db"
	}
	return filepath.Join(dir, "pit", "pit.db")
}

// DefaultConfigPath returns the configuration file read when none is given.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pit", "config.toml")
}

// NewDefaultConfig returns the configuration used when no file is given.
func NewDefaultConfig() *Config {
	return &Config{
		BaseCurrency: "USD",
		Database:     DatabaseConfig{Path: DefaultDatabasePath()},
		Log:          LogConfig{Level: "info"},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8765",
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Quotes: QuotesConfig{Timeout: "10s"},
	}
}

// Load loads configuration from files with environment overrides.
//
// Missing files are skipped, later files override earlier ones. A .env file
// in the working directory, if any, is loaded into the environment first.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	config := NewDefaultConfig()
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv(EnvDatabasePath); v != "" {
		config.Database.Path = v
	}
	if v := os.Getenv(EnvBaseCurrency); v != "" {
		config.BaseCurrency = strings.ToUpper(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Log.Level = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		config.Server.Addr = v
	}
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if len(c.BaseCurrency) != 3 || strings.ToUpper(c.BaseCurrency) != c.BaseCurrency {
		return fmt.Errorf("base_currency %q is not a currency code", c.BaseCurrency)
	}
	return nil
}
