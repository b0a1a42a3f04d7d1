// Package config holds the settings of the pmc hosts.
//
// The portfolio itself is compiled in and is not configurable; only how it is
// fetched, logged and served is.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for pmc.
type Config struct {
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Fetch   FetchConfig   `toml:"fetch" yaml:"fetch"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"` // debug, info, warn, error
}

// FetchConfig holds price page retrieval configuration.
type FetchConfig struct {
	Parallel  int     `toml:"parallel" yaml:"parallel"`     // concurrent fetches, 1 is sequential
	Timeout   string  `toml:"timeout" yaml:"timeout"`       // per request, e.g. "30s"
	RateLimit float64 `toml:"rate_limit" yaml:"rate_limit"` // requests per second, 0 is unlimited
}

// GetTimeout parses and returns the timeout duration
func (c *FetchConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host" yaml:"host"`
	Port int    `toml:"port" yaml:"port"`
}

// Addr returns host:port.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Fetch: FetchConfig{
			Parallel: 1,
			Timeout:  "30s",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
	}
}

// Load loads configuration from files with environment overrides.
// Files are TOML, or YAML when named *.yaml or *.yml. Later files override
// earlier ones, missing files are skipped.
func Load(paths ...string) (*Config, error) {
	c := Default()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue // Skip missing files
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := unmarshal(path, data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func unmarshal(path string, data []byte, c *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	default:
		return toml.Unmarshal(data, c)
	}
}

// LoadDotEnv loads KEY=value files into the environment, without overriding
// variables already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		err := godotenv.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvOverrides applies PMC_* environment variables to c.
func applyEnvOverrides(c *Config) error {
	if v := os.Getenv("PMC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PMC_PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PMC_PARALLEL: %w", err)
		}
		c.Fetch.Parallel = n
	}
	if v := os.Getenv("PMC_TIMEOUT"); v != "" {
		c.Fetch.Timeout = v
	}
	if v := os.Getenv("PMC_RATE_LIMIT"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PMC_RATE_LIMIT: %w", err)
		}
		c.Fetch.RateLimit = r
	}
	if v := os.Getenv("PMC_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PMC_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PMC_PORT: %w", err)
		}
		c.Server.Port = p
	}
	return nil
}

// Validate rejects values no host can work with.
func (c *Config) Validate() error {
	if c.Fetch.Parallel < 0 {
		return fmt.Errorf("fetch.parallel must not be negative, got %d", c.Fetch.Parallel)
	}
	if c.Fetch.RateLimit < 0 {
		return fmt.Errorf("fetch.rate_limit must not be negative, got %v", c.Fetch.RateLimit)
	}
	if c.Fetch.Timeout != "" {
		if _, err := time.ParseDuration(c.Fetch.Timeout); err != nil {
			return fmt.Errorf("fetch.timeout: %w", err)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
