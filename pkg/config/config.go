// Package config loads tool configuration from a TOML file.
//
// Configuration lives at $XDG_CONFIG_HOME/delegraph/config.toml (or the
// platform equivalent). A missing file is not an error; every field has a
// working default so the tool runs unconfigured.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Cache backend names accepted in the config file.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the full tool configuration.
type Config struct {
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
	Resolve ResolveConfig `toml:"resolve"`
	Server  ServerConfig  `toml:"server"`
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	// Backend is one of "file", "redis" or "none".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Empty means a "delegraph"
	// directory under the user cache dir.
	Dir string `toml:"dir"`

	// RedisAddr is the redis backend's host:port.
	RedisAddr string `toml:"redis_addr"`

	// RedisPassword authenticates the redis connection. Empty disables auth.
	RedisPassword string `toml:"redis_password"`

	// RedisDB selects the redis database number.
	RedisDB int `toml:"redis_db"`
}

// StoreConfig configures run history persistence.
type StoreConfig struct {
	// MongoURI is the MongoDB connection string. Empty disables the
	// persistent store; runs are then kept in memory only.
	MongoURI string `toml:"mongo_uri"`

	// Database is the MongoDB database name.
	Database string `toml:"database"`
}

// ResolveConfig sets default resolution parameters.
type ResolveConfig struct {
	// Engine is the default resolution engine: "linear", "lp" or
	// "iterative".
	Engine string `toml:"engine"`

	// Tolerance is the iterative engine's convergence threshold.
	Tolerance float64 `toml:"tolerance"`

	// MaxIterations caps the iterative engine's sweeps.
	MaxIterations int `toml:"max_iterations"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend:   CacheBackendFile,
			RedisAddr: "localhost:6379",
		},
		Store: StoreConfig{
			Database: "delegraph",
		},
		Resolve: ResolveConfig{
			Engine: "linear",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "delegraph", "config.toml"), nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields [Default].
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Resolve.Engine {
	case "linear", "lp", "iterative":
	default:
		return fmt.Errorf("unknown resolve engine %q", c.Resolve.Engine)
	}
	return nil
}

// CacheDir returns the effective file cache directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "delegraph"), nil
}
