// Package config loads the relmap.toml configuration file.
//
// Configuration is optional: every field has a default, and a missing file
// is not an error. Values are resolved in order: built-in defaults, then the
// config file, then command-line flags (applied by the CLI layer).
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/layout"
)

// DefaultFileName is the config file looked up in the working directory and
// in the user config directory.
const DefaultFileName = "relmap.toml"

// Config is the top-level configuration.
type Config struct {
	// DBPath is the default story database.
	DBPath string `toml:"db_path"`

	// Mode is the default layout algorithm ("tree" or "force").
	Mode string `toml:"mode"`

	// Layout holds the layout engine parameters.
	Layout layout.Config `toml:"layout"`

	// Cache configures the artifact cache.
	Cache CacheConfig `toml:"cache"`

	// Server configures the HTTP server.
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file cache directory (file backend).
	Dir string `toml:"dir"`

	// RedisURL is the Redis connection URL (redis backend).
	RedisURL string `toml:"redis_url"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath: "story.db",
		Mode:   "tree",
		Layout: layout.DefaultConfig(),
		Cache: CacheConfig{
			Backend: "file",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the config file at path, layered over the defaults. An empty
// path searches the working directory and the user config directory; a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = locate()
		if path == "" {
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.New(errors.ErrCodeFileNotFound, "config file %s not found", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}

	cfg.Layout = cfg.Layout.Normalized()
	return cfg, nil
}

// locate returns the first config file found in the standard locations.
func locate() string {
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "relmap", DefaultFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
