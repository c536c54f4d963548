// Package config loads CLI and server settings.
//
// Settings are resolved in three layers: built-in defaults, a TOML file,
// then PLANOGRAM_* environment variables. Command-line flags are applied on
// top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/shelfworks/planogram/pkg/units"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists the supported store backends.
var Backends = []string{BackendMemory, BackendFile, BackendSQLite, BackendRedis, BackendMongo}

// Config holds all settings.
type Config struct {
	Scale   float64 `toml:"scale" env:"PLANOGRAM_SCALE"`
	Author  string  `toml:"author" env:"PLANOGRAM_AUTHOR"`
	Catalog string  `toml:"catalog" env:"PLANOGRAM_CATALOG"`

	Store  StoreConfig  `toml:"store" envPrefix:"PLANOGRAM_STORE_"`
	Server ServerConfig `toml:"server" envPrefix:"PLANOGRAM_SERVER_"`
	IO     IOConfig     `toml:"io" envPrefix:"PLANOGRAM_"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend         string `toml:"backend" env:"BACKEND"`
	Dir             string `toml:"dir" env:"DIR"`
	SQLitePath      string `toml:"sqlite_path" env:"SQLITE_PATH"`
	RedisURL        string `toml:"redis_url" env:"REDIS_URL"`
	RedisPrefix     string `toml:"redis_prefix" env:"REDIS_PREFIX"`
	MongoURI        string `toml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase   string `toml:"mongo_database" env:"MONGO_DATABASE"`
	MongoCollection string `toml:"mongo_collection" env:"MONGO_COLLECTION"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr" env:"ADDR"`
}

// IOConfig bounds store I/O.
type IOConfig struct {
	SaveTimeout   time.Duration `toml:"save_timeout" env:"SAVE_TIMEOUT"`
	LoadTimeout   time.Duration `toml:"load_timeout" env:"LOAD_TIMEOUT"`
	RetryAttempts int           `toml:"retry_attempts" env:"RETRY_ATTEMPTS"`
	RetryDelay    time.Duration `toml:"retry_delay" env:"RETRY_DELAY"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Scale: float64(units.DefaultScale),
		Store: StoreConfig{
			Backend:         BackendFile,
			RedisPrefix:     "planogram",
			MongoDatabase:   "planogram",
			MongoCollection: "planogram_versions",
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		IO: IOConfig{
			SaveTimeout:   10 * time.Second,
			LoadTimeout:   5 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    200 * time.Millisecond,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/planogram/config.toml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "planogram", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "planogram", "config.toml"), nil
}

// Load resolves the configuration. An empty path reads the default file if
// it exists; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, fmt.Errorf("config path: %w", err)
		}
		path = p
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseEnv overlays environment variables onto target. Unset variables
// leave the existing values in place.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the resolved settings.
func (c Config) Validate() error {
	if err := units.Scale(c.Scale).Validate(); err != nil {
		return fmt.Errorf("scale: %w", err)
	}
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store: redis backend needs redis_url")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store: mongo backend needs mongo_uri")
		}
	default:
		return fmt.Errorf("store: unknown backend %q (want one of %v)", c.Store.Backend, Backends)
	}
	if c.IO.SaveTimeout < 0 || c.IO.LoadTimeout < 0 || c.IO.RetryDelay < 0 {
		return fmt.Errorf("io: timeouts must not be negative")
	}
	if c.IO.RetryAttempts < 1 {
		return fmt.Errorf("io: retry_attempts must be at least 1, got %d", c.IO.RetryAttempts)
	}
	return nil
}

// SQLitePath returns the configured database path, defaulting to
// planogram.db in the data directory.
func (c Config) SQLitePath() (string, error) {
	if c.Store.SQLitePath != "" {
		return c.Store.SQLitePath, nil
	}
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "planogram.db"), nil
}

// DataDir returns the directory for local stores: store.dir when set,
// otherwise ~/.local/share/planogram.
func (c Config) DataDir() (string, error) {
	if c.Store.Dir != "" {
		return c.Store.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "planogram"), nil
}
