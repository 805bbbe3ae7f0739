// Package config loads the service configuration with viper.
//
// Settings come from three layers, lowest priority first:
//
//  1. Built-in defaults for the active profile (development, test, production).
//  2. An optional YAML file with one top-level section per profile.
//  3. Environment variables prefixed BIRDTRACKER_ (PORT is also honoured).
//
// The profile itself is picked by BIRDTRACKER_ENV and defaults to development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// EnvVar selects the profile.
const EnvVar = "BIRDTRACKER_ENV"

type Config struct {
	Env      string         `mapstructure:"-"`
	Port     int            `mapstructure:"port"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // sqlite | postgres
	DSN          string `mapstructure:"dsn"`
	AutoMigrate  bool   `mapstructure:"automigrate"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug | info | warn | error
}

// profile defaults mirror the per-environment database settings the service
// has always shipped with.
var profiles = map[string]map[string]any{
	EnvDevelopment: {
		"database.driver":      "sqlite",
		"database.dsn":         "data/birdtracker.db",
		"database.automigrate": true,
		"log.level":            "debug",
	},
	EnvTest: {
		"database.driver":      "sqlite",
		"database.dsn":         ":memory:",
		"database.automigrate": true,
		"log.level":            "warn",
	},
	EnvProduction: {
		"database.driver":         "postgres",
		"database.dsn":            "postgres://localhost/birdtrackerdb?sslmode=disable",
		"database.automigrate":    false,
		"database.max_open_conns": 10,
		"log.level":               "info",
	},
}

// Load builds the Config for the profile named by BIRDTRACKER_ENV. path may
// be empty, in which case no file is read.
func Load(path string) (*Config, error) {
	env := os.Getenv(EnvVar)
	if env == "" {
		env = EnvDevelopment
	}
	defaults, ok := profiles[env]
	if !ok {
		return nil, fmt.Errorf("config: unknown %s %q (want development, test or production)", EnvVar, env)
	}

	v := viper.New()
	v.SetDefault("port", 3000)
	v.SetDefault("database.max_open_conns", 0)
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		if err := mergeProfileFile(v, path, env); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("BIRDTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "BIRDTRACKER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("config: binding port: %w", err)
	}

	cfg := &Config{Env: env}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeProfileFile reads a YAML file and merges the section named after the
// active profile. Sections for other profiles are ignored.
func mergeProfileFile(v *viper.Viper, path, env string) error {
	f := viper.New()
	f.SetConfigFile(path)
	f.SetConfigType("yaml")
	if err := f.ReadInConfig(); err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	section := f.Sub(env)
	if section == nil {
		return nil
	}
	if err := v.MergeConfigMap(section.AllSettings()); err != nil {
		return fmt.Errorf("config: merging %s section of %s: %w", env, path, err)
	}
	return nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database dsn is empty")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SlogLevel converts Log.Level. Validate has already rejected bad values.
func (c *Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log level %q: %w", s, err)
	}
	return l, nil
}
