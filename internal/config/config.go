// Package config loads settings from the environment, an optional .env file
// and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. ANALYZER_PORT.
const EnvPrefix = "ANALYZER"

// Config holds all application configuration.
type Config struct {
	// Server
	Port      int
	StaticDir string
	// BodyLimitMB caps uploads.
	BodyLimitMB int

	LogLevel string

	// Analysis
	TablesFile string
	ResultTTL  time.Duration
}

// Load reads configuration. A .env file in the working directory is applied
// first without overriding the environment; ANALYZER_CONFIG may name a
// YAML, JSON or TOML file with the same keys.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("tables_file", "")
	v.SetDefault("result_ttl", 30*time.Minute)
	v.SetDefault("body_limit_mb", 32)
	v.SetDefault("static_dir", "")

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
	}

	cfg := &Config{
		Port:        v.GetInt("port"),
		LogLevel:    strings.ToLower(v.GetString("log_level")),
		TablesFile:  v.GetString("tables_file"),
		ResultTTL:   v.GetDuration("result_ttl"),
		BodyLimitMB: v.GetInt("body_limit_mb"),
		StaticDir:   v.GetString("static_dir"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ResultTTL <= 0 {
		return fmt.Errorf("result_ttl must be positive, got %s", c.ResultTTL)
	}
	if c.BodyLimitMB <= 0 {
		return fmt.Errorf("body_limit_mb must be positive, got %d", c.BodyLimitMB)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
