// Package config loads the recipegen configuration from a YAML file, an
// optional .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultIngredients seeds the ingredient box of a fresh session.
const DefaultIngredients = "chicken breast, broccoli, rice, soy sauce"

// ErrMissingCredential means no model API key was found at startup.
var ErrMissingCredential = errors.New("API_KEY environment variable not set")

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Metrics   struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Provider           ProviderConfig `yaml:"provider"`
	Sessions           SessionConfig  `yaml:"sessions"`
	DefaultIngredients string         `yaml:"default_ingredients"`

	// APIKey only ever comes from the environment.
	APIKey string `yaml:"-"`
}

// ProviderConfig selects and tunes the external model service.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig bounds how long idle browser sessions are kept in memory.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		LogLevel:           "info",
		LogFormat:          "console",
		DefaultIngredients: DefaultIngredients,
	}
	cfg.Server.Port = 8080
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9090
	cfg.Metrics.Path = "/metrics"
	cfg.Provider = ProviderConfig{Name: "gemini", Timeout: 60 * time.Second}
	cfg.Sessions = SessionConfig{TTL: time.Hour, SweepInterval: 10 * time.Minute}
	return cfg
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the environment.
// Missing files are skipped and variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the YAML file at path on top of the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.APIKey = firstEnv("API_KEY", "GEMINI_API_KEY")

	if v := os.Getenv("RECIPEGEN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RECIPEGEN_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("RECIPEGEN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("RECIPEGEN_PROVIDER"); v != "" && v != c.Provider.Name {
		// the file's model belongs to the file's provider
		c.Provider.Name = v
		c.Provider.Model = ""
	}
	if v := os.Getenv("RECIPEGEN_MODEL"); v != "" {
		c.Provider.Model = v
	}
	return nil
}

// Validate reports configuration the process cannot start with.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingCredential
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port %d", c.Metrics.Port)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.Provider.Timeout)
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
