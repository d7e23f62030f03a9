// Package config loads service configuration from a YAML file with
// environment overrides for the values that differ per deployment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes YAML values like "48h" or "90s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Reset    ResetConfig    `yaml:"reset"`
}

type HTTPConfig struct {
	Addr            string   `yaml:"addr"`
	BaseURL         string   `yaml:"base_url"`
	RatePerSecond   float64  `yaml:"rate_per_second"`
	RateBurst       int      `yaml:"rate_burst"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

type GRPCConfig struct {
	Addr string `yaml:"addr"`
}

type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type SessionConfig struct {
	Secret        string   `yaml:"secret"`
	CookieName    string   `yaml:"cookie_name"`
	Lifetime      Duration `yaml:"lifetime"`
	SecureCookies bool     `yaml:"secure_cookies"`
}

type ResetConfig struct {
	TokenTTL Duration `yaml:"token_ttl"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			BaseURL:         "http://localhost:8080",
			RatePerSecond:   20,
			RateBurst:       40,
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		GRPC: GRPCConfig{
			Addr: ":9090",
		},
		Postgres: PostgresConfig{
			MaxOpenConns: 16,
			MaxIdleConns: 8,
		},
		Session: SessionConfig{
			CookieName:    "kotiva_session",
			Lifetime:      Duration(7 * 24 * time.Hour),
			SecureCookies: true,
		},
		Reset: ResetConfig{
			TokenTTL: Duration(time.Hour),
		},
	}
}

// Load reads the YAML file at path, merges it over the defaults and applies
// environment overrides. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Secrets and connection strings come from the environment in deployments;
// the file holds the rest.
func applyEnv(cfg *Config) {
	if v := os.Getenv("KOTIVA_PG_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("KOTIVA_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("KOTIVA_SESSION_SECRET"); v != "" {
		cfg.Session.Secret = v
	}
	if v := os.Getenv("KOTIVA_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("KOTIVA_BASE_URL"); v != "" {
		cfg.HTTP.BaseURL = v
	}
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		return errors.New("config: postgres dsn is required (KOTIVA_PG_DSN)")
	}
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("config: session secret is required (KOTIVA_SESSION_SECRET)")
	}
	if c.Session.Lifetime <= 0 {
		return errors.New("config: session lifetime must be positive")
	}
	if c.Reset.TokenTTL <= 0 {
		return errors.New("config: reset token ttl must be positive")
	}
	return nil
}
