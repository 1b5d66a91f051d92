// Package config loads monitor settings from an optional YAML file with
// environment-variable overrides. Environment always wins, so a deployment
// can ship a file and still tune per-instance.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	LogLevel        string `yaml:"log_level"`
	HTTPPort        string `yaml:"http_port"`
	BlockingEnabled bool   `yaml:"blocking_enabled"`
	SessionCap      int    `yaml:"session_cap"`
	ChainCap        int    `yaml:"chain_cap"`

	Assess struct {
		Endpoint  string `yaml:"endpoint"`
		TimeoutMs int    `yaml:"timeout_ms"`
	} `yaml:"assess"`

	CredentialsFile string `yaml:"credentials_file"`

	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	AuthCacheTTLs int    `yaml:"auth_cache_ttl_s"`
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := Config{
		LogLevel:        "info",
		HTTPPort:        "8085",
		BlockingEnabled: true,
		SessionCap:      200,
		ChainCap:        50,
		AuthCacheTTLs:   30,
	}
	cfg.Assess.TimeoutMs = 3000
	return cfg
}

// Load reads the YAML file at path (skipped when path is empty or missing)
// and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = envOrDefault("SENTINEL_LOG_LEVEL", c.LogLevel)
	c.HTTPPort = envOrDefault("SENTINEL_HTTP_PORT", c.HTTPPort)
	c.BlockingEnabled = envOrDefaultBool("SENTINEL_BLOCKING_ENABLED", c.BlockingEnabled)
	c.SessionCap = envOrDefaultInt("SENTINEL_SESSION_CAP", c.SessionCap)
	c.ChainCap = envOrDefaultInt("SENTINEL_CHAIN_CAP", c.ChainCap)
	c.Assess.Endpoint = envOrDefault("SENTINEL_ASSESS_ENDPOINT", c.Assess.Endpoint)
	c.Assess.TimeoutMs = envOrDefaultInt("SENTINEL_ASSESS_TIMEOUT_MS", c.Assess.TimeoutMs)
	c.CredentialsFile = envOrDefault("SENTINEL_CREDENTIALS_FILE", c.CredentialsFile)
	c.ClickHouseDSN = envOrDefault("CLICKHOUSE_DSN", c.ClickHouseDSN)
	c.PostgresDSN = envOrDefault("POSTGRES_DSN", c.PostgresDSN)
	c.AuthCacheTTLs = envOrDefaultInt("SENTINEL_AUTH_CACHE_TTL_S", c.AuthCacheTTLs)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
