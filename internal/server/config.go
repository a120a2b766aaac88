// Package server exposes the dialogue engine over HTTP: a scenario
// catalog, register/login, and session endpoints that start scripts,
// feed user utterances to the interpreter, and stream replies over
// WebSocket.
package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the chat server needs. Values come from
// parley.yaml (or an explicit --config file) with PARLEY_* environment
// variables taking precedence.
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// JWTSecret signs session tokens. The default is fine for local
	// development only.
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	// RedisAddr switches rate limiting from the in-process token bucket
	// to a Redis sliding window shared across replicas. Empty keeps the
	// token bucket.
	RedisAddr  string        `mapstructure:"redis_addr"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`

	// DatabaseDriver is "sqlite3" or "pgx".
	DatabaseDriver string `mapstructure:"database_driver"`
	DatabaseDSN    string `mapstructure:"database_dsn"`

	// ScenarioDir holds the .dsl scripts and the optional scenarios.yaml
	// manifest.
	ScenarioDir string `mapstructure:"scenario_dir"`

	// RemoteAPIKey enables the LLM-backed recognizer for all scenarios
	// when set; empty selects the local recognizer.
	RemoteAPIKey string `mapstructure:"remote_api_key"`
	RemoteModel  string `mapstructure:"remote_model"`
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads the server configuration. path may name a config
// file directly; when empty, parley.yaml is searched for in the current
// directory. A missing file is not an error, defaults apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8700)
	v.SetDefault("read_timeout", 15*time.Second)
	v.SetDefault("write_timeout", 15*time.Second)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("jwt_secret", "parley-dev-secret")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("rate_limit", 60)
	v.SetDefault("rate_window", time.Minute)
	v.SetDefault("database_driver", "sqlite3")
	v.SetDefault("database_dsn", "parley.db")
	v.SetDefault("scenario_dir", "examples")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("parley")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PARLEY")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file, defaults and environment apply.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d", config.Port)
	}
	if config.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be greater than 0")
	}
	if config.RateWindow <= 0 {
		return fmt.Errorf("rate_window must be greater than 0")
	}
	switch config.DatabaseDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("unsupported database_driver: %q", config.DatabaseDriver)
	}
	return nil
}
