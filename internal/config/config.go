package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrMissingDatabaseURL = errors.New("no database connection configured")

// Config holds all storefront configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type HTTPConfig struct {
	Port            string `yaml:"port"`
	RequestTimeout  string `yaml:"request_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DatabaseConfig describes the Postgres store. URL wins over the discrete parts.
type DatabaseConfig struct {
	URL            string `yaml:"url"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Name           string `yaml:"name"`
	MigrationsPath string `yaml:"migrations_path"`
	QueryTimeout   string `yaml:"query_timeout"`
}

type CatalogConfig struct {
	DBPath         string `yaml:"db_path"`
	MigrationsPath string `yaml:"migrations_path"`
}

// KafkaConfig is optional; no brokers means order events are not published.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:            "8080",
			RequestTimeout:  "30s",
			ShutdownTimeout: "10s",
		},
		Database: DatabaseConfig{
			Port:           5432,
			MigrationsPath: "./internal/repository/migrations",
			QueryTimeout:   "5s",
		},
		Catalog: CatalogConfig{
			DBPath:         "./catalog.db",
			MigrationsPath: "./internal/catalog/migrations",
		},
		Kafka: KafkaConfig{
			Topic: "order-status",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, dotenv
// files found in dirs, and the process environment, in increasing precedence.
// The process environment is only read, never written.
func Load(path string, dirs ...string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	dotenv, err := readDotEnv(dirs...)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides(newEnv(dotenv))

	return cfg, nil
}

// Validate reports configuration that makes the store unreachable.
func (c *Config) Validate() error {
	if c.Database.URL == "" && c.Database.Host == "" {
		return ErrMissingDatabaseURL
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	if _, err := c.QueryTimeout(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RequestTimeout() (time.Duration, error) {
	return parseDuration("http.request_timeout", c.HTTP.RequestTimeout, 30*time.Second)
}

func (c *Config) ShutdownTimeout() (time.Duration, error) {
	return parseDuration("http.shutdown_timeout", c.HTTP.ShutdownTimeout, 10*time.Second)
}

func (c *Config) QueryTimeout() (time.Duration, error) {
	return parseDuration("database.query_timeout", c.Database.QueryTimeout, 5*time.Second)
}

func parseDuration(name, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return d, nil
}
