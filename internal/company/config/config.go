// Package config loads service settings from a YAML file, an optional .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gartstein/billy/internal/company/db"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "internal/company/config/config.yaml"

// Config holds the settings shared by the company binaries. Each YAML key
// can be overridden by an environment variable of the same name.
type Config struct {
	GRPCPort      int      `yaml:"GRPC_PORT"`
	HTTPPort      int      `yaml:"HTTP_PORT"`
	DBDriver      string   `yaml:"DB_DRIVER"`
	DBHost        string   `yaml:"DB_HOST"`
	DBPort        int      `yaml:"DB_PORT"`
	DBUser        string   `yaml:"DB_USER"`
	DBPassword    string   `yaml:"DB_PASSWORD"`
	DBName        string   `yaml:"DB_NAME"`
	DBSSLMode     string   `yaml:"DB_SSLMODE"`
	DBPath        string   `yaml:"DB_PATH"`
	DBMaxRetries  uint64   `yaml:"DB_MAX_RETRIES"`
	KafkaBrokers  []string `yaml:"KAFKA_BROKERS"`
	Topic         string   `yaml:"TOPIC"`
	ConsumerGroup string   `yaml:"CONSUMER_GROUP"`
	JWTSecret     string   `yaml:"JWT_SECRET"`
	LogLevel      string   `yaml:"LOG_LEVEL"`
}

func defaults() *Config {
	return &Config{
		GRPCPort:      50051,
		HTTPPort:      8080,
		DBDriver:      db.DriverPostgres,
		DBPort:        5432,
		DBSSLMode:     "disable",
		Topic:         "company-events",
		ConsumerGroup: "company-eventlog",
		LogLevel:      "info",
	}
}

// Load reads path (CONFIG_PATH or DefaultPath when empty). A missing file
// or .env is not an error; the environment alone can configure the service.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := defaults()
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	scalars := map[string]interface{}{
		"GRPC_PORT":      &c.GRPCPort,
		"HTTP_PORT":      &c.HTTPPort,
		"DB_DRIVER":      &c.DBDriver,
		"DB_HOST":        &c.DBHost,
		"DB_PORT":        &c.DBPort,
		"DB_USER":        &c.DBUser,
		"DB_PASSWORD":    &c.DBPassword,
		"DB_NAME":        &c.DBName,
		"DB_SSLMODE":     &c.DBSSLMode,
		"DB_PATH":        &c.DBPath,
		"DB_MAX_RETRIES": &c.DBMaxRetries,
		"TOPIC":          &c.Topic,
		"CONSUMER_GROUP": &c.ConsumerGroup,
		"JWT_SECRET":     &c.JWTSecret,
		"LOG_LEVEL":      &c.LogLevel,
	}
	for key, target := range scalars {
		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			continue
		}
		// strings are assigned verbatim so values like "yes" or "0123" survive
		if s, isString := target.(*string); isString {
			*s = value
			continue
		}
		if err := yaml.Unmarshal([]byte(value), target); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	if value := os.Getenv("KAFKA_BROKERS"); value != "" {
		c.KafkaBrokers = nil
		for _, broker := range strings.Split(value, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				c.KafkaBrokers = append(c.KafkaBrokers, broker)
			}
		}
	}
	return nil
}

// Validate checks the settings every binary relies on.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case db.DriverPostgres:
		if c.DBHost == "" || c.DBName == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for postgres")
		}
	case db.DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.GRPCPort <= 0 || c.HTTPPort <= 0 {
		return fmt.Errorf("GRPC_PORT and HTTP_PORT must be positive")
	}
	return nil
}

// DBConfig returns the repository connection settings.
func (c *Config) DBConfig() *db.Config {
	return &db.Config{
		Driver:     c.DBDriver,
		Host:       c.DBHost,
		Port:       c.DBPort,
		User:       c.DBUser,
		Password:   c.DBPassword,
		DBName:     c.DBName,
		SSLMode:    c.DBSSLMode,
		Path:       c.DBPath,
		MaxRetries: c.DBMaxRetries,
	}
}
