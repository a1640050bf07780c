// Package config loads plumed configuration from an optional YAML file and
// the PLUME_ environment, in that order.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig    `koanf:"server"`
	Storage  StorageConfig   `koanf:"storage"`
	Logging  LoggingConfig   `koanf:"logging"`
	Tracing  TracingConfig   `koanf:"tracing"`
	Services []ServiceConfig `koanf:"services"`
}

type ServerConfig struct {
	Port   int    `koanf:"port"`
	APIKey string `koanf:"api_key"`
}

type StorageConfig struct {
	Type     string         `koanf:"type"` // memory, sqlite, sql
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Database DatabaseConfig `koanf:"database"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// DatabaseConfig is the generic database configuration for the "sql"
// storage type. The DSN may reference environment variables as ${VAR}.
type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite, postgres, mysql
	DSN    string `koanf:"dsn"`
}

type LoggingConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
}

type TracingConfig struct {
	Enabled bool `koanf:"enabled"`
}

// ServiceConfig declares one record service to host. Hook chains are code,
// not configuration; the file only names the service and where its records
// live.
type ServiceConfig struct {
	Path    string        `koanf:"path"`
	Storage string        `koanf:"storage"` // optional override of storage.type
	Audit   WebhookConfig `koanf:"audit"`
}

// WebhookConfig points an audit webhook at an external endpoint. Header
// values may reference environment variables as ${VAR}.
type WebhookConfig struct {
	URL     string            `koanf:"url"`
	When    string            `koanf:"when"` // optional CEL expression gating the webhook
	Headers map[string]string `koanf:"headers"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the given YAML file (skipped when absent) and then the PLUME_
// environment, where PLUME_SERVER__PORT maps to server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// A missing file is fine, the environment can carry everything.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("PLUME_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "PLUME_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "memory")
	}
	if !k.Exists("logging.level") {
		k.Set("logging.level", "info")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Server.APIKey = substituteEnvVars(cfg.Server.APIKey)
	cfg.Storage.Database.DSN = substituteEnvVars(cfg.Storage.Database.DSN)
	for i := range cfg.Services {
		for name, value := range cfg.Services[i].Audit.Headers {
			cfg.Services[i].Audit.Headers[name] = substituteEnvVars(value)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if err := c.validStorage(c.Storage.Type); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, svc := range c.Services {
		path := strings.Trim(svc.Path, "/")
		if path == "" {
			return fmt.Errorf("service path must not be empty")
		}
		if seen[path] {
			return fmt.Errorf("duplicate service path %q", path)
		}
		seen[path] = true
		if svc.Storage != "" {
			if err := c.validStorage(svc.Storage); err != nil {
				return fmt.Errorf("service %s: %w", path, err)
			}
		}
	}
	return nil
}

func (c *Config) validStorage(t string) error {
	switch t {
	case "memory":
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required for sqlite storage")
		}
	case "sql":
		if c.Storage.Database.Driver == "" || c.Storage.Database.DSN == "" {
			return fmt.Errorf("storage.database.driver and storage.database.dsn are required for sql storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", t)
	}
	return nil
}

// StorageType resolves the effective storage backend for a service,
// falling back to the global default.
func (c *Config) StorageType(svc ServiceConfig) string {
	if svc.Storage != "" {
		return svc.Storage
	}
	return c.Storage.Type
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
