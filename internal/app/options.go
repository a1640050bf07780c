package app

import (
	"fmt"
	"log/slog"

	"github.com/tjfontaine/plume/internal/config"
	"github.com/tjfontaine/plume/internal/service"
)

// Option is a functional option for configuring an App.
type Option func(*App) error

// WithConfig uses an already-loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) error {
		a.cfg = cfg
		return nil
	}
}

// WithConfigFile loads configuration from a YAML file; a missing file falls
// back to the PLUME_ environment and defaults.
func WithConfigFile(path string) Option {
	return func(a *App) error {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		a.cfg = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithService registers a code-defined record service with its store and
// hook chains.
func WithService(def service.Definition) Option {
	return func(a *App) error {
		a.defs = append(a.defs, def)
		return nil
	}
}

// WithTracing enables OpenTelemetry tracing regardless of the config file.
func WithTracing() Option {
	return func(a *App) error {
		a.tracing = true
		return nil
	}
}
