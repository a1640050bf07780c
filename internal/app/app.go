// Package app assembles the plume runtime: record stores, hooked services,
// and the REST host, with a managed lifecycle. It can be embedded in a
// larger program or run standalone by cmd/plumed.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tjfontaine/plume/internal/config"
	"github.com/tjfontaine/plume/internal/safehttp"
	"github.com/tjfontaine/plume/internal/server"
	"github.com/tjfontaine/plume/internal/service"
	"github.com/tjfontaine/plume/internal/storage"
	"github.com/tjfontaine/plume/internal/storage/memory"
	"github.com/tjfontaine/plume/internal/storage/sqldb"
	"github.com/tjfontaine/plume/internal/storage/sqlite"
	"github.com/tjfontaine/plume/internal/telemetry"
	"github.com/tjfontaine/plume/pkg/hook"
	"github.com/tjfontaine/plume/pkg/hookcel"
	"github.com/tjfontaine/plume/pkg/hookutil"
)

// App wires stores, services, and the REST host together and manages their
// lifecycle. Services come from two places: code, via WithService, and the
// config file, which declares plain record services with an optional audit
// webhook. A code definition wins over a config entry with the same path.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracing bool
	defs    []service.Definition

	dispatcher *service.Dispatcher
	server     *server.Server

	shutdownTracer func(context.Context) error

	mu      sync.Mutex
	started bool
}

// New creates an App with the given options.
func New(opts ...Option) (*App, error) {
	a := &App{logger: slog.Default()}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if a.cfg == nil {
		return nil, fmt.Errorf("config required (use WithConfig or WithConfigFile)")
	}
	if a.cfg.Tracing.Enabled {
		a.tracing = true
	}

	defs, err := a.assembleServices()
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("at least one service required (use WithService or declare services in config)")
	}

	dispatcher, err := service.NewDispatcher(a.logger, defs...)
	if err != nil {
		return nil, err
	}
	a.dispatcher = dispatcher
	a.server = server.New(a.cfg.Server.Port, a.logger, dispatcher, a.cfg.Server.APIKey)

	return a, nil
}

// Dispatcher exposes the service dispatcher for in-process calls. Calls made
// through it carry no transport, so chains gated on hook.External skip them.
func (a *App) Dispatcher() *service.Dispatcher { return a.dispatcher }

// Start brings up tracing when enabled and starts the HTTP server in the
// background.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return fmt.Errorf("app already started")
	}

	if a.tracing {
		shutdown, err := telemetry.InitTracer("plume", a.logger)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		a.shutdownTracer = shutdown
	}

	go func() {
		if err := a.server.Start(); err != nil {
			a.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	a.started = true
	a.logger.Info("plume started",
		slog.Int("port", a.cfg.Server.Port),
		slog.Any("services", a.dispatcher.Paths()))

	return nil
}

// Shutdown drains the HTTP server and closes stores and the tracer.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Info("shutting down")

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := a.dispatcher.Close(); err != nil {
		a.logger.Error("failed to close stores", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(ctx); err != nil {
			a.logger.Error("failed to shutdown tracing", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.started = false
	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) assembleServices() ([]service.Definition, error) {
	defined := make(map[string]bool)
	defs := make([]service.Definition, 0, len(a.defs)+len(a.cfg.Services))

	for _, def := range a.defs {
		defs = append(defs, def)
		defined[strings.Trim(def.Path, "/")] = true
	}

	for _, svcCfg := range a.cfg.Services {
		path := strings.Trim(svcCfg.Path, "/")
		if defined[path] {
			continue
		}
		def, err := a.configService(path, svcCfg)
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", path, err)
		}
		defs = append(defs, def)
	}

	return defs, nil
}

func (a *App) configService(path string, svcCfg config.ServiceConfig) (service.Definition, error) {
	store, err := a.openStore(path, svcCfg)
	if err != nil {
		return service.Definition{}, err
	}

	def := service.Definition{Path: path, Store: store}
	if svcCfg.Audit.URL != "" {
		audit, err := auditInterceptor(path, svcCfg.Audit)
		if err != nil {
			return service.Definition{}, err
		}
		def.Hooks = service.Hooks{
			After: map[service.Method]hook.Chain{service.MethodAll: {audit}},
		}
	}

	return def, nil
}

// auditInterceptor posts completed calls to the configured endpoint. The
// webhook fails open: an unreachable audit sink must not fail the call it
// observes. A "when" expression gates the webhook per call.
func auditInterceptor(path string, cfg config.WebhookConfig) (hook.Interceptor, error) {
	webhook := hookutil.NewWebhook(hookutil.WebhookConfig{
		Name:    path + "-audit",
		URL:     cfg.URL,
		OnError: hookutil.ActionAllow,
		Retries: 2,
		Headers: cfg.Headers,
		Client:  safehttp.Client(10 * time.Second),
	})

	if cfg.When == "" {
		return webhook, nil
	}
	when, err := hookcel.Predicate(cfg.When)
	if err != nil {
		return nil, fmt.Errorf("compile audit expression: %w", err)
	}
	return hook.Iff(when, webhook), nil
}

func (a *App) openStore(path string, svcCfg config.ServiceConfig) (storage.Store, error) {
	switch a.cfg.StorageType(svcCfg) {
	case "sqlite":
		return sqlite.New(a.cfg.Storage.SQLite.Path, tableName(path))
	case "sql":
		return sqldb.New(sqldb.Config{
			Driver: a.cfg.Storage.Database.Driver,
			DSN:    a.cfg.Storage.Database.DSN,
			Table:  tableName(path),
		})
	default:
		return memory.New(), nil
	}
}

// tableName derives a SQL table name from a service path.
func tableName(path string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(path) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		name = "svc_" + name
	}
	return name
}
