package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/plume/internal/config"
	"github.com/tjfontaine/plume/pkg/hook"
	"github.com/tjfontaine/plume/pkg/hookcel"
	"github.com/tjfontaine/plume/pkg/hookutil"
	"github.com/tjfontaine/plume/pkg/plume"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	configPath := os.Getenv("PLUME_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	notes, err := notesService()
	if err != nil {
		log.Fatalf("Failed to build notes service: %v", err)
	}

	a, err := plume.New(
		plume.WithConfig(cfg),
		plume.WithLogger(logger),
		plume.WithService(messagesService(logger)),
		plume.WithService(notes),
	)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("plume shutdown complete")
}

// messagesService guards writes that arrive over REST: external creates
// must carry a body and never see internal fields, removes stay in-process
// only, and every record is timestamped on the way in.
func messagesService(logger *slog.Logger) plume.Definition {
	external := hook.FromTransport(hook.External)

	return plume.Definition{
		Path:  "messages",
		Store: plume.NewMemoryStore(),
		Hooks: plume.Hooks{
			Before: map[plume.Method]hook.Chain{
				plume.MethodAll: {hookutil.Log(logger)},
				plume.MethodCreate: {
					hook.Iff(external, hookutil.Require("body")),
					hook.Unless(hookcel.MustPredicate(`"kind" in data`),
						hookutil.Alter(func(record map[string]any) { record["kind"] = "plain" })),
					hookutil.SetNow("postedAt"),
				},
				plume.MethodUpdate: {hookutil.SetNow("editedAt")},
				plume.MethodPatch:  {hookutil.SetNow("editedAt")},
				plume.MethodRemove: {hookutil.Disallow(hook.External)},
			},
			After: map[plume.Method]hook.Chain{
				plume.MethodAll: {hook.Iff(external, hookutil.Discard("internalNote"))},
			},
		},
	}
}

// notesService is read-heavy: repeat gets are served from an LRU cache
// that mutations invalidate.
func notesService() (plume.Definition, error) {
	cache, err := hookutil.NewCache(1024)
	if err != nil {
		return plume.Definition{}, err
	}
	cached := cache.Interceptor()

	return plume.Definition{
		Path:  "notes",
		Store: plume.NewMemoryStore(),
		Hooks: plume.Hooks{
			Before: map[plume.Method]hook.Chain{
				plume.MethodAll: {cached},
			},
			After: map[plume.Method]hook.Chain{
				plume.MethodAll: {cached},
			},
		},
	}, nil
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
