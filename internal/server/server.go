// Package server exposes registered record services over REST. Every call
// that reaches a service through it is tagged with the "rest" transport, so
// chains can tell external calls from in-process ones.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/plume/internal/service"
)

// TransportREST is the transport name stamped on calls arriving over HTTP.
const TransportREST = "rest"

type Server struct {
	Router *chi.Mux
	Port   int

	logger     *slog.Logger
	dispatcher *service.Dispatcher
	httpServer *http.Server
}

// New builds the REST host around a dispatcher. An empty apiKey disables
// authentication.
func New(port int, logger *slog.Logger, dispatcher *service.Dispatcher, apiKey string) *Server {
	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))

	if apiKey != "" {
		r.Use(APIKeyMiddleware(apiKey))
	}

	r.Use(TimeoutMiddleware(30 * time.Second))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "plume")
	})

	s := &Server{
		Router:     r,
		Port:       port,
		logger:     logger,
		dispatcher: dispatcher,
	}
	s.routes()

	return s
}

func (s *Server) routes() {
	s.Router.Route("/{service}", func(r chi.Router) {
		r.Get("/", s.handleFind)
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleGet)
		r.Put("/{id}", s.handleUpdate)
		r.Patch("/{id}", s.handlePatch)
		r.Delete("/{id}", s.handleRemove)
	})
}

// Start runs the server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Port),
		Handler: s.Router,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
