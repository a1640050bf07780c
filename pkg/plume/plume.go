// Package plume provides the public API for embedding plume record
// services. This is the stable API for external consumers; interceptor
// chains themselves are built with pkg/hook and pkg/hookutil.
package plume

import (
	"github.com/tjfontaine/plume/internal/app"
	"github.com/tjfontaine/plume/internal/server"
	"github.com/tjfontaine/plume/internal/service"
	"github.com/tjfontaine/plume/internal/storage"
	"github.com/tjfontaine/plume/internal/storage/memory"
	"github.com/tjfontaine/plume/internal/storage/sqldb"
	"github.com/tjfontaine/plume/internal/storage/sqlite"
)

// App is the main entry point for running plume services.
// See internal/app.App for full documentation.
type App = app.App

// Option is a functional option for configuring an App.
type Option = app.Option

// New creates a new App with the given options.
// Example:
//
//	a, err := plume.New(
//	    plume.WithConfigFile("config.yaml"),
//	    plume.WithService(plume.Definition{Path: "messages", Store: plume.NewMemoryStore()}),
//	)
var New = app.New

// Configuration options
var (
	WithConfig     = app.WithConfig
	WithConfigFile = app.WithConfigFile
	WithLogger     = app.WithLogger
	WithService    = app.WithService
	WithTracing    = app.WithTracing
)

// Service types for building definitions and in-process calls.
type (
	Definition = service.Definition
	Hooks      = service.Hooks
	Method     = service.Method
	Call       = service.Call
	Dispatcher = service.Dispatcher
)

// Service methods
const (
	MethodFind   = service.MethodFind
	MethodGet    = service.MethodGet
	MethodCreate = service.MethodCreate
	MethodUpdate = service.MethodUpdate
	MethodPatch  = service.MethodPatch
	MethodRemove = service.MethodRemove
	MethodAll    = service.MethodAll
)

// TransportREST is the transport name the REST host stamps on calls.
const TransportREST = server.TransportREST

// Storage
type (
	Store       = storage.Store
	Record      = storage.Record
	ListOptions = storage.ListOptions

	// SQLConfig configures NewSQLStore. The embedding program must register
	// the named database/sql driver; only the sqlite driver ships with plume.
	SQLConfig = sqldb.Config
)

var (
	NewMemoryStore = memory.New
	NewSQLiteStore = sqlite.New
	NewSQLStore    = sqldb.New

	ErrNotFound = storage.ErrNotFound
	ErrExists   = storage.ErrExists
)
