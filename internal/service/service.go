// Package service hosts named record services and dispatches calls through
// their interceptor chains.
package service

import (
	"github.com/tjfontaine/plume/internal/storage"
	"github.com/tjfontaine/plume/pkg/hook"
)

// Method identifies a service operation.
type Method string

const (
	MethodFind   Method = "find"
	MethodGet    Method = "get"
	MethodCreate Method = "create"
	MethodUpdate Method = "update"
	MethodPatch  Method = "patch"
	MethodRemove Method = "remove"

	// MethodAll is a registration key, not a callable method. A chain
	// registered under it runs before the method-specific chain in its
	// stage.
	MethodAll Method = "all"
)

// Methods lists the callable service methods.
var Methods = []Method{
	MethodFind,
	MethodGet,
	MethodCreate,
	MethodUpdate,
	MethodPatch,
	MethodRemove,
}

// Hooks holds the interceptor chains of a service, keyed by method.
type Hooks struct {
	Before map[Method]hook.Chain
	After  map[Method]hook.Chain
}

// Definition describes one record service: the path it is mounted on, the
// store backing it, and the chains run around every call.
type Definition struct {
	Path  string
	Store storage.Store
	Hooks Hooks
}
