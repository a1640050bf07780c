package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tjfontaine/plume/internal/domain"
	"github.com/tjfontaine/plume/internal/storage"
	"github.com/tjfontaine/plume/pkg/hook"
)

// Meta keys the dispatcher seeds on every call. Before interceptors may
// rewrite the find options to constrain what the store sees.
const (
	MetaRequestID = "requestId"
	MetaLimit     = "limit"
	MetaOffset    = "offset"
	MetaFilter    = "filter"
)

// Call describes a single service invocation.
type Call struct {
	Path      string
	Method    Method
	Transport string
	ID        string
	Data      map[string]any

	// Find options
	Limit  int
	Offset int
	Filter map[string]string
}

type service struct {
	path  string
	store storage.Store
	hooks Hooks
}

// Dispatcher routes calls to registered services and runs their chains
// around the store operation.
type Dispatcher struct {
	logger   *slog.Logger
	services map[string]*service
}

// NewDispatcher builds a dispatcher from explicit service definitions.
func NewDispatcher(logger *slog.Logger, defs ...Definition) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		logger:   logger,
		services: make(map[string]*service, len(defs)),
	}

	for _, def := range defs {
		path := strings.Trim(def.Path, "/")
		if path == "" {
			return nil, fmt.Errorf("service path is required")
		}
		if def.Store == nil {
			return nil, fmt.Errorf("service %s: store is required", path)
		}
		if _, exists := d.services[path]; exists {
			return nil, fmt.Errorf("service %s already registered", path)
		}
		d.services[path] = &service{path: path, store: def.Store, hooks: def.Hooks}
	}

	return d, nil
}

// Paths returns the registered service paths in sorted order.
func (d *Dispatcher) Paths() []string {
	paths := make([]string, 0, len(d.services))
	for path := range d.services {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Close closes every registered store. Stores shared between services are
// closed once.
func (d *Dispatcher) Close() error {
	var errs []error
	seen := make(map[storage.Store]bool, len(d.services))
	for _, svc := range d.services {
		if seen[svc.store] {
			continue
		}
		seen[svc.store] = true
		if err := svc.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("service %s: %w", svc.path, err))
		}
	}
	return errors.Join(errs...)
}

// Call runs one service invocation: the before chains, the store operation
// unless a before interceptor already populated Result, then the after
// chains. The returned context carries the final Result.
func (d *Dispatcher) Call(ctx context.Context, call Call) (*hook.Context, error) {
	svc, ok := d.services[strings.Trim(call.Path, "/")]
	if !ok {
		return nil, domain.ErrNotFound(fmt.Sprintf("service %s not found", call.Path)).
			WithCode(domain.ErrorCodeUnknownService)
	}

	c := hook.NewContext(svc.path, string(call.Method))
	c.Transport = call.Transport
	c.ID = call.ID
	c.Stage = hook.StageBefore
	if call.Data != nil {
		c.Data = call.Data
	}
	c.Meta[MetaRequestID] = uuid.NewString()
	if call.Method == MethodFind {
		c.Meta[MetaLimit] = call.Limit
		c.Meta[MetaOffset] = call.Offset
		c.Meta[MetaFilter] = call.Filter
	}

	d.logger.Debug("dispatching service call",
		"path", svc.path,
		"method", call.Method,
		"transport", call.Transport,
		"request_id", c.Meta[MetaRequestID],
	)

	c, err := hook.Invoke(ctx, c, svc.hooks.Before[MethodAll], svc.hooks.Before[call.Method])
	if err != nil {
		return nil, err
	}

	// A before interceptor that populated Result short-circuits the store.
	if c.Result == nil {
		result, err := svc.execute(ctx, call.Method, c)
		if err != nil {
			return nil, err
		}
		c.Result = result
	}

	c.Stage = hook.StageAfter
	c, err = hook.Invoke(ctx, c, svc.hooks.After[MethodAll], svc.hooks.After[call.Method])
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (s *service) execute(ctx context.Context, method Method, c *hook.Context) (any, error) {
	switch method {
	case MethodFind:
		records, err := s.store.List(ctx, listOptions(c))
		if err != nil {
			return nil, storeError(err)
		}
		items := make([]any, 0, len(records))
		for _, rec := range records {
			items = append(items, recordItem(rec))
		}
		return items, nil

	case MethodGet:
		if c.ID == "" {
			return nil, domain.ErrBadRequest("an id is required for get").WithField("id")
		}
		rec, err := s.store.Get(ctx, c.ID)
		if err != nil {
			return nil, storeError(err)
		}
		return recordItem(rec), nil

	case MethodCreate:
		data, err := callData(c)
		if err != nil {
			return nil, err
		}
		id := c.ID
		if id == "" {
			// The original adapters honor an id carried in the data itself
			if v, ok := data["id"].(string); ok {
				id = v
				delete(data, "id")
			}
		}
		rec, err := s.store.Create(ctx, &storage.Record{ID: id, Data: data})
		if err != nil {
			return nil, storeError(err)
		}
		return recordItem(rec), nil

	case MethodUpdate:
		if c.ID == "" {
			return nil, domain.ErrBadRequest("an id is required for update").WithField("id")
		}
		data, err := callData(c)
		if err != nil {
			return nil, err
		}
		rec, err := s.store.Update(ctx, &storage.Record{ID: c.ID, Data: data})
		if err != nil {
			return nil, storeError(err)
		}
		return recordItem(rec), nil

	case MethodPatch:
		if c.ID == "" {
			return nil, domain.ErrBadRequest("an id is required for patch").WithField("id")
		}
		data, err := callData(c)
		if err != nil {
			return nil, err
		}
		rec, err := s.store.Patch(ctx, c.ID, data)
		if err != nil {
			return nil, storeError(err)
		}
		return recordItem(rec), nil

	case MethodRemove:
		if c.ID == "" {
			return nil, domain.ErrBadRequest("an id is required for remove").WithField("id")
		}
		rec, err := s.store.Delete(ctx, c.ID)
		if err != nil {
			return nil, storeError(err)
		}
		return recordItem(rec), nil

	default:
		return nil, domain.ErrMethodNotAllowed(fmt.Sprintf("unknown service method %q", method))
	}
}

// listOptions rebuilds the find options from Meta, so before interceptors
// can narrow or repage the query.
func listOptions(c *hook.Context) storage.ListOptions {
	var opts storage.ListOptions
	if v, ok := c.Get(MetaLimit); ok {
		if limit, ok := v.(int); ok {
			opts.Limit = limit
		}
	}
	if v, ok := c.Get(MetaOffset); ok {
		if offset, ok := v.(int); ok {
			opts.Offset = offset
		}
	}
	if v, ok := c.Get(MetaFilter); ok {
		if filter, ok := v.(map[string]string); ok {
			opts.Filter = filter
		}
	}
	return opts
}

// callData returns the call payload as a record data map. Interceptors may
// have replaced Data with something other than a map; that is a caller
// error, not a server one.
func callData(c *hook.Context) (map[string]any, error) {
	switch data := c.Data.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return data, nil
	default:
		return nil, domain.ErrBadRequest("data must be an object")
	}
}

// recordItem flattens a stored record into the item shape interceptors and
// transports work with.
func recordItem(rec *storage.Record) map[string]any {
	item := storage.CloneData(rec.Data)
	if item == nil {
		item = make(map[string]any, 3)
	}
	item["id"] = rec.ID
	item["createdAt"] = rec.CreatedAt
	item["updatedAt"] = rec.UpdatedAt
	return item
}

func storeError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return domain.ErrNotFound(err.Error()).WithCode(domain.ErrorCodeRecordNotFound)
	case errors.Is(err, storage.ErrExists):
		return domain.ErrConflict(err.Error()).WithCode(domain.ErrorCodeRecordExists)
	default:
		return err
	}
}
