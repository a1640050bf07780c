package hookutil

import (
	"context"
	"maps"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tjfontaine/plume/pkg/hook"
)

// Cache keeps recently fetched records in an LRU and serves repeat get
// calls without touching the store: a before-stage hit populates Result,
// which makes the host skip method execution. After-stage traversals store
// fresh get results and drop entries touched by update, patch, and remove.
//
// Wire the same Cache into both the before and the after chain of a
// service. Records are shallow-copied on the way in and out.
type Cache struct {
	records *lru.Cache[string, map[string]any]
}

// NewCache builds a cache holding at most size records.
func NewCache(size int) (*Cache, error) {
	records, err := lru.New[string, map[string]any](size)
	if err != nil {
		return nil, err
	}
	return &Cache{records: records}, nil
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	return c.records.Len()
}

// Interceptor returns the pipeline half of the cache.
func (c *Cache) Interceptor() hook.Interceptor {
	return hook.Func(func(ctx context.Context, hc *hook.Context) (*hook.Context, error) {
		if hc.ID == "" {
			return nil, nil
		}
		key := hc.Path + "/" + hc.ID

		switch hc.Stage {
		case hook.StageBefore:
			if hc.Method == "get" && hc.Result == nil {
				if rec, ok := c.records.Get(key); ok {
					hc.Result = maps.Clone(rec)
				}
			}
		case hook.StageAfter:
			switch hc.Method {
			case "get":
				if rec, ok := hc.Result.(map[string]any); ok {
					c.records.Add(key, maps.Clone(rec))
				}
			case "update", "patch", "remove":
				c.records.Remove(key)
			}
		}
		return nil, nil
	})
}
