// Package storage defines the record persistence contract service
// definitions plug into.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrExists is returned when a created record's id is already taken.
	ErrExists = errors.New("record already exists")
)

// Record is one stored service record. Data carries the JSON-shaped
// payload.
type Record struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ListOptions filters and pages List calls. Filter matches top-level
// string fields of Data by equality; Limit 0 means no limit.
type ListOptions struct {
	Limit  int
	Offset int
	Filter map[string]string
}

// Store persists the records of one service. Implementations return
// records the caller may mutate freely, and assign an id on Create when
// the record carries none. Delete returns the removed record.
type Store interface {
	List(ctx context.Context, opts ListOptions) ([]*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	Create(ctx context.Context, rec *Record) (*Record, error)
	Update(ctx context.Context, rec *Record) (*Record, error)
	Patch(ctx context.Context, id string, changes map[string]any) (*Record, error)
	Delete(ctx context.Context, id string) (*Record, error)
	Close() error
}

// CloneData deep-copies a JSON-shaped payload. Maps and slices are copied,
// scalars shared.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneData(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
