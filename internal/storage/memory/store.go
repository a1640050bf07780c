package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tjfontaine/plume/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*storage.Record
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]*storage.Record),
	}
}

func (s *Store) List(ctx context.Context, opts storage.ListOptions) ([]*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.Record
	for _, rec := range s.records {
		if !matches(rec, opts.Filter) {
			continue
		}
		result = append(result, copyRecord(rec))
	}

	// Oldest first, id as tiebreak
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	start := opts.Offset
	if start >= len(result) {
		return []*storage.Record{}, nil
	}

	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) Get(ctx context.Context, id string) (*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
	}

	return copyRecord(rec), nil
}

func (s *Store) Create(ctx context.Context, rec *storage.Record) (*storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, exists := s.records[rec.ID]; exists {
		return nil, fmt.Errorf("record %s: %w", rec.ID, storage.ErrExists)
	}

	now := time.Now().UTC()
	stored := &storage.Record{
		ID:        rec.ID,
		Data:      storage.CloneData(rec.Data),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.records[stored.ID] = stored
	return copyRecord(stored), nil
}

func (s *Store) Update(ctx context.Context, rec *storage.Record) (*storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.records[rec.ID]
	if !exists {
		return nil, fmt.Errorf("record %s: %w", rec.ID, storage.ErrNotFound)
	}

	existing.Data = storage.CloneData(rec.Data)
	existing.UpdatedAt = time.Now().UTC()

	return copyRecord(existing), nil
}

func (s *Store) Patch(ctx context.Context, id string, changes map[string]any) (*storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
	}

	if existing.Data == nil {
		existing.Data = make(map[string]any)
	}
	for k, v := range storage.CloneData(changes) {
		existing.Data[k] = v
	}
	existing.UpdatedAt = time.Now().UTC()

	return copyRecord(existing), nil
}

func (s *Store) Delete(ctx context.Context, id string) (*storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
	}

	delete(s.records, id)
	return copyRecord(rec), nil
}

func (s *Store) Close() error {
	return nil
}

func matches(rec *storage.Record, filter map[string]string) bool {
	for k, want := range filter {
		v, ok := rec.Data[k]
		if !ok {
			return false
		}
		got, isString := v.(string)
		if !isString || got != want {
			return false
		}
	}
	return true
}

func copyRecord(rec *storage.Record) *storage.Record {
	return &storage.Record{
		ID:        rec.ID,
		Data:      storage.CloneData(rec.Data),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// Ensure Store implements the interface.
var _ storage.Store = (*Store)(nil)
