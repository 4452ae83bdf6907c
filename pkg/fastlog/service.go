// Package fastlog holds the fasting log domain: the FastLog record, the Store
// contract with its Postgres, SQLite and in-memory implementations, and the
// Service that mediates between the HTTP layer and a Store.
package fastlog

import (
	"context"
	"fmt"
)

// Service applies the fast log rules on top of a Store. It keeps no state of
// its own; every call goes back to the store.
type Service struct {
	store Store
}

// NewService creates a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Stats summarises the store contents.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// All returns every fast log, newest date first.
func (s *Service) All(ctx context.Context) ([]FastLog, error) {
	logs, err := s.store.ListByDateDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fast logs: %w", err)
	}
	return nonNil(logs), nil
}

// Get returns the fast log with the given id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*FastLog, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	f, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get fast log %d: %w", id, err)
	}
	if f == nil {
		return nil, ErrNotFound
	}
	return f, nil
}

// Create stores f as a new record. Any ID on f is discarded.
func (s *Service) Create(ctx context.Context, f *FastLog) (*FastLog, error) {
	f.ID = nil
	created, err := s.store.Save(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("create fast log: %w", err)
	}
	return created, nil
}

// Update replaces date, type, completion and notes of the record at id.
func (s *Service) Update(ctx context.Context, id int64, f *FastLog) (*FastLog, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Date = f.Date
	existing.FastType = f.FastType
	existing.Completed = f.Completed
	existing.Notes = f.Notes

	updated, err := s.store.Save(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("update fast log %d: %w", id, err)
	}
	return updated, nil
}

// MarkCompleted sets completed on the record at id. Completing an already
// completed record succeeds without other changes.
func (s *Service) MarkCompleted(ctx context.Context, id int64) (*FastLog, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.MarkCompleted()

	updated, err := s.store.Save(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("complete fast log %d: %w", id, err)
	}
	return updated, nil
}

// Delete removes the record at id. It reports false when there was nothing to delete.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	ok, err := s.store.ExistsByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete fast log %d: %w", id, err)
	}
	if !ok {
		return false, nil
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return false, fmt.Errorf("delete fast log %d: %w", id, err)
	}
	return true, nil
}

// ByFastType returns the fast logs of one type.
func (s *Service) ByFastType(ctx context.Context, t FastType) ([]FastLog, error) {
	if !t.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"fastType": "must be one of RELIGIOUS, INTERMITTENT"}}
	}
	logs, err := s.store.ByFastType(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("fast logs by type %s: %w", t, err)
	}
	return nonNil(logs), nil
}

// ByCompleted returns the fast logs with the given completion flag.
func (s *Service) ByCompleted(ctx context.Context, completed bool) ([]FastLog, error) {
	logs, err := s.store.ByCompleted(ctx, completed)
	if err != nil {
		return nil, fmt.Errorf("fast logs by completed=%t: %w", completed, err)
	}
	return nonNil(logs), nil
}

// Between returns the fast logs dated from start to end, both included.
func (s *Service) Between(ctx context.Context, start, end Date) ([]FastLog, error) {
	if start.IsZero() || end.IsZero() {
		return nil, &ValidationError{Fields: map[string]string{"from": "from and to are both required"}}
	}
	if start.After(end) {
		return nil, &ValidationError{Fields: map[string]string{"from": "must not be after to"}}
	}
	logs, err := s.store.ByDateBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fast logs between %s and %s: %w", start, end, err)
	}
	return nonNil(logs), nil
}

// Stats counts total, completed and pending fast logs.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count fast logs: %w", err)
	}
	done, err := s.store.CompletedCount(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count completed fast logs: %w", err)
	}
	return Stats{Total: total, Completed: done, Pending: total - done}, nil
}

// nonNil keeps empty listings encoding as [] rather than null.
func nonNil(logs []FastLog) []FastLog {
	if logs == nil {
		return []FastLog{}
	}
	return logs
}
