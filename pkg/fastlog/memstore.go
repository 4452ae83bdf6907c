package fastlog

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-process Store. Ids start at 1 and are never reused.
type MemStore struct {
	mu     sync.RWMutex
	logs   map[int64]FastLog
	nextID int64
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{logs: make(map[int64]FastLog), nextID: 1}
}

// EnsureTable is a no-op.
func (s *MemStore) EnsureTable(_ context.Context) error { return nil }

func (s *MemStore) Save(_ context.Context, f *FastLog) (*FastLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := clone(*f)
	if rec.ID == nil {
		id := s.nextID
		s.nextID++
		rec.ID = &id
	} else if _, ok := s.logs[*rec.ID]; !ok {
		return nil, ErrNotFound
	}
	s.logs[*rec.ID] = rec
	out := clone(rec)
	return &out, nil
}

func (s *MemStore) FindByID(_ context.Context, id int64) (*FastLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.logs[id]
	if !ok {
		return nil, nil
	}
	out := clone(rec)
	return &out, nil
}

func (s *MemStore) ExistsByID(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.logs[id]
	return ok, nil
}

func (s *MemStore) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, id)
	return nil
}

func (s *MemStore) ListByDateDesc(_ context.Context) ([]FastLog, error) {
	logs := s.filter(func(FastLog) bool { return true })
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Date.After(logs[j].Date)
	})
	return logs, nil
}

func (s *MemStore) ByFastType(_ context.Context, t FastType) ([]FastLog, error) {
	return s.filter(func(f FastLog) bool { return f.FastType == t }), nil
}

func (s *MemStore) ByCompleted(_ context.Context, completed bool) ([]FastLog, error) {
	return s.filter(func(f FastLog) bool { return f.Completed == completed }), nil
}

func (s *MemStore) ByDateBetween(_ context.Context, start, end Date) ([]FastLog, error) {
	return s.filter(func(f FastLog) bool {
		return !f.Date.Before(start) && !f.Date.After(end)
	}), nil
}

func (s *MemStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs), nil
}

func (s *MemStore) CompletedCount(ctx context.Context) (int, error) {
	done, _ := s.ByCompleted(ctx, true)
	return len(done), nil
}

// filter returns matching records in id order.
func (s *MemStore) filter(keep func(FastLog) bool) []FastLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []FastLog
	for _, rec := range s.logs {
		if keep(rec) {
			out = append(out, clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].ID < *out[j].ID })
	return out
}

func clone(f FastLog) FastLog {
	if f.ID != nil {
		id := *f.ID
		f.ID = &id
	}
	if f.Notes != nil {
		n := *f.Notes
		f.Notes = &n
	}
	return f
}
