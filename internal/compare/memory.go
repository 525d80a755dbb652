package compare

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	limit int

	mu   sync.Mutex
	sel  map[string][]string
	subs map[string]map[chan []string]struct{}
}

// NewMemoryStore returns an empty store capped at limit (DefaultCap if <= 0).
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{
		limit: capOrDefault(limit),
		sel:   make(map[string][]string),
		subs:  make(map[string]map[chan []string]struct{}),
	}
}

// Cap implements Store.
func (s *MemoryStore) Cap() int { return s.limit }

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, owner string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.sel[owner]...), nil
}

// Replace implements Store.
func (s *MemoryStore) Replace(_ context.Context, owner string, ids []string) ([]string, error) {
	next := clean(ids)
	if len(next) > s.limit {
		return nil, ErrFull
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(owner, next)
	return append([]string{}, next...), nil
}

// Toggle implements Store.
func (s *MemoryStore) Toggle(_ context.Context, owner, id string) ([]string, error) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := toggle(s.sel[owner], id, s.limit)
	if err != nil {
		return nil, err
	}
	s.setLocked(owner, next)
	return append([]string{}, next...), nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(owner, nil)
	return nil
}

// Subscribe implements Store. The channel holds at most one pending
// selection; a slow reader only ever sees the latest one.
func (s *MemoryStore) Subscribe(ctx context.Context, owner string) (<-chan []string, error) {
	ch := make(chan []string, 1)
	s.mu.Lock()
	if s.subs[owner] == nil {
		s.subs[owner] = make(map[chan []string]struct{})
	}
	s.subs[owner][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs[owner], ch)
		if len(s.subs[owner]) == 0 {
			delete(s.subs, owner)
		}
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

// setLocked stores next and notifies subscribers. s.mu must be held.
func (s *MemoryStore) setLocked(owner string, next []string) {
	if len(next) == 0 {
		delete(s.sel, owner)
	} else {
		s.sel[owner] = next
	}
	for ch := range s.subs[owner] {
		snapshot := append([]string{}, next...)
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}
