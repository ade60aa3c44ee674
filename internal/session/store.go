package session

import (
	"context"
	"sync"
	"time"

	"github.com/dharmasatrya/flightfinder/internal/models"
)

// Store holds one models.State per browser session. Update must be atomic
// with respect to other Updates of the same session.
type Store interface {
	Get(ctx context.Context, id string) (*models.State, error)
	Update(ctx context.Context, id string, fn func(*models.State) error) (*models.State, error)
	Close() error
}

type memoryEntry struct {
	state   models.State
	expires time.Time
}

type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(id)
	return &st, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*models.State) error) (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(id)
	if err := fn(&st); err != nil {
		return nil, err
	}
	st.UpdatedAt = s.now()

	s.entries[id] = memoryEntry{state: st, expires: st.UpdatedAt.Add(s.ttl)}
	s.sweep()

	out := st
	return &out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) load(id string) models.State {
	e, ok := s.entries[id]
	if !ok {
		return models.State{}
	}
	if s.ttl > 0 && s.now().After(e.expires) {
		delete(s.entries, id)
		return models.State{}
	}
	return e.state
}

func (s *MemoryStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, id)
		}
	}
}
