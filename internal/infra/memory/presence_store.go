package memory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// PresenceStore is an in-memory implementation of app.PresenceRepository.
type PresenceStore struct {
	mu    sync.Mutex
	clock func() time.Time
	seen  map[string]time.Time
}

func NewPresenceStore() *PresenceStore {
	return NewPresenceStoreWithClock(time.Now)
}

// NewPresenceStoreWithClock allows deterministic timestamps in tests.
func NewPresenceStoreWithClock(clock func() time.Time) *PresenceStore {
	return &PresenceStore{clock: clock, seen: make(map[string]time.Time)}
}

func (s *PresenceStore) Touch(_ context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[user] = s.clock()
	return nil
}

// Active returns the sorted names of users seen within the window, pruning
// entries that have aged out.
func (s *PresenceStore) Active(_ context.Context, window time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock().Add(-window)
	users := make([]string, 0, len(s.seen))
	for user, at := range s.seen {
		if at.Before(cutoff) {
			delete(s.seen, user)
			continue
		}
		users = append(users, user)
	}
	sort.Strings(users)
	return users, nil
}
