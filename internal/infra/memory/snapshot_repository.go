package memory

import (
	"context"
	"sync"

	"trivia-contest-service/internal/domain"
)

// SnapshotRepository is an in-memory implementation of app.SnapshotRepository
// (useful for tests and single-process demos).
type SnapshotRepository struct {
	mu    sync.RWMutex
	saved map[string]domain.Contest
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{saved: make(map[string]domain.Contest)}
}

func (r *SnapshotRepository) Save(_ context.Context, snap domain.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[snap.ID] = snap
	return nil
}

func (r *SnapshotRepository) Load(_ context.Context, contestID string) (domain.Contest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if snap, ok := r.saved[contestID]; ok {
		return snap, nil
	}
	return domain.Contest{}, domain.ErrContestNotFound
}
