package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"trivia-contest-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// SnapshotStore is the backing store snapshots fall through to on a cache
// miss (e.g. Postgres).
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.Contest) error
	Load(ctx context.Context, contestID string) (domain.Contest, error)
}

// SnapshotRepository caches serialized contest snapshots in Redis and writes
// through to the backing store. Cached as: SET contest:{id}:snapshot {json}.
type SnapshotRepository struct {
	client *redis.Client
	store  SnapshotStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewSnapshotRepository(client *redis.Client, store SnapshotStore, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Save writes through: the backing store is authoritative, the cache is
// refreshed only after the store accepts the snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, snap domain.Contest) error {
	if err := r.store.Save(ctx, snap); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(snap.ID), data, r.ttlWithJitter()).Err()
}

func (r *SnapshotRepository) Load(ctx context.Context, contestID string) (domain.Contest, error) {
	if snap, ok := r.cached(ctx, contestID); ok {
		return snap, nil
	}

	result, err, _ := r.sf.Do(contestID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if snap, ok := r.cached(ctx, contestID); ok {
			return snap, nil
		}

		snap, err := r.store.Load(ctx, contestID)
		if err != nil {
			return domain.Contest{}, err
		}

		if data, err := json.Marshal(snap); err == nil {
			_ = r.client.Set(ctx, r.key(contestID), data, r.ttlWithJitter()).Err()
		}
		return snap, nil
	})
	if err != nil {
		return domain.Contest{}, err
	}
	return result.(domain.Contest), nil
}

func (r *SnapshotRepository) cached(ctx context.Context, contestID string) (domain.Contest, bool) {
	data, err := r.client.Get(ctx, r.key(contestID)).Bytes()
	if err != nil || len(data) == 0 {
		return domain.Contest{}, false
	}
	var snap domain.Contest
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Contest{}, false
	}
	return snap, true
}

func (r *SnapshotRepository) key(contestID string) string {
	return "contest:" + contestID + ":snapshot"
}

func (r *SnapshotRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
