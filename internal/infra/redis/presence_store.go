package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceStore tracks user activity in a Redis sorted set, one member per
// user scored by last-seen unix time. Sharing it across server instances
// gives every instance the same user list for free.
type PresenceStore struct {
	client *redis.Client
	key    string
	clock  func() time.Time
}

func NewPresenceStore(client *redis.Client, contestID string) *PresenceStore {
	return &PresenceStore{
		client: client,
		key:    "contest:" + contestID + ":presence",
		clock:  time.Now,
	}
}

// NewPresenceStoreWithClock allows deterministic timestamps in tests.
func NewPresenceStoreWithClock(client *redis.Client, contestID string, clock func() time.Time) *PresenceStore {
	store := NewPresenceStore(client, contestID)
	store.clock = clock
	return store
}

func (s *PresenceStore) Touch(ctx context.Context, user string) error {
	return s.client.ZAdd(ctx, s.key, redis.Z{
		Score:  float64(s.clock().Unix()),
		Member: user,
	}).Err()
}

// Active returns users seen within the window, pruning older members.
func (s *PresenceStore) Active(ctx context.Context, window time.Duration) ([]string, error) {
	cutoff := s.clock().Add(-window).Unix()
	// best-effort prune; a failure only leaves stale members behind
	_ = s.client.ZRemRangeByScore(ctx, s.key, "-inf", "("+strconv.FormatInt(cutoff, 10)).Err()
	return s.client.ZRangeByScore(ctx, s.key, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
}
