package redis

import (
	"context"
	"testing"
	"time"

	"trivia-contest-service/internal/domain"
	"trivia-contest-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSnapshotRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backing := &countingStore{SnapshotStore: memory.NewSnapshotRepository()}
	repo := NewSnapshotRepository(client, backing, time.Minute)

	ctx := context.Background()
	snap := domain.NewContest("contest-1", 10, 2, 4)
	if err := repo.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if backing.saves != 1 {
		t.Fatalf("expected write-through, backing saves=%d", backing.saves)
	}
	if !mr.Exists("contest:contest-1:snapshot") {
		t.Fatalf("expected redis cache key after save")
	}

	// Loads are served from the cache, not the backing store.
	loaded, err := repo.Load(ctx, "contest-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Rounds) != 2 {
		t.Fatalf("loaded %d rounds, want 2", len(loaded.Rounds))
	}
	if backing.loads != 0 {
		t.Fatalf("expected cache hit, backing loads=%d", backing.loads)
	}

	// After the cache key expires the loader fills it back in.
	mr.Del("contest:contest-1:snapshot")
	if _, err := repo.Load(ctx, "contest-1"); err != nil {
		t.Fatalf("load after expiry: %v", err)
	}
	if backing.loads != 1 {
		t.Fatalf("expected loader fallback once, loads=%d", backing.loads)
	}
	if !mr.Exists("contest:contest-1:snapshot") {
		t.Fatalf("expected cache refilled on miss")
	}
}

func TestSnapshotRepositoryMiss(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewSnapshotRepository(client, memory.NewSnapshotRepository(), time.Minute)

	if _, err := repo.Load(context.Background(), "nope"); err != domain.ErrContestNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

type countingStore struct {
	SnapshotStore
	saves int
	loads int
}

func (s *countingStore) Save(ctx context.Context, snap domain.Contest) error {
	s.saves++
	return s.SnapshotStore.Save(ctx, snap)
}

func (s *countingStore) Load(ctx context.Context, contestID string) (domain.Contest, error) {
	s.loads++
	return s.SnapshotStore.Load(ctx, contestID)
}
