package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestPresenceStoreWindow(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	now := time.Date(2026, 1, 17, 20, 0, 0, 0, time.UTC)
	store := NewPresenceStoreWithClock(client, "contest-1", func() time.Time { return now })

	ctx := context.Background()
	if err := store.Touch(ctx, "alice"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	now = now.Add(4 * time.Minute)
	if err := store.Touch(ctx, "bob"); err != nil {
		t.Fatalf("touch: %v", err)
	}

	users, err := store.Active(ctx, 5*time.Minute)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("active %v, want both users", users)
	}

	now = now.Add(3 * time.Minute)
	users, err = store.Active(ctx, 5*time.Minute)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(users) != 1 || users[0] != "bob" {
		t.Fatalf("active %v, want [bob]", users)
	}

	// Active prunes aged members from the sorted set.
	if mr.Exists("contest:contest-1:presence") {
		members, _ := mr.ZMembers("contest:contest-1:presence")
		if len(members) != 1 {
			t.Fatalf("stale members left behind: %v", members)
		}
	}
}
