package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"trivia-contest-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// SnapshotStore persists contest snapshots as JSONB rows.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

func (s *SnapshotStore) Save(ctx context.Context, snap domain.Contest) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO contest_snapshots (id, data, saved_at) VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, saved_at = now()`,
		snap.ID, data)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, contestID string) (domain.Contest, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM contest_snapshots WHERE id=$1`, contestID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contest{}, domain.ErrContestNotFound
	}
	if err != nil {
		return domain.Contest{}, fmt.Errorf("load snapshot: %w", err)
	}
	var snap domain.Contest
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Contest{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}
