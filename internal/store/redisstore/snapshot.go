package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps the ephemeral per-session generation snapshot so a reloaded
// page can re-query live progress. Snapshots expire; the durable record is
// the saved-video index.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func snapshotKey(sessionID string) string { return "generation:snapshot:" + sessionID }

func (s *Store) SaveSnapshot(ctx context.Context, sessionID string, snap any) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, snapshotKey(sessionID), b, s.ttl).Err()
}

func (s *Store) GetSnapshot(ctx context.Context, sessionID string, out any) (bool, error) {
	b, err := s.rdb.Get(ctx, snapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, snapshotKey(sessionID)).Err()
}

func (s *Store) Close() error { return s.rdb.Close() }
