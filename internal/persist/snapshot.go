package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

// ErrNoSnapshot means the durable slot is empty. Callers treat this as a
// fresh session, not a failure.
var ErrNoSnapshot = errors.New("no snapshot")

// Snapshot is the serialized form of the local selection written to the
// durable slot. The slot is a best-effort cache, never the system of record.
type Snapshot struct {
	Items  []domain.LineItem `json:"items"`
	Labels []domain.Label    `json:"labels"`
}

// Snapshotter is the durable local storage contract: a single key-value
// slot holding the serialized collection, restored at startup.
type Snapshotter interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context) error
}

// RedisSnapshotter keeps the session snapshot in a Redis key.
type RedisSnapshotter struct {
	client *redis.Client
	key    string
}

func NewRedisSnapshotter(client *redis.Client, sessionID string) *RedisSnapshotter {
	return &RedisSnapshotter{
		client: client,
		key:    snapshotKey(sessionID),
	}
}

func (r *RedisSnapshotter) Load(ctx context.Context) (*Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snap Snapshot
	if err2 := json.Unmarshal(data, &snap); err2 != nil {
		return nil, fmt.Errorf("unmarshal snapshot failed: %w", err2)
	}

	return &snap, nil
}

func (r *RedisSnapshotter) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	// No TTL: the slot survives until the session is explicitly cleared.
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisSnapshotter) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func snapshotKey(sessionID string) string {
	return fmt.Sprintf("selection:session:%s", sessionID)
}
