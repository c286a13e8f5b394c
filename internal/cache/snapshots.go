package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/clubsync/internal/ingest/site"
)

const snapshotKeyPrefix = "clubsync:snapshot:"

// SnapshotKey is the cache key of a club page URL
func SnapshotKey(clubURL string) string {
	return snapshotKeyPrefix + clubURL
}

// GetSnapshot returns a cached snapshot. A miss is reported as (nil, false, nil).
func (rc *RedisCache) GetSnapshot(ctx context.Context, clubURL string) (*site.ClubSnapshot, bool, error) {
	data, err := rc.client.Get(ctx, SnapshotKey(clubURL)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snapshot site.ClubSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	return &snapshot, true, nil
}

// SetSnapshot caches a snapshot for ttl
func (rc *RedisCache) SetSnapshot(ctx context.Context, clubURL string, snapshot *site.ClubSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return rc.client.Set(ctx, SnapshotKey(clubURL), data, ttl).Err()
}

// InvalidateSnapshot drops the cached snapshot of a club
func (rc *RedisCache) InvalidateSnapshot(ctx context.Context, clubURL string) error {
	return rc.client.Del(ctx, SnapshotKey(clubURL)).Err()
}
