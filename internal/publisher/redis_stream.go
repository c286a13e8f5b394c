package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/clubsync/internal/scheduler"
)

// Stream names
const (
	StreamClubSynced     = "clubsync.clubs.synced"
	StreamBatchCompleted = "clubsync.batches.completed"
)

// streamMaxLen caps each stream so it never grows without bound
const streamMaxLen = 10000

// RedisStreamPublisher publishes sync events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// ClubSynced publishes a single club outcome. Snapshots are not published.
func (p *RedisStreamPublisher) ClubSynced(ctx context.Context, result scheduler.SyncResult) {
	result.Snapshot = nil
	if err := p.publish(ctx, StreamClubSynced, result); err != nil {
		log.Warn().Err(err).Int64("club_id", result.ClubID).Msg("failed to publish club sync")
	}
}

// BatchCompleted publishes a batch summary
func (p *RedisStreamPublisher) BatchCompleted(ctx context.Context, batch *scheduler.BatchResult) {
	if err := p.publish(ctx, StreamBatchCompleted, batch); err != nil {
		log.Warn().Err(err).Str("run_id", batch.RunID).Msg("failed to publish batch")
	}
}

func (p *RedisStreamPublisher) publish(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.client.XAdd(context.WithoutCancel(ctx), &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
