package publisher

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/clubsync/internal/ingest/site"
	"github.com/fortuna/clubsync/internal/scheduler"
)

func TestRedisStreamPublisher(t *testing.T) {
	redisURL := os.Getenv("CLUBSYNC_TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("CLUBSYNC_TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Del(ctx, StreamClubSynced, StreamBatchCompleted).Err())

	var _ scheduler.Notifier = (*RedisStreamPublisher)(nil)
	p := NewRedisStreamPublisher(client)

	position := 3
	p.ClubSynced(ctx, scheduler.SyncResult{
		ClubID:        7,
		Success:       true,
		MatchesCount:  10,
		TablePosition: &position,
		Snapshot:      &site.ClubSnapshot{Season: "2024/2025"},
	})
	p.BatchCompleted(ctx, &scheduler.BatchResult{RunID: "run-1", Total: 1, Successful: 1})

	entries, err := client.XRange(ctx, StreamClubSynced, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["data"].(string)), &got))
	assert.Equal(t, float64(7), got["club_id"])
	assert.Equal(t, float64(3), got["table_position"])
	assert.NotContains(t, got, "snapshot")

	batches, err := client.XLen(ctx, StreamBatchCompleted).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), batches)
}
