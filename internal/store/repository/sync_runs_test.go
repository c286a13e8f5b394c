package repository

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/clubsync/internal/store"
)

func newTestRepository(t *testing.T) *SyncRunRepository {
	t.Helper()
	dsn := os.Getenv("CLUBSYNC_TEST_DSN")
	if dsn == "" {
		t.Skip("CLUBSYNC_TEST_DSN not set")
	}

	ctx := context.Background()
	db, err := store.NewDatabase(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.HealthCheck(ctx))
	require.NoError(t, db.RunMigrations(ctx))
	_, err = db.DB().ExecContext(ctx, "TRUNCATE sync_runs")
	require.NoError(t, err)

	return NewSyncRunRepository(db)
}

func TestSyncRunRepository(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Latest(ctx)
	require.ErrorIs(t, err, ErrRunNotFound)

	started := time.Date(2024, 9, 1, 6, 0, 0, 0, time.UTC)
	older := &store.SyncRun{
		RunID:      uuid.NewString(),
		Trigger:    store.TriggerCron,
		Total:      2,
		Successful: 2,
		Results:    json.RawMessage(`[]`),
		StartedAt:  started,
		FinishedAt: started.Add(5 * time.Second),
	}
	newer := &store.SyncRun{
		RunID:      uuid.NewString(),
		Trigger:    store.TriggerManual,
		Total:      1,
		Failed:     1,
		Results:    json.RawMessage(`[{"club_id":3,"success":false}]`),
		StartedAt:  started.Add(time.Hour),
		FinishedAt: started.Add(time.Hour + time.Second),
	}
	require.NoError(t, repo.Insert(ctx, older))
	require.NoError(t, repo.Insert(ctx, newer))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.RunID, latest.RunID)
	assert.Equal(t, store.TriggerManual, latest.Trigger)

	got, err := repo.GetByID(ctx, older.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Successful)
	assert.True(t, older.StartedAt.Equal(got.StartedAt))

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrRunNotFound)

	runs, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.RunID, runs[0].RunID)
	assert.JSONEq(t, string(newer.Results), string(runs[0].Results))
}
