package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/fortuna/clubsync/internal/ingest/site"
	"github.com/fortuna/clubsync/internal/store"
)

var (
	// ErrNotRegistered is returned for a club with no registration
	ErrNotRegistered = errors.New("not registered")
	// ErrSyncDisabled is returned for a registered club whose sync is switched off
	ErrSyncDisabled = errors.New("sync disabled")
	// ErrUnreachable is returned when no page of a club could be fetched
	ErrUnreachable = errors.New("club pages unreachable")
)

// SyncResult is the outcome of one club sync
type SyncResult struct {
	ClubID        int64              `json:"club_id"`
	Success       bool               `json:"success"`
	MatchesCount  int                `json:"matches_count"`
	TablePosition *int               `json:"table_position"`
	Error         string             `json:"error,omitempty"`
	SyncedAt      *time.Time         `json:"synced_at,omitempty"`
	Snapshot      *site.ClubSnapshot `json:"snapshot,omitempty"`

	Err error `json:"-"`
}

// BatchResult aggregates a full registry sync
type BatchResult struct {
	RunID      string       `json:"run_id"`
	Trigger    string       `json:"trigger"`
	Total      int          `json:"total"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Results    []SyncResult `json:"results"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Notifier receives sync events as they happen
type Notifier interface {
	ClubSynced(ctx context.Context, result SyncResult)
	BatchCompleted(ctx context.Context, batch *BatchResult)
}

// Notifiers fans events out to every member
type Notifiers []Notifier

func (n Notifiers) ClubSynced(ctx context.Context, result SyncResult) {
	for _, notifier := range n {
		notifier.ClubSynced(ctx, result)
	}
}

func (n Notifiers) BatchCompleted(ctx context.Context, batch *BatchResult) {
	for _, notifier := range n {
		notifier.BatchCompleted(ctx, batch)
	}
}

// RunRecorder persists finished batches
type RunRecorder interface {
	Insert(ctx context.Context, run *store.SyncRun) error
}

// Config holds scheduler configuration
type Config struct {
	Interval      time.Duration // Default: 24h
	Delay         time.Duration // Default: 2s
	RatePerMinute int           // 0 selects the fixed delay
	EnableCron    bool
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		Interval:   24 * time.Hour,
		Delay:      DefaultDelay,
		EnableCron: true,
	}
}
