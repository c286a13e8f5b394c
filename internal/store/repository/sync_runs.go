package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/clubsync/internal/store"
)

// ErrRunNotFound is returned when no sync run matches
var ErrRunNotFound = errors.New("sync run not found")

// SyncRunRepository persists batch sync history
type SyncRunRepository struct {
	db *store.Database
}

// NewSyncRunRepository creates a new sync run repository
func NewSyncRunRepository(db *store.Database) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Insert stores a finished batch run
func (r *SyncRunRepository) Insert(ctx context.Context, run *store.SyncRun) error {
	query := `
		INSERT INTO sync_runs (run_id, trigger, total, successful, failed, results, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	results := run.Results
	if len(results) == 0 {
		results = []byte("[]")
	}

	_, err := r.db.DB().ExecContext(ctx, query,
		run.RunID, run.Trigger, run.Total, run.Successful, run.Failed,
		[]byte(results), run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting sync run %s: %w", run.RunID, err)
	}
	return nil
}

// Latest returns the most recently started run
func (r *SyncRunRepository) Latest(ctx context.Context) (*store.SyncRun, error) {
	runs, err := r.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return runs[0], nil
}

// Recent returns up to limit runs, newest first
func (r *SyncRunRepository) Recent(ctx context.Context, limit int) ([]*store.SyncRun, error) {
	query := `
		SELECT run_id, trigger, total, successful, failed, results, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*store.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetByID finds a run by id
func (r *SyncRunRepository) GetByID(ctx context.Context, runID string) (*store.SyncRun, error) {
	query := `
		SELECT run_id, trigger, total, successful, failed, results, started_at, finished_at
		FROM sync_runs
		WHERE run_id = $1
	`

	run, err := scanRun(r.db.DB().QueryRowContext(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*store.SyncRun, error) {
	run := &store.SyncRun{}
	var results []byte
	err := row.Scan(
		&run.RunID, &run.Trigger, &run.Total, &run.Successful, &run.Failed,
		&results, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning sync run: %w", err)
	}
	run.Results = results
	return run, nil
}
