package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/clubsync/internal/store"
)

// Postgres keeps registrations in the club_sync_registrations table.
// List returns registrations in creation order.
type Postgres struct {
	db *store.Database
}

// NewPostgres creates a registry on an open, migrated database
func NewPostgres(db *store.Database) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Register(ctx context.Context, reg Registration) error {
	query := `
		INSERT INTO club_sync_registrations (club_id, external_url, sync_enabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (club_id) DO UPDATE SET
			external_url = EXCLUDED.external_url,
			sync_enabled = EXCLUDED.sync_enabled,
			updated_at = NOW()
	`
	if _, err := p.db.DB().ExecContext(ctx, query, reg.ClubID, reg.ExternalURL, reg.SyncEnabled); err != nil {
		return fmt.Errorf("registering club %d: %w", reg.ClubID, err)
	}
	return nil
}

func (p *Postgres) Unregister(ctx context.Context, clubID int64) error {
	if _, err := p.db.DB().ExecContext(ctx, `DELETE FROM club_sync_registrations WHERE club_id = $1`, clubID); err != nil {
		return fmt.Errorf("unregistering club %d: %w", clubID, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, clubID int64) (*Registration, error) {
	query := `
		SELECT club_id, external_url, last_sync_at, sync_enabled
		FROM club_sync_registrations
		WHERE club_id = $1
	`

	reg, err := scanRegistration(p.db.DB().QueryRowContext(ctx, query, clubID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting registration %d: %w", clubID, err)
	}
	return reg, nil
}

func (p *Postgres) List(ctx context.Context) ([]Registration, error) {
	query := `
		SELECT club_id, external_url, last_sync_at, sync_enabled
		FROM club_sync_registrations
		ORDER BY created_at, club_id
	`

	rows, err := p.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying registrations: %w", err)
	}
	defer rows.Close()

	regs := []Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning registration: %w", err)
		}
		regs = append(regs, *reg)
	}

	return regs, rows.Err()
}

func (p *Postgres) MarkSynced(ctx context.Context, clubID int64, at time.Time) error {
	query := `
		UPDATE club_sync_registrations
		SET last_sync_at = GREATEST(COALESCE(last_sync_at, $2), $2), updated_at = NOW()
		WHERE club_id = $1
	`

	result, err := p.db.DB().ExecContext(ctx, query, clubID, at)
	if err != nil {
		return fmt.Errorf("marking club %d synced: %w", clubID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*Registration, error) {
	reg := &Registration{}
	var lastSync sql.NullTime
	if err := row.Scan(&reg.ClubID, &reg.ExternalURL, &lastSync, &reg.SyncEnabled); err != nil {
		return nil, err
	}
	if lastSync.Valid {
		t := lastSync.Time
		reg.LastSyncAt = &t
	}
	return reg, nil
}
