// Package registry stores which clubs are linked to the results site and
// when each was last synchronized.
package registry

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a club has no registration
var ErrNotFound = errors.New("registration not found")

// Registration links a club to its page on the results site
type Registration struct {
	ClubID      int64      `json:"club_id" yaml:"club_id"`
	ExternalURL string     `json:"external_url" yaml:"external_url"`
	LastSyncAt  *time.Time `json:"last_sync_at" yaml:"-"`
	SyncEnabled bool       `json:"sync_enabled" yaml:"sync_enabled"`
}

// Store is the sync registry. Implementations serialize writes.
type Store interface {
	// Register inserts or replaces a registration, keeping any existing LastSyncAt.
	Register(ctx context.Context, reg Registration) error
	// Unregister removes a registration; removing an absent club is not an error.
	Unregister(ctx context.Context, clubID int64) error
	Get(ctx context.Context, clubID int64) (*Registration, error)
	List(ctx context.Context) ([]Registration, error)
	// MarkSynced records a successful sync. LastSyncAt never moves backwards.
	MarkSynced(ctx context.Context, clubID int64, at time.Time) error
	Close() error
}

// laterOf returns the forward-only successor of a LastSyncAt value
func laterOf(current *time.Time, at time.Time) *time.Time {
	if current != nil && !at.After(*current) {
		return current
	}
	t := at
	return &t
}
