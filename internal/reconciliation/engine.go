package reconciliation

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fortuna/clubsync/internal/ingest/site"
)

// Outcome is what a sync derives from a freshly fetched snapshot
type Outcome struct {
	ClubName      string
	TablePosition *int
	MatchesCount  int
	PlayedCount   int
}

// Metrics tracks reconciliation statistics
type Metrics struct {
	TotalReconciliations int       `json:"total_reconciliations"`
	Matched              int       `json:"matched"`
	Unmatched            int       `json:"unmatched"`
	LastReconciliation   time.Time `json:"last_reconciliation"`
}

// Engine reconciles a club snapshot against the club's own identity
type Engine struct {
	mu      sync.Mutex
	metrics Metrics
}

// NewEngine creates a new reconciliation engine
func NewEngine() *Engine {
	return &Engine{}
}

// Reconcile locates the club in its own league table and counts its fixtures.
// The club is identified by the name on its page header.
func (e *Engine) Reconcile(snapshot *site.ClubSnapshot) Outcome {
	outcome := Outcome{MatchesCount: len(snapshot.Schedule)}
	for _, m := range snapshot.Schedule {
		if m.Played() {
			outcome.PlayedCount++
		}
	}

	if snapshot.Details != nil {
		outcome.ClubName = snapshot.Details.Name
	}

	position, ok := TablePosition(outcome.ClubName, snapshot.Table)
	if ok {
		outcome.TablePosition = &position
	} else if len(snapshot.Table) > 0 {
		log.Debug().Str("club", outcome.ClubName).Int("rows", len(snapshot.Table)).Msg("club not found in its league table")
	}

	e.mu.Lock()
	e.metrics.TotalReconciliations++
	if ok {
		e.metrics.Matched++
	} else {
		e.metrics.Unmatched++
	}
	e.metrics.LastReconciliation = snapshot.FetchedAt
	e.mu.Unlock()

	return outcome
}

// GetMetrics returns a copy of the current reconciliation metrics
func (e *Engine) GetMetrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}
