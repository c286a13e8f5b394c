package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/clubsync/internal/ingest/site"
	"github.com/fortuna/clubsync/internal/reconciliation"
	"github.com/fortuna/clubsync/internal/registry"
	"github.com/fortuna/clubsync/internal/store"
)

// Orchestrator runs single-club and full-registry syncs
type Orchestrator struct {
	registry registry.Store
	ingester *site.Ingester
	engine   *reconciliation.Engine
	pacer    Pacer
	notifier Notifier
	recorder RunRecorder
	clock    clockwork.Clock

	// batchMu serializes batches so a manual run never overlaps the cron
	batchMu sync.Mutex

	mu        sync.RWMutex
	lastBatch *BatchResult
}

// NewOrchestrator creates a new sync orchestrator
func NewOrchestrator(reg registry.Store, ingester *site.Ingester, pacer Pacer) *Orchestrator {
	return &Orchestrator{
		registry: reg,
		ingester: ingester,
		engine:   reconciliation.NewEngine(),
		pacer:    pacer,
		notifier: Notifiers{},
		clock:    clockwork.NewRealClock(),
	}
}

// WithNotifier sets the receiver of sync events
func (o *Orchestrator) WithNotifier(n Notifier) *Orchestrator {
	o.notifier = n
	return o
}

// WithRecorder enables batch history
func (o *Orchestrator) WithRecorder(r RunRecorder) *Orchestrator {
	o.recorder = r
	return o
}

// WithClock replaces the clock used for sync timestamps
func (o *Orchestrator) WithClock(clock clockwork.Clock) *Orchestrator {
	o.clock = clock
	return o
}

// Registry exposes the registry for the management surface
func (o *Orchestrator) Registry() registry.Store {
	return o.registry
}

// Ingester exposes the snapshot ingester for on-demand fetches
func (o *Orchestrator) Ingester() *site.Ingester {
	return o.ingester
}

// Metrics returns reconciliation statistics
func (o *Orchestrator) Metrics() reconciliation.Metrics {
	return o.engine.GetMetrics()
}

// LastBatch returns the most recent completed batch, or nil
func (o *Orchestrator) LastBatch() *BatchResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastBatch
}

// SyncClub fetches a registered club's pages and records the sync.
// Unregistered and disabled clubs fail without touching the network.
func (o *Orchestrator) SyncClub(ctx context.Context, clubID int64) SyncResult {
	result := o.syncClub(ctx, clubID)
	if result.Err != nil {
		result.Error = result.Err.Error()
		log.Warn().Int64("club_id", clubID).Err(result.Err).Msg("club sync failed")
	} else {
		log.Info().
			Int64("club_id", clubID).
			Int("matches", result.MatchesCount).
			Interface("table_position", result.TablePosition).
			Msg("club synced")
	}

	o.notifier.ClubSynced(ctx, result)
	return result
}

func (o *Orchestrator) syncClub(ctx context.Context, clubID int64) SyncResult {
	result := SyncResult{ClubID: clubID}

	reg, err := o.registry.Get(ctx, clubID)
	if errors.Is(err, registry.ErrNotFound) {
		result.Err = ErrNotRegistered
		return result
	}
	if err != nil {
		result.Err = fmt.Errorf("reading registration: %w", err)
		return result
	}
	if !reg.SyncEnabled {
		result.Err = ErrSyncDisabled
		return result
	}

	snapshot := o.ingester.GetFullClubData(ctx, reg.ExternalURL)
	o.throttleIfRateLimited(snapshot)

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	if snapshot.Unreachable() {
		result.Err = fmt.Errorf("%w: %v", ErrUnreachable, snapshot.Failures[site.PartDetails])
		return result
	}

	now := o.clock.Now()
	if err := o.registry.MarkSynced(ctx, clubID, now); err != nil {
		result.Err = fmt.Errorf("recording sync: %w", err)
		return result
	}

	outcome := o.engine.Reconcile(snapshot)
	result.Success = true
	result.MatchesCount = outcome.MatchesCount
	result.TablePosition = outcome.TablePosition
	result.SyncedAt = &now
	result.Snapshot = snapshot
	return result
}

func (o *Orchestrator) throttleIfRateLimited(snapshot *site.ClubSnapshot) {
	throttler, ok := o.pacer.(Throttler)
	if !ok {
		return
	}
	for _, err := range snapshot.Failures {
		if fe, ok := site.AsFetchError(err); ok && fe.IsRateLimited() {
			throttler.Throttle()
			return
		}
	}
}

// SyncAllClubs syncs every enabled registration in turn, pacing requests.
// A failing club never stops the batch; once ctx is done the remaining
// clubs are reported as failed without being fetched.
func (o *Orchestrator) SyncAllClubs(ctx context.Context) *BatchResult {
	o.batchMu.Lock()
	defer o.batchMu.Unlock()

	batch := &BatchResult{
		RunID:     uuid.NewString(),
		Results:   []SyncResult{},
		StartedAt: o.clock.Now(),
	}

	regs, err := o.registry.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("listing registrations failed, batch skipped")
		batch.FinishedAt = o.clock.Now()
		return batch
	}

	for _, reg := range regs {
		if !reg.SyncEnabled {
			batch.Skipped++
			continue
		}

		var result SyncResult
		if err := o.pacer.Wait(ctx); err != nil {
			result = SyncResult{ClubID: reg.ClubID, Err: err, Error: err.Error()}
		} else {
			result = o.SyncClub(ctx, reg.ClubID)
		}

		// snapshots are only returned for single-club syncs
		result.Snapshot = nil

		batch.Results = append(batch.Results, result)
		if result.Success {
			batch.Successful++
		} else {
			batch.Failed++
		}
	}

	batch.Total = len(batch.Results)
	batch.FinishedAt = o.clock.Now()
	return batch
}

// ProcessDailySync runs one batch, then logs, records and announces it
func (o *Orchestrator) ProcessDailySync(ctx context.Context, trigger string) *BatchResult {
	log.Info().Str("trigger", trigger).Msg("club sync batch starting")

	batch := o.SyncAllClubs(ctx)
	batch.Trigger = trigger

	log.Info().
		Str("run_id", batch.RunID).
		Int("total", batch.Total).
		Int("successful", batch.Successful).
		Int("failed", batch.Failed).
		Int("skipped", batch.Skipped).
		Dur("duration", batch.FinishedAt.Sub(batch.StartedAt)).
		Msg("club sync batch complete")

	o.mu.Lock()
	o.lastBatch = batch
	o.mu.Unlock()

	if o.recorder != nil {
		if err := o.recorder.Insert(context.WithoutCancel(ctx), toSyncRun(batch)); err != nil {
			log.Warn().Err(err).Str("run_id", batch.RunID).Msg("failed to record sync run")
		}
	}

	o.notifier.BatchCompleted(ctx, batch)
	return batch
}

func toSyncRun(batch *BatchResult) *store.SyncRun {
	results, err := json.Marshal(batch.Results)
	if err != nil {
		results = []byte("[]")
	}
	return &store.SyncRun{
		RunID:      batch.RunID,
		Trigger:    batch.Trigger,
		Total:      batch.Total,
		Successful: batch.Successful,
		Failed:     batch.Failed,
		Results:    results,
		StartedAt:  batch.StartedAt,
		FinishedAt: batch.FinishedAt,
	}
}
