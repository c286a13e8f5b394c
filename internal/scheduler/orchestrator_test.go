package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/clubsync/internal/ingest/site"
	"github.com/fortuna/clubsync/internal/registry"
	"github.com/fortuna/clubsync/internal/store"
)

const baseURL = "https://regiowyniki.pl"

// fakeFetcher serves canned pages and counts every request
type fakeFetcher struct {
	calls  atomic.Int32
	pages  map[string]string
	status map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{}, status: map[string]int{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	if code, ok := f.status[url]; ok {
		return nil, &site.FetchError{URL: url, StatusCode: code}
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, &site.FetchError{URL: url, Err: errors.New("connection refused")}
	}
	return []byte(body), nil
}

// addClub serves a club page and its table for slug, with the club at position
func (f *fakeFetcher) addClub(slug, name string, position int) string {
	clubURL := fmt.Sprintf("%s/malopolska/klub/%s/", baseURL, slug)
	f.pages[clubURL] = fmt.Sprintf(`<html><body><h1>%s</h1>
<div class="match"><span class="date">01.09.2024</span><span class="home-team">%s</span><span class="away-team">Garbarnia</span><span class="score">2:1</span></div>
<div class="match"><span class="date">08.09.2024</span><span class="home-team">Garbarnia</span><span class="away-team">%s</span></div>
</body></html>`, name, name, name)
	f.pages[clubURL+"tabela/"] = fmt.Sprintf(`<table>
<tr><td>%d</td><td>%s</td><td>15</td><td>6</td><td>5</td><td>0</td><td>1</td><td>14:3</td></tr>
</table>`, position, name)
	return clubURL
}

type recordingNotifier struct {
	mu      sync.Mutex
	clubs   []SyncResult
	batches []*BatchResult
}

func (n *recordingNotifier) ClubSynced(_ context.Context, result SyncResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clubs = append(n.clubs, result)
}

func (n *recordingNotifier) BatchCompleted(_ context.Context, batch *BatchResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, batch)
}

type recordingRecorder struct {
	runs []*store.SyncRun
}

func (r *recordingRecorder) Insert(_ context.Context, run *store.SyncRun) error {
	r.runs = append(r.runs, run)
	return nil
}

func newTestOrchestrator(t *testing.T, fetcher *fakeFetcher) (*Orchestrator, *registry.Memory, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 9, 10, 8, 0, 0, 0, time.UTC))
	reg := registry.NewMemory()
	ingester := site.NewIngester(site.NewScraper(fetcher, baseURL), "2024/2025").WithClock(clock)
	o := NewOrchestrator(reg, ingester, NewDelayPacer(0, clock)).WithClock(clock)
	return o, reg, clock
}

func TestSyncClub_NotRegistered(t *testing.T) {
	fetcher := newFakeFetcher()
	o, _, _ := newTestOrchestrator(t, fetcher)

	result := o.SyncClub(context.Background(), 42)

	assert.False(t, result.Success)
	assert.Equal(t, "not registered", result.Error)
	assert.ErrorIs(t, result.Err, ErrNotRegistered)
	assert.Zero(t, fetcher.calls.Load())
}

func TestSyncClub_Disabled(t *testing.T) {
	fetcher := newFakeFetcher()
	o, reg, _ := newTestOrchestrator(t, fetcher)
	clubURL := fetcher.addClub("hutnik", "Hutnik Kraków", 1)
	require.NoError(t, reg.Register(context.Background(), registry.Registration{ClubID: 1, ExternalURL: clubURL, SyncEnabled: false}))

	result := o.SyncClub(context.Background(), 1)

	assert.False(t, result.Success)
	assert.Equal(t, "sync disabled", result.Error)
	assert.ErrorIs(t, result.Err, ErrSyncDisabled)
	assert.Zero(t, fetcher.calls.Load())
}

func TestSyncClub_Success(t *testing.T) {
	ctx := context.Background()
	fetcher := newFakeFetcher()
	o, reg, clock := newTestOrchestrator(t, fetcher)
	clubURL := fetcher.addClub("hutnik", "Hutnik Kraków", 4)
	require.NoError(t, reg.Register(ctx, registry.Registration{ClubID: 1, ExternalURL: clubURL, SyncEnabled: true}))

	result := o.SyncClub(ctx, 1)

	require.True(t, result.Success, result.Error)
	assert.Empty(t, result.Error)
	assert.Equal(t, 2, result.MatchesCount)
	require.NotNil(t, result.TablePosition)
	assert.Equal(t, 4, *result.TablePosition)
	require.NotNil(t, result.Snapshot)
	assert.Equal(t, "Hutnik Kraków", result.Snapshot.Details.Name)

	stored, err := reg.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, stored.LastSyncAt)
	assert.Equal(t, clock.Now(), *stored.LastSyncAt)
}

func TestSyncClub_NoTablePosition(t *testing.T) {
	ctx := context.Background()
	fetcher := newFakeFetcher()
	o, reg, _ := newTestOrchestrator(t, fetcher)
	clubURL := fetcher.addClub("hutnik", "Hutnik Kraków", 4)
	fetcher.status[clubURL+"tabela/"] = http.StatusNotFound
	require.NoError(t, reg.Register(ctx, registry.Registration{ClubID: 1, ExternalURL: clubURL, SyncEnabled: true}))

	result := o.SyncClub(ctx, 1)

	require.True(t, result.Success)
	assert.Nil(t, result.TablePosition)
	assert.Equal(t, 2, result.MatchesCount)
}

func TestSyncClub_Unreachable(t *testing.T) {
	ctx := context.Background()
	fetcher := newFakeFetcher()
	o, reg, _ := newTestOrchestrator(t, fetcher)
	require.NoError(t, reg.Register(ctx, registry.Registration{ClubID: 1, ExternalURL: baseURL + "/malopolska/klub/gone/", SyncEnabled: true}))

	result := o.SyncClub(ctx, 1)

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrUnreachable)
	assert.NotEmpty(t, result.Error)

	stored, err := reg.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, stored.LastSyncAt)
}

func TestSyncClub_LastSyncOnlyAdvances(t *testing.T) {
	ctx := context.Background()
	fetcher := newFakeFetcher()
	o, reg, clock := newTestOrchestrator(t, fetcher)
	clubURL := fetcher.addClub("hutnik", "Hutnik Kraków", 1)
	require.NoError(t, reg.Register(ctx, registry.Registration{ClubID: 1, ExternalURL: clubURL, SyncEnabled: true}))

	require.True(t, o.SyncClub(ctx, 1).Success)
	first := clock.Now()

	clock.Advance(time.Hour)
	require.True(t, o.SyncClub(ctx, 1).Success)

	stored, err := reg.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, stored.LastSyncAt.After(first))

	// a failed sync leaves the timestamp alone
	delete(fetcher.pages, clubURL)
	delete(fetcher.pages, clubURL+"tabela/")
	clock.Advance(time.Hour)
	require.False(t, o.SyncClub(ctx, 1).Success)

	again, err := reg.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, *stored.LastSyncAt, *again.LastSyncAt)
}

func TestSyncAllClubs_SkipsDisabledAndIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	fetcher := newFakeFetcher()
	o, reg, _ := newTestOrchestrator(t, fetcher)

	// four enabled, one of which is unreachable, and two disabled
	for i, enabled := range []bool{true, false, true, true, false, true} {
		id := int64(i + 1)
		clubURL := fetcher.addClub(fmt.Sprintf("club-%d", id), fmt.Sprintf("Klub %d", id), i+1)
		if id == 3 {
			clubURL = baseURL + "/malopolska/klub/gone/"
		}
		require.NoError(t, reg.Register(ctx, registry.Registration{ClubID: id, ExternalURL: clubURL, SyncEnabled: enabled}))
	}

	batch := o.SyncAllClubs(ctx)

	require.Len(t, batch.Results, 4)
	assert.Equal(t, 4, batch.Total)
	assert.Equal(t, 3, batch.Successful)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, 2, batch.Skipped)
	assert.NotEmpty(t, batch.RunID)

	ids := make([]int64, 0, len(batch.Results))
	for _, r := range batch.Results {
		ids = append(ids, r.ClubID)
		assert.Nil(t, r.Snapshot)
	}
	assert.Equal(t, []int64{1, 3, 4, 6}, ids)
	assert.False(t, batch.Results[1].Success)
}

func TestSyncAllClubs_PacesEnabledClubsOnly(t *testing.T) {
	ctx := context.Background()
	fetcher := newFakeFetcher()
	clock := clockwork.NewFakeClock()
	reg := registry.NewMemory()
	ingester := site.NewIngester(site.NewScraper(fetcher, baseURL), "2024/2025").WithClock(clock)
	o := NewOrchestrator(reg, ingester, NewDelayPacer(DefaultDelay, clock)).WithClock(clock)

	require.NoError(t, reg.Register(ctx, registry.Registration{ClubID: 1, ExternalURL: fetcher.addClub("a", "A", 1), SyncEnabled: false}))
	require.NoError(t, reg.Register(ctx, registry.Registration{ClubID: 2, ExternalURL: fetcher.addClub("b", "B", 1), SyncEnabled: true}))

	done := make(chan *BatchResult)
	go func() { done <- o.SyncAllClubs(ctx) }()

	// one sleeper for the single enabled club
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Zero(t, fetcher.calls.Load())
	clock.Advance(DefaultDelay)

	select {
	case batch := <-done:
		assert.Equal(t, 1, batch.Successful)
		assert.Equal(t, 1, batch.Skipped)
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not finish")
	}
}

func TestSyncAllClubs_Cancelled(t *testing.T) {
	fetcher := newFakeFetcher()
	o, reg, _ := newTestOrchestrator(t, fetcher)
	for id := int64(1); id <= 3; id++ {
		require.NoError(t, reg.Register(context.Background(), registry.Registration{ClubID: id, ExternalURL: fetcher.addClub(fmt.Sprint(id), "K", 1), SyncEnabled: true}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := o.SyncAllClubs(ctx)

	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, 3, batch.Failed)
	assert.Zero(t, fetcher.calls.Load())
	for _, r := range batch.Results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestProcessDailySync(t *testing.T) {
	ctx := context.Background()
	fetcher := newFakeFetcher()
	o, reg, _ := newTestOrchestrator(t, fetcher)
	notifier := &recordingNotifier{}
	recorder := &recordingRecorder{}
	o.WithNotifier(Notifiers{notifier}).WithRecorder(recorder)

	require.NoError(t, reg.Register(ctx, registry.Registration{ClubID: 1, ExternalURL: fetcher.addClub("a", "A", 1), SyncEnabled: true}))
	require.NoError(t, reg.Register(ctx, registry.Registration{ClubID: 2, ExternalURL: baseURL + "/malopolska/klub/gone/", SyncEnabled: true}))

	batch := o.ProcessDailySync(ctx, store.TriggerManual)

	assert.Equal(t, store.TriggerManual, batch.Trigger)
	assert.Same(t, batch, o.LastBatch())

	require.Len(t, recorder.runs, 1)
	assert.Equal(t, batch.RunID, recorder.runs[0].RunID)
	assert.Equal(t, 1, recorder.runs[0].Successful)
	assert.Equal(t, 1, recorder.runs[0].Failed)
	assert.JSONEq(t, `[
		{"club_id":1,"success":true,"matches_count":2,"table_position":1,"synced_at":"2024-09-10T08:00:00Z"},
		{"club_id":2,"success":false,"matches_count":0,"table_position":null,"error":"club pages unreachable: fetch https://regiowyniki.pl/malopolska/klub/gone/: connection refused"}
	]`, string(recorder.runs[0].Results))

	assert.Len(t, notifier.clubs, 2)
	require.Len(t, notifier.batches, 1)
	assert.Equal(t, batch.RunID, notifier.batches[0].RunID)
}

func TestLimiterPacer_Throttle(t *testing.T) {
	p := NewLimiterPacer(60, time.Minute)
	assert.InDelta(t, 1.0, float64(p.Limit()), 0.0001)

	p.Throttle()
	assert.InDelta(t, 0.5, float64(p.Limit()), 0.0001)

	for i := 0; i < 10; i++ {
		p.Throttle()
	}
	assert.InDelta(t, 0.125, float64(p.Limit()), 0.0001)
}

func TestSyncClub_RateLimitedThrottles(t *testing.T) {
	ctx := context.Background()
	fetcher := newFakeFetcher()
	clubURL := fetcher.addClub("hutnik", "Hutnik Kraków", 1)
	fetcher.status[clubURL+"tabela/"] = http.StatusTooManyRequests

	reg := registry.NewMemory()
	require.NoError(t, reg.Register(ctx, registry.Registration{ClubID: 1, ExternalURL: clubURL, SyncEnabled: true}))
	pacer := NewLimiterPacer(60, time.Minute)
	o := NewOrchestrator(reg, site.NewIngester(site.NewScraper(fetcher, baseURL), "2024/2025"), pacer)

	result := o.SyncClub(ctx, 1)

	assert.True(t, result.Success)
	assert.InDelta(t, 0.5, float64(pacer.Limit()), 0.0001)
}

func TestNewPacer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	assert.IsType(t, &DelayPacer{}, NewPacer(DefaultConfig(), clock))
	assert.IsType(t, &LimiterPacer{}, NewPacer(&Config{RatePerMinute: 30}, clock))
}
