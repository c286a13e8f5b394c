package site

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Ingester assembles full club snapshots from the three club pages
type Ingester struct {
	scraper *Scraper
	season  string
	clock   clockwork.Clock
}

// NewIngester creates a snapshot ingester labelling snapshots with season
func NewIngester(scraper *Scraper, season string) *Ingester {
	return &Ingester{
		scraper: scraper,
		season:  season,
		clock:   clockwork.NewRealClock(),
	}
}

// WithClock replaces the clock used for FetchedAt
func (i *Ingester) WithClock(clock clockwork.Clock) *Ingester {
	i.clock = clock
	return i
}

// Scraper exposes the underlying scraper for single-part requests
func (i *Ingester) Scraper() *Scraper {
	return i.scraper
}

// Season returns the label stamped on snapshots
func (i *Ingester) Season() string {
	return i.season
}

// GetFullClubData fetches details, table and schedule concurrently.
// It never fails: a part that cannot be fetched is left empty and its error
// recorded in the snapshot's Failures.
func (i *Ingester) GetFullClubData(ctx context.Context, clubURL string) *ClubSnapshot {
	snapshot := &ClubSnapshot{
		Table:    LeagueTable{},
		Schedule: []MatchScheduleEntry{},
		Season:   i.season,
		Failures: make(map[Part]error),
	}

	var mu sync.Mutex
	fail := func(part Part, err error) {
		mu.Lock()
		snapshot.Failures[part] = err
		mu.Unlock()
		log.Warn().Err(err).Str("url", clubURL).Str("part", string(part)).Msg("snapshot part unavailable")
	}

	// parts never return an error to the group so one failure does not cancel the others
	var g errgroup.Group

	g.Go(func() error {
		details, err := i.scraper.GetClubDetails(ctx, clubURL)
		if err != nil {
			fail(PartDetails, err)
			return nil
		}
		snapshot.Details = details
		return nil
	})

	g.Go(func() error {
		table, err := i.scraper.GetLeagueTable(ctx, clubURL)
		if err != nil {
			fail(PartTable, err)
			return nil
		}
		snapshot.Table = table
		return nil
	})

	g.Go(func() error {
		schedule, err := i.scraper.GetMatchSchedule(ctx, clubURL)
		if err != nil {
			fail(PartSchedule, err)
			return nil
		}
		snapshot.Schedule = schedule
		return nil
	})

	_ = g.Wait()
	snapshot.FetchedAt = i.clock.Now()

	if len(snapshot.Failures) == 0 && snapshot.Empty() {
		log.Warn().Str("url", clubURL).Msg("all club pages fetched but nothing extracted; site markup may have changed")
	}

	return snapshot
}
