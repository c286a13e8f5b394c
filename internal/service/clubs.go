package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/fortuna/clubsync/internal/ingest/site"
)

// MinQueryLength is the shortest accepted search query
const MinQueryLength = 2

var (
	// ErrQueryTooShort is returned for search queries under MinQueryLength runes
	ErrQueryTooShort = errors.New("query must be at least 2 characters")
	// ErrUnreachable is returned when none of a club's pages could be fetched
	ErrUnreachable = errors.New("club pages unreachable")
)

// SnapshotCache stores assembled club snapshots
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, clubURL string) (*site.ClubSnapshot, bool, error)
	SetSnapshot(ctx context.Context, clubURL string, snapshot *site.ClubSnapshot, ttl time.Duration) error
}

// ClubService handles on-demand reads of club data from the results site
type ClubService struct {
	ingester *site.Ingester
	cache    SnapshotCache
	ttl      time.Duration
}

// NewClubService creates a club service. cache may be nil.
func NewClubService(ingester *site.Ingester, cache SnapshotCache, ttl time.Duration) *ClubService {
	return &ClubService{
		ingester: ingester,
		cache:    cache,
		ttl:      ttl,
	}
}

// Search finds clubs by name
func (s *ClubService) Search(ctx context.Context, query string) ([]site.ClubSearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	return s.ingester.Scraper().SearchClubs(ctx, query)
}

// Details returns the header of a club page
func (s *ClubService) Details(ctx context.Context, clubURL string) (*site.ClubDetails, error) {
	return s.ingester.Scraper().GetClubDetails(ctx, clubURL)
}

// Table returns the league table of a club
func (s *ClubService) Table(ctx context.Context, clubURL string) (site.LeagueTable, error) {
	return s.ingester.Scraper().GetLeagueTable(ctx, clubURL)
}

// Schedule returns the fixtures of a club
func (s *ClubService) Schedule(ctx context.Context, clubURL string) ([]site.MatchScheduleEntry, error) {
	return s.ingester.Scraper().GetMatchSchedule(ctx, clubURL)
}

// Snapshot returns details, table and schedule, from the cache when possible.
// Only complete snapshots are cached. The bool reports a cache hit.
func (s *ClubService) Snapshot(ctx context.Context, clubURL string) (*site.ClubSnapshot, bool, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.GetSnapshot(ctx, clubURL)
		if err != nil {
			log.Warn().Err(err).Str("url", clubURL).Msg("snapshot cache read failed")
		}
		if hit {
			return cached, true, nil
		}
	}

	snapshot := s.ingester.GetFullClubData(ctx, clubURL)
	if snapshot.Unreachable() {
		return nil, false, errors.Join(ErrUnreachable, snapshot.Failures[site.PartDetails])
	}

	if s.cache != nil && len(snapshot.Failures) == 0 {
		if err := s.cache.SetSnapshot(ctx, clubURL, snapshot, s.ttl); err != nil {
			log.Warn().Err(err).Str("url", clubURL).Msg("snapshot cache write failed")
		}
	}

	return snapshot, false, nil
}
