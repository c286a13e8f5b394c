package site

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// Scraper fetches pages from the results site and extracts typed entities.
// Extraction never fails; only fetch failures are returned as errors.
type Scraper struct {
	fetcher Fetcher
	baseURL string
}

// NewScraper creates a scraper for the site at baseURL
func NewScraper(fetcher Fetcher, baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the site root the scraper targets
func (s *Scraper) BaseURL() string {
	return s.baseURL
}

// SearchClubs finds clubs matching query. Callers enforce a minimum query length.
func (s *Scraper) SearchClubs(ctx context.Context, query string) ([]ClubSearchResult, error) {
	pageURL := SearchURL(s.baseURL, query)
	body, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return []ClubSearchResult{}, err
	}

	doc, err := ParseHTML(body)
	if err != nil {
		log.Debug().Err(err).Str("url", pageURL).Msg("search page not parseable")
		return []ClubSearchResult{}, nil
	}

	results := ParseSearchResults(doc, s.baseURL)
	log.Debug().Str("query", query).Int("results", len(results)).Msg("club search")
	return results, nil
}

// GetClubDetails fetches a club page and reads its header.
// It returns nil only when the page could not be fetched.
func (s *Scraper) GetClubDetails(ctx context.Context, clubURL string) (*ClubDetails, error) {
	body, err := s.fetcher.Fetch(ctx, clubURL)
	if err != nil {
		return nil, err
	}

	doc, err := ParseHTML(body)
	if err != nil {
		log.Debug().Err(err).Str("url", clubURL).Msg("club page not parseable")
		return &ClubDetails{League: UnknownLeague, Region: RegionFromURL(clubURL)}, nil
	}

	details := ParseClubDetails(doc, clubURL)
	if details.Name == "" {
		log.Debug().Str("url", clubURL).Msg("club heading not found")
	}
	return details, nil
}

// GetLeagueTable fetches the table sub-page of a club and parses it
func (s *Scraper) GetLeagueTable(ctx context.Context, clubURL string) (LeagueTable, error) {
	pageURL := TableURL(clubURL)
	body, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return LeagueTable{}, err
	}

	doc, err := ParseHTML(body)
	if err != nil {
		log.Debug().Err(err).Str("url", pageURL).Msg("table page not parseable")
		return LeagueTable{}, nil
	}

	table := ParseLeagueTable(doc, pageURL)
	if len(table) == 0 {
		log.Debug().Str("url", pageURL).Msg("no league table rows found")
	}
	return table, nil
}

// GetMatchSchedule fetches a club's main page and parses its fixtures
func (s *Scraper) GetMatchSchedule(ctx context.Context, clubURL string) ([]MatchScheduleEntry, error) {
	body, err := s.fetcher.Fetch(ctx, clubURL)
	if err != nil {
		return []MatchScheduleEntry{}, err
	}

	doc, err := ParseHTML(body)
	if err != nil {
		log.Debug().Err(err).Str("url", clubURL).Msg("club page not parseable")
		return []MatchScheduleEntry{}, nil
	}

	schedule := ParseMatchSchedule(doc)
	if len(schedule) == 0 {
		log.Debug().Str("url", clubURL).Msg("no fixtures found")
	}
	return schedule, nil
}
