package site

import "time"

// ClubSearchResult is one club hit from the site's search page
type ClubSearchResult struct {
	Name      string `json:"name"`
	Region    string `json:"region"`
	SourceURL string `json:"source_url"`
	LogoURL   string `json:"logo_url,omitempty"`
}

// ClubDetails holds the header information of a club page
type ClubDetails struct {
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
	League  string `json:"league"`
	Region  string `json:"region"`
}

// LeagueTableEntry is a single row of a league table.
// GoalDifference is always GoalsFor - GoalsAgainst.
type LeagueTableEntry struct {
	Position       int      `json:"position"`
	TeamName       string   `json:"team_name"`
	TeamURL        string   `json:"team_url"`
	Points         int      `json:"points"`
	MatchesPlayed  int      `json:"matches_played"`
	Wins           int      `json:"wins"`
	Draws          int      `json:"draws"`
	Losses         int      `json:"losses"`
	GoalsFor       int      `json:"goals_for"`
	GoalsAgainst   int      `json:"goals_against"`
	GoalDifference int      `json:"goal_difference"`
	Form           []string `json:"form"`
}

// LeagueTable is ordered ascending by Position
type LeagueTable []LeagueTableEntry

// MatchScheduleEntry is one fixture or result from a club's page.
// HomeScore and AwayScore are either both set or both nil.
type MatchScheduleEntry struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	HomeScore   *int   `json:"home_score,omitempty"`
	AwayScore   *int   `json:"away_score,omitempty"`
	IsHome      bool   `json:"is_home"`
	Competition string `json:"competition"`
}

// Played reports whether the fixture carries a final score
func (m MatchScheduleEntry) Played() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// ClubSnapshot is the composite of details, table and schedule fetched together
type ClubSnapshot struct {
	Details   *ClubDetails         `json:"details"`
	Table     LeagueTable          `json:"table"`
	Schedule  []MatchScheduleEntry `json:"schedule"`
	FetchedAt time.Time            `json:"fetched_at"`
	Season    string               `json:"season"`

	// Failures holds the fetch error of each part that could not be retrieved.
	Failures map[Part]error `json:"-"`
}

// Part names one of the three sub-extractions of a snapshot
type Part string

const (
	PartDetails  Part = "details"
	PartTable    Part = "table"
	PartSchedule Part = "schedule"
)

// Unreachable reports whether none of the parts could be fetched
func (s *ClubSnapshot) Unreachable() bool {
	return len(s.Failures) == 3
}

// Empty reports whether the snapshot carries no extracted data at all
func (s *ClubSnapshot) Empty() bool {
	return (s.Details == nil || s.Details.Name == "") && len(s.Table) == 0 && len(s.Schedule) == 0
}
