package reconciliation

import (
	"strings"

	"github.com/fortuna/clubsync/internal/ingest/site"
)

// TablePosition finds the table row belonging to clubName.
// A row matches when its team name contains the club name, ignoring case; the
// first match in table order wins. An empty club name never matches.
func TablePosition(clubName string, table site.LeagueTable) (int, bool) {
	needle := strings.ToLower(strings.TrimSpace(clubName))
	if needle == "" {
		return 0, false
	}

	for _, entry := range table {
		if strings.Contains(strings.ToLower(entry.TeamName), needle) {
			return entry.Position, true
		}
	}

	return 0, false
}
