package reconciliation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/clubsync/internal/ingest/site"
)

var table = site.LeagueTable{
	{Position: 1, TeamName: "KS Hutnik Kraków"},
	{Position: 2, TeamName: "Wisła Kraków II"},
	{Position: 3, TeamName: "Wisła Kraków"},
}

func TestTablePosition(t *testing.T) {
	tests := []struct {
		name     string
		club     string
		want     int
		wantFind bool
	}{
		{name: "substring of row", club: "Hutnik Kraków", want: 1, wantFind: true},
		{name: "case insensitive", club: "hutnik KRAKÓW", want: 1, wantFind: true},
		{name: "first match wins", club: "Wisła Kraków", want: 2, wantFind: true},
		{name: "absent club", club: "Garbarnia", wantFind: false},
		{name: "empty name", club: "", wantFind: false},
		{name: "blank name", club: "   ", wantFind: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TablePosition(tt.club, table)
			assert.Equal(t, tt.wantFind, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTablePosition_EmptyTable(t *testing.T) {
	_, ok := TablePosition("Hutnik", nil)
	assert.False(t, ok)
}

func TestEngine_Reconcile(t *testing.T) {
	home, away := 2, 1
	fetchedAt := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine()

	outcome := engine.Reconcile(&site.ClubSnapshot{
		Details: &site.ClubDetails{Name: "Hutnik Kraków"},
		Table:   table,
		Schedule: []site.MatchScheduleEntry{
			{HomeTeam: "Hutnik Kraków", AwayTeam: "Wisła Kraków", HomeScore: &home, AwayScore: &away},
			{HomeTeam: "Garbarnia", AwayTeam: "Hutnik Kraków"},
		},
		FetchedAt: fetchedAt,
	})

	require.NotNil(t, outcome.TablePosition)
	assert.Equal(t, 1, *outcome.TablePosition)
	assert.Equal(t, 2, outcome.MatchesCount)
	assert.Equal(t, 1, outcome.PlayedCount)

	outcome = engine.Reconcile(&site.ClubSnapshot{Table: table})
	assert.Nil(t, outcome.TablePosition)
	assert.Zero(t, outcome.MatchesCount)

	metrics := engine.GetMetrics()
	assert.Equal(t, 2, metrics.TotalReconciliations)
	assert.Equal(t, 1, metrics.Matched)
	assert.Equal(t, 1, metrics.Unmatched)
}
