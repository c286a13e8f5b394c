package site

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var fixtureRowSelectors = []string{
	".match-row",
	"div.match",
	"li.match",
	"tr.match",
	".fixture",
	".mecz",
}

var (
	dateStrategies = []Strategy{
		Text(".date"),
		Text("[class*='date']"),
		Text(".data"),
	}
	timeStrategies = []Strategy{
		Text(".time"),
		Text("[class*='time']"),
		Text(".godzina"),
	}
	homeTeamStrategies = []Strategy{
		Text(".home-team"),
		Text(".home"),
		Text("[class*='home']"),
		Text(".gospodarz"),
	}
	awayTeamStrategies = []Strategy{
		Text(".away-team"),
		Text(".away"),
		Text("[class*='away']"),
		Text(".gosc"),
	}
	scoreStrategies = []Strategy{
		Text(".score"),
		Text("[class*='score']"),
		Text(".wynik"),
	}
	competitionStrategies = []Strategy{
		Text(".competition"),
		Text("[class*='competition']"),
		Text(".rozgrywki"),
		Text(".liga"),
	}
)

// ParseMatchSchedule extracts fixtures from a club's main page in document order.
// The tracked club's name is taken from the page heading and drives IsHome.
func ParseMatchSchedule(doc *goquery.Document) []MatchScheduleEntry {
	clubName := clubHeading(doc.Selection)
	schedule := firstParsed(doc.Selection, fixtureRowSelectors, func(rows *goquery.Selection) []MatchScheduleEntry {
		var entries []MatchScheduleEntry
		rows.Each(func(_ int, row *goquery.Selection) {
			if entry, ok := parseFixture(row, clubName); ok {
				entries = append(entries, entry)
			}
		})
		return entries
	})
	if schedule == nil {
		schedule = make([]MatchScheduleEntry, 0)
	}

	return schedule
}

func parseFixture(row *goquery.Selection, clubName string) (MatchScheduleEntry, bool) {
	entry := MatchScheduleEntry{
		Date:        firstValue(row, dateStrategies...),
		Time:        firstValue(row, timeStrategies...),
		HomeTeam:    firstValue(row, homeTeamStrategies...),
		AwayTeam:    firstValue(row, awayTeamStrategies...),
		Competition: firstValue(row, competitionStrategies...),
	}

	if entry.HomeTeam == "" || entry.AwayTeam == "" {
		return entry, false
	}

	if home, away, ok := parseScore(firstValue(row, scoreStrategies...)); ok {
		entry.HomeScore = &home
		entry.AwayScore = &away
	}

	entry.IsHome = clubName != "" && strings.Contains(entry.HomeTeam, clubName)

	return entry, true
}
