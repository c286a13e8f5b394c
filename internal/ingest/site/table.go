package site

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	minTableCells = 7
	maxFormLength = 5
)

// Column positions of a league table row
const (
	colPosition = iota
	colTeam
	colPoints
	colPlayed
	colWins
	colDraws
	colLosses
	colGoals
)

var tableRowSelectors = []string{
	"table.tabela tr",
	"table.table tr",
	"table tr",
	".table-row",
}

var tableCellSelectors = []string{
	"td",
	"[class*='cell']",
}

// formMarkerSelectors locate a row's recent results; the first selector yielding a result code wins
var formMarkerSelectors = []string{
	"[class*='form'] span",
	"[class*='form-']",
	"[class*='forma'] i",
}

// formCodes translates site result codes to W/D/L
var formCodes = map[string]string{
	"W": "W",
	"R": "D",
	"P": "L",
	"D": "D",
	"L": "L",
}

// ParseLeagueTable extracts a league table from a table page.
// Rows with fewer than seven cells are ignored. The result is sorted by position.
func ParseLeagueTable(doc *goquery.Document, pageURL string) LeagueTable {
	table := LeagueTable(firstParsed(doc.Selection, tableRowSelectors, func(rows *goquery.Selection) []LeagueTableEntry {
		return parseTableRows(rows, pageURL)
	}))
	if table == nil {
		table = make(LeagueTable, 0)
	}

	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Position < table[j].Position
	})

	return table
}

// parseTableRows keeps the rows with enough cells to be standings
func parseTableRows(rows *goquery.Selection, pageURL string) []LeagueTableEntry {
	var entries []LeagueTableEntry
	rowIndex := 0
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := rowCells(row)
		if cells.Length() < minTableCells {
			return
		}
		rowIndex++
		entries = append(entries, parseTableRow(cells, row, rowIndex, pageURL))
	})
	return entries
}

func rowCells(row *goquery.Selection) *goquery.Selection {
	for _, selector := range tableCellSelectors {
		if cells := row.ChildrenFiltered(selector); cells.Length() > 0 {
			return cells
		}
	}
	return row.ChildrenFiltered("__none__")
}

func parseTableRow(cells, row *goquery.Selection, rowIndex int, pageURL string) LeagueTableEntry {
	cell := func(i int) string {
		return cleanText(cells.Eq(i).Text())
	}
	number := func(i int) int {
		n, _ := parseInt(cell(i))
		return n
	}

	entry := LeagueTableEntry{
		Position:      rowIndex,
		TeamName:      cell(colTeam),
		Points:        number(colPoints),
		MatchesPlayed: number(colPlayed),
		Wins:          number(colWins),
		Draws:         number(colDraws),
		Losses:        number(colLosses),
		Form:          parseForm(row),
	}

	if pos, ok := parseInt(cell(colPosition)); ok && pos > 0 {
		entry.Position = pos
	}

	teamCell := cells.Eq(colTeam)
	if link := teamCell.Find("a[href]").First(); link.Length() > 0 {
		entry.TeamURL = resolveURL(pageURL, link.AttrOr("href", ""))
		if name := cleanText(link.Text()); name != "" {
			entry.TeamName = name
		}
	}

	if cells.Length() > colGoals {
		entry.GoalsFor, entry.GoalsAgainst = parseGoals(cell(colGoals))
	}
	entry.GoalDifference = entry.GoalsFor - entry.GoalsAgainst

	return entry
}

// parseGoals splits a "F:A" cell; anything without a colon yields 0:0
func parseGoals(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	goalsFor, _ := parseInt(parts[0])
	goalsAgainst, _ := parseInt(parts[1])
	return goalsFor, goalsAgainst
}

func parseForm(row *goquery.Selection) []string {
	form := firstParsed(row, formMarkerSelectors, func(markers *goquery.Selection) []string {
		var codes []string
		markers.EachWithBreak(func(_ int, marker *goquery.Selection) bool {
			if code, ok := TranslateFormCode(markerCode(marker)); ok {
				codes = append(codes, code)
			}
			return len(codes) < maxFormLength
		})
		return codes
	})
	if form == nil {
		form = make([]string, 0, maxFormLength)
	}
	return form
}

// markerCode reads a marker's letter from its text, falling back to a form-x class
func markerCode(marker *goquery.Selection) string {
	if text := cleanText(marker.Text()); text != "" {
		return text
	}
	for _, class := range strings.Fields(marker.AttrOr("class", "")) {
		if rest, ok := strings.CutPrefix(strings.ToLower(class), "form-"); ok {
			return rest
		}
	}
	return ""
}

// TranslateFormCode maps a single-letter result code (W, R, P) to W/D/L
func TranslateFormCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 1 {
		return "", false
	}
	translated, ok := formCodes[code]
	return translated, ok
}
