package site

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UnknownLeague is reported when no league keyword appears on the page
const UnknownLeague = "unknown"

// leagueVocabulary is checked in order; longer tier names come before the
// names they contain ("III liga" before "II liga" before "I liga").
var leagueVocabulary = []string{
	"Ekstraklasa",
	"III liga",
	"IV liga",
	"II liga",
	"V liga",
	"I liga",
	"Klasa okręgowa",
	"Klasa A",
	"Klasa B",
	"Klasa C",
}

var leaguePatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(leagueVocabulary))
	for _, name := range leagueVocabulary {
		patterns = append(patterns, regexp.MustCompile(`(?i)(^|[^\p{L}])`+regexp.QuoteMeta(name)+`($|[^\p{L}])`))
	}
	return patterns
}()

// headingSuffixes are page labels appended to the club name in headings
var headingSuffixes = regexp.MustCompile(`(?i)\s*[-–|:]?\s*(terminarz|tabela|wyniki|schedule|table|results)\s*$`)

var headingStrategies = []Strategy{
	Text("h1"),
	Text("h2"),
	Text(".club-name"),
	Attribute(`meta[property="og:title"]`, "content"),
}

var logoStrategies = []Strategy{
	Attribute(`img[src*="herb"]`, "src"),
	Attribute(`img[src*="logo"]`, "src"),
	Attribute(`img[src*="crest"]`, "src"),
	Attribute(`img[class*="logo"]`, "src"),
}

// ParseClubDetails extracts the club header from a club page.
// Fields that cannot be found are left empty; League defaults to UnknownLeague.
func ParseClubDetails(doc *goquery.Document, pageURL string) *ClubDetails {
	details := &ClubDetails{
		Name:   clubHeading(doc.Selection),
		League: detectLeague(doc.Find("body").Text()),
		Region: RegionFromURL(pageURL),
	}

	if src := firstValue(doc.Selection, logoStrategies...); src != "" {
		details.LogoURL = resolveURL(pageURL, src)
	}

	return details
}

// clubHeading reads the club's display name from the page heading
func clubHeading(s *goquery.Selection) string {
	name := firstValue(s, headingStrategies...)
	for {
		stripped := strings.TrimSpace(headingSuffixes.ReplaceAllString(name, ""))
		if stripped == name || stripped == "" {
			break
		}
		name = stripped
	}
	return name
}

// detectLeague returns the first league tier named in text
func detectLeague(text string) string {
	for i, pattern := range leaguePatterns {
		if pattern.MatchString(text) {
			return leagueVocabulary[i]
		}
	}
	return UnknownLeague
}
