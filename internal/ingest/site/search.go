package site

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxSearchResults caps the number of clubs returned by a search
const MaxSearchResults = 20

// ParseSearchResults extracts club links from a search page.
// Results are deduplicated on (name, region) and capped at MaxSearchResults.
func ParseSearchResults(doc *goquery.Document, baseURL string) []ClubSearchResult {
	results := make([]ClubSearchResult, 0)
	seen := make(map[string]bool)

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if !IsClubPath(href) {
			return true
		}

		name := cleanText(a.Text())
		if name == "" {
			name = strings.TrimSpace(a.AttrOr("title", ""))
		}
		if name == "" {
			return true
		}

		region := RegionFromURL(href)
		key := name + "|" + region
		if seen[key] {
			return true
		}
		seen[key] = true

		result := ClubSearchResult{
			Name:      name,
			Region:    region,
			SourceURL: resolveURL(baseURL, href),
		}
		if src := a.Find("img[src]").First().AttrOr("src", ""); src != "" {
			result.LogoURL = resolveURL(baseURL, src)
		}

		results = append(results, result)
		return len(results) < MaxSearchResults
	})

	return results
}
