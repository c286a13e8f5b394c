package site

import (
	"net/url"
	"regexp"
	"strings"
)

// clubPathPattern matches club detail pages: /<region>/klub/<slug>/
var clubPathPattern = regexp.MustCompile(`^/([a-z0-9-]+)/klub/([a-z0-9-]+)/?$`)

// SearchURL builds the search page URL for query
func SearchURL(baseURL, query string) string {
	return strings.TrimRight(baseURL, "/") + "/szukaj/?q=" + url.QueryEscape(strings.TrimSpace(query))
}

// TableURL returns the league-table sub-page of a club page
func TableURL(clubURL string) string {
	u, err := url.Parse(clubURL)
	if err != nil {
		return strings.TrimRight(clubURL, "/") + "/tabela/"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/tabela/"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// IsClubPath reports whether an href points at a club detail page
func IsClubPath(href string) bool {
	_, ok := parseClubPath(href)
	return ok
}

// RegionFromURL returns the region path segment of a club URL, or "" when absent
func RegionFromURL(raw string) string {
	if m, ok := parseClubPath(raw); ok {
		return m[1]
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	// fall back to the first path segment
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 1 && segments[0] != "" {
		return segments[0]
	}
	return ""
}

func parseClubPath(raw string) ([]string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, false
	}
	m := clubPathPattern.FindStringSubmatch(strings.ToLower(u.Path))
	if m == nil {
		return nil, false
	}
	return m, true
}
