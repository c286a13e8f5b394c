package site

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy is one way of locating a field inside a selection.
// Strategies for a field are tried in order until one yields a non-empty value.
type Strategy struct {
	Name     string
	Selector string
	Attr     string // empty means element text
}

// Text builds a strategy reading the text of the first element matching selector
func Text(selector string) Strategy {
	return Strategy{Name: selector, Selector: selector}
}

// Attribute builds a strategy reading attr of the first element matching selector
func Attribute(selector, attr string) Strategy {
	return Strategy{Name: selector + "@" + attr, Selector: selector, Attr: attr}
}

// Extract applies the strategy to s
func (st Strategy) Extract(s *goquery.Selection) string {
	sel := s.Find(st.Selector).First()
	if sel.Length() == 0 {
		return ""
	}
	if st.Attr != "" {
		return strings.TrimSpace(sel.AttrOr(st.Attr, ""))
	}
	return cleanText(sel.Text())
}

// firstValue returns the first non-empty value produced by strategies
func firstValue(s *goquery.Selection, strategies ...Strategy) string {
	for _, st := range strategies {
		if v := st.Extract(s); v != "" {
			return v
		}
	}
	return ""
}

// firstParsed runs parse over the elements of each selector in turn and
// returns the first non-empty result. Selectors that match elements which
// parse to nothing fall through to the next one.
func firstParsed[T any](s *goquery.Selection, selectors []string, parse func(*goquery.Selection) []T) []T {
	for _, selector := range selectors {
		found := s.Find(selector)
		if found.Length() == 0 {
			continue
		}
		if parsed := parse(found); len(parsed) > 0 {
			return parsed
		}
	}
	return nil
}

var whitespace = regexp.MustCompile(`\s+`)

func cleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// parseInt reads a leading integer from a cell such as "12", "3." or " 7 pkt"
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || (end == 0 && s[end] == '-')) {
		end++
	}
	if end == 0 || (end == 1 && s[0] == '-') {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

var scorePattern = regexp.MustCompile(`^\s*(\d+)\s*:\s*(\d+)\s*$`)

// parseScore accepts only "int:int"
func parseScore(s string) (home, away int, ok bool) {
	m := scorePattern.FindStringSubmatch(s)
	if len(m) != 3 {
		return 0, 0, false
	}
	home, err1 := strconv.Atoi(m[1])
	away, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return home, away, true
}

// resolveURL makes href absolute against base
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" {
		return href
	}
	return b.ResolveReference(ref).String()
}
