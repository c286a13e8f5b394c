// Package site fetches and parses club pages from the regional results site.
//
// The site's markup is loosely structured and differs between regions, so every
// field is located through an ordered list of selector strategies. Extraction
// never fails: missing or malformed structure degrades to the emptiest valid
// value. Only fetch failures (non-2xx status or transport errors) surface as
// *FetchError values.
package site
