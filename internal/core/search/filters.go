package search

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Filters is a search query split into free text and its filters
type Filters struct {
	Query   string    // text passed to FTS
	Project string    // project name, case-insensitive substring
	After   time.Time // events at or after, zero if unset
	Before  time.Time // events before, zero if unset
}

// ParseQuery extracts filters from a search query string.
// Supports:
//   - project:<name>
//   - after:yesterday, before:2024-11-01
//   - date:<when> as shorthand for after:
//
// Relative dates resolve against now.
func ParseQuery(query string, now time.Time) Filters {
	var f Filters

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	var queryParts []string
	for _, token := range strings.Fields(query) {
		key, value, found := strings.Cut(token, ":")
		if !found || value == "" {
			queryParts = append(queryParts, token)
			continue
		}

		switch strings.ToLower(key) {
		case "project":
			f.Project = value
		case "after", "date":
			if t, ok := ParseDate(w, value, now); ok {
				f.After = t
			}
		case "before":
			if t, ok := ParseDate(w, value, now); ok {
				f.Before = t
			}
		default:
			queryParts = append(queryParts, token)
		}
	}

	f.Query = strings.Join(queryParts, " ")
	return f
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
}

// ParseDate parses natural language ("yesterday", "last week") or a fixed
// layout. Fixed layouts without a zone are read in now's location. A nil
// parser builds an English one.
func ParseDate(w *when.Parser, s string, now time.Time) (time.Time, bool) {
	if w == nil {
		w = when.New(nil)
		w.Add(en.All...)
		w.Add(common.All...)
	}

	for _, layout := range dateFormats {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, true
		}
	}

	// Hyphenated relative forms like last-week
	if r, err := w.Parse(strings.ReplaceAll(s, "-", " "), now); err == nil && r != nil {
		return r.Time, true
	}
	return time.Time{}, false
}
