package models

import (
	"errors"
	"fmt"
	"time"
)

// SourceType selects the adapter used to fetch a source's events.
type SourceType string

const (
	SourceGitHub  SourceType = "github"
	SourceCSV     SourceType = "csv"
	SourceOutlook SourceType = "outlook"
	SourceJira    SourceType = "jira"
	SourceSlack   SourceType = "slack"
	SourceAWS     SourceType = "aws"
)

// SourceTypes lists every known source type in display order.
var SourceTypes = []SourceType{SourceGitHub, SourceCSV, SourceOutlook, SourceJira, SourceSlack, SourceAWS}

// ParseSourceType validates a user-supplied source type.
func ParseSourceType(s string) (SourceType, error) {
	for _, st := range SourceTypes {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown source type %q", s)
}

// Source is an external system feeding events into one project.
type Source struct {
	ID        int64
	ProjectID int64
	Type      SourceType
	BaseURL   string
	APIKey    string
	Auth      map[string]string // adapter specific settings (tenant_id, email, path, ...)
	Enabled   bool
	LastSync  time.Time
}

// Event is a single timestamped activity pulled from a source.
// (Timestamp, SourceID, Text) is unique.
type Event struct {
	ID         int64
	Timestamp  time.Time // UTC
	SourceID   int64
	SourceType SourceType
	ProjectID  int64
	Text       string
}

// Validate checks the fields required before an event can be stored
func (e *Event) Validate() error {
	if e.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	if e.SourceID == 0 {
		return errors.New("source_id is required")
	}
	if e.Text == "" {
		return errors.New("text is required")
	}
	return nil
}

// Describe renders the event the way it is fed to the summarizer.
func (e *Event) Describe(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("%s | %s: %s", e.SourceType, e.Timestamp.In(loc).Format("2006-01-02 15:04:05"), e.Text)
}

// TimeRange is a half-open [From, To) interval; zero bounds are open.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t lies within the range.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}
