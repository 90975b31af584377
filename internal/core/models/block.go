package models

import "time"

// EventBlock is one contiguous work session derived from events.
type EventBlock struct {
	ID         int64
	ProjectID  int64
	Start      time.Time
	End        time.Time
	Summary    string // empty until summarized
	Exported   bool
	EventCount int
	Events     []Event `json:"-"` // members, only populated by the grouper
}

// Duration is End - Start.
func (b *EventBlock) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Contains reports whether t lies in [Start, End].
func (b *EventBlock) Contains(t time.Time) bool {
	return !t.Before(b.Start) && !t.After(b.End)
}

// Summarized reports whether the block carries summary text.
func (b *EventBlock) Summarized() bool {
	return b.Summary != ""
}

// DaySummary is the per-project, per-local-day rollup of event blocks.
// Duration is stored rounded to the nearest second.
type DaySummary struct {
	ID         int64
	ProjectID  int64
	Date       Date
	Summary    string
	Duration   time.Duration
	BlockCount int
	Exported   bool
}
