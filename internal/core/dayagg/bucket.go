// Package dayagg buckets timestamped items into local calendar days.
package dayagg

import (
	"sort"
	"time"

	"github.com/Somers1/logsheet/internal/core/models"
)

// Days maps a local calendar day to the items that fall on it,
// ascending by timestamp within each day.
type Days[T any] map[models.Date][]T

// Bucket assigns every item to exactly one day: the date of timestampOf(item)
// observed in loc. A nil loc means UTC.
func Bucket[T any](items []T, timestampOf func(T) time.Time, loc *time.Location) Days[T] {
	if loc == nil {
		loc = time.UTC
	}

	days := make(Days[T])
	for _, item := range items {
		d := models.DateIn(timestampOf(item), loc)
		days[d] = append(days[d], item)
	}

	for d, bucket := range days {
		sort.SliceStable(bucket, func(i, j int) bool {
			return timestampOf(bucket[i]).Before(timestampOf(bucket[j]))
		})
		days[d] = bucket
	}
	return days
}

// Dates returns the bucket keys ascending.
func (d Days[T]) Dates() []models.Date {
	dates := make([]models.Date, 0, len(d))
	for date := range d {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// DatesDesc returns the bucket keys newest first.
func (d Days[T]) DatesDesc() []models.Date {
	dates := d.Dates()
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	return dates
}

// Blocks buckets event blocks by their start.
func Blocks(blocks []models.EventBlock, loc *time.Location) Days[models.EventBlock] {
	return Bucket(blocks, func(b models.EventBlock) time.Time { return b.Start }, loc)
}

// Events buckets events by their timestamp.
func Events(events []models.Event, loc *time.Location) Days[models.Event] {
	return Bucket(events, func(e models.Event) time.Time { return e.Timestamp }, loc)
}

// Entries buckets time entries by their date. The date is already local,
// so it is mapped to midnight in loc before bucketing.
func Entries(entries []models.TimeEntry, loc *time.Location) Days[models.TimeEntry] {
	if loc == nil {
		loc = time.UTC
	}
	return Bucket(entries, func(e models.TimeEntry) time.Time { return e.Date.In(loc) }, loc)
}

// DayTotal is the aggregate of one day's blocks.
type DayTotal struct {
	Date     models.Date
	Duration time.Duration
	Blocks   []models.EventBlock
}

// Summarize rolls blocks up into per-day totals, oldest first.
func Summarize(blocks []models.EventBlock, loc *time.Location) []DayTotal {
	days := Blocks(blocks, loc)
	totals := make([]DayTotal, 0, len(days))
	for _, date := range days.Dates() {
		total := DayTotal{Date: date, Blocks: days[date]}
		for i := range total.Blocks {
			total.Duration += total.Blocks[i].Duration()
		}
		totals = append(totals, total)
	}
	return totals
}
