// Package grouping partitions ordered events into contiguous work sessions.
package grouping

import (
	"sort"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

// Params controls how events are merged into blocks.
type Params struct {
	// GapTolerance is the idle time after a block's end that still counts as the same session.
	GapTolerance time.Duration
	// MinSessionDuration is the length assumed for a block holding a single event.
	MinSessionDuration time.Duration
}

// DefaultParams matches the values the CLI and daemon use when config is silent.
var DefaultParams = Params{
	GapTolerance:       30 * time.Minute,
	MinSessionDuration: 15 * time.Minute,
}

// Validate rejects negative durations.
func (p Params) Validate() error {
	if p.GapTolerance < 0 {
		return apperrors.Invalid("gap tolerance must not be negative (got %s)", p.GapTolerance)
	}
	if p.MinSessionDuration < 0 {
		return apperrors.Invalid("min session duration must not be negative (got %s)", p.MinSessionDuration)
	}
	return nil
}

// Group splits events into blocks. The input is stable-sorted by timestamp
// (a copy, the caller's slice is untouched). An empty input yields nil.
func Group(events []models.Event, gapTolerance, minSessionDuration time.Duration) ([]models.EventBlock, error) {
	return Params{GapTolerance: gapTolerance, MinSessionDuration: minSessionDuration}.Group(events)
}

// Group is Group with p's durations.
func (p Params) Group(events []models.Event) ([]models.EventBlock, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	for i := range events {
		if events[i].Timestamp.IsZero() {
			return nil, apperrors.Invalid("event %d (id=%d) has no timestamp", i, events[i].ID)
		}
	}

	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var blocks []models.EventBlock
	current := p.open(sorted[0])

	for _, ev := range sorted[1:] {
		taskEnd := current.End.Add(p.GapTolerance)
		if ev.Timestamp.Before(taskEnd) {
			// end follows the raw timestamp of the latest absorbed event
			current.End = ev.Timestamp
			current.Events = append(current.Events, ev)
			current.EventCount++
			continue
		}
		blocks = append(blocks, current)
		current = p.open(ev)
	}

	return append(blocks, current), nil
}

func (p Params) open(ev models.Event) models.EventBlock {
	return models.EventBlock{
		ProjectID:  ev.ProjectID,
		Start:      ev.Timestamp,
		End:        ev.Timestamp.Add(p.MinSessionDuration),
		Events:     []models.Event{ev},
		EventCount: 1,
	}
}

// TotalDuration sums the durations of blocks.
func TotalDuration(blocks []models.EventBlock) time.Duration {
	var total time.Duration
	for i := range blocks {
		total += blocks[i].Duration()
	}
	return total
}
