package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/search"
	"github.com/Somers1/logsheet/internal/core/timesheet"
)

func TestShiftPeriod(t *testing.T) {
	tests := []struct {
		name string
		in   timesheet.Period
		n    int
		want models.Date
	}{
		{"Previous", timesheet.Period{Month: models.NewDate(2024, 3, 1)}, -1, models.NewDate(2024, 2, 1)},
		{"Next", timesheet.Period{Month: models.NewDate(2024, 3, 1)}, 1, models.NewDate(2024, 4, 1)},
		{"YearWrap", timesheet.Period{Month: models.NewDate(2024, 1, 1)}, -1, models.NewDate(2023, 12, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shiftPeriod(tt.in, tt.n, time.UTC)
			if got.All || got.Month != tt.want {
				t.Errorf("shiftPeriod() = %+v, want %s", got, tt.want)
			}
		})
	}

	got := shiftPeriod(timesheet.Period{All: true}, 1, time.UTC)
	if got.All || got.Month != models.DateIn(time.Now(), time.UTC).FirstOfMonth() {
		t.Errorf("shiftPeriod(all) = %+v, want current month", got)
	}
}

func TestIsPending(t *testing.T) {
	date := models.NewDate(2024, 3, 4)
	billable := dayListItem{day: timesheet.Day{Date: date, Entries: []models.TimeEntry{
		{Duration: time.Hour, Billable: false},
		{Duration: time.Hour, Billable: true},
	}}}
	internal := dayListItem{day: timesheet.Day{Date: date, Entries: []models.TimeEntry{
		{Duration: time.Hour, Billable: false},
	}}}

	if isPending(billable) {
		t.Error("day with billable time should not be pending")
	}
	if !isPending(internal) {
		t.Error("day with only non-billable time should be pending")
	}
	if isPending(projectListItem{}) {
		t.Error("non-day items are never pending")
	}
}

func TestRenderDay(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	d := dayDetail{
		Project: models.Project{Name: "Invoicing"},
		Day: timesheet.Day{
			Date:    models.NewDate(2024, 3, 4),
			Total:   90 * time.Minute,
			Entries: []models.TimeEntry{{Duration: 90 * time.Minute, Notes: "- Fixed rounding - Added tests", Billable: true}},
		},
		Summary: &models.DaySummary{Summary: "- Rounding work", Duration: 2 * time.Hour, BlockCount: 2},
		Blocks: []models.EventBlock{
			{Start: start, End: start.Add(time.Hour), Summary: "Fixed rounding", EventCount: 4},
			{Start: start.Add(3 * time.Hour), End: start.Add(4 * time.Hour), EventCount: 1},
		},
	}

	out := renderDay(d, time.UTC, 120)
	for _, want := range []string{
		"Invoicing",
		"2024-03-04 (Monday)",
		"Fixed rounding",
		"Added tests",
		"across 2 blocks",
		"09:00-10:00",
		"4 events",
		"(not summarized)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("renderDay() missing %q:\n%s", want, out)
		}
	}

	notes := dayNotes(d)
	if !strings.HasPrefix(notes, "Invoicing 2024-03-04 1 hr 30 min") || !strings.Contains(notes, "- Added tests") {
		t.Errorf("dayNotes() = %q", notes)
	}
}

func TestRenderSearchResults(t *testing.T) {
	if got := renderSearchResults(nil, time.UTC, 80); got != "No matches" {
		t.Errorf("empty results = %q", got)
	}

	out := renderSearchResults([]search.Result{{
		ProjectName: "Invoicing",
		SourceType:  "github",
		Timestamp:   time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		Snippet:     "fix\n  invoice   rounding",
	}}, time.UTC, 80)
	if !strings.Contains(out, "2024-03-04 09:00") || !strings.Contains(out, "fix invoice rounding") {
		t.Errorf("renderSearchResults() = %q", out)
	}
}
