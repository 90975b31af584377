package models

import (
	"testing"
	"time"
)

func TestEventValidation(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{
			name: "valid event",
			event: Event{
				Timestamp: time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC),
				SourceID:  1,
				Text:      "Fix invoice rounding",
			},
			wantErr: false,
		},
		{
			name:    "missing timestamp",
			event:   Event{SourceID: 1, Text: "x"},
			wantErr: true,
		},
		{
			name:    "missing source",
			event:   Event{Timestamp: time.Now(), Text: "x"},
			wantErr: true,
		},
		{
			name:    "missing text",
			event:   Event{Timestamp: time.Now(), SourceID: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeEntryValidation(t *testing.T) {
	valid := TimeEntry{ProjectID: 1, Date: NewDate(2024, 1, 20), Duration: time.Hour}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() unexpected error = %v", err)
	}

	negative := valid
	negative.Duration = -time.Minute
	if err := negative.Validate(); err == nil {
		t.Error("expected error for negative duration")
	}

	noDate := valid
	noDate.Date = Date{}
	if err := noDate.Validate(); err == nil {
		t.Error("expected error for missing date")
	}
}

func TestParseSourceType(t *testing.T) {
	for _, st := range SourceTypes {
		got, err := ParseSourceType(string(st))
		if err != nil || got != st {
			t.Errorf("ParseSourceType(%q) = %q, %v", st, got, err)
		}
	}
	if _, err := ParseSourceType("myspace"); err == nil {
		t.Error("expected error for unknown source type")
	}
}

func TestTimeRangeContains(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	r := TimeRange{From: from, To: to}

	if !r.Contains(from) {
		t.Error("range should include its lower bound")
	}
	if r.Contains(to) {
		t.Error("range should exclude its upper bound")
	}
	if !(TimeRange{}).Contains(from) {
		t.Error("open range should contain everything")
	}
}

func TestHasMonthlyBudget(t *testing.T) {
	start := NewDate(2024, 1, 15)
	budget := 40 * time.Hour

	p := Project{Name: "p"}
	if p.HasMonthlyBudget() {
		t.Error("project without start date or budget should not track monthly budget")
	}
	p.StartDate = &start
	if p.HasMonthlyBudget() {
		t.Error("project without monthly budget should not track monthly budget")
	}
	p.MonthlyBudget = &budget
	if !p.HasMonthlyBudget() {
		t.Error("project with start date and budget should track monthly budget")
	}
}
