package db

import (
	"errors"
	"testing"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

func TestUpsertTimeEntryByExternalID(t *testing.T) {
	database := newTestDB(t)
	p, _ := seedProject(t, database, "p")

	e := &models.TimeEntry{ProjectID: p.ID, Date: models.NewDate(2024, 2, 1), Duration: time.Hour, Billable: true, ExternalID: "h-42"}
	if err := database.UpsertTimeEntry(e); err != nil {
		t.Fatalf("UpsertTimeEntry() error = %v", err)
	}

	update := &models.TimeEntry{ProjectID: p.ID, Date: models.NewDate(2024, 2, 1), Duration: 90 * time.Minute, Notes: "edited", Billable: true, ExternalID: "h-42"}
	if err := database.UpsertTimeEntry(update); err != nil {
		t.Fatalf("UpsertTimeEntry(update) error = %v", err)
	}
	if update.ID != e.ID {
		t.Errorf("update created a new row: %d vs %d", update.ID, e.ID)
	}

	entries, err := database.ListTimeEntries(p.ID, models.Date{}, models.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Duration != 90*time.Minute || entries[0].Notes != "edited" {
		t.Errorf("ListTimeEntries() = %+v", entries)
	}
}

func TestUpsertTimeEntryConflict(t *testing.T) {
	database := newTestDB(t)
	p1, _ := seedProject(t, database, "one")
	p2, _ := seedProject(t, database, "two")

	if err := database.UpsertTimeEntry(&models.TimeEntry{ProjectID: p1.ID, Date: models.NewDate(2024, 2, 1), Duration: time.Hour, ExternalID: "h-1"}); err != nil {
		t.Fatal(err)
	}
	err := database.UpsertTimeEntry(&models.TimeEntry{ProjectID: p2.ID, Date: models.NewDate(2024, 2, 1), Duration: time.Hour, ExternalID: "h-1"})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("UpsertTimeEntry() error = %v, want ErrConflict", err)
	}
}

func TestListTimeEntriesRange(t *testing.T) {
	database := newTestDB(t)
	p, _ := seedProject(t, database, "p")

	for _, d := range []models.Date{models.NewDate(2024, 1, 31), models.NewDate(2024, 2, 1), models.NewDate(2024, 2, 29), models.NewDate(2024, 3, 1)} {
		if err := database.UpsertTimeEntry(&models.TimeEntry{ProjectID: p.ID, Date: d, Duration: time.Hour}); err != nil {
			t.Fatal(err)
		}
	}

	feb, err := database.ListTimeEntries(p.ID, models.NewDate(2024, 2, 1), models.NewDate(2024, 3, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(feb) != 2 {
		t.Fatalf("February entries = %d, want 2", len(feb))
	}
	if feb[0].Date != models.NewDate(2024, 2, 29) {
		t.Errorf("expected newest first, got %s", feb[0].Date)
	}

	if err := database.UpsertTimeEntry(&models.TimeEntry{ProjectID: p.ID, Date: models.NewDate(2024, 2, 1), Duration: -time.Hour}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("negative duration error = %v", err)
	}
}

func TestGetStats(t *testing.T) {
	database := newTestDB(t)
	_, src := seedProject(t, database, "busy")
	if _, err := database.SaveSync(src.ID, []models.Event{{Timestamp: base, Text: "a"}, {Timestamp: base.Add(time.Hour), Text: "b"}}, base.Add(2*time.Hour)); err != nil {
		t.Fatal(err)
	}

	stats, err := database.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalProjects != 1 || stats.TotalEvents != 2 || stats.BusiestProject != "busy" {
		t.Errorf("stats = %+v", stats)
	}
	if !stats.OldestEvent.Equal(base) || !stats.LastSync.Equal(base.Add(2*time.Hour)) {
		t.Errorf("OldestEvent=%s LastSync=%s", stats.OldestEvent, stats.LastSync)
	}
}

func TestStoredDurationsRoundToSecond(t *testing.T) {
	database := newTestDB(t)
	p, _ := seedProject(t, database, "p")

	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{90*time.Minute + 1500*time.Millisecond, 90*time.Minute + 2*time.Second},
		{90*time.Minute + 400*time.Millisecond, 90 * time.Minute},
	}
	for i, tt := range tests {
		e := &models.TimeEntry{ProjectID: p.ID, Date: models.NewDate(2024, 2, i+1), Duration: tt.in, Billable: true}
		if err := database.UpsertTimeEntry(e); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := database.ListTimeEntries(p.ID, models.Date{}, models.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(tests) {
		t.Fatalf("got %d entries, want %d", len(entries), len(tests))
	}
	for i, tt := range tests {
		if entries[i].Duration != tt.want {
			t.Errorf("entry %d duration = %s, want %s", i, entries[i].Duration, tt.want)
		}
	}

	day := models.NewDate(2024, 3, 4)
	if _, err := database.SaveRegroup(p.ID, nil, []models.DaySummary{{Date: day, Duration: 1999 * time.Millisecond, BlockCount: 1}}); err != nil {
		t.Fatal(err)
	}
	got, err := database.GetDaySummary(p.ID, day)
	if err != nil {
		t.Fatal(err)
	}
	if got.Duration != 2*time.Second {
		t.Errorf("day duration = %s, want 2s", got.Duration)
	}
}
