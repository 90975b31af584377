package db

import (
	"errors"
	"testing"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

var base = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func TestUpsertEventIdempotent(t *testing.T) {
	database := newTestDB(t)
	_, src := seedProject(t, database, "p")

	e := models.Event{Timestamp: base, SourceID: src.ID, Text: "Fix login redirect"}
	inserted, err := database.UpsertEvent(&e)
	if err != nil || !inserted {
		t.Fatalf("first UpsertEvent() = %v, %v", inserted, err)
	}

	dup := models.Event{Timestamp: base, SourceID: src.ID, Text: "Fix login redirect"}
	inserted, err = database.UpsertEvent(&dup)
	if err != nil || inserted {
		t.Fatalf("duplicate UpsertEvent() = %v, %v", inserted, err)
	}

	// same instant in another zone is the same event
	sydney := time.FixedZone("AEDT", 11*3600)
	inZone := models.Event{Timestamp: base.In(sydney), SourceID: src.ID, Text: "Fix login redirect"}
	if inserted, _ := database.UpsertEvent(&inZone); inserted {
		t.Error("timestamp in another zone should dedupe")
	}

	n, err := database.UpsertEvents([]models.Event{
		{Timestamp: base, SourceID: src.ID, Text: "Fix login redirect"},
		{Timestamp: base.Add(time.Minute), SourceID: src.ID, Text: "Add tests"},
	})
	if err != nil || n != 1 {
		t.Errorf("UpsertEvents() = %d, %v, want 1 new", n, err)
	}

	if _, err := database.UpsertEvent(&models.Event{SourceID: src.ID, Text: "x"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("UpsertEvent(no timestamp) error = %v", err)
	}
}

func TestListEvents(t *testing.T) {
	database := newTestDB(t)
	p, src := seedProject(t, database, "p")
	other := &models.Source{ProjectID: p.ID, Type: models.SourceCSV, Enabled: true}
	if err := database.CreateSource(other); err != nil {
		t.Fatal(err)
	}

	events := []models.Event{
		{Timestamp: base.Add(2 * time.Hour), SourceID: src.ID, Text: "c"},
		{Timestamp: base, SourceID: src.ID, Text: "a"},
		{Timestamp: base.Add(time.Hour), SourceID: other.ID, Text: "b"},
	}
	if _, err := database.UpsertEvents(events); err != nil {
		t.Fatal(err)
	}

	all, err := database.ListEvents(p.ID, nil, models.TimeRange{})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(all) != 3 || all[0].Text != "a" || all[1].Text != "b" || all[2].Text != "c" {
		t.Fatalf("ListEvents() order = %+v", all)
	}
	if all[1].SourceType != models.SourceCSV || all[1].ProjectID != p.ID {
		t.Errorf("event b = %+v", all[1])
	}

	ranged, _ := database.ListEvents(p.ID, nil, models.TimeRange{From: base.Add(time.Hour), To: base.Add(2 * time.Hour)})
	if len(ranged) != 1 || ranged[0].Text != "b" {
		t.Errorf("ranged ListEvents() = %+v", ranged)
	}

	only, _ := database.ListEvents(p.ID, []int64{src.ID}, models.TimeRange{})
	if len(only) != 2 {
		t.Errorf("ListEvents(source filter) returned %d, want 2", len(only))
	}

	if err := database.SetSourceEnabled(other.ID, false); err != nil {
		t.Fatal(err)
	}
	enabled, _ := database.ListEvents(p.ID, nil, models.TimeRange{})
	if len(enabled) != 2 {
		t.Errorf("disabled source events still listed: %d", len(enabled))
	}
}

func TestSaveSync(t *testing.T) {
	database := newTestDB(t)
	_, src := seedProject(t, database, "p")

	syncedAt := base.Add(24 * time.Hour)
	n, err := database.SaveSync(src.ID, []models.Event{
		{Timestamp: base, Text: "one"},
		{Timestamp: base.Add(time.Minute), Text: "two"},
	}, syncedAt)
	if err != nil || n != 2 {
		t.Fatalf("SaveSync() = %d, %v", n, err)
	}

	got, _ := database.GetSource(src.ID)
	if !got.LastSync.Equal(syncedAt) {
		t.Errorf("LastSync = %s, want %s", got.LastSync, syncedAt)
	}

	// a bad event rolls back the whole batch, last_sync included
	_, err = database.SaveSync(src.ID, []models.Event{
		{Timestamp: base.Add(time.Hour), Text: "three"},
		{Timestamp: base.Add(2 * time.Hour)},
	}, syncedAt.Add(time.Hour))
	if err == nil {
		t.Fatal("expected error for event without text")
	}
	events, _ := database.ListEvents(src.ProjectID, nil, models.TimeRange{})
	if len(events) != 2 {
		t.Errorf("partial batch persisted: %d events", len(events))
	}
	got, _ = database.GetSource(src.ID)
	if !got.LastSync.Equal(syncedAt) {
		t.Errorf("LastSync advanced after failed sync: %s", got.LastSync)
	}

	latest, _ := database.LatestEventTime(src.ID)
	if !latest.Equal(base.Add(time.Minute)) {
		t.Errorf("LatestEventTime() = %s", latest)
	}
}

func TestSyncLog(t *testing.T) {
	database := newTestDB(t)
	_, src := seedProject(t, database, "p")

	for i, status := range []string{"success", "failed"} {
		r := &SyncRecord{RunID: "run", SourceID: src.ID, StartedAt: base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute), Fetched: 3, Inserted: 1, Status: status}
		if err := database.RecordSync(r); err != nil {
			t.Fatalf("RecordSync() error = %v", err)
		}
	}

	recent, err := database.RecentSyncs(src.ID, 10)
	if err != nil || len(recent) != 2 {
		t.Fatalf("RecentSyncs() = %d, %v", len(recent), err)
	}
	if recent[0].Status != "failed" {
		t.Errorf("expected newest first, got %s", recent[0].Status)
	}
}
