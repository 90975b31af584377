package export

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Somers1/logsheet/internal/core/config"
	"github.com/Somers1/logsheet/internal/core/models"
	"github.com/Somers1/logsheet/internal/core/msgraph"
)

func TestFormatBlock(t *testing.T) {
	sydney, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	cal := newCalendar(nil, config.CalendarConfig{UserID: "me"}, sydney)

	ev := cal.FormatBlock(&models.EventBlock{
		Start:   time.Date(2024, 3, 4, 22, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC),
		Summary: "Release prep",
	})

	if ev.Subject != "Release prep" {
		t.Errorf("Subject = %q", ev.Subject)
	}
	if ev.Body.ContentType != "HTML" || ev.Body.Content != calendarBodyNote {
		t.Errorf("Body = %+v", ev.Body)
	}
	// AEDT is UTC+11 in March
	if ev.Start.DateTime != "2024-03-05T09:00:00" || ev.End.DateTime != "2024-03-05T10:30:00" {
		t.Errorf("Start/End = %s / %s", ev.Start.DateTime, ev.End.DateTime)
	}
	if ev.Start.TimeZone != "AUS Eastern Standard Time" {
		t.Errorf("TimeZone = %q", ev.Start.TimeZone)
	}
}

func TestCalendarExportBlock(t *testing.T) {
	var got msgraph.Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me@example.com/calendars/cal/events" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"evt"}`))
	}))
	defer server.Close()

	client := msgraph.NewClientWithHTTP(server.Client(), server.URL)
	cal := newCalendar(client, config.CalendarConfig{
		UserID:       "me@example.com",
		CalendarID:   "cal",
		TimeZoneName: "UTC",
	}, time.UTC)

	block := &models.EventBlock{Start: base, End: base.Add(time.Hour), Summary: "Standup"}
	if err := cal.ExportBlock(context.Background(), block); err != nil {
		t.Fatalf("ExportBlock() error = %v", err)
	}
	if got.Subject != "Standup" || got.Start.DateTime != "2024-03-04T09:00:00" || got.End.TimeZone != "UTC" {
		t.Errorf("posted event = %+v", got)
	}
}
