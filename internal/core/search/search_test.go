package search

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
)

var base = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })
	_ = tmpfile.Close()

	database, err := db.New(tmpfile.Name())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func seed(t *testing.T, database *db.DB, project string, events map[time.Duration]string) {
	t.Helper()
	p := &models.Project{Name: project}
	if err := database.CreateProject(p); err != nil {
		t.Fatal(err)
	}
	src := &models.Source{ProjectID: p.ID, Type: models.SourceGitHub, Enabled: true}
	if err := database.CreateSource(src); err != nil {
		t.Fatal(err)
	}
	var list []models.Event
	for offset, text := range events {
		list = append(list, models.Event{SourceID: src.ID, Timestamp: base.Add(offset), Text: text})
	}
	if _, err := database.UpsertEvents(list); err != nil {
		t.Fatal(err)
	}
}

func TestSearch(t *testing.T) {
	database := newTestDB(t)
	seed(t, database, "Invoicing", map[time.Duration]string{
		0:              "Implemented authentication middleware",
		time.Hour:      "Fix invoice rounding",
		48 * time.Hour: "Authenticate against the billing API",
	})
	seed(t, database, "Website", map[time.Duration]string{
		30 * time.Minute: "Add authentication to the contact form",
		time.Hour:        "Subject: deploy-notes for v2",
	})

	tests := []struct {
		name    string
		filters Filters
		want    int
	}{
		{"BasicSearch", Filters{Query: "authentication"}, 3},
		{"ProjectFilter", Filters{Query: "authentication", Project: "invoic"}, 2},
		{"AfterFilter", Filters{Query: "authentication", After: base.Add(24 * time.Hour)}, 1},
		{"BeforeFilter", Filters{Query: "authentication", Before: base.Add(time.Minute)}, 1},
		{"SubstringFallback", Filters{Query: "deploy-notes"}, 1},
		{"NoResults", Filters{Query: "nonexistent"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Search(database, tt.filters, 0)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(results) != tt.want {
				t.Errorf("got %d results, want %d: %+v", len(results), tt.want, results)
			}
			for _, r := range results {
				if r.ProjectName == "" || r.Snippet == "" || r.Timestamp.IsZero() {
					t.Errorf("incomplete result %+v", r)
				}
			}
		})
	}

	t.Run("NewestFirst", func(t *testing.T) {
		results, err := Search(database, Filters{Query: "authentication"}, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) < 2 || !results[0].Timestamp.After(results[1].Timestamp) {
			t.Errorf("results not newest first: %+v", results)
		}
	})

	t.Run("Limit", func(t *testing.T) {
		results, err := Search(database, Filters{Query: "authentication"}, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 {
			t.Errorf("got %d results, want 1", len(results))
		}
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		results, err := Search(database, Filters{Project: "Invoicing"}, 0)
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
		if results != nil {
			t.Error("Expected nil results for empty query")
		}
	})
}

func TestParseQuery(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	f := ParseQuery("project:web rounding after:2024-03-01 before:2024-03-05 fix", now)
	if f.Query != "rounding fix" {
		t.Errorf("Query = %q", f.Query)
	}
	if f.Project != "web" {
		t.Errorf("Project = %q", f.Project)
	}
	if !f.After.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("After = %v", f.After)
	}
	if !f.Before.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Before = %v", f.Before)
	}

	f = ParseQuery("deploy after:yesterday", now)
	if f.Query != "deploy" {
		t.Errorf("Query = %q", f.Query)
	}
	if f.After.IsZero() || !f.After.Before(now) {
		t.Errorf("After = %v, want a time before %v", f.After, now)
	}

	// Unknown prefixes and unparseable dates stay out of the filters
	f = ParseQuery("Subject:invoice before:notadate", now)
	if f.Query != "Subject:invoice" || !f.Before.IsZero() {
		t.Errorf("filters = %+v", f)
	}
}
