package db

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })
	_ = tmpfile.Close()

	database, err := New(tmpfile.Name())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// seedProject creates a project with one enabled github source
func seedProject(t *testing.T, database *DB, name string) (*models.Project, *models.Source) {
	t.Helper()
	p := &models.Project{Name: name, Description: name + " work"}
	if err := database.CreateProject(p); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	s := &models.Source{ProjectID: p.ID, Type: models.SourceGitHub, BaseURL: "https://api.github.com/repos/o/r", Enabled: true}
	if err := database.CreateSource(s); err != nil {
		t.Fatalf("CreateSource() error = %v", err)
	}
	return p, s
}

func TestNew_WALMode(t *testing.T) {
	database := newTestDB(t)

	var journalMode string
	if err := database.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected WAL mode, got %s", journalMode)
	}

	var fkEnabled int
	if err := database.conn.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("Failed to query foreign keys: %v", err)
	}
	if fkEnabled != 1 {
		t.Errorf("Expected foreign keys enabled (1), got %d", fkEnabled)
	}
}

func TestSchemaCreation(t *testing.T) {
	database := newTestDB(t)

	for _, table := range []string{"clients", "projects", "sources", "events", "event_blocks", "day_summaries", "time_entries", "sync_log", "events_fts"} {
		var n int
		err := database.conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		if err != nil {
			t.Fatalf("Failed to query schema: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected table %s to exist", table)
		}
	}

	// migrated columns
	for _, col := range []struct{ table, column string }{{"sources", "auth"}, {"time_entries", "billable"}} {
		has, err := database.hasColumn(col.table, col.column)
		if err != nil || !has {
			t.Errorf("expected %s.%s after migrations (err=%v)", col.table, col.column, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	database := newTestDB(t)
	if err := database.runMigrations(); err != nil {
		t.Fatalf("second runMigrations() error = %v", err)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	database := newTestDB(t)

	client := &models.Client{Name: "Acme", ExternalID: "h-1"}
	if err := database.CreateClient(client); err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}
	again := &models.Client{Name: "Acme"}
	if err := database.CreateClient(again); err != nil || again.ID != client.ID {
		t.Fatalf("CreateClient() twice: id %d vs %d, err %v", again.ID, client.ID, err)
	}

	start := models.NewDate(2024, 1, 15)
	monthly := 40 * time.Hour
	p := &models.Project{
		Name:          "Billing revamp",
		Description:   "Rewrite invoicing",
		ClientID:      client.ID,
		StartDate:     &start,
		MonthlyBudget: &monthly,
		ExternalID:    "9001",
	}
	if err := database.CreateProject(p); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	got, err := database.GetProjectByName("Billing revamp")
	if err != nil {
		t.Fatalf("GetProjectByName() error = %v", err)
	}
	if got.StartDate == nil || *got.StartDate != start {
		t.Errorf("StartDate = %v", got.StartDate)
	}
	if got.MonthlyBudget == nil || *got.MonthlyBudget != monthly {
		t.Errorf("MonthlyBudget = %v", got.MonthlyBudget)
	}
	if got.TotalBudget != nil {
		t.Errorf("TotalBudget = %v, want nil", got.TotalBudget)
	}
	if got.ClientID != client.ID || got.ExternalID != "9001" {
		t.Errorf("ClientID=%d ExternalID=%q", got.ClientID, got.ExternalID)
	}

	byExt, err := database.GetProjectByExternalID("9001")
	if err != nil || byExt.ID != p.ID {
		t.Errorf("GetProjectByExternalID() = %v, %v", byExt, err)
	}

	if _, err := database.GetProject(9999); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("GetProject(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSourceAuthRoundTrip(t *testing.T) {
	database := newTestDB(t)
	p, _ := seedProject(t, database, "p")

	s := &models.Source{
		ProjectID: p.ID,
		Type:      models.SourceOutlook,
		Auth:      map[string]string{"tenant_id": "t", "email": "me@example.com"},
		Enabled:   true,
	}
	if err := database.CreateSource(s); err != nil {
		t.Fatalf("CreateSource() error = %v", err)
	}

	got, err := database.GetSource(s.ID)
	if err != nil {
		t.Fatalf("GetSource() error = %v", err)
	}
	if got.Auth["email"] != "me@example.com" || got.Type != models.SourceOutlook {
		t.Errorf("GetSource() = %+v", got)
	}
	if !got.LastSync.IsZero() {
		t.Errorf("LastSync = %s, want zero", got.LastSync)
	}

	if err := database.CreateSource(&models.Source{ProjectID: p.ID, Type: "fax"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("CreateSource(fax) error = %v, want ErrInvalidInput", err)
	}
}
