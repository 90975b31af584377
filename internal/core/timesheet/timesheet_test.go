package timesheet

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{90 * time.Minute, "1 hr 30 min"},
		{2 * time.Hour, "2 hr"},
		{45 * time.Minute, "45 min"},
		{0, "0 min"},
		{59*time.Second + 2*time.Minute, "2 min"},
		{-90 * time.Minute, "-1 hr 30 min"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	now := time.Date(2024, 3, 31, 22, 0, 0, 0, time.UTC)
	plus3 := time.FixedZone("UTC+3", 3*3600)

	tests := []struct {
		in      string
		loc     *time.Location
		want    Period
		wantErr bool
	}{
		{"current", time.UTC, Period{Month: models.NewDate(2024, 3, 1)}, false},
		{"current", plus3, Period{Month: models.NewDate(2024, 4, 1)}, false},
		{"", time.UTC, Period{Month: models.NewDate(2024, 3, 1)}, false},
		{"all", time.UTC, Period{All: true}, false},
		{"2023-11", time.UTC, Period{Month: models.NewDate(2023, 11, 1)}, false},
		{"November", time.UTC, Period{}, true},
	}

	for _, tt := range tests {
		got, err := ParsePeriod(tt.in, now, tt.loc)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePeriod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePeriod(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	if got := (Period{Month: models.NewDate(2024, 3, 1)}).Label(); got != "March 2024" {
		t.Errorf("Label() = %q", got)
	}
}

func TestSplitNotes(t *testing.T) {
	got := SplitNotes("- Fixed rounding\n- Added tests\n")
	if len(got) != 2 || got[0] != "Fixed rounding" || got[1] != "Added tests" {
		t.Errorf("SplitNotes() = %q", got)
	}
	if got := SplitNotes("Plain note"); len(got) != 1 || got[0] != "Plain note" {
		t.Errorf("SplitNotes(plain) = %q", got)
	}
}

func entry(date models.Date, d time.Duration, notes string, billable bool) models.TimeEntry {
	return models.TimeEntry{ProjectID: 1, Date: date, Duration: d, Notes: notes, Billable: billable}
}

func budgetProject() models.Project {
	start := models.NewDate(2024, 1, 1)
	monthly := 40 * time.Hour
	total := 200 * time.Hour
	return models.Project{ID: 1, Name: "Invoicing", StartDate: &start, MonthlyBudget: &monthly, TotalBudget: &total}
}

func TestBuildMonth(t *testing.T) {
	entries := []models.TimeEntry{
		entry(models.NewDate(2024, 1, 10), 45*time.Hour, "January", true),
		entry(models.NewDate(2024, 2, 5), 2*time.Hour, "- Morning\n- Afternoon", true),
		entry(models.NewDate(2024, 2, 5), 30*time.Minute, "Standup", false),
		entry(models.NewDate(2024, 2, 20), 3*time.Hour, "Release", true),
	}

	sheet, err := Build(budgetProject(), entries, Period{Month: models.NewDate(2024, 2, 1)}, time.UTC)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(sheet.Days) != 2 {
		t.Fatalf("got %d days, want 2", len(sheet.Days))
	}
	if sheet.Days[0].Date != models.NewDate(2024, 2, 20) {
		t.Errorf("days should be newest first, got %s first", sheet.Days[0].Date)
	}
	if sheet.Days[1].Total != 150*time.Minute || len(sheet.Days[1].Entries) != 2 {
		t.Errorf("Feb 5 = %+v", sheet.Days[1])
	}
	if sheet.Total != 330*time.Minute {
		t.Errorf("Total = %s", sheet.Total)
	}
	if sheet.StartDate != models.NewDate(2024, 2, 5) || sheet.EndDate != models.NewDate(2024, 2, 20) {
		t.Errorf("range = %s..%s", sheet.StartDate, sheet.EndDate)
	}

	b := sheet.Budget
	if b == nil {
		t.Fatal("expected budget status")
	}
	// January ran 5h over, February billed 5h: 40 - 5 - 5 = 30h
	if b.CarriedOver != 5*time.Hour || b.Remaining != 30*time.Hour {
		t.Errorf("budget = %+v", b)
	}
	// 200 - 45 - 5.5
	if b.TotalRemaining != 149*time.Hour+30*time.Minute {
		t.Errorf("TotalRemaining = %s", b.TotalRemaining)
	}
}

func TestBuildAll(t *testing.T) {
	entries := []models.TimeEntry{
		entry(models.NewDate(2023, 12, 1), time.Hour, "a", true),
		entry(models.NewDate(2024, 2, 1), time.Hour, "b", true),
	}
	p := models.Project{ID: 1, Name: "No budget"}

	sheet, err := Build(p, entries, Period{All: true}, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(sheet.Days) != 2 || sheet.Total != 2*time.Hour {
		t.Errorf("sheet = %+v", sheet)
	}
	if sheet.Budget != nil {
		t.Error("project without budgets should have no budget lines")
	}
}

func TestBuildRejectsNegativeBudget(t *testing.T) {
	neg := -time.Hour
	p := models.Project{ID: 1, Name: "bad", TotalBudget: &neg}
	if _, err := Build(p, nil, Period{All: true}, time.UTC); !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("Build() error = %v, want ErrConfiguration", err)
	}
}

func TestRender(t *testing.T) {
	entries := []models.TimeEntry{
		entry(models.NewDate(2024, 2, 5), 90*time.Minute, "- Fixed rounding - Added tests", true),
		entry(models.NewDate(2024, 2, 6), 30*time.Minute, "Standup", false),
	}
	sheet, err := Build(budgetProject(), entries, Period{Month: models.NewDate(2024, 2, 1)}, time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	var text bytes.Buffer
	if err := Render(&text, sheet, FormatText, ""); err != nil {
		t.Fatalf("Render(text) error = %v", err)
	}
	out := text.String()
	for _, want := range []string{
		"Invoicing timesheet: February 2024",
		"2024-02-06 (Tuesday)",
		"30 min (non-billable)",
		"- Fixed rounding",
		"- Added tests",
		"Total: 2 hr",
		"Remaining this month: 78 hr 30 min",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "2024-02-06 (") > strings.Index(out, "2024-02-05 (") {
		t.Error("newest day should be printed first")
	}

	var js bytes.Buffer
	if err := Render(&js, sheet, FormatJSON, ""); err != nil {
		t.Fatal(err)
	}
	var decoded View
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded.Hours != 2 || len(decoded.Days) != 2 || decoded.Budget == nil || !decoded.Budget.Monthly {
		t.Errorf("json view = %+v", decoded)
	}

	var ym bytes.Buffer
	if err := Render(&ym, sheet, FormatYAML, ""); err != nil {
		t.Fatal(err)
	}
	var fromYAML View
	if err := yaml.Unmarshal(ym.Bytes(), &fromYAML); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if fromYAML.Project != "Invoicing" || fromYAML.Days[0].Date != "2024-02-06" {
		t.Errorf("yaml view = %+v", fromYAML)
	}

	if err := Render(&ym, sheet, "csv", ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Render(csv) error = %v", err)
	}
}

func TestRenderCustomTemplate(t *testing.T) {
	sheet, err := Build(models.Project{ID: 1, Name: "P"}, []models.TimeEntry{
		entry(models.NewDate(2024, 2, 5), time.Hour, "x", true),
	}, Period{All: true}, time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, sheet, "", "{{Project}}={{Total}}{{#Days}};{{Date}}{{/Days}}"); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "P=1 hr;2024-02-05" {
		t.Errorf("Render() = %q", got)
	}
}

func TestLoad(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()
	_ = tmpfile.Close()

	database, err := db.New(tmpfile.Name())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = database.Close() }()

	p := budgetProject()
	p.ID = 0
	if err := database.CreateProject(&p); err != nil {
		t.Fatal(err)
	}
	for _, e := range []models.TimeEntry{
		{ProjectID: p.ID, Date: models.NewDate(2024, 1, 10), Duration: 45 * time.Hour, Billable: true},
		{ProjectID: p.ID, Date: models.NewDate(2024, 2, 5), Duration: 2 * time.Hour, Notes: "Feb", Billable: true},
	} {
		e := e
		if err := database.UpsertTimeEntry(&e); err != nil {
			t.Fatal(err)
		}
	}

	sheet, err := Load(database, &p, Period{Month: models.NewDate(2024, 2, 1)}, time.UTC)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(sheet.Days) != 1 || sheet.Total != 2*time.Hour {
		t.Errorf("sheet = %+v", sheet)
	}
	// January's overrun still reaches February
	if sheet.Budget == nil || sheet.Budget.CarriedOver != 5*time.Hour {
		t.Errorf("budget = %+v", sheet.Budget)
	}
}
