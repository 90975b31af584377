package timesheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/budget"
	"github.com/Somers1/logsheet/internal/core/dayagg"
	"github.com/Somers1/logsheet/internal/core/models"
)

// Period selects the entries shown on a sheet.
type Period struct {
	All   bool
	Month models.Date // first of month; zero when All
}

// ParsePeriod accepts "current", "all" or "YYYY-MM". "current" is the month
// containing now in loc.
func ParsePeriod(s string, now time.Time, loc *time.Location) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "current":
		return Period{Month: models.DateIn(now, loc).FirstOfMonth()}, nil
	case "all":
		return Period{All: true}, nil
	}
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Period{}, apperrors.Invalid("month %q: want current, all or YYYY-MM", s)
	}
	return Period{Month: models.DateOf(t)}, nil
}

// Label is the heading shown for the period.
func (p Period) Label() string {
	if p.All {
		return "All"
	}
	return fmt.Sprintf("%s %d", p.Month.Month, p.Month.Year)
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d models.Date) bool {
	return p.All || p.Month.SameMonth(d)
}

// Day is one date on the sheet with its entries in stored order.
type Day struct {
	Date    models.Date
	Entries []models.TimeEntry
	Total   time.Duration
}

// Sheet is a project's time entries for one period, newest day first.
type Sheet struct {
	Project   models.Project
	Period    Period
	Days      []Day
	Total     time.Duration
	StartDate models.Date
	EndDate   models.Date
	Budget    *budget.MonthStatus
	// AllTime is the project's total across every entry, used against a total budget.
	AllTime time.Duration
}

// Build assembles a sheet from every entry of the project. Entries outside
// the period still count towards carry-over and the total budget.
func Build(project models.Project, entries []models.TimeEntry, period Period, loc *time.Location) (*Sheet, error) {
	acct, err := budget.NewAccountant(project, entries)
	if err != nil {
		return nil, err
	}

	var shown []models.TimeEntry
	var allTime time.Duration
	for _, e := range entries {
		if e.ProjectID != project.ID {
			continue
		}
		allTime += e.Duration
		if period.Contains(e.Date) {
			shown = append(shown, e)
		}
	}

	sheet := &Sheet{Project: project, Period: period, AllTime: allTime}
	byDay := dayagg.Entries(shown, loc)
	for _, date := range byDay.DatesDesc() {
		day := Day{Date: date, Entries: byDay[date]}
		for _, e := range day.Entries {
			day.Total += e.Duration
		}
		sheet.Days = append(sheet.Days, day)
		sheet.Total += day.Total
	}
	if n := len(sheet.Days); n > 0 {
		sheet.EndDate = sheet.Days[0].Date
		sheet.StartDate = sheet.Days[n-1].Date
	}

	if project.HasMonthlyBudget() || project.TotalBudget != nil {
		asOf := period.Month
		if period.All {
			asOf = sheet.EndDate
			if asOf.IsZero() {
				asOf = models.DateIn(time.Now(), loc)
			}
		}
		status := acct.MonthStatus(asOf)
		sheet.Budget = &status
	}
	return sheet, nil
}

// FormatDuration renders d as "H hr M min", "H hr" or "M min", truncated to
// whole minutes. Negative durations carry a leading minus.
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	total := int(d / time.Minute)
	hours, minutes := total/60, total%60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%s%d hr %d min", sign, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%s%d hr", sign, hours)
	default:
		return fmt.Sprintf("%s%d min", sign, minutes)
	}
}

// SplitNotes breaks "- a - b" style notes into their bullet parts.
func SplitNotes(notes string) []string {
	var parts []string
	for _, part := range strings.Split(notes, "- ") {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
