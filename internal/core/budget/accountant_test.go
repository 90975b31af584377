package budget

import (
	"errors"
	"testing"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

func hours(h int) time.Duration { return time.Duration(h) * time.Hour }

func budgetedProject(monthly int) models.Project {
	start := models.NewDate(2024, 1, 15)
	mb := hours(monthly)
	return models.Project{ID: 1, Name: "Acme", StartDate: &start, MonthlyBudget: &mb}
}

func entry(date models.Date, h int, billable bool) models.TimeEntry {
	return models.TimeEntry{ProjectID: 1, Date: date, Duration: hours(h), Billable: billable}
}

func mustAccountant(t *testing.T, p models.Project, entries []models.TimeEntry) *Accountant {
	t.Helper()
	a, err := NewAccountant(p, entries)
	if err != nil {
		t.Fatalf("NewAccountant() error = %v", err)
	}
	return a
}

func TestCarriedOver(t *testing.T) {
	asOf := models.NewDate(2024, 3, 1)

	tests := []struct {
		name    string
		entries []models.TimeEntry
		want    time.Duration
	}{
		{
			name: "under budget carries slack",
			entries: []models.TimeEntry{
				entry(models.NewDate(2024, 1, 20), 30, true),
				entry(models.NewDate(2024, 2, 10), 35, true),
			},
			want: -hours(15),
		},
		{
			name: "over budget carries burden",
			entries: []models.TimeEntry{
				entry(models.NewDate(2024, 1, 20), 50, true),
				entry(models.NewDate(2024, 2, 10), 45, true),
			},
			want: hours(15),
		},
		{
			name: "non-billable entries ignored",
			entries: []models.TimeEntry{
				entry(models.NewDate(2024, 1, 20), 30, true),
				entry(models.NewDate(2024, 2, 10), 35, true),
				entry(models.NewDate(2024, 2, 11), 20, false),
			},
			want: -hours(15),
		},
		{
			name: "entries on or after cutoff ignored",
			entries: []models.TimeEntry{
				entry(models.NewDate(2024, 1, 20), 30, true),
				entry(models.NewDate(2024, 2, 10), 35, true),
				entry(models.NewDate(2024, 3, 1), 8, true),
			},
			want: -hours(15),
		},
		{
			name:    "no entries",
			entries: nil,
			want:    -hours(80),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustAccountant(t, budgetedProject(40), tt.entries)
			if got := a.ElapsedMonths(asOf); got != 2 {
				t.Fatalf("ElapsedMonths() = %d, want 2", got)
			}
			if got := a.CarriedOver(asOf); got != tt.want {
				t.Errorf("CarriedOver() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCarriedOverMidMonthStart(t *testing.T) {
	a := mustAccountant(t, budgetedProject(40), []models.TimeEntry{
		entry(models.NewDate(2024, 1, 20), 20, true),
	})
	if got := a.CarriedOver(models.NewDate(2024, 2, 1)); got != -hours(20) {
		t.Errorf("CarriedOver() = %s, want -20h", got)
	}
}

func TestCarriedOverDisabled(t *testing.T) {
	entries := []models.TimeEntry{entry(models.NewDate(2024, 1, 20), 30, true)}
	asOf := models.NewDate(2024, 3, 1)

	noStart := budgetedProject(40)
	noStart.StartDate = nil
	noBudget := budgetedProject(40)
	noBudget.MonthlyBudget = nil

	for name, p := range map[string]models.Project{"no start date": noStart, "no monthly budget": noBudget} {
		t.Run(name, func(t *testing.T) {
			a := mustAccountant(t, p, entries)
			if got := a.CarriedOver(asOf); got != 0 {
				t.Errorf("CarriedOver() = %s, want 0", got)
			}
			if got := a.RemainingThisMonth(asOf); got != 0 {
				t.Errorf("RemainingThisMonth() = %s, want 0", got)
			}
		})
	}
}

func TestDurationBefore(t *testing.T) {
	a := mustAccountant(t, budgetedProject(40), []models.TimeEntry{
		entry(models.NewDate(2024, 1, 20), 3, true),
		entry(models.NewDate(2024, 1, 21), 2, false),
		entry(models.NewDate(2024, 2, 1), 4, true),
	})

	cutoff := models.NewDate(2024, 2, 1)
	if got := a.BillableDurationBefore(cutoff); got != hours(3) {
		t.Errorf("BillableDurationBefore() = %s, want 3h", got)
	}
	if got := a.DurationBefore(cutoff); got != hours(5) {
		t.Errorf("DurationBefore() = %s, want 5h", got)
	}
	if got := a.DurationBefore(models.NewDate(2023, 1, 1)); got != 0 {
		t.Errorf("DurationBefore() with nothing before = %s, want 0", got)
	}
	if got := a.BillableDurationBetween(models.NewDate(2024, 1, 21), models.NewDate(2024, 2, 2)); got != hours(4) {
		t.Errorf("BillableDurationBetween() = %s, want 4h", got)
	}
}

func TestRemainingThisMonth(t *testing.T) {
	a := mustAccountant(t, budgetedProject(40), []models.TimeEntry{
		entry(models.NewDate(2024, 1, 20), 30, true),
		entry(models.NewDate(2024, 2, 10), 35, true),
		entry(models.NewDate(2024, 3, 4), 10, true),
		entry(models.NewDate(2024, 3, 5), 6, false),
	})

	// 40h - (-15h) - 10h
	if got := a.RemainingThisMonth(models.NewDate(2024, 3, 18)); got != hours(45) {
		t.Errorf("RemainingThisMonth() = %s, want 45h", got)
	}
}

func TestBudgetAppliesFromStartMonth(t *testing.T) {
	a := mustAccountant(t, budgetedProject(40), nil)

	tests := []struct {
		date models.Date
		want bool
	}{
		{models.NewDate(2023, 12, 31), false},
		{models.NewDate(2024, 1, 1), true},
		{models.NewDate(2024, 1, 15), true},
		{models.NewDate(2024, 2, 1), true},
	}
	for _, tt := range tests {
		if got := a.BudgetApplies(tt.date); got != tt.want {
			t.Errorf("BudgetApplies(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}

	if got := a.ElapsedMonths(models.NewDate(2023, 11, 1)); got != 0 {
		t.Errorf("ElapsedMonths() before start = %d, want 0", got)
	}
	if got := a.RemainingThisMonth(models.NewDate(2024, 1, 20)); got != hours(40) {
		t.Errorf("RemainingThisMonth() in start month = %s, want 40h", got)
	}
}

func TestRemainingAgainstTotal(t *testing.T) {
	p := budgetedProject(40)
	total := hours(100)
	p.TotalBudget = &total

	a := mustAccountant(t, p, []models.TimeEntry{
		entry(models.NewDate(2024, 1, 20), 30, true),
		entry(models.NewDate(2024, 2, 10), 35, true),
		entry(models.NewDate(2024, 2, 11), 5, false),
		entry(models.NewDate(2024, 3, 4), 10, true),
		entry(models.NewDate(2024, 4, 2), 7, true),
	})

	got, ok := a.RemainingAgainstTotal(models.NewDate(2024, 3, 15))
	if !ok {
		t.Fatal("expected total budget to be tracked")
	}
	if got != hours(20) {
		t.Errorf("RemainingAgainstTotal() = %s, want 20h", got)
	}

	noTotal := mustAccountant(t, budgetedProject(40), nil)
	if _, ok := noTotal.RemainingAgainstTotal(models.NewDate(2024, 3, 15)); ok {
		t.Error("expected ok=false without total budget")
	}
}

func TestMonthStatus(t *testing.T) {
	p := budgetedProject(40)
	total := hours(100)
	p.TotalBudget = &total

	a := mustAccountant(t, p, []models.TimeEntry{
		entry(models.NewDate(2024, 1, 20), 50, true),
		entry(models.NewDate(2024, 2, 10), 45, true),
		entry(models.NewDate(2024, 3, 4), 30, true),
	})

	s := a.MonthStatus(models.NewDate(2024, 3, 20))
	if s.Month != models.NewDate(2024, 3, 1) {
		t.Errorf("Month = %s", s.Month)
	}
	if s.CarriedOver != hours(15) || s.Billable != hours(30) {
		t.Errorf("CarriedOver=%s Billable=%s", s.CarriedOver, s.Billable)
	}
	// 40h - 15h - 30h
	if s.Remaining != -hours(5) || !s.OverBudget() {
		t.Errorf("Remaining=%s OverBudget=%v", s.Remaining, s.OverBudget())
	}
	if !s.HasTotalBudget || s.TotalRemaining != -hours(25) {
		t.Errorf("TotalRemaining = %s", s.TotalRemaining)
	}
}

func TestNewAccountantRejectsNegativeBudgets(t *testing.T) {
	negative := -hours(1)

	monthly := budgetedProject(40)
	monthly.MonthlyBudget = &negative
	if _, err := NewAccountant(monthly, nil); !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("monthly: error = %v, want ErrConfiguration", err)
	}

	total := budgetedProject(40)
	total.TotalBudget = &negative
	if _, err := NewAccountant(total, nil); !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("total: error = %v, want ErrConfiguration", err)
	}
}

func TestNewAccountantFiltersOtherProjects(t *testing.T) {
	other := entry(models.NewDate(2024, 1, 20), 99, true)
	other.ProjectID = 2
	a := mustAccountant(t, budgetedProject(40), []models.TimeEntry{
		entry(models.NewDate(2024, 1, 20), 30, true),
		other,
	})
	if got := a.BillableDurationBefore(models.NewDate(2024, 2, 1)); got != hours(30) {
		t.Errorf("BillableDurationBefore() = %s, want 30h", got)
	}
}
