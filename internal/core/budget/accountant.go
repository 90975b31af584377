// Package budget tracks billable time against monthly and total budgets.
//
// Carry-over is signed: positive means the project has consumed more than
// it was allotted so far, negative means unused allowance carries forward.
package budget

import (
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

// Accountant answers budget questions for one project over a fixed set of entries.
type Accountant struct {
	project models.Project
	entries []models.TimeEntry
}

// NewAccountant validates the project's budgets. Entries for other projects
// are ignored.
func NewAccountant(project models.Project, entries []models.TimeEntry) (*Accountant, error) {
	if project.MonthlyBudget != nil && *project.MonthlyBudget < 0 {
		return nil, apperrors.Misconfigured("project %q: monthly budget must not be negative", project.Name)
	}
	if project.TotalBudget != nil && *project.TotalBudget < 0 {
		return nil, apperrors.Misconfigured("project %q: total budget must not be negative", project.Name)
	}

	own := make([]models.TimeEntry, 0, len(entries))
	for _, e := range entries {
		if project.ID != 0 && e.ProjectID != 0 && e.ProjectID != project.ID {
			continue
		}
		own = append(own, e)
	}
	return &Accountant{project: project, entries: own}, nil
}

// Project returns the project being accounted.
func (a *Accountant) Project() models.Project {
	return a.project
}

func (a *Accountant) sum(from, to models.Date, billableOnly bool) time.Duration {
	var total time.Duration
	for _, e := range a.entries {
		if billableOnly && !e.Billable {
			continue
		}
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !e.Date.Before(to) {
			continue
		}
		total += e.Duration
	}
	return total
}

// BillableDurationBefore sums billable entries dated strictly before cutoff.
func (a *Accountant) BillableDurationBefore(cutoff models.Date) time.Duration {
	return a.sum(models.Date{}, cutoff, true)
}

// DurationBefore sums all entries dated strictly before cutoff.
func (a *Accountant) DurationBefore(cutoff models.Date) time.Duration {
	return a.sum(models.Date{}, cutoff, false)
}

// DurationBetween sums all entries in [from, to).
func (a *Accountant) DurationBetween(from, to models.Date) time.Duration {
	return a.sum(from, to, false)
}

// BillableDurationBetween sums billable entries in [from, to).
func (a *Accountant) BillableDurationBetween(from, to models.Date) time.Duration {
	return a.sum(from, to, true)
}

// BudgetApplies reports whether the monthly budget covers the month holding d.
// The start month itself is covered, even when the project starts mid-month.
func (a *Accountant) BudgetApplies(d models.Date) bool {
	if !a.project.HasMonthlyBudget() {
		return false
	}
	return d.FirstOfMonth().Compare(a.project.StartDate.FirstOfMonth()) >= 0
}

// ElapsedMonths counts month boundaries between the start month and asOf's month.
// It is zero without a start date and never negative.
func (a *Accountant) ElapsedMonths(asOf models.Date) int {
	if a.project.StartDate == nil {
		return 0
	}
	n := asOf.MonthsSince(*a.project.StartDate)
	if n < 0 {
		return 0
	}
	return n
}

// CarriedOver is billable time before asOf minus the budget allotted for the
// elapsed months. Zero when the project has no start date or monthly budget.
func (a *Accountant) CarriedOver(asOf models.Date) time.Duration {
	if !a.project.HasMonthlyBudget() {
		return 0
	}
	allotted := *a.project.MonthlyBudget * time.Duration(a.ElapsedMonths(asOf))
	return a.BillableDurationBefore(asOf) - allotted
}

// RemainingThisMonth is the monthly budget less carry-over into asOf's month
// and billable time already spent in it.
func (a *Accountant) RemainingThisMonth(asOf models.Date) time.Duration {
	if !a.BudgetApplies(asOf) {
		return 0
	}
	first := asOf.FirstOfMonth()
	spent := a.BillableDurationBetween(first, first.AddMonths(1))
	return *a.project.MonthlyBudget - a.CarriedOver(first) - spent
}

// RemainingAgainstTotal is the total budget less every entry up to the end of
// asOf's month, billable or not. ok is false when no total budget is set.
func (a *Accountant) RemainingAgainstTotal(asOf models.Date) (remaining time.Duration, ok bool) {
	if a.project.TotalBudget == nil {
		return 0, false
	}
	first := asOf.FirstOfMonth()
	used := a.DurationBefore(first) + a.DurationBetween(first, first.AddMonths(1))
	return *a.project.TotalBudget - used, true
}

// MonthStatus is a presentation snapshot of one month.
type MonthStatus struct {
	Month          models.Date // first day of the month
	BudgetApplies  bool
	MonthlyBudget  time.Duration
	CarriedOver    time.Duration
	Billable       time.Duration
	Total          time.Duration
	Remaining      time.Duration
	HasTotalBudget bool
	TotalBudget    time.Duration
	TotalRemaining time.Duration
}

// OverBudget reports whether the month's remaining allowance is exhausted.
func (s MonthStatus) OverBudget() bool {
	return s.BudgetApplies && s.Remaining < 0
}

// MonthStatus bundles the month containing asOf.
func (a *Accountant) MonthStatus(asOf models.Date) MonthStatus {
	first := asOf.FirstOfMonth()
	next := first.AddMonths(1)

	s := MonthStatus{
		Month:         first,
		BudgetApplies: a.BudgetApplies(first),
		Billable:      a.BillableDurationBetween(first, next),
		Total:         a.DurationBetween(first, next),
	}
	if s.BudgetApplies {
		s.MonthlyBudget = *a.project.MonthlyBudget
		s.CarriedOver = a.CarriedOver(first)
		s.Remaining = a.RemainingThisMonth(first)
	}
	if a.project.TotalBudget != nil {
		s.HasTotalBudget = true
		s.TotalBudget = *a.project.TotalBudget
		s.TotalRemaining, _ = a.RemainingAgainstTotal(first)
	}
	return s
}
