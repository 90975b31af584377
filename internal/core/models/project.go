package models

import (
	"errors"
	"math"
	"time"
)

// Client owns one or more projects.
type Client struct {
	ID         int64
	Name       string
	ExternalID string // Harvest client id
}

// Project is a billable engagement with optional budgets.
type Project struct {
	ID            int64
	Name          string
	Description   string
	ClientID      int64
	StartDate     *Date
	MonthlyBudget *time.Duration
	TotalBudget   *time.Duration
	ExternalID    string // Harvest project id
	CreatedAt     time.Time
}

// Validate checks if the project has required fields
func (p *Project) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// HasMonthlyBudget reports whether monthly carry-over tracking applies.
func (p *Project) HasMonthlyBudget() bool {
	return p.StartDate != nil && p.MonthlyBudget != nil
}

// TimeEntry is accepted time, produced by export or synced from time tracking.
// Duration is stored rounded to the nearest second.
type TimeEntry struct {
	ID         int64
	ProjectID  int64
	Date       Date
	Duration   time.Duration
	Notes      string
	Billable   bool
	ExternalID string
}

// Validate checks if the entry has required fields
func (e *TimeEntry) Validate() error {
	if e.ProjectID == 0 {
		return errors.New("project_id is required")
	}
	if e.Date.IsZero() {
		return errors.New("date is required")
	}
	if e.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	return nil
}

// Hours returns the duration in decimal hours, rounded to two places.
func (e *TimeEntry) Hours() float64 {
	return DecimalHours(e.Duration)
}

// DecimalHours converts d to hours rounded to two decimal places.
func DecimalHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

// DurationFromHours converts decimal hours to a Duration rounded to the second.
func DurationFromHours(h float64) time.Duration {
	return time.Duration(math.Round(h*3600)) * time.Second
}
