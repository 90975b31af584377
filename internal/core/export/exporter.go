package export

import (
	"context"
	"fmt"
	"log"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
)

// CalendarGateway publishes a finished block as a calendar event.
type CalendarGateway interface {
	ExportBlock(ctx context.Context, block *models.EventBlock) error
}

// TimeTrackingGateway records a day as a time entry and returns the
// tracker's id for it.
type TimeTrackingGateway interface {
	ExportDay(ctx context.Context, project *models.Project, day *models.DaySummary) (string, error)
}

// Exporter pushes blocks and days to their gateways at most once unless forced.
type Exporter struct {
	db       *db.DB
	calendar CalendarGateway
	tracker  TimeTrackingGateway
}

// NewExporter wires the gateways; either may be nil when not configured.
func NewExporter(database *db.DB, calendar CalendarGateway, tracker TimeTrackingGateway) *Exporter {
	return &Exporter{db: database, calendar: calendar, tracker: tracker}
}

// ExportBlock sends one block to the calendar. It reports false without
// calling the gateway when the block was already exported and force is off.
func (e *Exporter) ExportBlock(ctx context.Context, blockID int64, force bool) (bool, error) {
	if e.calendar == nil {
		return false, apperrors.Misconfigured("calendar export is not configured")
	}

	block, err := e.db.GetBlock(blockID)
	if err != nil {
		return false, err
	}
	if block.Exported && !force {
		return false, nil
	}
	if !block.Summarized() {
		return false, apperrors.Invalid("block %d has no summary yet", block.ID)
	}

	if err := e.calendar.ExportBlock(ctx, block); err != nil {
		return false, fmt.Errorf("export block %d: %w", block.ID, err)
	}
	if _, err := e.db.MarkBlockExported(block.ID); err != nil {
		return false, fmt.Errorf("mark block %d exported: %w", block.ID, err)
	}
	log.Printf("[EXPORT] Block %d (%s) sent to calendar", block.ID, block.Start.Format("2006-01-02 15:04"))
	return true, nil
}

// ExportDay sends one project day to time tracking and stores the
// resulting time entry under the tracker's id.
func (e *Exporter) ExportDay(ctx context.Context, projectID int64, date models.Date, force bool) (bool, error) {
	if e.tracker == nil {
		return false, apperrors.Misconfigured("time tracking export is not configured")
	}

	project, err := e.db.GetProject(projectID)
	if err != nil {
		return false, err
	}
	day, err := e.db.GetDaySummary(projectID, date)
	if err != nil {
		return false, err
	}
	if day.Exported && !force {
		return false, nil
	}
	if day.Summary == "" {
		return false, apperrors.Invalid("day %s of %s has no summary yet", date, project.Name)
	}

	externalID, err := e.tracker.ExportDay(ctx, project, day)
	if err != nil {
		return false, fmt.Errorf("export day %s: %w", date, err)
	}

	entry := &models.TimeEntry{
		ProjectID:  project.ID,
		Date:       day.Date,
		Duration:   day.Duration,
		Notes:      day.Summary,
		Billable:   true,
		ExternalID: externalID,
	}
	if err := e.db.UpsertTimeEntry(entry); err != nil {
		return false, fmt.Errorf("store time entry for %s: %w", date, err)
	}
	if _, err := e.db.MarkDayExported(day.ID); err != nil {
		return false, fmt.Errorf("mark day %s exported: %w", date, err)
	}
	log.Printf("[EXPORT] %s %s sent to time tracking as %s", project.Name, date, externalID)
	return true, nil
}

// PendingResult counts the outcome of ExportPending.
type PendingResult struct {
	Blocks  int
	Days    int
	Skipped int
}

// ExportPending exports every summarized, unexported block and day of a
// project through whichever gateways are configured. Unsummarized records
// are skipped. The first gateway error stops the run.
func (e *Exporter) ExportPending(ctx context.Context, projectID int64) (*PendingResult, error) {
	result := &PendingResult{}

	if e.calendar != nil {
		blocks, err := e.db.ListBlocks(projectID, models.TimeRange{})
		if err != nil {
			return result, err
		}
		for _, b := range blocks {
			if b.Exported {
				continue
			}
			if !b.Summarized() {
				result.Skipped++
				continue
			}
			ok, err := e.ExportBlock(ctx, b.ID, false)
			if err != nil {
				return result, err
			}
			if ok {
				result.Blocks++
			}
		}
	}

	if e.tracker != nil {
		days, err := e.db.ListDaySummaries(projectID, models.Date{}, models.Date{})
		if err != nil {
			return result, err
		}
		for _, d := range days {
			if d.Exported {
				continue
			}
			if d.Summary == "" {
				result.Skipped++
				continue
			}
			ok, err := e.ExportDay(ctx, projectID, d.Date, false)
			if err != nil {
				return result, err
			}
			if ok {
				result.Days++
			}
		}
	}
	return result, nil
}
