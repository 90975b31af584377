package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
)

// EntryLister is the read side of a time tracker.
type EntryLister interface {
	ListTimeEntries(ctx context.Context, from, to models.Date) ([]HarvestEntry, error)
}

type HarvestSyncResult struct {
	Fetched  int
	Upserted int
	// Skipped counts entries whose Harvest project is not linked to a local project.
	Skipped int
}

// SyncHarvest pulls tracked time for [from, to] and upserts it by Harvest id.
// Projects are matched on their external id.
func SyncHarvest(ctx context.Context, database *db.DB, tracker EntryLister, from, to models.Date) (*HarvestSyncResult, error) {
	entries, err := tracker.ListTimeEntries(ctx, from, to)
	if err != nil {
		return nil, err
	}

	result := &HarvestSyncResult{Fetched: len(entries)}
	projects := make(map[int64]*models.Project)
	for _, he := range entries {
		project, ok := projects[he.Project.ID]
		if !ok {
			project, err = database.GetProjectByExternalID(strconv.FormatInt(he.Project.ID, 10))
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return result, err
			}
			projects[he.Project.ID] = project
		}
		if project == nil {
			result.Skipped++
			continue
		}

		date, err := models.ParseDate(he.SpentDate)
		if err != nil {
			return result, fmt.Errorf("harvest entry %d: %w", he.ID, err)
		}
		entry := &models.TimeEntry{
			ProjectID:  project.ID,
			Date:       date,
			Duration:   models.DurationFromHours(he.Hours),
			Notes:      he.Notes,
			Billable:   he.Billable,
			ExternalID: strconv.FormatInt(he.ID, 10),
		}
		if err := database.UpsertTimeEntry(entry); err != nil {
			return result, fmt.Errorf("harvest entry %d: %w", he.ID, err)
		}
		result.Upserted++
	}

	log.Printf("[EXPORT] Harvest sync %s..%s: fetched %d, upserted %d, skipped %d",
		from, to, result.Fetched, result.Upserted, result.Skipped)
	return result, nil
}
