package timesheet

import (
	"fmt"
	"time"

	"github.com/Somers1/logsheet/internal/core/db"
	"github.com/Somers1/logsheet/internal/core/models"
)

// Load builds a project's sheet from the database. Every entry is read since
// earlier months feed carry-over.
func Load(database *db.DB, project *models.Project, period Period, loc *time.Location) (*Sheet, error) {
	entries, err := database.ListTimeEntries(project.ID, models.Date{}, models.Date{})
	if err != nil {
		return nil, fmt.Errorf("load time entries: %w", err)
	}
	return Build(*project, entries, period, loc)
}
