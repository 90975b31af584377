package db

import (
	"database/sql"
	"time"
)

// Stats represents database statistics
type Stats struct {
	TotalProjects        int
	TotalSources         int
	TotalEvents          int
	TotalBlocks          int
	UnsummarizedBlocks   int
	UnexportedDays       int
	TotalTimeEntries     int
	OldestEvent          time.Time
	NewestEvent          time.Time
	LastSync             time.Time
	BusiestProject       string
	BusiestProjectEvents int
}

// GetStats returns comprehensive database statistics
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM projects", &stats.TotalProjects},
		{"SELECT COUNT(*) FROM sources", &stats.TotalSources},
		{"SELECT COUNT(*) FROM events", &stats.TotalEvents},
		{"SELECT COUNT(*) FROM event_blocks", &stats.TotalBlocks},
		{"SELECT COUNT(*) FROM event_blocks WHERE summary IS NULL OR summary = ''", &stats.UnsummarizedBlocks},
		{"SELECT COUNT(*) FROM day_summaries WHERE exported = 0", &stats.UnexportedDays},
		{"SELECT COUNT(*) FROM time_entries", &stats.TotalTimeEntries},
	}
	for _, c := range counts {
		if err := db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	if stats.TotalEvents > 0 {
		var oldest, newest sql.NullString
		if err := db.QueryRow("SELECT MIN(timestamp), MAX(timestamp) FROM events").Scan(&oldest, &newest); err != nil {
			return nil, err
		}
		var err error
		if stats.OldestEvent, err = parseNullTime(oldest); err != nil {
			return nil, err
		}
		if stats.NewestEvent, err = parseNullTime(newest); err != nil {
			return nil, err
		}

		var busiest sql.NullString
		err = db.QueryRow(`
			SELECT p.name, COUNT(*) as count
			FROM events e
			JOIN sources s ON s.id = e.source_id
			JOIN projects p ON p.id = s.project_id
			GROUP BY p.id
			ORDER BY count DESC
			LIMIT 1
		`).Scan(&busiest, &stats.BusiestProjectEvents)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
		stats.BusiestProject = busiest.String
	}

	var lastSync sql.NullString
	if err := db.QueryRow("SELECT MAX(last_sync) FROM sources").Scan(&lastSync); err != nil {
		return nil, err
	}
	var err error
	if stats.LastSync, err = parseNullTime(lastSync); err != nil {
		return nil, err
	}

	return stats, nil
}
