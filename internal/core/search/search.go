package search

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/db"
)

// Result is a single matching event
type Result struct {
	EventID     int64
	ProjectID   int64
	ProjectName string
	SourceType  string
	Timestamp   time.Time
	Snippet     string
}

// DefaultLimit caps results when the caller passes no limit
const DefaultLimit = 100

// Default sort order for search results (most recent first)
const defaultOrderBy = "e.timestamp DESC, e.id DESC"

// Search runs a full-text search over event text. Filters narrow by project
// name and timestamp. Queries containing characters FTS5 treats specially
// fall back to substring matching.
func Search(database *db.DB, f Filters, limit int) ([]Result, error) {
	query := strings.TrimSpace(f.Query)
	if query == "" {
		return nil, apperrors.Invalid("search query cannot be empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		where []string
		args  []interface{}
		from  string
		text  string
	)

	if strings.ContainsAny(query, "-_@#$%&/.") {
		from = "events e"
		text = "e.text"
		where = append(where, "e.text LIKE '%' || ? || '%'")
	} else {
		from = "events_fts JOIN events e ON events_fts.rowid = e.id"
		text = "snippet(events_fts, -1, '', '', '...', 32)"
		where = append(where, "events_fts MATCH ?")
	}
	args = append(args, query)

	if f.Project != "" {
		where = append(where, "p.name LIKE '%' || ? || '%'")
		args = append(args, f.Project)
	}
	if !f.After.IsZero() {
		where = append(where, "e.timestamp >= ?")
		args = append(args, db.FormatTime(f.After))
	}
	if !f.Before.IsZero() {
		where = append(where, "e.timestamp < ?")
		args = append(args, db.FormatTime(f.Before))
	}
	args = append(args, limit)

	rows, err := database.Query(fmt.Sprintf(`
		SELECT e.id, p.id, p.name, s.type, e.timestamp, %s
		FROM %s
		JOIN sources s ON s.id = e.source_id
		JOIN projects p ON p.id = s.project_id
		WHERE %s
		ORDER BY %s
		LIMIT ?
	`, text, from, strings.Join(where, " AND "), defaultOrderBy), args...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Result
	for rows.Next() {
		var (
			r  Result
			ts sql.NullString
		)
		if err := rows.Scan(&r.EventID, &r.ProjectID, &r.ProjectName, &r.SourceType, &ts, &r.Snippet); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if ts.Valid {
			if r.Timestamp, err = db.ParseTime(ts.String); err != nil {
				return nil, fmt.Errorf("event %d timestamp: %w", r.EventID, err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return results, nil
}
