package db

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

func replaceDaysTx(tx *sql.Tx, projectID int64, days []models.DaySummary, result *RegroupResult) error {
	rows, err := tx.Query(`
		SELECT id, date, duration_seconds, block_count, exported
		FROM day_summaries WHERE project_id = ?
	`, projectID)
	if err != nil {
		return err
	}
	type stored struct {
		id       int64
		date     models.Date
		seconds  int64
		blocks   int
		exported bool
		retained bool
	}
	existing := make(map[string]*stored)
	for rows.Next() {
		var s stored
		if err := rows.Scan(&s.id, &s.date, &s.seconds, &s.blocks, &s.exported); err != nil {
			rows.Close()
			return err
		}
		existing[s.date.String()] = &s
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range days {
		d := &days[i]
		d.ProjectID = projectID
		key := d.Date.String()
		seconds := storedSeconds(d.Duration)

		if s, ok := existing[key]; ok {
			s.retained = true
			d.ID = s.id
			if s.seconds == seconds && s.blocks == d.BlockCount {
				result.DaysKept++
				continue
			}
			// the day's work changed, so its summary is stale
			if s.exported {
				result.StaleExports = append(result.StaleExports, d.Date)
			}
			if _, err := tx.Exec(`
				UPDATE day_summaries SET duration_seconds = ?, block_count = ?, summary = NULL
				WHERE id = ?
			`, seconds, d.BlockCount, s.id); err != nil {
				return err
			}
			d.Summary = ""
			result.DaysUpserted++
			continue
		}

		res, err := tx.Exec(`
			INSERT INTO day_summaries (project_id, date, summary, duration_seconds, block_count, exported)
			VALUES (?, ?, ?, ?, ?, ?)
		`, projectID, key, nullString(d.Summary), seconds, d.BlockCount, d.Exported)
		if err != nil {
			return err
		}
		if d.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		result.DaysUpserted++
	}

	for _, s := range existing {
		if s.retained {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM day_summaries WHERE id = ?`, s.id); err != nil {
			return err
		}
		if s.exported {
			result.StaleExports = append(result.StaleExports, s.date)
		}
		result.DaysDeleted++
	}
	sort.Slice(result.StaleExports, func(i, j int) bool {
		return result.StaleExports[i].Before(result.StaleExports[j])
	})
	return nil
}

const dayColumns = `id, project_id, date, COALESCE(summary, ''), duration_seconds, block_count, exported`

func scanDay(row rowScanner) (*models.DaySummary, error) {
	var (
		d       models.DaySummary
		seconds int64
	)
	if err := row.Scan(&d.ID, &d.ProjectID, &d.Date, &d.Summary, &seconds, &d.BlockCount, &d.Exported); err != nil {
		return nil, err
	}
	d.Duration = time.Duration(seconds) * time.Second
	return &d, nil
}

func (db *DB) queryDays(query string, args ...interface{}) ([]models.DaySummary, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []models.DaySummary
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, *d)
	}
	return days, rows.Err()
}

// ListDaySummaries returns a project's days in [from, to), oldest first. Zero bounds are open.
func (db *DB) ListDaySummaries(projectID int64, from, to models.Date) ([]models.DaySummary, error) {
	where := []string{"project_id = ?"}
	args := []interface{}{projectID}
	if !from.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, from.String())
	}
	if !to.IsZero() {
		where = append(where, "date < ?")
		args = append(args, to.String())
	}
	return db.queryDays(`SELECT `+dayColumns+` FROM day_summaries WHERE `+
		strings.Join(where, " AND ")+` ORDER BY date`, args...)
}

// GetDaySummary loads one project day
func (db *DB) GetDaySummary(projectID int64, date models.Date) (*models.DaySummary, error) {
	d, err := scanDay(db.conn.QueryRow(`SELECT `+dayColumns+` FROM day_summaries
		WHERE project_id = ? AND date = ?`, projectID, date.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("day %s of project %d: %w", date, projectID, apperrors.ErrNotFound)
	}
	return d, err
}

// ListUnsummarizedDays returns days lacking summary text, oldest first.
// projectID 0 means every project; limit <= 0 means no limit.
func (db *DB) ListUnsummarizedDays(projectID int64, limit int) ([]models.DaySummary, error) {
	query := `SELECT ` + dayColumns + ` FROM day_summaries WHERE (summary IS NULL OR summary = '')`
	var args []interface{}
	if projectID != 0 {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY date, id LIMIT ?`
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)
	return db.queryDays(query, args...)
}

// SetDaySummary stores generated summary text for a day
func (db *DB) SetDaySummary(id int64, summary string) error {
	res, err := db.conn.Exec(`UPDATE day_summaries SET summary = ? WHERE id = ?`, summary, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("day summary %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// MarkDayExported sets the exported flag. It reports false when the flag was already set.
func (db *DB) MarkDayExported(id int64) (bool, error) {
	res, err := db.conn.Exec(`UPDATE day_summaries SET exported = 1 WHERE id = ? AND exported = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
