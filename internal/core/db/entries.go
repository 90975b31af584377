package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

// UpsertTimeEntry inserts e, or updates the row already holding e.ExternalID.
// An external id bound to a different project is a conflict.
func (db *DB) UpsertTimeEntry(e *models.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	secs := storedSeconds(e.Duration)

	if e.ExternalID != "" {
		var id, projectID int64
		err := tx.QueryRow(`SELECT id, project_id FROM time_entries WHERE external_id = ?`, e.ExternalID).Scan(&id, &projectID)
		switch {
		case err == nil:
			if projectID != e.ProjectID {
				return fmt.Errorf("%w: external id %s belongs to project %d, not %d",
					apperrors.ErrConflict, e.ExternalID, projectID, e.ProjectID)
			}
			if _, err := tx.Exec(`
				UPDATE time_entries SET date = ?, duration_seconds = ?, notes = ?, billable = ?
				WHERE id = ?
			`, e.Date.String(), secs, e.Notes, e.Billable, id); err != nil {
				return fmt.Errorf("update time entry: %w", err)
			}
			e.ID = id
			return tx.Commit()
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
	}

	if e.ID != 0 {
		res, err := tx.Exec(`
			UPDATE time_entries SET date = ?, duration_seconds = ?, notes = ?, billable = ?, external_id = ?
			WHERE id = ? AND project_id = ?
		`, e.Date.String(), secs, e.Notes, e.Billable, nullString(e.ExternalID), e.ID, e.ProjectID)
		if err != nil {
			return fmt.Errorf("update time entry: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("time entry %d: %w", e.ID, apperrors.ErrNotFound)
		}
		return tx.Commit()
	}

	res, err := tx.Exec(`
		INSERT INTO time_entries (project_id, date, duration_seconds, notes, billable, external_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ProjectID, e.Date.String(), secs, e.Notes, e.Billable, nullString(e.ExternalID))
	if err != nil {
		return fmt.Errorf("insert time entry: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return tx.Commit()
}

// ListTimeEntries returns a project's entries dated in [from, to), newest date
// first. Zero bounds are open; projectID 0 means every project.
func (db *DB) ListTimeEntries(projectID int64, from, to models.Date) ([]models.TimeEntry, error) {
	var (
		where []string
		args  []interface{}
	)
	if projectID != 0 {
		where = append(where, "project_id = ?")
		args = append(args, projectID)
	}
	if !from.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, from.String())
	}
	if !to.IsZero() {
		where = append(where, "date < ?")
		args = append(args, to.String())
	}

	query := `SELECT id, project_id, date, duration_seconds, notes, billable, COALESCE(external_id, '') FROM time_entries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date DESC, id`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TimeEntry
	for rows.Next() {
		var (
			e       models.TimeEntry
			seconds int64
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Date, &seconds, &e.Notes, &e.Billable, &e.ExternalID); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(seconds) * time.Second
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteTimeEntry removes an entry by ID
func (db *DB) DeleteTimeEntry(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("time entry %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
