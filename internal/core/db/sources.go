package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

const sourceColumns = `id, project_id, type, base_url, api_key, auth, enabled, last_sync`

func scanSource(row rowScanner) (*models.Source, error) {
	var (
		s        models.Source
		typ      string
		auth     string
		lastSync sql.NullString
	)
	if err := row.Scan(&s.ID, &s.ProjectID, &typ, &s.BaseURL, &s.APIKey, &auth, &s.Enabled, &lastSync); err != nil {
		return nil, err
	}
	s.Type = models.SourceType(typ)
	if auth != "" {
		if err := json.Unmarshal([]byte(auth), &s.Auth); err != nil {
			return nil, fmt.Errorf("source %d auth: %w", s.ID, err)
		}
	}
	var err error
	if s.LastSync, err = parseNullTime(lastSync); err != nil {
		return nil, fmt.Errorf("source %d last_sync: %w", s.ID, err)
	}
	return &s, nil
}

func encodeAuth(auth map[string]string) (string, error) {
	if len(auth) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(auth)
	return string(b), err
}

// CreateSource inserts s and sets its ID
func (db *DB) CreateSource(s *models.Source) error {
	if _, err := models.ParseSourceType(string(s.Type)); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	auth, err := encodeAuth(s.Auth)
	if err != nil {
		return err
	}
	res, err := db.conn.Exec(`
		INSERT INTO sources (project_id, type, base_url, api_key, auth, enabled, last_sync)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ProjectID, string(s.Type), s.BaseURL, s.APIKey, auth, s.Enabled, nullTime(s.LastSync))
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	s.ID, err = res.LastInsertId()
	return err
}

// GetSource loads a source by ID
func (db *DB) GetSource(id int64) (*models.Source, error) {
	s, err := scanSource(db.conn.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("source %d: %w", id, apperrors.ErrNotFound)
	}
	return s, err
}

// ListSources returns sources for a project, or every source when projectID is 0
func (db *DB) ListSources(projectID int64) ([]models.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources`
	var args []interface{}
	if projectID != 0 {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY project_id, id`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []models.Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *s)
	}
	return sources, rows.Err()
}

// SetSourceEnabled toggles whether a source's events take part in grouping
func (db *DB) SetSourceEnabled(id int64, enabled bool) error {
	res, err := db.conn.Exec(`UPDATE sources SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("source %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// UpdateSourceAuth replaces a source's adapter settings
func (db *DB) UpdateSourceAuth(id int64, auth map[string]string) error {
	encoded, err := encodeAuth(auth)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`UPDATE sources SET auth = ? WHERE id = ?`, encoded, id)
	return err
}

// DeleteSource removes a source and its events
func (db *DB) DeleteSource(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("source %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// SyncRecord is one row of the sync log
type SyncRecord struct {
	ID         int64
	RunID      string
	SourceID   int64
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Inserted   int
	Status     string
	Error      string
}

// RecordSync appends a finished sync to the log
func (db *DB) RecordSync(r *SyncRecord) error {
	res, err := db.conn.Exec(`
		INSERT INTO sync_log (run_id, source_id, started_at, finished_at, fetched, inserted, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.SourceID, formatTime(r.StartedAt), nullTime(r.FinishedAt), r.Fetched, r.Inserted, r.Status, nullString(r.Error))
	if err != nil {
		return fmt.Errorf("record sync: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

// RecentSyncs returns the latest sync log rows, newest first. sourceID 0 means all sources.
func (db *DB) RecentSyncs(sourceID int64, limit int) ([]SyncRecord, error) {
	query := `
		SELECT id, run_id, source_id, started_at, finished_at, fetched, inserted,
			COALESCE(status, ''), COALESCE(error_message, '')
		FROM sync_log`
	var args []interface{}
	if sourceID != 0 {
		query += ` WHERE source_id = ?`
		args = append(args, sourceID)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SyncRecord
	for rows.Next() {
		var (
			r        SyncRecord
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.SourceID, &started, &finished, &r.Fetched, &r.Inserted, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if r.FinishedAt, err = parseNullTime(finished); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
