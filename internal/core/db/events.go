package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func upsertEvent(ex execer, e *models.Event, importedAt time.Time) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	res, err := ex.Exec(`
		INSERT INTO events (source_id, timestamp, text, imported_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(timestamp, source_id, text) DO NOTHING
	`, e.SourceID, formatTime(e.Timestamp), e.Text, formatTime(importedAt))
	if err != nil {
		return false, fmt.Errorf("upsert event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		e.ID, _ = res.LastInsertId()
	}
	return n > 0, nil
}

// UpsertEvent stores e unless an identical (timestamp, source, text) event exists.
// It reports whether a new row was written.
func (db *DB) UpsertEvent(e *models.Event) (bool, error) {
	return upsertEvent(db.conn, e, time.Now())
}

// UpsertEvents stores events in one transaction and returns how many were new
func (db *DB) UpsertEvents(events []models.Event) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := upsertEventsTx(tx, events)
	if err != nil {
		return 0, err
	}
	return inserted, tx.Commit()
}

func upsertEventsTx(tx *sql.Tx, events []models.Event) (int, error) {
	now := time.Now()
	inserted := 0
	for i := range events {
		ok, err := upsertEvent(tx, &events[i], now)
		if err != nil {
			return 0, fmt.Errorf("event %d: %w", i, err)
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// SaveSync stores a source's fetched events and advances its last_sync
// in a single transaction. Nothing is written if any event fails.
func (db *DB) SaveSync(sourceID int64, events []models.Event, syncedAt time.Time) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range events {
		events[i].SourceID = sourceID
	}
	inserted, err := upsertEventsTx(tx, events)
	if err != nil {
		return 0, err
	}

	res, err := tx.Exec(`UPDATE sources SET last_sync = ? WHERE id = ?`, formatTime(syncedAt), sourceID)
	if err != nil {
		return 0, fmt.Errorf("update last_sync: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("source %d: %w", sourceID, apperrors.ErrNotFound)
	}

	return inserted, tx.Commit()
}

// ListEvents returns events of a project's enabled sources within r, ordered by
// timestamp then id. A non-empty sourceIDs narrows the set further.
func (db *DB) ListEvents(projectID int64, sourceIDs []int64, r models.TimeRange) ([]models.Event, error) {
	var (
		where = []string{"s.project_id = ?", "s.enabled = 1"}
		args  = []interface{}{projectID}
	)
	if len(sourceIDs) > 0 {
		where = append(where, "e.source_id IN ("+placeholders(len(sourceIDs))+")")
		for _, id := range sourceIDs {
			args = append(args, id)
		}
	}
	if !r.From.IsZero() {
		where = append(where, "e.timestamp >= ?")
		args = append(args, formatTime(r.From))
	}
	if !r.To.IsZero() {
		where = append(where, "e.timestamp < ?")
		args = append(args, formatTime(r.To))
	}

	rows, err := db.conn.Query(`
		SELECT e.id, e.timestamp, e.source_id, s.type, s.project_id, e.text
		FROM events e
		JOIN sources s ON s.id = e.source_id
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY e.timestamp, e.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			e   models.Event
			ts  string
			typ string
		)
		if err := rows.Scan(&e.ID, &ts, &e.SourceID, &typ, &e.ProjectID, &e.Text); err != nil {
			return nil, err
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("event %d timestamp: %w", e.ID, err)
		}
		e.SourceType = models.SourceType(typ)
		events = append(events, e)
	}
	return events, rows.Err()
}

// BlockEvents returns the events that fall inside a block's [start, end]
func (db *DB) BlockEvents(b *models.EventBlock) ([]models.Event, error) {
	return db.ListEvents(b.ProjectID, nil, models.TimeRange{From: b.Start, To: b.End.Add(time.Nanosecond)})
}

// LatestEventTime returns the newest event timestamp for a source, or zero
func (db *DB) LatestEventTime(sourceID int64) (time.Time, error) {
	var ts sql.NullString
	if err := db.conn.QueryRow(`SELECT MAX(timestamp) FROM events WHERE source_id = ?`, sourceID).Scan(&ts); err != nil {
		return time.Time{}, err
	}
	return parseNullTime(ts)
}
