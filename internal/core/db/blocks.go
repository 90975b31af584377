package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

// RegroupResult counts what a regroup changed
type RegroupResult struct {
	BlocksKept     int
	BlocksInserted int
	BlocksDeleted  int
	DaysKept       int
	DaysUpserted   int
	DaysDeleted    int
	// StaleExports are exported days whose duration or blocks changed, or
	// which disappeared. Their external entries need a forced re-export.
	StaleExports []models.Date
}

// SaveRegroup replaces a project's blocks and day summaries in one transaction.
// A block with unchanged (start, end) keeps its id, summary and exported flag;
// a day keeps its summary while its duration and block count are unchanged.
// Blocks are written back with their stored IDs.
func (db *DB) SaveRegroup(projectID int64, blocks []models.EventBlock, days []models.DaySummary) (*RegroupResult, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result := &RegroupResult{}
	if err := replaceBlocksTx(tx, projectID, blocks, result); err != nil {
		return nil, fmt.Errorf("replace blocks: %w", err)
	}
	if err := replaceDaysTx(tx, projectID, days, result); err != nil {
		return nil, fmt.Errorf("replace day summaries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

type blockKey struct{ start, end string }

func replaceBlocksTx(tx *sql.Tx, projectID int64, blocks []models.EventBlock, result *RegroupResult) error {
	rows, err := tx.Query(`
		SELECT id, start_time, end_time, COALESCE(summary, ''), exported
		FROM event_blocks WHERE project_id = ?
	`, projectID)
	if err != nil {
		return err
	}
	type stored struct {
		id       int64
		summary  string
		exported bool
	}
	existing := make(map[blockKey]stored)
	for rows.Next() {
		var (
			k blockKey
			s stored
		)
		if err := rows.Scan(&s.id, &k.start, &k.end, &s.summary, &s.exported); err != nil {
			rows.Close()
			return err
		}
		existing[k] = s
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	keep := make(map[int64]bool)
	for i := range blocks {
		b := &blocks[i]
		if b.End.Before(b.Start) {
			return fmt.Errorf("%w: block ends before it starts", apperrors.ErrInvalidInput)
		}
		b.ProjectID = projectID
		k := blockKey{formatTime(b.Start), formatTime(b.End)}
		if s, ok := existing[k]; ok {
			b.ID, b.Summary, b.Exported = s.id, s.summary, s.exported
			if _, err := tx.Exec(`UPDATE event_blocks SET event_count = ? WHERE id = ?`, b.EventCount, s.id); err != nil {
				return err
			}
			keep[s.id] = true
			result.BlocksKept++
			continue
		}

		res, err := tx.Exec(`
			INSERT INTO event_blocks (project_id, start_time, end_time, summary, exported, event_count)
			VALUES (?, ?, ?, ?, ?, ?)
		`, projectID, k.start, k.end, nullString(b.Summary), b.Exported, b.EventCount)
		if err != nil {
			return err
		}
		if b.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		keep[b.ID] = true
		result.BlocksInserted++
	}

	for _, s := range existing {
		if keep[s.id] {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM event_blocks WHERE id = ?`, s.id); err != nil {
			return err
		}
		result.BlocksDeleted++
	}
	return nil
}

const blockColumns = `id, project_id, start_time, end_time, COALESCE(summary, ''), exported, event_count`

func scanBlock(row rowScanner) (*models.EventBlock, error) {
	var (
		b          models.EventBlock
		start, end string
	)
	if err := row.Scan(&b.ID, &b.ProjectID, &start, &end, &b.Summary, &b.Exported, &b.EventCount); err != nil {
		return nil, err
	}
	var err error
	if b.Start, err = parseTime(start); err != nil {
		return nil, err
	}
	if b.End, err = parseTime(end); err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *DB) queryBlocks(query string, args ...interface{}) ([]models.EventBlock, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []models.EventBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

// ListBlocks returns a project's blocks starting within r, oldest first
func (db *DB) ListBlocks(projectID int64, r models.TimeRange) ([]models.EventBlock, error) {
	where := []string{"project_id = ?"}
	args := []interface{}{projectID}
	if !r.From.IsZero() {
		where = append(where, "start_time >= ?")
		args = append(args, formatTime(r.From))
	}
	if !r.To.IsZero() {
		where = append(where, "start_time < ?")
		args = append(args, formatTime(r.To))
	}
	return db.queryBlocks(`SELECT `+blockColumns+` FROM event_blocks WHERE `+
		strings.Join(where, " AND ")+` ORDER BY start_time, id`, args...)
}

// ListUnsummarizedBlocks returns blocks without summary text, oldest first.
// projectID 0 means every project; limit <= 0 means no limit.
func (db *DB) ListUnsummarizedBlocks(projectID int64, limit int) ([]models.EventBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM event_blocks WHERE (summary IS NULL OR summary = '')`
	var args []interface{}
	if projectID != 0 {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY start_time, id LIMIT ?`
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)
	return db.queryBlocks(query, args...)
}

// GetBlock loads a block by ID
func (db *DB) GetBlock(id int64) (*models.EventBlock, error) {
	b, err := scanBlock(db.conn.QueryRow(`SELECT `+blockColumns+` FROM event_blocks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("block %d: %w", id, apperrors.ErrNotFound)
	}
	return b, err
}

// SetBlockSummary stores generated summary text for a block
func (db *DB) SetBlockSummary(id int64, summary string) error {
	res, err := db.conn.Exec(`UPDATE event_blocks SET summary = ? WHERE id = ?`, summary, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("block %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// MarkBlockExported sets the exported flag. It reports false when the flag was already set.
func (db *DB) MarkBlockExported(id int64) (bool, error) {
	res, err := db.conn.Exec(`UPDATE event_blocks SET exported = 1 WHERE id = ? AND exported = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
