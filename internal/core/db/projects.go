package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/models"
)

// CreateClient inserts a client, or returns the existing one with the same name
func (db *DB) CreateClient(c *models.Client) error {
	err := db.conn.QueryRow(`
		INSERT INTO clients (name, external_id) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			external_id = COALESCE(excluded.external_id, clients.external_id)
		RETURNING id
	`, c.Name, nullString(c.ExternalID)).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("upsert client %q: %w", c.Name, err)
	}
	return nil
}

// ListClients returns all clients ordered by name
func (db *DB) ListClients() ([]models.Client, error) {
	rows, err := db.conn.Query(`SELECT id, name, COALESCE(external_id, '') FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.ExternalID); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

const projectColumns = `id, name, description, client_id, start_date,
	monthly_budget_seconds, total_budget_seconds, COALESCE(external_id, ''), created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		p         models.Project
		clientID  sql.NullInt64
		startDate models.Date
		monthly   sql.NullInt64
		total     sql.NullInt64
		createdAt sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &clientID, &startDate,
		&monthly, &total, &p.ExternalID, &createdAt)
	if err != nil {
		return nil, err
	}
	p.ClientID = clientID.Int64
	if !startDate.IsZero() {
		p.StartDate = &startDate
	}
	p.MonthlyBudget = durationPtr(monthly)
	p.TotalBudget = durationPtr(total)
	if p.CreatedAt, err = parseNullTime(createdAt); err != nil {
		return nil, fmt.Errorf("project %d created_at: %w", p.ID, err)
	}
	return &p, nil
}

func nullDate(d *models.Date) interface{} {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func nullID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

// CreateProject inserts p and sets its ID
func (db *DB) CreateProject(p *models.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	res, err := db.conn.Exec(`
		INSERT INTO projects (name, description, client_id, start_date,
			monthly_budget_seconds, total_budget_seconds, external_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Name, p.Description, nullID(p.ClientID), nullDate(p.StartDate),
		nullSeconds(p.MonthlyBudget), nullSeconds(p.TotalBudget), nullString(p.ExternalID), formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert project %q: %w", p.Name, err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// UpdateProject writes every mutable field of p
func (db *DB) UpdateProject(p *models.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	res, err := db.conn.Exec(`
		UPDATE projects SET name = ?, description = ?, client_id = ?, start_date = ?,
			monthly_budget_seconds = ?, total_budget_seconds = ?, external_id = ?
		WHERE id = ?
	`, p.Name, p.Description, nullID(p.ClientID), nullDate(p.StartDate),
		nullSeconds(p.MonthlyBudget), nullSeconds(p.TotalBudget), nullString(p.ExternalID), p.ID)
	if err != nil {
		return fmt.Errorf("update project %d: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %d: %w", p.ID, apperrors.ErrNotFound)
	}
	return nil
}

// GetProject loads a project by ID
func (db *DB) GetProject(id int64) (*models.Project, error) {
	p, err := scanProject(db.conn.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, apperrors.ErrNotFound)
	}
	return p, err
}

// GetProjectByName loads a project by its unique name
func (db *DB) GetProjectByName(name string) (*models.Project, error) {
	p, err := scanProject(db.conn.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %q: %w", name, apperrors.ErrNotFound)
	}
	return p, err
}

// GetProjectByExternalID resolves a Harvest project id
func (db *DB) GetProjectByExternalID(externalID string) (*models.Project, error) {
	p, err := scanProject(db.conn.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE external_id = ?`, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project with external id %q: %w", externalID, apperrors.ErrNotFound)
	}
	return p, err
}

// ListProjects returns all projects ordered by name
func (db *DB) ListProjects() ([]models.Project, error) {
	rows, err := db.conn.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and, through cascades, everything derived from it
func (db *DB) DeleteProject(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
