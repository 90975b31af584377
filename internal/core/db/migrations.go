package db

import (
	"fmt"
)

// runMigrations applies database migrations for existing databases
func (db *DB) runMigrations() error {
	// Migration 1: per-source adapter settings
	if err := db.migration001AddSourceAuth(); err != nil {
		return fmt.Errorf("migration 001: %w", err)
	}

	// Migration 2: billable flag on time entries
	if err := db.migration002AddBillable(); err != nil {
		return fmt.Errorf("migration 002: %w", err)
	}

	return nil
}

func (db *DB) hasColumn(table, column string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info(?)
		WHERE name = ?
	`, table, column).Scan(&n)
	return n > 0, err
}

// migration001AddSourceAuth adds the JSON auth column to sources
func (db *DB) migration001AddSourceAuth() error {
	has, err := db.hasColumn("sources", "auth")
	if err != nil || has {
		return err
	}
	_, err = db.conn.Exec(`ALTER TABLE sources ADD COLUMN auth TEXT NOT NULL DEFAULT '{}'`)
	return err
}

// migration002AddBillable adds time_entries.billable; existing rows count as billable
func (db *DB) migration002AddBillable() error {
	has, err := db.hasColumn("time_entries", "billable")
	if err != nil || has {
		return err
	}
	_, err = db.conn.Exec(`ALTER TABLE time_entries ADD COLUMN billable BOOLEAN NOT NULL DEFAULT 1`)
	return err
}
