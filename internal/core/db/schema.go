package db

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		external_id TEXT
	);

	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		client_id INTEGER,
		start_date TEXT,
		monthly_budget_seconds INTEGER,
		total_budget_seconds INTEGER,
		external_id TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		type TEXT NOT NULL CHECK(type IN ('github', 'csv', 'outlook', 'jira', 'slack', 'aws')),
		base_url TEXT NOT NULL DEFAULT '',
		api_key TEXT NOT NULL DEFAULT '',
		enabled BOOLEAN NOT NULL DEFAULT 1,
		last_sync TEXT,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sources_project_id ON sources(project_id);

	-- Events are immutable; resync upserts on (timestamp, source_id, text)
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		text TEXT NOT NULL,
		imported_at TEXT,
		UNIQUE (timestamp, source_id, text),
		FOREIGN KEY (source_id) REFERENCES sources(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_events_source_ts ON events(source_id, timestamp);

	-- Derived state, rebuilt by regroup
	CREATE TABLE IF NOT EXISTS event_blocks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		summary TEXT,
		exported BOOLEAN NOT NULL DEFAULT 0,
		event_count INTEGER NOT NULL DEFAULT 0,
		UNIQUE (project_id, start_time, end_time),
		CHECK (start_time <= end_time),
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_event_blocks_project_start ON event_blocks(project_id, start_time);

	CREATE TABLE IF NOT EXISTS day_summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		summary TEXT,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		block_count INTEGER NOT NULL DEFAULT 0,
		exported BOOLEAN NOT NULL DEFAULT 0,
		UNIQUE (project_id, date),
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL CHECK(duration_seconds >= 0),
		notes TEXT NOT NULL DEFAULT '',
		external_id TEXT UNIQUE,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_time_entries_project_date ON time_entries(project_id, date);

	CREATE TABLE IF NOT EXISTS sync_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		source_id INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		fetched INTEGER NOT NULL DEFAULT 0,
		inserted INTEGER NOT NULL DEFAULT 0,
		status TEXT CHECK(status IN ('success', 'failed')),
		error_message TEXT,
		FOREIGN KEY (source_id) REFERENCES sources(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sync_log_source ON sync_log(source_id, started_at);

	-- FTS5 over event text with porter stemming
	CREATE VIRTUAL TABLE IF NOT EXISTS events_fts USING fts5(
		text,
		content=events,
		content_rowid=id,
		tokenize='porter unicode61'
	);

	-- Triggers to keep FTS in sync
	CREATE TRIGGER IF NOT EXISTS events_ai AFTER INSERT ON events BEGIN
		INSERT INTO events_fts(rowid, text) VALUES (new.id, new.text);
	END;

	CREATE TRIGGER IF NOT EXISTS events_ad AFTER DELETE ON events BEGIN
		INSERT INTO events_fts(events_fts, rowid, text) VALUES ('delete', old.id, old.text);
	END;

	CREATE TRIGGER IF NOT EXISTS events_au AFTER UPDATE ON events BEGIN
		INSERT INTO events_fts(events_fts, rowid, text) VALUES ('delete', old.id, old.text);
		INSERT INTO events_fts(rowid, text) VALUES (new.id, new.text);
	END;
	`

	_, err := db.conn.Exec(schema)
	return err
}
