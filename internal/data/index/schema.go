package index

import (
	"database/sql"
	"fmt"
)

const SchemaVersion = 1

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS units (
  path TEXT NOT NULL PRIMARY KEY,
  scan_id TEXT NOT NULL,
  scanned_at_utc TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS refs (
  unit_path TEXT NOT NULL,
  element TEXT NOT NULL,
  qualifier TEXT NOT NULL DEFAULT '',
  FOREIGN KEY (unit_path) REFERENCES units(path) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_refs_element ON refs(element);
CREATE INDEX IF NOT EXISTS idx_refs_qualifier ON refs(qualifier);
CREATE INDEX IF NOT EXISTS idx_refs_unit ON refs(unit_path);

CREATE TABLE IF NOT EXISTS class_defs (
  unit_path TEXT NOT NULL,
  name TEXT NOT NULL,
  FOREIGN KEY (unit_path) REFERENCES units(path) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_class_defs_name ON class_defs(name);
CREATE INDEX IF NOT EXISTS idx_class_defs_unit ON class_defs(unit_path);

CREATE TABLE IF NOT EXISTS class_supers (
  class_name TEXT NOT NULL,
  position INTEGER NOT NULL,
  super TEXT NOT NULL,
  PRIMARY KEY (class_name, position)
);
CREATE INDEX IF NOT EXISTS idx_class_supers_super ON class_supers(super);

CREATE TABLE IF NOT EXISTS member_defs (
  unit_path TEXT NOT NULL,
  class_name TEXT NOT NULL,
  name TEXT NOT NULL,
  value_type TEXT NOT NULL DEFAULT '',
  is_static INTEGER NOT NULL DEFAULT 0,
  FOREIGN KEY (unit_path) REFERENCES units(path) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_member_defs_name ON member_defs(name);
CREATE INDEX IF NOT EXISTS idx_member_defs_unit ON member_defs(unit_path);
`,
	},
}

func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
