// Package index persists per-unit reference and declaration facts in sqlite
// and answers the two queries incremental rebuilds need: which units mention
// a symbol, and what a class's recorded supertypes are.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"backrefs/internal/engine/facts"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("index path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("index path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts while the writer loop and
	// impact queries overlap in watch mode.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite index %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite index %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// ReplaceUnit atomically swaps one unit's facts: every previously recorded
// row for the path is removed before the new fact set goes in, so a rescan
// never leaves stale references behind.
func (s *Store) ReplaceUnit(ctx context.Context, uf facts.UnitFacts) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unit := strings.TrimSpace(uf.Unit)
	if unit == "" {
		return fmt.Errorf("unit path must not be empty")
	}

	scanID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	return s.withRetry("replace unit", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		if err := deleteUnitTx(tx, unit); err != nil {
			_ = tx.Rollback()
			return err
		}

		if _, err := tx.Exec(
			`INSERT INTO units (path, scan_id, scanned_at_utc) VALUES (?, ?, ?)`,
			unit, scanID, now,
		); err != nil {
			_ = tx.Rollback()
			return err
		}

		for _, r := range uf.Refs {
			if _, err := tx.Exec(
				`INSERT INTO refs (unit_path, element, qualifier) VALUES (?, ?, ?)`,
				unit, r.Element, r.Qualifier,
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		for _, c := range uf.Classes {
			if _, err := tx.Exec(
				`INSERT INTO class_defs (unit_path, name) VALUES (?, ?)`,
				unit, c.Name,
			); err != nil {
				_ = tx.Rollback()
				return err
			}
			for i, super := range c.Supers {
				if _, err := tx.Exec(
					`INSERT OR REPLACE INTO class_supers (class_name, position, super) VALUES (?, ?, ?)`,
					c.Name, i, super,
				); err != nil {
					_ = tx.Rollback()
					return err
				}
			}
		}
		for _, m := range uf.Members {
			static := 0
			if m.Static {
				static = 1
			}
			if _, err := tx.Exec(
				`INSERT INTO member_defs (unit_path, class_name, name, value_type, is_static) VALUES (?, ?, ?, ?, ?)`,
				unit, m.Class, m.Name, m.ValueType, static,
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}

		return tx.Commit()
	})
}

// DeleteUnit removes all facts recorded for a path, for deleted source files.
func (s *Store) DeleteUnit(ctx context.Context, unit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("delete unit", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := deleteUnitTx(tx, unit); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// deleteUnitTx removes every row keyed to the unit, including its units row,
// so ReplaceUnit can re-insert the path on a rescan.
func deleteUnitTx(tx *sql.Tx, unit string) error {
	// class_supers is keyed by class name, so clear the rows of the classes
	// this unit declared before the cascade drops the class rows.
	if _, err := tx.Exec(`
DELETE FROM class_supers WHERE class_name IN (SELECT name FROM class_defs WHERE unit_path = ?)
`, unit); err != nil {
		return err
	}
	for _, stmt := range []string{
		`DELETE FROM refs WHERE unit_path = ?`,
		`DELETE FROM class_defs WHERE unit_path = ?`,
		`DELETE FROM member_defs WHERE unit_path = ?`,
		`DELETE FROM units WHERE path = ?`,
	} {
		if _, err := tx.Exec(stmt, unit); err != nil {
			return err
		}
	}
	return nil
}

// UnitsReferencing returns the distinct unit paths that depend on the
// qualified name: a recorded reference (directly or as a qualifier owner), or
// a declared class listing it as a direct supertype.
func (s *Store) UnitsReferencing(ctx context.Context, qname string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("units referencing", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT DISTINCT unit_path FROM (
    SELECT unit_path FROM refs WHERE element = ? OR qualifier = ?
    UNION
    SELECT cd.unit_path
    FROM class_supers cs
    JOIN class_defs cd ON cd.name = cs.class_name
    WHERE cs.super = ?
) ORDER BY unit_path ASC
`, qname, qname, qname)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan referencing unit: %w", err)
		}
		out = append(out, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referencing units: %w", err)
	}
	return out, nil
}

// Supers returns a class's recorded direct supertypes in declaration order,
// superclass last.
func (s *Store) Supers(ctx context.Context, className string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("class supers", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT super FROM class_supers WHERE class_name = ? ORDER BY position ASC
`, className)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var super string
		if err := rows.Scan(&super); err != nil {
			return nil, fmt.Errorf("scan super row: %w", err)
		}
		out = append(out, super)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate super rows: %w", err)
	}
	return out, nil
}

// UnitFacts loads everything recorded for one unit path.
func (s *Store) UnitFacts(ctx context.Context, unit string) (facts.UnitFacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := facts.UnitFacts{Unit: unit}

	err := s.withRetry("load unit facts", func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT element, qualifier FROM refs WHERE unit_path = ? ORDER BY rowid ASC`, unit)
		if err != nil {
			return err
		}
		defer rows.Close()
		out.Refs = out.Refs[:0]
		for rows.Next() {
			var r facts.RefRecord
			if err := rows.Scan(&r.Element, &r.Qualifier); err != nil {
				return err
			}
			out.Refs = append(out.Refs, r)
		}
		return rows.Err()
	})
	if err != nil {
		return facts.UnitFacts{}, err
	}

	err = s.withRetry("load unit classes", func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT name FROM class_defs WHERE unit_path = ? ORDER BY rowid ASC`, unit)
		if err != nil {
			return err
		}
		defer rows.Close()
		out.Classes = out.Classes[:0]
		for rows.Next() {
			var c facts.ClassRecord
			if err := rows.Scan(&c.Name); err != nil {
				return err
			}
			out.Classes = append(out.Classes, c)
		}
		return rows.Err()
	})
	if err != nil {
		return facts.UnitFacts{}, err
	}
	for i := range out.Classes {
		rows, err := s.db.QueryContext(ctx,
			`SELECT super FROM class_supers WHERE class_name = ? ORDER BY position ASC`, out.Classes[i].Name)
		if err != nil {
			return facts.UnitFacts{}, err
		}
		for rows.Next() {
			var super string
			if err := rows.Scan(&super); err != nil {
				rows.Close()
				return facts.UnitFacts{}, err
			}
			out.Classes[i].Supers = append(out.Classes[i].Supers, super)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return facts.UnitFacts{}, err
		}
		rows.Close()
	}

	err = s.withRetry("load unit members", func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT class_name, name, value_type, is_static FROM member_defs WHERE unit_path = ? ORDER BY rowid ASC`, unit)
		if err != nil {
			return err
		}
		defer rows.Close()
		out.Members = out.Members[:0]
		for rows.Next() {
			var (
				m      facts.MemberRecord
				static int
			)
			if err := rows.Scan(&m.Class, &m.Name, &m.ValueType, &static); err != nil {
				return err
			}
			m.Static = static != 0
			out.Members = append(out.Members, m)
		}
		return rows.Err()
	})
	if err != nil {
		return facts.UnitFacts{}, err
	}

	return out, nil
}

// Counts reports table sizes for gauges and summaries.
func (s *Store) Counts(ctx context.Context) (units, refs, classes int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.withRetry("count rows", func() error {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM units`).Scan(&units); err != nil {
			return err
		}
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM refs`).Scan(&refs); err != nil {
			return err
		}
		return s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM class_defs`).Scan(&classes)
	})
	return units, refs, classes, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
