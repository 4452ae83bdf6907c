package fastlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a fast log store backed by a single SQLite file.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// NewSQLiteStore creates a SQLiteStore for the database file at path.
// Call Open before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Open creates the parent directory if needed and opens the database.
func (s *SQLiteStore) Open() error {
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const sqliteColumns = `id, date, fast_type, completed, notes`

// EnsureTable creates the fast_logs table if it doesn't exist.
func (s *SQLiteStore) EnsureTable(ctx context.Context) error {
	// AUTOINCREMENT keeps ids of deleted rows from being handed out again.
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fast_logs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			date      TEXT NOT NULL,
			fast_type TEXT NOT NULL CHECK (fast_type IN ('RELIGIOUS', 'INTERMITTENT')),
			completed INTEGER NOT NULL DEFAULT 0,
			notes     TEXT CHECK (notes IS NULL OR length(notes) <= 1000)
		)`)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_fast_logs_date ON fast_logs(date DESC, id)`)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_fast_logs_type ON fast_logs(fast_type)`)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, f *FastLog) (*FastLog, error) {
	if f.ID == nil {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO fast_logs (date, fast_type, completed, notes) VALUES (?, ?, ?, ?)`,
			f.Date.String(), string(f.FastType), f.Completed, f.Notes)
		if err != nil {
			return nil, fmt.Errorf("insert fast log: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert fast log: %w", err)
		}
		return s.mustFind(ctx, id)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE fast_logs SET date = ?, fast_type = ?, completed = ?, notes = ? WHERE id = ?`,
		f.Date.String(), string(f.FastType), f.Completed, f.Notes, *f.ID)
	if err != nil {
		return nil, fmt.Errorf("update fast log %d: %w", *f.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update fast log %d: %w", *f.ID, err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.mustFind(ctx, *f.ID)
}

func (s *SQLiteStore) mustFind(ctx context.Context, id int64) (*FastLog, error) {
	f, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *SQLiteStore) FindByID(ctx context.Context, id int64) (*FastLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM fast_logs WHERE id = ?`, id)
	f, err := scanSQLiteFastLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fast log %d: %w", id, err)
	}
	return f, nil
}

func (s *SQLiteStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fast_logs WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("fast log %d exists: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fast_logs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete fast log %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) ListByDateDesc(ctx context.Context) ([]FastLog, error) {
	return s.query(ctx, `SELECT `+sqliteColumns+` FROM fast_logs ORDER BY date DESC, id ASC`)
}

func (s *SQLiteStore) ByFastType(ctx context.Context, t FastType) ([]FastLog, error) {
	return s.query(ctx, `SELECT `+sqliteColumns+` FROM fast_logs WHERE fast_type = ? ORDER BY id`, string(t))
}

func (s *SQLiteStore) ByCompleted(ctx context.Context, completed bool) ([]FastLog, error) {
	return s.query(ctx, `SELECT `+sqliteColumns+` FROM fast_logs WHERE completed = ? ORDER BY id`, completed)
}

// ByDateBetween compares dates as text; YYYY-MM-DD sorts chronologically.
func (s *SQLiteStore) ByDateBetween(ctx context.Context, start, end Date) ([]FastLog, error) {
	return s.query(ctx, `SELECT `+sqliteColumns+` FROM fast_logs WHERE date BETWEEN ? AND ? ORDER BY id`,
		start.String(), end.String())
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fast_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count fast logs: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) CompletedCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fast_logs WHERE completed = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count completed fast logs: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]FastLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fast logs: %w", err)
	}
	defer rows.Close()

	var logs []FastLog
	for rows.Next() {
		f, err := scanSQLiteFastLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return logs, nil
}

func scanSQLiteFastLog(row scanner) (*FastLog, error) {
	var (
		f        FastLog
		id       int64
		date     string
		fastType string
		notes    sql.NullString
	)
	if err := row.Scan(&id, &date, &fastType, &f.Completed, &notes); err != nil {
		return nil, err
	}
	d, err := ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("fast log %d: %w", id, err)
	}
	f.ID = &id
	f.Date = d
	f.FastType = FastType(fastType)
	if notes.Valid {
		f.Notes = &notes.String
	}
	return &f, nil
}
