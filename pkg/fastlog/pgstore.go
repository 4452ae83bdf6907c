package fastlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed fast log store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const pgColumns = `id, date, fast_type, completed, notes`

// EnsureTable creates the fast_logs table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS fast_logs (
			id        BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			date      DATE NOT NULL,
			fast_type TEXT NOT NULL CHECK (fast_type IN ('RELIGIOUS', 'INTERMITTENT')),
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			notes     VARCHAR(1000)
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_fast_logs_date ON fast_logs(date DESC, id)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_fast_logs_type ON fast_logs(fast_type)`)
	return err
}

// Save inserts a new fast log or overwrites an existing one.
func (s *PgStore) Save(ctx context.Context, f *FastLog) (*FastLog, error) {
	if f.ID == nil {
		out, err := s.scanOne(ctx, `
			INSERT INTO fast_logs (date, fast_type, completed, notes)
			VALUES ($1, $2, $3, $4)
			RETURNING `+pgColumns,
			f.Date.Time(), string(f.FastType), f.Completed, f.Notes)
		if err != nil {
			return nil, fmt.Errorf("insert fast log: %w", err)
		}
		return out, nil
	}

	out, err := s.scanOne(ctx, `
		UPDATE fast_logs SET date = $1, fast_type = $2, completed = $3, notes = $4
		WHERE id = $5
		RETURNING `+pgColumns,
		f.Date.Time(), string(f.FastType), f.Completed, f.Notes, *f.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update fast log %d: %w", *f.ID, err)
	}
	return out, nil
}

// FindByID retrieves a single fast log, or nil when there is none.
func (s *PgStore) FindByID(ctx context.Context, id int64) (*FastLog, error) {
	f, err := s.scanOne(ctx, `SELECT `+pgColumns+` FROM fast_logs WHERE id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fast log %d: %w", id, err)
	}
	return f, nil
}

func (s *PgStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fast_logs WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("fast log %d exists: %w", id, err)
	}
	return ok, nil
}

func (s *PgStore) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM fast_logs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete fast log %d: %w", id, err)
	}
	return nil
}

// ListByDateDesc returns all fast logs, newest date first.
func (s *PgStore) ListByDateDesc(ctx context.Context) ([]FastLog, error) {
	return s.scanMany(ctx, `SELECT `+pgColumns+` FROM fast_logs ORDER BY date DESC, id ASC`)
}

func (s *PgStore) ByFastType(ctx context.Context, t FastType) ([]FastLog, error) {
	return s.scanMany(ctx, `SELECT `+pgColumns+` FROM fast_logs WHERE fast_type = $1 ORDER BY id`, string(t))
}

func (s *PgStore) ByCompleted(ctx context.Context, completed bool) ([]FastLog, error) {
	return s.scanMany(ctx, `SELECT `+pgColumns+` FROM fast_logs WHERE completed = $1 ORDER BY id`, completed)
}

func (s *PgStore) ByDateBetween(ctx context.Context, start, end Date) ([]FastLog, error) {
	return s.scanMany(ctx, `SELECT `+pgColumns+` FROM fast_logs WHERE date BETWEEN $1 AND $2 ORDER BY id`,
		start.Time(), end.Time())
}

// Count returns total fast log count.
func (s *PgStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fast_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count fast logs: %w", err)
	}
	return n, nil
}

// CompletedCount returns count of completed fast logs.
func (s *PgStore) CompletedCount(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fast_logs WHERE completed`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count completed fast logs: %w", err)
	}
	return n, nil
}

func (s *PgStore) scanOne(ctx context.Context, query string, args ...any) (*FastLog, error) {
	return scanFastLog(s.pool.QueryRow(ctx, query, args...))
}

func (s *PgStore) scanMany(ctx context.Context, query string, args ...any) ([]FastLog, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fast logs: %w", err)
	}
	defer rows.Close()
	return scanFastLogRows(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFastLog(row scanner) (*FastLog, error) {
	var (
		f        FastLog
		id       int64
		date     time.Time
		fastType string
	)
	if err := row.Scan(&id, &date, &fastType, &f.Completed, &f.Notes); err != nil {
		return nil, err
	}
	f.ID = &id
	f.Date = DateOf(date)
	f.FastType = FastType(fastType)
	return &f, nil
}

func scanFastLogRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]FastLog, error) {
	var logs []FastLog
	for rows.Next() {
		f, err := scanFastLog(rows)
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
