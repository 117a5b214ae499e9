// Package store keeps a SQLite-backed history of evaluation runs.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/atikulmunna/logsift/internal/metrics"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("store: run not found")

// Run is one persisted evaluation.
type Run struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Source    string         `json:"source"`
	Policy    string         `json:"policy"`
	Labeler   string         `json:"labeler"`
	Rows      int            `json:"rows"`
	Report    metrics.Report `json:"report"`
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// migrateUp applies the embedded migrations. The migrate instance is not
// closed because that would close db.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	drv, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts run. Empty ID and zero CreatedAt are filled in and written
// back to run.
func (s *Store) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	r := run.Report
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, source, policy, labeler, row_count,
			tp, tn, fp, fn, accuracy, precision, recall, f1)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.CreatedAt.UnixNano(), run.Source, run.Policy, run.Labeler, run.Rows,
		r.Counts.TP, r.Counts.TN, r.Counts.FP, r.Counts.FN,
		r.Accuracy, r.Precision, r.Recall, r.F1)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

const selectRun = `
	SELECT id, created_at, source, policy, labeler, row_count,
		tp, tn, fp, fn, accuracy, precision, recall, f1
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run Run
		ts  int64
		r   = &run.Report
	)
	err := row.Scan(&run.ID, &ts, &run.Source, &run.Policy, &run.Labeler, &run.Rows,
		&r.Counts.TP, &r.Counts.TN, &r.Counts.FP, &r.Counts.FN,
		&r.Accuracy, &r.Precision, &r.Recall, &r.F1)
	if err != nil {
		return nil, err
	}
	run.CreatedAt = time.Unix(0, ts).UTC()
	return &run, nil
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := selectRun + ` ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}
