package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/database"
	"github.com/MrJamesThe3rd/ledgersync/internal/history"
)

// fingerprintBatch bounds the IN list of a single lookup query.
const fingerprintBatch = 500

const schema = `
CREATE TABLE IF NOT EXISTS import_runs (
	id TEXT PRIMARY KEY,
	destination TEXT NOT NULL,
	dry_run BOOLEAN NOT NULL,
	status TEXT NOT NULL,
	loaded INTEGER NOT NULL,
	imported INTEGER NOT NULL,
	transfers INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	error TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_import_runs_started ON import_runs(started_at);

CREATE TABLE IF NOT EXISTS submitted_transactions (
	run_id TEXT NOT NULL REFERENCES import_runs(id),
	position INTEGER NOT NULL,
	fingerprint TEXT NOT NULL,
	date TIMESTAMP NOT NULL,
	amount TEXT NOT NULL,
	description TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_submitted_fingerprint ON submitted_transactions(fingerprint);
`

var placeholder = regexp.MustCompile(`\$\d+`)

type Store struct {
	db     *sql.DB
	driver string
}

func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Migrate creates the history tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}

		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating history: %w", err)
		}
	}

	return nil
}

// rebind turns $n placeholders into ? for sqlite. Queries use every
// placeholder once and in order.
func (s *Store) rebind(query string) string {
	if s.driver != database.SQLite {
		return query
	}

	return placeholder.ReplaceAllString(query, "?")
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, destination, dry_run, status, loaded, imported, transfers, skipped, error, started_at, finished_at
func scanRun(s scanner) (*history.Run, error) {
	var run history.Run

	var status string

	if err := s.Scan(
		&run.ID, &run.Destination, &run.DryRun, &status,
		&run.Loaded, &run.Imported, &run.Transfers, &run.Skipped, &run.Error,
		&run.StartedAt, &run.FinishedAt,
	); err != nil {
		return nil, err
	}

	run.Status = history.Status(status)
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()

	return &run, nil
}

const selectRunColumns = `
	id, destination, dry_run, status, loaded, imported, transfers, skipped, error, started_at, finished_at
`

func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*history.Run, error) {
	query := `SELECT ` + selectRunColumns + ` FROM import_runs WHERE id = $1`

	run, err := scanRun(s.db.QueryRowContext(ctx, s.rebind(query), id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, history.ErrNotFound
		}

		return nil, fmt.Errorf("getting run: %w", err)
	}

	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, filter history.ListFilter) ([]*history.Run, error) {
	query := `SELECT ` + selectRunColumns + ` FROM import_runs WHERE 1 = 1`

	var args []any

	argIdx := 1

	if filter.Destination != "" {
		query += fmt.Sprintf(" AND destination = $%d", argIdx)

		args = append(args, filter.Destination)
		argIdx++
	}

	query += " ORDER BY started_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*history.Run

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run rows: %w", err)
	}

	return runs, nil
}

// FindSubmitted counts how many times each of fingerprints was submitted by
// a successful run. Fingerprints never submitted are absent from the result.
func (s *Store) FindSubmitted(ctx context.Context, fingerprints []string) (map[string]int, error) {
	found := make(map[string]int)

	unique := slices.Clone(fingerprints)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	for start := 0; start < len(unique); start += fingerprintBatch {
		batch := unique[start:min(start+fingerprintBatch, len(unique))]

		marks := make([]string, len(batch))
		args := make([]any, 0, len(batch)+1)
		args = append(args, string(history.StatusSubmitted))

		for i, f := range batch {
			marks[i] = fmt.Sprintf("$%d", i+2)
			args = append(args, f)
		}

		query := `
			SELECT s.fingerprint, COUNT(*)
			FROM submitted_transactions s
			JOIN import_runs r ON r.id = s.run_id
			WHERE r.status = $1 AND s.fingerprint IN (` + strings.Join(marks, ", ") + `)
			GROUP BY s.fingerprint`

		rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
		if err != nil {
			return nil, fmt.Errorf("finding submitted: %w", err)
		}

		for rows.Next() {
			var (
				f string
				n int
			)

			if err := rows.Scan(&f, &n); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning fingerprint: %w", err)
			}

			found[f] = n
		}

		err = rows.Err()
		rows.Close()

		if err != nil {
			return nil, fmt.Errorf("iterating fingerprint rows: %w", err)
		}
	}

	return found, nil
}

func recordLockKey(destination string) int64 {
	h := fnv.New64a()
	h.Write([]byte("ledgersync-history"))
	h.Write([]byte{0})
	h.Write([]byte(destination))

	return int64(h.Sum64())
}

type recordTx struct {
	tx    *sql.Tx
	store *Store
}

// BeginRecord opens a transaction. On postgres it also takes an advisory
// lock so concurrent runs against one destination record one at a time.
func (s *Store) BeginRecord(ctx context.Context, destination string) (history.RecordTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning record tx: %w", err)
	}

	if s.driver == database.Postgres {
		if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", recordLockKey(destination)); err != nil {
			dbTx.Rollback()
			return nil, fmt.Errorf("acquiring record lock: %w", err)
		}
	}

	return &recordTx{tx: dbTx, store: s}, nil
}

func (rtx *recordTx) Commit() error   { return rtx.tx.Commit() }
func (rtx *recordTx) Rollback() error { return rtx.tx.Rollback() }

func (rtx *recordTx) CreateRun(ctx context.Context, run *history.Run) error {
	query := `
		INSERT INTO import_runs (id, destination, dry_run, status, loaded, imported, transfers, skipped, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := rtx.tx.ExecContext(ctx, rtx.store.rebind(query),
		run.ID.String(),
		run.Destination,
		run.DryRun,
		string(run.Status),
		run.Loaded,
		run.Imported,
		run.Transfers,
		run.Skipped,
		run.Error,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}

	return nil
}

func (rtx *recordTx) CreateSubmissions(ctx context.Context, runID uuid.UUID, subs []history.Submission) error {
	query := rtx.store.rebind(`
		INSERT INTO submitted_transactions (run_id, position, fingerprint, date, amount, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)

	stmt, err := rtx.tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing submission insert: %w", err)
	}
	defer stmt.Close()

	for i, sub := range subs {
		if _, err := stmt.ExecContext(ctx, runID.String(), i, sub.Fingerprint, sub.Date.UTC().Truncate(time.Second), sub.Amount, sub.Description); err != nil {
			return fmt.Errorf("creating submission: %w", err)
		}
	}

	return nil
}
