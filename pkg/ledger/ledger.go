// Copyright 2026 Subspace Registry Project
//
// Commitment Ledger - durable Postgres audit trail of every Commitment
// a guest run has produced, independent of and outlasting any single
// authority process's in-memory Store. Grounded on
// pkg/database/client.go's connection-pooling, embedded-migration and
// functional-options style, narrowed from that package's general
// proof-artifact repository down to this one append-only table.

package ledger

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/certen/subspace-registry/pkg/commitment"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ledger is a connection-pooled handle to the commitments audit table.
type Ledger struct {
	db     *sql.DB
	logger *log.Logger
}

// Option configures a Ledger at Open time.
type Option func(*Ledger)

// WithLogger overrides the default stdlib logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// Open connects to databaseURL with a pooled *sql.DB, verifying
// reachability with a ping before returning.
func Open(databaseURL string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration, opts ...Option) (*Ledger, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("ledger: database URL cannot be empty")
	}

	l := &Ledger{
		logger: log.New(log.Writer(), "[ledger] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(l)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if connMaxLifetime > 0 {
		db.SetConnMaxLifetime(connMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: ping database: %w", err)
	}

	l.db = db
	l.logger.Printf("connected to commitment ledger (max_open=%d, max_idle=%d)", maxOpenConns, maxIdleConns)
	return l, nil
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Ping verifies the connection is alive.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// Record is one row of the commitments audit table.
type Record struct {
	RunID       string
	Space       string
	InitialRoot string
	FinalRoot   string
	RecordedAt  time.Time
}

// RecordCommitment appends c to the audit table under runID, the
// identifier pkg/prover.Journal assigns to the proving run that
// produced it.
func (l *Ledger) RecordCommitment(ctx context.Context, runID string, c commitment.Commitment) error {
	const q = `INSERT INTO commitments (run_id, space, initial_root, final_root) VALUES ($1, $2, $3, $4)`
	_, err := l.db.ExecContext(ctx, q, runID, hexHash(c.Space), hexHash(c.InitialRoot), hexHash(c.FinalRoot))
	if err != nil {
		return fmt.Errorf("ledger: record commitment: %w", err)
	}
	return nil
}

// RecentCommitments returns up to limit commitments recorded for space,
// most recent first.
func (l *Ledger) RecentCommitments(ctx context.Context, space string, limit int) ([]Record, error) {
	const q = `
		SELECT run_id, space, initial_root, final_root, recorded_at
		FROM commitments
		WHERE space = $1
		ORDER BY recorded_at DESC
		LIMIT $2`

	rows, err := l.db.QueryContext(ctx, q, space, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: query recent commitments: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.RunID, &r.Space, &r.InitialRoot, &r.FinalRoot, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan commitment row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func hexHash(h [32]byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 64)
	for i, b := range h {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0x0f]
	}
	return string(out)
}

// MigrateUp applies every embedded migration that has not already been
// recorded in schema_migrations, in filename order.
func (l *Ledger) MigrateUp(ctx context.Context) error {
	migrations, err := l.loadMigrations()
	if err != nil {
		return fmt.Errorf("ledger: load migrations: %w", err)
	}

	applied, err := l.appliedMigrations(ctx)
	if err != nil {
		if !strings.Contains(err.Error(), "does not exist") {
			return fmt.Errorf("ledger: list applied migrations: %w", err)
		}
		applied = make(map[string]bool)
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := l.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("ledger: apply migration %s: %w", m.version, err)
		}
		l.logger.Printf("applied migration %s", m.version)
	}
	return nil
}

type migration struct {
	version string
	sql     string
}

func (l *Ledger) loadMigrations() ([]migration, error) {
	var out []migration
	err := fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		content, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		out = append(out, migration{
			version: strings.TrimSuffix(d.Name(), ".sql"),
			sql:     string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func (l *Ledger) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (l *Ledger) applyMigration(ctx context.Context, m migration) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	return tx.Commit()
}
