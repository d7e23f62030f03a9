// Package migrate applies SQL migration and seed files in lexical order,
// recording applied files so reruns are idempotent.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	migrationsTable = "schema_migrations"
	seedsTable      = "schema_seeds"
)

// Manager executes SQL migration and seed files stored on disk.
type Manager struct {
	db            *sql.DB
	migrationsDir string
	seedsDir      string
}

// NewManager constructs a Manager. seedsDir may be empty.
func NewManager(db *sql.DB, migrationsDir, seedsDir string) *Manager {
	return &Manager{db: db, migrationsDir: migrationsDir, seedsDir: seedsDir}
}

// Up applies all pending migrations.
func (m *Manager) Up(ctx context.Context) error {
	return m.apply(ctx, migrationsTable, m.migrationsDir, ".sql")
}

// Seed applies seed files idempotently.
func (m *Manager) Seed(ctx context.Context) error {
	return m.apply(ctx, seedsTable, m.seedsDir, ".sql")
}

// Status returns applied migrations in application order.
func (m *Manager) Status(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx, migrationsTable); err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`select name from %s order by applied_at`, migrationsTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (m *Manager) apply(ctx context.Context, table, dir, suffix string) error {
	if dir == "" {
		return nil
	}
	if err := m.ensureTable(ctx, table); err != nil {
		return err
	}
	applied, err := m.appliedSet(ctx, table)
	if err != nil {
		return err
	}
	files, err := listSQL(dir, suffix)
	if err != nil {
		return err
	}
	for _, name := range files {
		if applied[name] {
			continue
		}
		if err := m.execFile(ctx, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := m.db.ExecContext(ctx,
			fmt.Sprintf(`insert into %s(name, applied_at) values ($1, $2)`, table),
			name, time.Now().UTC()); err != nil {
			return err
		}
	}
	return nil
}

// execFile runs a whole file inside one transaction so a failing migration
// leaves no partial schema behind.
func (m *Manager) execFile(ctx context.Context, path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(body)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (m *Manager) ensureTable(ctx context.Context, table string) error {
	_, err := m.db.ExecContext(ctx, fmt.Sprintf(`
		create table if not exists %s (
			name text primary key,
			applied_at timestamptz not null default now()
		)`, table))
	return err
}

func (m *Manager) appliedSet(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`select name from %s`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	applied := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func listSQL(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// splitStatements splits on semicolons outside single-quoted strings. Good
// enough for the DDL in this repo; no dollar-quoted bodies.
func splitStatements(body string) []string {
	var (
		stmts    []string
		current  strings.Builder
		inString bool
	)
	for _, r := range body {
		current.WriteRune(r)
		switch r {
		case '\'':
			inString = !inString
		case ';':
			if !inString {
				stmts = append(stmts, current.String())
				current.Reset()
			}
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		stmts = append(stmts, current.String())
	}
	return stmts
}
