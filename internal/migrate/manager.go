// Package migrate applies the embedded schema and seed files to Postgres and
// keeps a record of what ran.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"procura.io/internal/obs"
)

// ErrNothingApplied is returned by Down when no migration has run yet.
var ErrNothingApplied = errors.New("no migrations applied")

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Manager runs migrations and seeds read from file systems, usually the
// embedded ones of the store package.
type Manager struct {
	db         *sql.DB
	migrations fs.FS
	seeds      fs.FS
	tables     struct{ migrations, seeds string }
	now        func() time.Time
}

type Option func(*Manager)

// WithTables overrides the bookkeeping table names. Empty names keep the
// defaults.
func WithTables(migrations, seeds string) Option {
	return func(m *Manager) {
		if migrations != "" {
			m.tables.migrations = migrations
		}
		if seeds != "" {
			m.tables.seeds = seeds
		}
	}
}

// NewManager constructs a Manager. seeds may be nil.
func NewManager(db *sql.DB, migrations, seeds fs.FS, opts ...Option) *Manager {
	m := &Manager{
		db:         db,
		migrations: migrations,
		seeds:      seeds,
		now:        func() time.Time { return time.Now().UTC() },
	}
	m.tables.migrations = "schema_migrations"
	m.tables.seeds = "schema_seeds"
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Up applies every pending migration in name order.
func (m *Manager) Up(ctx context.Context) error {
	return m.applyPending(ctx, m.migrations, upSuffix, m.tables.migrations, "migration")
}

// Seed applies seed files that have not run yet.
func (m *Manager) Seed(ctx context.Context) error {
	return m.applyPending(ctx, m.seeds, ".sql", m.tables.seeds, "seed")
}

// Down reverts the most recently applied migration using its .down.sql twin.
func (m *Manager) Down(ctx context.Context) error {
	applied, err := m.Status(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return ErrNothingApplied
	}
	last := applied[len(applied)-1]
	down, err := m.findDown(last)
	if err != nil {
		return err
	}
	if err := m.runFile(ctx, m.migrations, down); err != nil {
		return fmt.Errorf("rollback migration %s: %w", last, err)
	}
	if _, err := m.db.ExecContext(ctx,
		fmt.Sprintf(`delete from %s where name = $1`, m.tables.migrations), last); err != nil {
		return err
	}
	obs.FromContext(ctx).Info("migration reverted", zap.String("name", last))
	return nil
}

// Status lists applied migrations, oldest first.
func (m *Manager) Status(ctx context.Context) ([]string, error) {
	if err := m.ensureTables(ctx); err != nil {
		return nil, err
	}
	return m.names(ctx, fmt.Sprintf(`select name from %s order by applied_at asc`, m.tables.migrations))
}

// Pending lists migrations that Up would apply, in order.
func (m *Manager) Pending(ctx context.Context) ([]string, error) {
	files, err := m.pending(ctx, m.migrations, upSuffix, m.tables.migrations)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.name)
	}
	return out, nil
}

type sqlFile struct {
	name string
	path string
}

func (m *Manager) pending(ctx context.Context, fsys fs.FS, suffix, table string) ([]sqlFile, error) {
	if err := m.ensureTables(ctx); err != nil {
		return nil, err
	}
	done, err := m.names(ctx, fmt.Sprintf(`select name from %s`, table))
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(done))
	for _, n := range done {
		applied[n] = true
	}
	files, err := collectSQL(fsys, suffix)
	if err != nil {
		return nil, err
	}
	var out []sqlFile
	for _, f := range files {
		if !applied[f.name] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *Manager) applyPending(ctx context.Context, fsys fs.FS, suffix, table, kind string) error {
	files, err := m.pending(ctx, fsys, suffix, table)
	if err != nil {
		return err
	}
	log := obs.FromContext(ctx)
	for _, f := range files {
		if err := m.runFile(ctx, fsys, f.path); err != nil {
			return fmt.Errorf("apply %s %s: %w", kind, f.name, err)
		}
		if _, err := m.db.ExecContext(ctx,
			fmt.Sprintf(`insert into %s(name, applied_at) values ($1, $2)`, table), f.name, m.now()); err != nil {
			return err
		}
		log.Info(kind+" applied", zap.String("name", f.name))
	}
	return nil
}

func (m *Manager) findDown(upName string) (string, error) {
	want := strings.TrimSuffix(upName, upSuffix) + downSuffix
	files, err := collectSQL(m.migrations, downSuffix)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if f.name == want {
			return f.path, nil
		}
	}
	return "", fmt.Errorf("missing down migration for %s", upName)
}

func (m *Manager) ensureTables(ctx context.Context) error {
	for _, table := range []string{m.tables.migrations, m.tables.seeds} {
		ddl := fmt.Sprintf(`create table if not exists %s (
			name text primary key,
			applied_at timestamptz not null default now()
		)`, table)
		if _, err := m.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure %s: %w", table, err)
		}
	}
	return nil
}

// runFile executes every statement of one file inside a single transaction.
func (m *Manager) runFile(ctx context.Context, fsys fs.FS, name string) error {
	body, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(body)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (m *Manager) names(ctx context.Context, query string) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func collectSQL(fsys fs.FS, suffix string) ([]sqlFile, error) {
	if fsys == nil {
		return nil, nil
	}
	var files []sqlFile
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), suffix) {
			files = append(files, sqlFile{name: path.Base(p), path: p})
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

// splitStatements splits on semicolons outside single-quoted literals and
// drops blank statements. Dollar-quoted bodies and comments containing
// semicolons are not supported.
func splitStatements(src string) []string {
	var (
		out      []string
		cur      strings.Builder
		inString bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, r := range src {
		cur.WriteRune(r)
		switch {
		case r == '\'':
			inString = !inString
		case r == ';' && !inString:
			flush()
		}
	}
	flush()
	return out
}
