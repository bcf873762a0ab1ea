package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	// DialectSQLite is the embedded backend used for development and tests.
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres is the production backend, reached through pgx's database/sql driver.
	DialectPostgres Dialect = "postgres"
)

// ParseDialect maps a configured driver name to a Dialect.
// PRE: none
// POST: Returns an error for unknown drivers
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", name)
}

// driverName returns the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// Open connects to the database and initializes the schema.
// PRE: dsn is valid for the dialect
// POST: Returns a pinged connection with all tables created
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d, err)
	}
	if d == DialectSQLite {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY and keeps :memory: shared.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", d, err)
	}
	if err := InitDB(ctx, db, d); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// schema is written in the subset of SQL both dialects accept.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		preferred_name TEXT NOT NULL DEFAULT '',
		birth_date TEXT NOT NULL,
		path_level TEXT NOT NULL DEFAULT '',
		cohort_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_member_birth_date ON member(birth_date)`,
	`CREATE INDEX IF NOT EXISTS idx_member_cohort_id ON member(cohort_id)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		class_date TEXT NOT NULL,
		present INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (member_id, class_date),
		FOREIGN KEY (member_id) REFERENCES member(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_class_date ON attendance(class_date)`,
	`CREATE TABLE IF NOT EXISTS cohort_transition (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		from_cohort_id TEXT NOT NULL,
		to_cohort_id TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (member_id) REFERENCES member(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cohort_transition_member_id ON cohort_transition(member_id)`,
}

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created; on SQLite WAL mode and foreign keys are enabled
func InitDB(ctx context.Context, db *sql.DB, d Dialect) error {
	if d == DialectSQLite {
		// Enable WAL mode for better concurrency
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		// Enable foreign key enforcement
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Rebind rewrites ? placeholders into the dialect's form. Quoted literals are left alone.
// POST: For SQLite the query is returned unchanged
func Rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// dialecter is implemented by SQLDB wrappers that know their backend.
type dialecter interface {
	Dialect() Dialect
}

// DialectOf reports the dialect behind db. Plain *sql.DB handles are SQLite.
func DialectOf(db SQLDB) Dialect {
	if d, ok := db.(dialecter); ok {
		return d.Dialect()
	}
	return DialectSQLite
}

// Placeholders returns n comma-separated ? placeholders.
// PRE: n > 0
func Placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// MaxInListSize bounds the number of values bound into one IN (...) list.
const MaxInListSize = 500

// Chunk splits ids into slices of at most MaxInListSize.
func Chunk(ids []string) [][]string {
	var out [][]string
	for len(ids) > MaxInListSize {
		out = append(out, ids[:MaxInListSize])
		ids = ids[MaxInListSize:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
