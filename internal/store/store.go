package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is either the shell's history database or a read-only handle on a
// SQLite file queried by the sqlite command.
type Store struct {
	db       *sql.DB
	readOnly bool
}

// pragma is one connection setting applied by Open. want is the value
// SQLite reports back, which differs from the assigned value for enums.
type pragma struct {
	name  string
	value string
	want  string
}

// historyPragmas configure the history database:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
var historyPragmas = []pragma{
	{name: "journal_mode", value: "WAL", want: "wal"},
	{name: "synchronous", value: "NORMAL", want: "1"},
	{name: "busy_timeout", value: "5000", want: "5000"},
}

// migrations[v] upgrades a history database from user_version v to v+1.
// The schema version is len(migrations):
//
//	0 - Initial history table
//	1 - Index on history.status
var migrations = []func(*sql.Tx) error{
	addStatusIndex,
}

// Open creates or opens the history database at path.
// Applies pragmas, the embedded schema and pending migrations.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	s, err := connect(path, false)
	if err != nil {
		return nil, err
	}

	// SQLite only supports one writer at a time, so limit connections
	s.db.SetMaxOpenConns(1)
	s.db.SetMaxIdleConns(1)

	for _, p := range historyPragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := s.db.Exec(stmt); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %q: %w", stmt, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if err := s.migrate(); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// OpenReadOnly opens an existing SQLite file without modifying it.
// No pragmas or schema are applied; the file may belong to any program.
func OpenReadOnly(path string) (*Store, error) {
	return connect("file:"+path+"?mode=ro&_busy_timeout=5000", true)
}

// connect opens dsn and verifies the file is reachable, since sql.Open
// defers all I/O to the first query.
func connect(dsn string, readOnly bool) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", dsn, err)
	}
	return &Store{db: db, readOnly: readOnly}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// migrate runs each pending migration in its own transaction and bumps
// user_version with it, so an interrupted upgrade resumes where it stopped.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	for v := version; v < len(migrations); v++ {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if err := migrations[v](tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("set user_version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	return nil
}

// addStatusIndex supports filtering history by outcome.
func addStatusIndex(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_history_status ON history(status)`)
	return err
}

// pragmaValue reads the current value of a pragma.
func (s *Store) pragmaValue(name string) (string, error) {
	var v string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&v); err != nil {
		return "", fmt.Errorf("failed to query %s: %w", name, err)
	}
	return v, nil
}
