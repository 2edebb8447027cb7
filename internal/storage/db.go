package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/blankon/sitetrack/internal/tracker/entity"
)

// timeLayout is fixed width so that lexical order in SQLite is chronological.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new SQLite database connection with WAL mode enabled
func NewDB(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for SQLite (single writer)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	wrappedDB := &DB{DB: db}

	if err := wrappedDB.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return wrappedDB, nil
}

// initSchema creates the database tables if they don't exist
func (db *DB) initSchema() error {
	_, err := db.Exec(schema)
	return err
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// unavailable tags a driver error so callers can tell "backend down" from "no data".
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %v", entity.ErrStoreUnavailable, op, err)
}

func notFound(table string, id int64) error {
	return fmt.Errorf("%w: %s id %d", entity.ErrNotFound, table, id)
}

// buildUpdate turns a field map into a SET clause, rejecting columns outside allowed.
func buildUpdate(fields map[string]interface{}, allowed map[string]func(interface{}) (interface{}, error)) (string, []interface{}, error) {
	if len(fields) == 0 {
		return "", nil, entity.NewValidationError("fields", "nothing to update")
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var (
		set  string
		args []interface{}
	)
	for i, col := range cols {
		convert, ok := allowed[col]
		if !ok {
			return "", nil, entity.NewValidationError(col, "field cannot be updated")
		}
		v, err := convert(fields[col])
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, v)
	}
	return set, args, nil
}
