// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface.
//
// SQLite stores everything in a single file on disk. There is no
// network and no separate server process, which makes it the backend
// of choice for local development and tests (":memory:").
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/aanand-mishra/student-records/internal/storage"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT    NOT NULL UNIQUE,
		student_id INTEGER NOT NULL,
		name       TEXT    NOT NULL,
		roll       INTEGER NOT NULL,
		birthday   TEXT,
		address    TEXT    NOT NULL DEFAULT ''
	)
`

// SQLite is the concrete implementation of storage.Storage.
// All queries live in the embedded storage.BaseStore.
type SQLite struct {
	storage.BaseStore
}

// New opens the SQLite database at dsn (a file path or ":memory:"),
// creates the students table if it does not already exist, and returns
// a ready-to-use *SQLite.
func New(dsn string) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// One connection: SQLite allows a single writer, and every new
	// connection to ":memory:" would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	// Runs on every startup; a no-op once the table exists.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{BaseStore: storage.BaseStore{DB: db}}, nil
}
