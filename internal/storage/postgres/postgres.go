// Package postgres implements storage.Storage on PostgreSQL through
// sqlx and the lib/pq driver.
package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/aanand-mishra/student-records/internal/storage"
)

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT    NOT NULL UNIQUE,
		student_id BIGINT  NOT NULL,
		name       TEXT    NOT NULL,
		roll       BIGINT  NOT NULL,
		birthday   DATE,
		address    TEXT    NOT NULL DEFAULT ''
	)
`

type Postgres struct {
	storage.BaseStore
}

func New(dsn string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create students table: %w", err)
	}

	return &Postgres{BaseStore: storage.BaseStore{DB: db}}, nil
}
