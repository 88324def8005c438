// Package backend picks a storage implementation from the connection string.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/instrumented"
	"github.com/aanand-mishra/student-records/internal/storage/mongo"
	"github.com/aanand-mishra/student-records/internal/storage/postgres"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
)

type Kind string

const (
	KindMongo    Kind = "mongo"
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

// Detect maps a connection string to the backend that serves it.
func Detect(uri string) Kind {
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return KindMongo
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return KindPostgres
	default:
		return KindSQLite
	}
}

// Open connects to the configured database and returns it wrapped with
// metrics, together with the detected kind.
func Open(ctx context.Context, cfg config.Storage) (storage.Storage, Kind, error) {
	if cfg.URI == "" {
		return nil, "", fmt.Errorf("backend.Open: empty storage uri")
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	kind := Detect(cfg.URI)

	var (
		s   storage.Storage
		err error
	)
	switch kind {
	case KindMongo:
		s, err = mongo.New(ctx, cfg.URI, cfg.Database)
	case KindPostgres:
		s, err = postgres.New(cfg.URI)
	default:
		s, err = sqlite.New(cfg.URI)
	}
	if err != nil {
		return nil, kind, fmt.Errorf("backend.Open %s: %w", kind, err)
	}

	return instrumented.Wrap(s, string(kind)), kind, nil
}
