// Package storage defines the Storage interface, a contract that any
// database backend must satisfy to work with this application.
//
// Handlers (HTTP layer) should not know or care which database they are
// talking to. MongoDB is the production backend; SQLite and PostgreSQL
// implement the same contract and are picked by connection string (see
// package backend).
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-records/internal/types"
)

// ErrNotFound is returned (wrapped) when no record has the given identity.
// Malformed identities are reported the same way: they cannot exist.
var ErrNotFound = errors.New("student not found")

// Storage is the database contract.
type Storage interface {
	// CreateStudent inserts a new record and returns it with its
	// store-assigned identity. Any ID on the argument is ignored.
	CreateStudent(ctx context.Context, student types.Student) (types.Student, error)

	// GetStudentByID fetches a single record by identity.
	GetStudentByID(ctx context.Context, id string) (types.Student, error)

	// GetStudents returns every record in insertion order.
	// Returns an empty slice (not nil) if there are none.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// UpdateStudentByID replaces every mutable field of an existing record
	// and returns the stored result, or ErrNotFound.
	UpdateStudentByID(ctx context.Context, id string, student types.Student) (types.Student, error)

	// DeleteStudentByID removes a record permanently, or returns ErrNotFound.
	DeleteStudentByID(ctx context.Context, id string) error

	// Close releases the underlying connections.
	Close() error
}

// Pinger is implemented by stores that can report whether their database
// is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
