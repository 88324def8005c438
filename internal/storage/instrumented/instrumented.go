// Package instrumented wraps a storage.Storage with Prometheus timing.
package instrumented

import (
	"context"
	"errors"
	"time"

	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

type Storage struct {
	next    storage.Storage
	backend string
}

// Wrap returns s with every operation observed under the backend label.
func Wrap(s storage.Storage, backend string) *Storage {
	return &Storage{next: s, backend: backend}
}

func (s *Storage) observe(op string, start time.Time, err error) {
	metrics.StorageOperationDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		metrics.StorageErrorsTotal.WithLabelValues(s.backend, op).Inc()
	}
}

func (s *Storage) CreateStudent(ctx context.Context, student types.Student) (out types.Student, err error) {
	start := time.Now()
	defer func() { s.observe("create", start, err) }()
	return s.next.CreateStudent(ctx, student)
}

func (s *Storage) GetStudentByID(ctx context.Context, id string) (out types.Student, err error) {
	start := time.Now()
	defer func() { s.observe("get", start, err) }()
	return s.next.GetStudentByID(ctx, id)
}

func (s *Storage) GetStudents(ctx context.Context) (out []types.Student, err error) {
	start := time.Now()
	defer func() { s.observe("list", start, err) }()
	return s.next.GetStudents(ctx)
}

func (s *Storage) UpdateStudentByID(ctx context.Context, id string, student types.Student) (out types.Student, err error) {
	start := time.Now()
	defer func() { s.observe("update", start, err) }()
	return s.next.UpdateStudentByID(ctx, id, student)
}

func (s *Storage) DeleteStudentByID(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, err) }()
	return s.next.DeleteStudentByID(ctx, id)
}

// Ping forwards to the decorated store when it can be pinged.
func (s *Storage) Ping(ctx context.Context) error {
	if p, ok := s.next.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.next.Close()
}
