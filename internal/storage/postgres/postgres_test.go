package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

func setupTestDB(t *testing.T) *Postgres {
	if testing.Short() {
		t.Skip("skipping Postgres container test in -short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(
		ctx,
		"postgres:16-alpine",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "students",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(dsn)
	require.NoError(t, err, "Failed to create store")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresCRUD(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	bday := types.NewDate(2003, time.May, 10)
	first, err := s.CreateStudent(ctx, types.Student{
		StudentID: 20210001, Name: "Nguyễn Văn An", Roll: 0, Birthday: &bday, Address: "Hà Nội",
	})
	require.NoError(t, err)
	second, err := s.CreateStudent(ctx, types.Student{StudentID: 20210002, Name: "Lê Văn Cường", Roll: 4})
	require.NoError(t, err)

	got, err := s.GetStudentByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Birthday)
	assert.Equal(t, "2003-05-10", got.Birthday.String())
	assert.Equal(t, 0, got.Roll)

	all, err := s.GetStudents(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Nil(t, all[1].Birthday)

	updated, err := s.UpdateStudentByID(ctx, second.ID, types.Student{StudentID: 20210002, Name: "Lê Văn Cường", Roll: 5})
	require.NoError(t, err)
	assert.Equal(t, second.ID, updated.ID)
	assert.Equal(t, 5, updated.Roll)

	require.NoError(t, s.DeleteStudentByID(ctx, first.ID))
	assert.ErrorIs(t, s.DeleteStudentByID(ctx, first.ID), storage.ErrNotFound)

	_, err = s.UpdateStudentByID(ctx, first.ID, types.Student{Name: "ghost"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetStudentByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
