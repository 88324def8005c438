package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aanand-mishra/student-records/internal/types"
)

// BaseStore implements Storage on top of any sqlx database whose
// students table matches the layout below. Dialect differences are
// limited to placeholders, which sqlx.Rebind takes care of.
//
//	id         uuid string, the record identity
//	seq        insertion counter, used only for ordering
//	student_id integer
//	name, roll required columns
//	birthday   nullable date
//	address    text, empty when absent
type BaseStore struct {
	DB *sqlx.DB
}

// studentRow is the sqlx scan target; db tags map columns to fields.
type studentRow struct {
	ID        string      `db:"id"`
	StudentID int         `db:"student_id"`
	Name      string      `db:"name"`
	Roll      int         `db:"roll"`
	Birthday  *types.Date `db:"birthday"`
	Address   string      `db:"address"`
}

func (r studentRow) student() types.Student {
	return types.Student{
		ID:        r.ID,
		StudentID: r.StudentID,
		Name:      r.Name,
		Roll:      r.Roll,
		Birthday:  r.Birthday,
		Address:   r.Address,
	}
}

func newRow(id string, s types.Student) studentRow {
	return studentRow{
		ID:        id,
		StudentID: s.StudentID,
		Name:      s.Name,
		Roll:      s.Roll,
		Birthday:  s.Birthday,
		Address:   s.Address,
	}
}

const selectColumns = "SELECT id, student_id, name, roll, birthday, address FROM students"

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *BaseStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *BaseStore) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	row := newRow(uuid.NewString(), student)

	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO students (id, student_id, name, roll, birthday, address)
		VALUES (:id, :student_id, :name, :roll, :birthday, :address)
	`, row)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return row.student(), nil
}

func (s *BaseStore) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	var row studentRow
	err := s.DB.GetContext(ctx, &row, s.DB.Rebind(selectColumns+" WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, fmt.Errorf("no student found with id %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: %w", err)
	}
	return row.student(), nil
}

func (s *BaseStore) GetStudents(ctx context.Context) ([]types.Student, error) {
	var rows []studentRow
	if err := s.DB.SelectContext(ctx, &rows, selectColumns+" ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("GetStudents: %w", err)
	}

	students := make([]types.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students, nil
}

func (s *BaseStore) UpdateStudentByID(ctx context.Context, id string, student types.Student) (types.Student, error) {
	res, err := s.DB.NamedExecContext(ctx, `
		UPDATE students
		SET student_id = :student_id, name = :name, roll = :roll,
			birthday = :birthday, address = :address
		WHERE id = :id
	`, newRow(id, student))
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}
	if err := requireAffected(res, id); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: %w", err)
	}

	// Re-fetch the record so we return exactly what is stored.
	return s.GetStudentByID(ctx, id)
}

func (s *BaseStore) DeleteStudentByID(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind("DELETE FROM students WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}
	if err := requireAffected(res, id); err != nil {
		return fmt.Errorf("DeleteStudentByID: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no student found with id %s: %w", id, ErrNotFound)
	}
	return nil
}
