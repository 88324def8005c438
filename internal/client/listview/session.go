package listview

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/aanand-mishra/student-records/internal/client/api"
	"github.com/aanand-mishra/student-records/internal/types"
)

// ErrDuplicateStudentID is returned when an added record reuses a
// StudentID already present in the fetched set.
var ErrDuplicateStudentID = errors.New("student ID already exists")

// Backend is the record store as seen by the client; *api.Client
// implements it.
type Backend interface {
	List(ctx context.Context) ([]types.Student, error)
	Create(ctx context.Context, in types.StudentInput) (types.Student, error)
	Update(ctx context.Context, id string, in types.StudentInput) (types.Student, error)
	Delete(ctx context.Context, id string) (string, error)
}

// Session ties the view state and the form to a backend. Every mutation
// is followed by a full refetch; nothing is patched locally.
//
// A Session is driven from a single goroutine.
type Session struct {
	backend Backend
	View    *State
	Form    Form

	// OnLoading, when set, is called with true as the first backend call
	// starts and with false once none are left in flight.
	OnLoading func(loading bool)

	// loading counts in-flight backend calls.
	loading int
}

func NewSession(backend Backend, pageSize int) *Session {
	return &Session{backend: backend, View: New(pageSize)}
}

// Loading reports whether a backend call is in progress. It is cleared on
// both the success and the failure path.
func (s *Session) Loading() bool { return s.loading > 0 }

func (s *Session) begin() func() {
	s.loading++
	if s.loading == 1 && s.OnLoading != nil {
		s.OnLoading(true)
	}
	return func() {
		s.loading--
		if s.loading == 0 && s.OnLoading != nil {
			s.OnLoading(false)
		}
	}
}

// Refresh refetches the full record set.
func (s *Session) Refresh(ctx context.Context) error {
	defer s.begin()()

	records, err := s.backend.List(ctx)
	if err != nil {
		return err
	}
	s.View.SetRecords(records)
	return nil
}

// Save submits the open form. On success the form is closed and the list
// refetched; on failure the form goes back to editing with the message.
func (s *Session) Save(ctx context.Context) error {
	in, err := s.Form.Values.Input()
	if err != nil {
		s.Form.Message = err.Error()
		return err
	}

	if s.Form.Mode == ModeAdd && in.StudentID != nil && s.View.HasStudentID(*in.StudentID) {
		err := fmt.Errorf("%w: %d", ErrDuplicateStudentID, *in.StudentID)
		s.Form.Message = err.Error()
		return err
	}

	if err := s.Form.Submit(); err != nil {
		return err
	}

	done := s.begin()
	if s.Form.Mode == ModeAdd {
		_, err = s.backend.Create(ctx, in)
	} else {
		_, err = s.backend.Update(ctx, s.Form.ID, in)
	}
	done()

	if err != nil {
		s.Form.Fail(Message(err))
		return err
	}

	s.Form.Succeed()
	return s.Refresh(ctx)
}

// DeleteOne deletes a single record, then refetches and drops it from
// the selection.
func (s *Session) DeleteOne(ctx context.Context, id string) error {
	done := s.begin()
	_, err := s.backend.Delete(ctx, id)
	done()
	if err != nil {
		return err
	}

	s.View.ClearSelection(id)
	return s.Refresh(ctx)
}

// DeleteSelected deletes every selected record concurrently and waits for
// all requests to settle before refetching. A failure does not stop or
// undo the others; the first error is returned together with the number
// of records deleted.
func (s *Session) DeleteSelected(ctx context.Context) (int, error) {
	ids := s.View.Selected()
	if len(ids) == 0 {
		return 0, nil
	}
	defer s.begin()()

	ok := make([]bool, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			if _, err := s.backend.Delete(ctx, id); err != nil {
				return err
			}
			ok[i] = true
			return nil
		})
	}
	deleteErr := g.Wait()

	deleted := 0
	for i, id := range ids {
		if ok[i] {
			s.View.ClearSelection(id)
			deleted++
		}
	}

	if err := s.Refresh(ctx); err != nil {
		return deleted, errors.Join(deleteErr, err)
	}
	return deleted, deleteErr
}

// Message returns the text to show the user for err: the server's own
// message when there is one.
func Message(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
