package listview

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/client/api"
	"github.com/aanand-mishra/student-records/internal/types"
)

// fakeBackend is an in-memory Backend. Calls may arrive from several
// goroutines during bulk operations.
type fakeBackend struct {
	mu       sync.Mutex
	records  []types.Student
	nextID   int
	lists    int
	failOn   map[string]error // delete failures by id
	createFn func(types.StudentInput) error
	listErr  error
}

func newFakeBackend(records ...types.Student) *fakeBackend {
	return &fakeBackend{records: records, failOn: map[string]error{}}
}

func (f *fakeBackend) List(context.Context) ([]types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return slices.Clone(f.records), nil
}

func (f *fakeBackend) Create(_ context.Context, in types.StudentInput) (types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFn != nil {
		if err := f.createFn(in); err != nil {
			return types.Student{}, err
		}
	}
	f.nextID++
	s := in.Student()
	s.ID = fmt.Sprintf("new-%d", f.nextID)
	f.records = append(f.records, s)
	return s, nil
}

func (f *fakeBackend) Update(_ context.Context, id string, in types.StudentInput) (types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.ID == id {
			s := in.Student()
			s.ID = id
			f.records[i] = s
			return s, nil
		}
	}
	return types.Student{}, &api.Error{StatusCode: http.StatusNotFound, Message: "student not found"}
}

func (f *fakeBackend) Delete(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[id]; err != nil {
		return "", err
	}
	for i, r := range f.records {
		if r.ID == id {
			f.records = slices.Delete(f.records, i, i+1)
			return "Student deleted successfully", nil
		}
	}
	return "", &api.Error{StatusCode: http.StatusNotFound, Message: "student not found"}
}

func TestSessionAddRefetches(t *testing.T) {
	be := newFakeBackend(makeStudents(2)...)
	s := NewSession(be, 5)
	require.NoError(t, s.Refresh(context.Background()))

	s.Form.OpenAdd()
	s.Form.Values = Values{StudentID: "20239999", Name: "Nguyễn Văn An", Roll: "3", Birthday: "2004-02-29"}
	require.NoError(t, s.Save(context.Background()))

	assert.Equal(t, FormIdle, s.Form.State)
	assert.False(t, s.Loading())
	assert.Equal(t, 2, be.lists, "one fetch on open, one after the save")
	require.Len(t, s.View.All(), 3)

	added := s.View.All()[2]
	assert.Equal(t, 20239999, added.StudentID)
	require.NotNil(t, added.Birthday)
	assert.Equal(t, "2004-02-29", ValuesOf(added).Birthday)
}

func TestSessionRejectsDuplicateStudentIDLocally(t *testing.T) {
	be := newFakeBackend(makeStudents(2)...)
	s := NewSession(be, 5)
	require.NoError(t, s.Refresh(context.Background()))

	called := false
	be.createFn = func(types.StudentInput) error { called = true; return nil }

	s.Form.OpenAdd()
	s.Form.Values = Values{StudentID: "20210001", Name: "Dup", Roll: "1"}
	err := s.Save(context.Background())

	assert.ErrorIs(t, err, ErrDuplicateStudentID)
	assert.False(t, called, "no request is sent")
	assert.Equal(t, FormEditing, s.Form.State)
	assert.Contains(t, s.Form.Message, "already exists")
}

func TestSessionEditMayKeepItsOwnStudentID(t *testing.T) {
	be := newFakeBackend(makeStudents(2)...)
	s := NewSession(be, 5)
	require.NoError(t, s.Refresh(context.Background()))

	rec, _ := s.View.Find("id-01")
	s.Form.OpenEdit(rec)
	s.Form.Values.Name = "Renamed"
	require.NoError(t, s.Save(context.Background()))

	got, _ := s.View.Find("id-01")
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, 20210001, got.StudentID)
}

func TestSessionSaveFailureKeepsFormOpen(t *testing.T) {
	be := newFakeBackend()
	be.createFn = func(types.StudentInput) error {
		return &api.Error{StatusCode: http.StatusBadRequest, Message: "field Name is required"}
	}
	s := NewSession(be, 5)

	s.Form.OpenAdd()
	s.Form.Values = Values{StudentID: "1", Roll: "1"}
	err := s.Save(context.Background())

	require.Error(t, err)
	assert.Equal(t, FormEditing, s.Form.State)
	assert.Equal(t, "field Name is required", s.Form.Message)
	assert.False(t, s.Loading(), "loading is cleared on failure")
	assert.Zero(t, be.lists, "nothing to refetch after a failed save")
}

func TestSessionSaveRejectsNonIntegerField(t *testing.T) {
	s := NewSession(newFakeBackend(), 5)
	s.Form.OpenAdd()
	s.Form.Values = Values{StudentID: "abc", Name: "An", Roll: "1"}

	err := s.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, FormEditing, s.Form.State)
	assert.Contains(t, s.Form.Message, "StudentID")
}

func TestSessionDeleteOne(t *testing.T) {
	be := newFakeBackend(makeStudents(3)...)
	s := NewSession(be, 5)
	require.NoError(t, s.Refresh(context.Background()))
	s.View.Select("id-02")

	require.NoError(t, s.DeleteOne(context.Background(), "id-02"))
	assert.Equal(t, []string{"id-01", "id-03"}, ids(s.View.All()))
	assert.Zero(t, s.View.SelectionCount())

	err := s.DeleteOne(context.Background(), "id-02")
	assert.True(t, api.IsNotFound(err))
	assert.False(t, s.Loading())
}

func TestSessionDeleteSelectedAcrossPages(t *testing.T) {
	be := newFakeBackend(makeStudents(12)...)
	s := NewSession(be, 5)
	require.NoError(t, s.Refresh(context.Background()))

	s.View.Select("id-01")
	s.View.Next()
	s.View.Select("id-07")
	s.View.Next()
	s.View.Select("id-12")

	n, err := s.DeleteSelected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Zero(t, s.View.SelectionCount())
	assert.Len(t, s.View.All(), 9)
	assert.Equal(t, 2, s.View.Page().Number, "page clamped after the set shrank")
}

func TestSessionDeleteSelectedPartialFailure(t *testing.T) {
	be := newFakeBackend(makeStudents(4)...)
	be.failOn["id-02"] = errors.New("connection reset")
	s := NewSession(be, 5)
	require.NoError(t, s.Refresh(context.Background()))

	for _, id := range []string{"id-01", "id-02", "id-03"} {
		s.View.Select(id)
	}

	n, err := s.DeleteSelected(context.Background())
	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"id-02"}, s.View.Selected(), "failed deletion stays selected")
	assert.Equal(t, []string{"id-02", "id-04"}, ids(s.View.All()))
	assert.False(t, s.Loading())
}

func TestSessionDeleteSelectedNothingSelected(t *testing.T) {
	be := newFakeBackend(makeStudents(2)...)
	s := NewSession(be, 5)

	n, err := s.DeleteSelected(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, be.lists)
}

func TestSessionRefreshFailureKeepsPreviousRecords(t *testing.T) {
	be := newFakeBackend(makeStudents(2)...)
	s := NewSession(be, 5)
	require.NoError(t, s.Refresh(context.Background()))

	be.listErr = errors.New("server unreachable")
	assert.Error(t, s.Refresh(context.Background()))
	assert.Len(t, s.View.All(), 2)
	assert.False(t, s.Loading())
}

func TestSeedCreatesUniqueStudentIDs(t *testing.T) {
	be := newFakeBackend(makeStudents(2)...)
	s := NewSession(be, 5)
	require.NoError(t, s.Refresh(context.Background()))

	n, err := s.Seed(context.Background(), rand.New(rand.NewPCG(1, 2)), 30)
	require.NoError(t, err)
	assert.Equal(t, 30, n)
	assert.Len(t, s.View.All(), 32)

	seen := map[int]bool{}
	for _, r := range s.View.All() {
		assert.False(t, seen[r.StudentID], "duplicate StudentID %d", r.StudentID)
		seen[r.StudentID] = true
	}
}

func TestSeedReportsPartialFailure(t *testing.T) {
	be := newFakeBackend()
	calls := 0
	be.createFn = func(types.StudentInput) error {
		calls++
		if calls%2 == 0 {
			return errors.New("boom")
		}
		return nil
	}
	s := NewSession(be, 5)

	n, err := s.Seed(context.Background(), rand.New(rand.NewPCG(3, 4)), 10)
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 5, n)
	assert.Len(t, s.View.All(), 5)
}

func TestSampleStudentsShape(t *testing.T) {
	taken := func(id int) bool { return id%2 == 0 }
	samples, err := SampleStudents(rand.New(rand.NewPCG(5, 6)), 100, taken)
	require.NoError(t, err)
	require.Len(t, samples, 100)

	for _, in := range samples {
		require.NotNil(t, in.StudentID)
		id := *in.StudentID
		assert.GreaterOrEqual(t, id, 20210000)
		assert.Less(t, id, 20250000)
		assert.False(t, taken(id))
		assert.NotEmpty(t, in.Name)
		require.NotNil(t, in.Roll)
		assert.Positive(t, *in.Roll)
		require.NotNil(t, in.Birthday)
	}
}

func TestMessagePrefersServerText(t *testing.T) {
	assert.Equal(t, "student not found", Message(&api.Error{StatusCode: 404, Message: "student not found"}))
	assert.Equal(t, "boom", Message(errors.New("boom")))
	assert.Equal(t, "student not found", Message(fmt.Errorf("delete: %w", &api.Error{StatusCode: 404, Message: "student not found"})))
}

// fillIDRange returns a backend holding every sample StudentID except the
// last free ones.
func fillIDRange(free int) *fakeBackend {
	records := make([]types.Student, 0, sampleIDSpace-free)
	for i := range sampleIDSpace - free {
		records = append(records, types.Student{ID: fmt.Sprintf("r%d", i), StudentID: sampleIDBase + i, Name: "X"})
	}
	return newFakeBackend(records...)
}

func TestSeedFailsFastWhenIDsRunOut(t *testing.T) {
	be := fillIDRange(10)
	s := NewSession(be, 5)
	require.NoError(t, s.Refresh(context.Background()))

	done := make(chan struct{})
	var (
		n   int
		err error
	)
	go func() {
		defer close(done)
		n, err = s.Seed(context.Background(), rand.New(rand.NewPCG(7, 8)), 50)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Seed did not return with the id range nearly used up")
	}
	assert.ErrorIs(t, err, ErrSampleIDsExhausted)
	assert.Zero(t, n)
	assert.Len(t, s.View.All(), sampleIDSpace-10, "nothing was created")
	assert.False(t, s.Loading())
}

func TestSeedUsesTheLastFreeIDs(t *testing.T) {
	be := fillIDRange(10)
	s := NewSession(be, 5)
	require.NoError(t, s.Refresh(context.Background()))

	n, err := s.Seed(context.Background(), rand.New(rand.NewPCG(9, 10)), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	for id := sampleIDBase + sampleIDSpace - 10; id < sampleIDBase+sampleIDSpace; id++ {
		assert.True(t, s.View.HasStudentID(id), "id %d", id)
	}
}

func TestSeedStopsWhenCancelled(t *testing.T) {
	be := newFakeBackend()
	s := NewSession(be, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := s.Seed(ctx, rand.New(rand.NewPCG(11, 12)), 20)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Empty(t, be.records)
}

// loadingBackend records Session.Loading as seen from inside each call.
type loadingBackend struct {
	*fakeBackend
	sess *Session
	seen []bool
}

func (b *loadingBackend) List(ctx context.Context) ([]types.Student, error) {
	b.seen = append(b.seen, b.sess.Loading())
	return b.fakeBackend.List(ctx)
}

func (b *loadingBackend) Create(ctx context.Context, in types.StudentInput) (types.Student, error) {
	b.seen = append(b.seen, b.sess.Loading())
	return b.fakeBackend.Create(ctx, in)
}

func TestLoadingIsSetWhileCallsAreInFlight(t *testing.T) {
	be := &loadingBackend{fakeBackend: newFakeBackend()}
	s := NewSession(be, 5)
	be.sess = s

	var events []bool
	s.OnLoading = func(loading bool) { events = append(events, loading) }

	require.NoError(t, s.Refresh(context.Background()))
	s.Form.OpenAdd()
	s.Form.Values = Values{StudentID: "1", Name: "An", Roll: "1"}
	require.NoError(t, s.Save(context.Background()))

	assert.Equal(t, []bool{true, true, true}, be.seen, "refresh, create, refetch")
	assert.False(t, s.Loading())
	assert.Equal(t, []bool{true, false, true, false, true, false}, events)
}
