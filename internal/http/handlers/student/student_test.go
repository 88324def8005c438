package student

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

func newTestServer(t *testing.T, s storage.Storage) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/students", New(s))
	mux.HandleFunc("GET /api/students", GetList(s))
	mux.HandleFunc("GET /api/students/{id}", GetByID(s))
	mux.HandleFunc("PUT /api/students/{id}", Update(s))
	mux.HandleFunc("DELETE /api/students/{id}", Delete(s))
	return mux
}

func newSQLiteServer(t *testing.T) http.Handler {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return newTestServer(t, s)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp
}

func TestCreateReturnsStoredRecord(t *testing.T) {
	h := newSQLiteServer(t)

	rr := doJSON(t, h, http.MethodPost, "/api/students",
		`{"StudentID":20210001,"Name":"Nguyễn Văn An","Roll":3,"Birthday":"2003-05-10","Address":"Hà Nội"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var created types.Student
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 20210001, created.StudentID)
	require.NotNil(t, created.Birthday)
	assert.Equal(t, "2003-05-10", created.Birthday.String())
	assert.Contains(t, rr.Body.String(), `"Birthday":"2003-05-10"`)
}

func TestCreateValidation(t *testing.T) {
	h := newSQLiteServer(t)

	cases := []struct {
		name string
		body string
		code int
		want string
	}{
		{"empty body", "", http.StatusBadRequest, "request body is empty"},
		{"malformed", `{"Name":`, http.StatusBadRequest, ""},
		{"wrong type", `{"StudentID":"abc","Name":"A","Roll":1}`, http.StatusBadRequest, ""},
		{"missing all", `{}`, http.StatusBadRequest, "field StudentID is required, field Name is required, field Roll is required"},
		{"missing name", `{"StudentID":1,"Roll":1}`, http.StatusBadRequest, "field Name is required"},
		{"bad birthday", `{"StudentID":1,"Name":"A","Roll":1,"Birthday":"10/05/2003"}`, http.StatusBadRequest, "invalid date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodPost, "/api/students", tc.body)
			require.Equal(t, tc.code, rr.Code, rr.Body.String())
			resp := decodeError(t, rr)
			assert.Equal(t, response.StatusError, resp.Status)
			if tc.want != "" {
				assert.Contains(t, resp.Error, tc.want)
			}
		})
	}

	// Nothing was stored by the rejected requests.
	rr := doJSON(t, h, http.MethodGet, "/api/students", "")
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestZeroRollIsAccepted(t *testing.T) {
	h := newSQLiteServer(t)
	rr := doJSON(t, h, http.MethodPost, "/api/students", `{"StudentID":0,"Name":"A","Roll":0}`)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestUnknownIdentityIsNotFound(t *testing.T) {
	h := newSQLiteServer(t)

	rr := doJSON(t, h, http.MethodGet, "/api/students/unknown", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Regression: an update of an unknown id used to answer 200 with an empty body.
	rr = doJSON(t, h, http.MethodPut, "/api/students/unknown", `{"StudentID":1,"Name":"A","Roll":1}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, response.StatusError, decodeError(t, rr).Status)

	rr = doJSON(t, h, http.MethodDelete, "/api/students/unknown", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateAndDelete(t *testing.T) {
	h := newSQLiteServer(t)

	rr := doJSON(t, h, http.MethodPost, "/api/students", `{"StudentID":1,"Name":"A","Roll":1}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created types.Student
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = doJSON(t, h, http.MethodPut, "/api/students/"+created.ID,
		`{"_id":"spoofed","StudentID":2,"Name":"B","Roll":5,"Address":"Huế"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated types.Student
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, types.Student{ID: created.ID, StudentID: 2, Name: "B", Roll: 5, Address: "Huế"}, updated)

	rr = doJSON(t, h, http.MethodPut, "/api/students/"+created.ID, `{"Name":"B"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/students/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Student deleted successfully"}`, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, "/api/students/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

type brokenStore struct{ storage.Storage }

var errUnavailable = errors.New("server selection timeout")

func (brokenStore) GetStudents(context.Context) ([]types.Student, error) {
	return nil, errUnavailable
}

func (brokenStore) CreateStudent(context.Context, types.Student) (types.Student, error) {
	return types.Student{}, errUnavailable
}

func (brokenStore) DeleteStudentByID(context.Context, string) error {
	return errUnavailable
}

func TestStoreFailuresAreInternalErrors(t *testing.T) {
	h := newTestServer(t, brokenStore{})

	rr := doJSON(t, h, http.MethodGet, "/api/students", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, errUnavailable.Error(), decodeError(t, rr).Error)

	rr = doJSON(t, h, http.MethodPost, "/api/students", `{"StudentID":1,"Name":"A","Roll":1}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/students/x", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestBodyTooLarge(t *testing.T) {
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	body := `{"StudentID":1,"Name":"` + strings.Repeat("x", 1024) + `","Roll":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/students", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rr, req.Body, 64)

	New(s).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
