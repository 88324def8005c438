// Package student contains all HTTP handlers related to the Student resource.
//
// Each exported function is a factory: it receives its dependencies once,
// at route registration, and returns the http.HandlerFunc that serves
// every request.
//
//	router.HandleFunc("POST /api/students", student.New(storage))
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// DeletedMessage is the confirmation returned by a successful delete.
const DeletedMessage = "Student deleted successfully"

// validate caches struct metadata, so one instance serves all requests.
var validate = validator.New(validator.WithRequiredStructEnabled())

// New handles POST /api/students
// Creates a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "StudentID": 20210001, "Name": "Nguyễn Văn An", "Roll": 3,
//	  "Birthday": "2003-05-10", "Address": "Hà Nội" }
//
// Success response (201 Created): the stored student including "_id".
//
// Error responses:
//
//	400 Bad Request  empty body, malformed JSON, or failed validation
//	413 Too Large    body over the configured limit
//	500 Internal     database error
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}

		created, err := storage.CreateStudent(r.Context(), student)
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		slog.Info("student created", slog.String("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetByID handles GET /api/students/{id}
// Responds 200 with the student, or 404 when the identity is unknown.
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := storage.GetStudentByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, "error getting student", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /api/students
// Returns a JSON array of every student; [] (not null) when there are none.
// There are no filtering, sorting or paging parameters.
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := storage.GetStudents(r.Context())
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// Update handles PUT /api/students/{id}
// Replaces ALL mutable fields of an existing student; optional fields
// left out of the body are cleared.
//
// Error responses:
//
//	400 Bad Request  empty body or validation failure
//	404 Not Found    unknown id
//	500 Internal     database error
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}

		updated, err := storage.UpdateStudentByID(r.Context(), id, student)
		if err != nil {
			writeStoreError(w, "error updating student", id, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /api/students/{id}
//
//	200 OK        { "message": "Student deleted successfully" }
//	404 Not Found unknown id, including one that was already deleted
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := storage.DeleteStudentByID(r.Context(), id); err != nil {
			writeStoreError(w, "error deleting student", id, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Message: DeletedMessage})
	}
}

// decodeStudent reads and validates the request body. On failure it has
// already written the error response and returns false.
func decodeStudent(w http.ResponseWriter, r *http.Request) (types.Student, bool) {
	var in types.StudentInput

	err := json.NewDecoder(r.Body).Decode(&in)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return types.Student{}, false
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.WriteJSON(w, http.StatusRequestEntityTooLarge,
			response.GeneralError(errors.New("request body too large")))
		return types.Student{}, false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return types.Student{}, false
	}

	if err := validate.Struct(in); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
		} else {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		}
		return types.Student{}, false
	}

	return in.Student(), true
}

// writeStoreError maps storage errors onto 404 or 500.
func writeStoreError(w http.ResponseWriter, msg, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
		return
	}
	slog.Error(msg, slog.String("id", id), slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}
