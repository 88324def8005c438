package listview

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aanand-mishra/student-records/internal/types"
)

// Mode tells whether the form creates a record or edits one.
type Mode int

const (
	ModeAdd Mode = iota + 1
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add"
	case ModeEdit:
		return "edit"
	default:
		return "none"
	}
}

// FormState is the position of the form in its lifecycle:
//
//	idle → editing → submitting → idle      (success)
//	                            → editing   (failure, Message set)
type FormState int

const (
	FormIdle FormState = iota
	FormEditing
	FormSubmitting
)

func (s FormState) String() string {
	return [...]string{"idle", "editing", "submitting"}[s]
}

// ErrFormState is returned when a transition is not allowed from the
// current state.
var ErrFormState = errors.New("invalid form transition")

// Values are the raw text fields of the form, as typed by the user.
type Values struct {
	StudentID string
	Name      string
	Roll      string
	Birthday  string // YYYY-MM-DD or empty
	Address   string
}

// ValuesOf fills the form fields from a stored record.
func ValuesOf(s types.Student) Values {
	v := Values{
		StudentID: strconv.Itoa(s.StudentID),
		Name:      s.Name,
		Roll:      strconv.Itoa(s.Roll),
		Address:   s.Address,
	}
	if s.Birthday != nil {
		v.Birthday = s.Birthday.String()
	}
	return v
}

// Form is the add/edit form of one session.
type Form struct {
	State   FormState
	Mode    Mode
	ID      string // identity being edited, ModeEdit only
	Values  Values
	Message string // last failure, shown while editing
}

// OpenAdd resets the form for a new record.
func (f *Form) OpenAdd() {
	*f = Form{State: FormEditing, Mode: ModeAdd}
}

// OpenEdit loads an existing record into the form.
func (f *Form) OpenEdit(s types.Student) {
	*f = Form{State: FormEditing, Mode: ModeEdit, ID: s.ID, Values: ValuesOf(s)}
}

// Close abandons the form from any state.
func (f *Form) Close() {
	*f = Form{}
}

// Submit moves editing → submitting.
func (f *Form) Submit() error {
	if f.State != FormEditing {
		return fmt.Errorf("%w: submit from %s", ErrFormState, f.State)
	}
	f.State = FormSubmitting
	f.Message = ""
	return nil
}

// Succeed moves submitting → idle.
func (f *Form) Succeed() {
	if f.State == FormSubmitting {
		f.Close()
	}
}

// Fail moves submitting (or editing) back to editing with a message.
func (f *Form) Fail(msg string) {
	if f.State == FormIdle {
		return
	}
	f.State = FormEditing
	f.Message = msg
}

// Input coerces the text fields into a request body. StudentID and Roll
// must be integers when given; blank ones are sent as absent so the
// server reports them as required.
func (v Values) Input() (types.StudentInput, error) {
	studentID, err := parseOptionalInt("StudentID", v.StudentID)
	if err != nil {
		return types.StudentInput{}, err
	}
	roll, err := parseOptionalInt("Roll", v.Roll)
	if err != nil {
		return types.StudentInput{}, err
	}

	in := types.StudentInput{
		StudentID: studentID,
		Name:      strings.TrimSpace(v.Name),
		Roll:      roll,
		Address:   strings.TrimSpace(v.Address),
	}

	if b := strings.TrimSpace(v.Birthday); b != "" {
		d, err := types.ParseDate(b)
		if err != nil {
			return types.StudentInput{}, err
		}
		in.Birthday = &d
	}
	return in, nil
}

func parseOptionalInt(field, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer, got %q", field, raw)
	}
	return &n, nil
}
