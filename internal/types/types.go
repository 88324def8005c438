// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, the HTTP client and the list view can all import
// types without depending on each other.
package types

// Student represents a stored student record.
//
// The JSON keys keep the capitalised names used on the wire by the
// browser frontend ("StudentID", "Name", ...) and "_id" for the
// store-assigned identity.
//
// Birthday is a pointer so that an absent birthday is omitted from the
// JSON output instead of being rendered as an empty date.
type Student struct {
	ID        string `json:"_id"`
	StudentID int    `json:"StudentID"`
	Name      string `json:"Name"`
	Roll      int    `json:"Roll"`
	Birthday  *Date  `json:"Birthday,omitempty"`
	Address   string `json:"Address,omitempty"`
}

// StudentInput is the request body accepted by create and update.
//
// Struct tags serve two purposes:
//
//  1. json:"...": controls how the field is decoded from the request.
//
//  2. validate:"...": rules checked by the go-playground/validator
//     package. "required" on a pointer means the key must be present,
//     so a StudentID or Roll of 0 is still accepted.
//
// Any "_id" sent by the client is ignored: identity belongs to the store.
type StudentInput struct {
	StudentID *int   `json:"StudentID" validate:"required"`
	Name      string `json:"Name"      validate:"required"`
	Roll      *int   `json:"Roll"      validate:"required"`
	Birthday  *Date  `json:"Birthday"`
	Address   string `json:"Address"`
}

// Student converts a validated input into a Student without identity.
// Call it only after validation succeeded; nil integers become 0.
func (in StudentInput) Student() Student {
	s := Student{
		Name:    in.Name,
		Address: in.Address,
	}
	if in.StudentID != nil {
		s.StudentID = *in.StudentID
	}
	if in.Roll != nil {
		s.Roll = *in.Roll
	}
	if in.Birthday != nil && !in.Birthday.IsZero() {
		d := *in.Birthday
		s.Birthday = &d
	}
	return s
}
