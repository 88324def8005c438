package listview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/types"
)

func TestFormLifecycle(t *testing.T) {
	var f Form
	assert.Equal(t, FormIdle, f.State)
	assert.ErrorIs(t, f.Submit(), ErrFormState)

	f.OpenAdd()
	assert.Equal(t, FormEditing, f.State)
	assert.Equal(t, ModeAdd, f.Mode)

	require.NoError(t, f.Submit())
	assert.Equal(t, FormSubmitting, f.State)
	assert.ErrorIs(t, f.Submit(), ErrFormState, "no double submit")

	f.Fail("field Name is required")
	assert.Equal(t, FormEditing, f.State)
	assert.Equal(t, "field Name is required", f.Message)

	require.NoError(t, f.Submit())
	assert.Empty(t, f.Message)
	f.Succeed()
	assert.Equal(t, FormIdle, f.State)
	assert.Equal(t, Form{}, f)
}

func TestOpenEditLoadsRecord(t *testing.T) {
	bday := types.NewDate(2003, time.May, 10)
	var f Form
	f.OpenEdit(types.Student{ID: "x", StudentID: 20210001, Name: "An", Roll: 4, Birthday: &bday, Address: "Huế"})

	assert.Equal(t, ModeEdit, f.Mode)
	assert.Equal(t, "x", f.ID)
	assert.Equal(t, Values{StudentID: "20210001", Name: "An", Roll: "4", Birthday: "2003-05-10", Address: "Huế"}, f.Values)
}

func TestValuesInputCoercion(t *testing.T) {
	in, err := Values{StudentID: " 20210001 ", Name: " An ", Roll: "7", Birthday: "2003-05-10"}.Input()
	require.NoError(t, err)
	require.NotNil(t, in.StudentID)
	assert.Equal(t, 20210001, *in.StudentID)
	assert.Equal(t, "An", in.Name)
	assert.Equal(t, 7, *in.Roll)
	require.NotNil(t, in.Birthday)
	assert.Equal(t, "2003-05-10", in.Birthday.String())

	in, err = Values{Name: "An"}.Input()
	require.NoError(t, err)
	assert.Nil(t, in.StudentID, "blank integers are left for the server to reject")
	assert.Nil(t, in.Birthday)

	_, err = Values{StudentID: "12abc", Name: "An", Roll: "1"}.Input()
	assert.ErrorContains(t, err, "StudentID must be an integer")

	_, err = Values{StudentID: "1", Name: "An", Roll: "1", Birthday: "May 10"}.Input()
	assert.Error(t, err)
}
