package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 510, minutes)

	minutes, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 1439, minutes)

	for _, raw := range []string{"", "8:30", "24:00", "10:60", "ab:cd", "10:00:00"} {
		_, err := ParseClock(raw)
		assert.Error(t, err, raw)
	}
}

func TestWeekdayHelpers(t *testing.T) {
	assert.Equal(t, Monday, WeekdayOf(time.Monday))
	assert.Equal(t, Sunday, WeekdayOf(time.Sunday))

	day, ok := ParseWeekday(" wednesday ")
	require.True(t, ok)
	assert.Equal(t, Wednesday, day)

	_, ok = ParseWeekday("funday")
	assert.False(t, ok)
}

func TestStandingKeepsBestStatus(t *testing.T) {
	s := Standing{}
	s.Record("sub-1", EnrollmentStatusFailed)
	s.Record("sub-1", EnrollmentStatusPassed)
	s.Record("sub-1", EnrollmentStatusInProgress)
	s.Record("sub-2", EnrollmentStatusDropped)
	s.Record("sub-2", EnrollmentStatusInProgress)

	assert.Equal(t, EnrollmentStatusPassed, s["sub-1"])
	assert.Equal(t, EnrollmentStatusInProgress, s["sub-2"])
}

func TestRoleIsStaff(t *testing.T) {
	assert.True(t, RoleSecretary.IsStaff())
	assert.True(t, RoleSuperAdmin.IsStaff())
	assert.False(t, RoleInstructor.IsStaff())
	assert.False(t, RoleStudent.IsStaff())
}

func TestPrerequisiteResultMissingNames(t *testing.T) {
	r := PrerequisiteResult{Missing: []SubjectRef{{ID: "a", Name: "Algebra"}, {ID: "b", Name: UnknownSubjectName, Unknown: true}}}
	assert.Equal(t, []string{"Algebra", UnknownSubjectName}, r.MissingNames())
}
