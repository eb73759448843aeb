package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

func newAgendaFixture(t *testing.T) (*AgendaService, *academicFixture) {
	t.Helper()
	f := newAcademicFixture(t)
	f.enrollments.add(models.Enrollment{StudentID: "stu-1", SubjectID: "S1", CommissionID: strPtr("com-1"), Status: models.EnrollmentStatusInProgress})
	f.enrollments.add(models.Enrollment{StudentID: "stu-1", SubjectID: "S2", Status: models.EnrollmentStatusInProgress})
	f.enrollments.add(models.Enrollment{StudentID: "stu-1", SubjectID: "S0", Status: models.EnrollmentStatusPassed})

	blocks := &blockStub{
		names:       map[string]string{"S0": "Algebra", "S1": "Calculus II", "S2": "Physics"},
		instructors: map[string]string{"com-1": "ins-1"},
		blocks: []models.TimeBlock{
			{ID: "b-s1-mon", SubjectID: "S1", Day: models.Monday, Start: "08:00", End: "10:00", Room: "A1"},
			{ID: "b-s1-c1-wed", SubjectID: "S1", CommissionID: strPtr("com-1"), Day: models.Wednesday, Start: "14:00", End: "16:00"},
			{ID: "b-s1-c3-wed", SubjectID: "S1", CommissionID: strPtr("com-3"), Day: models.Wednesday, Start: "18:00", End: "20:00"},
			{ID: "b-s2-mon", SubjectID: "S2", Day: models.Monday, Start: "07:00", End: "08:00", InstructorID: strPtr("ins-1")},
			{ID: "b-s0-fri", SubjectID: "S0", Day: models.Friday, Start: "10:00", End: "12:00"},
		},
	}

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)
	svc := NewAgendaService(f.users, f.enrollments, blocks, AgendaConfig{Location: loc, DefaultDays: 6, MaxDays: 120}, zap.NewNop())
	svc.WithClock(func() time.Time { return time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC) })
	return svc, f
}

func blockIDs(day models.DayAgenda) []string {
	ids := make([]string, 0, len(day.Blocks))
	for _, b := range day.Blocks {
		ids = append(ids, b.BlockID)
	}
	return ids
}

func TestAgendaStudentWeek(t *testing.T) {
	svc, _ := newAgendaFixture(t)
	loc := svc.Location()

	days, err := svc.BuildAgenda(context.Background(), models.AgendaQuery{
		UserID: "stu-1",
		From:   time.Date(2026, 10, 12, 0, 0, 0, 0, loc),
		To:     time.Date(2026, 10, 18, 0, 0, 0, 0, loc),
	})
	require.NoError(t, err)
	require.Len(t, days, 7)

	assert.Equal(t, "2026-10-12", days[0].Date)
	assert.Equal(t, models.Monday, days[0].Weekday)
	assert.Equal(t, []string{"b-s2-mon", "b-s1-mon"}, blockIDs(days[0]))
	assert.Empty(t, days[1].Blocks)
	assert.NotNil(t, days[1].Blocks)
	assert.Equal(t, []string{"b-s1-c1-wed"}, blockIDs(days[2]))
	assert.Empty(t, days[4].Blocks, "passed subjects are not on the agenda")
	assert.Equal(t, models.Sunday, days[6].Weekday)
	assert.False(t, days[0].Blocks[0].IsInstructor)
	assert.Equal(t, "Physics", days[0].Blocks[0].SubjectName)
}

func TestAgendaInstructorBlocks(t *testing.T) {
	svc, _ := newAgendaFixture(t)

	days, err := svc.BuildAgenda(context.Background(), models.AgendaQuery{UserID: "ins-1"})
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.Equal(t, "2026-10-12", days[0].Date)

	assert.Equal(t, []string{"b-s2-mon"}, blockIDs(days[0]))
	assert.Equal(t, []string{"b-s1-c1-wed"}, blockIDs(days[2]))
	for _, day := range days {
		for _, b := range day.Blocks {
			assert.True(t, b.IsInstructor)
		}
	}
}

func TestAgendaOversightSeesEverything(t *testing.T) {
	svc, _ := newAgendaFixture(t)

	days, err := svc.BuildAgenda(context.Background(), models.AgendaQuery{UserID: "adm-1"})
	require.NoError(t, err)
	total := 0
	for _, day := range days {
		total += len(day.Blocks)
	}
	assert.Equal(t, 5, total)
	assert.Equal(t, []string{"b-s1-c1-wed", "b-s1-c3-wed"}, blockIDs(days[2]))
}

func TestAgendaWindowRules(t *testing.T) {
	svc, _ := newAgendaFixture(t)
	ctx := context.Background()
	loc := svc.Location()
	from := time.Date(2026, 10, 12, 0, 0, 0, 0, loc)

	_, err := svc.BuildAgenda(ctx, models.AgendaQuery{UserID: "stu-1", From: from, To: from.AddDate(0, 0, -1)})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidAgendaWindow.Code))

	_, err = svc.BuildAgenda(ctx, models.AgendaQuery{UserID: "stu-1", From: from, To: from.AddDate(0, 0, 121)})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidAgendaWindow.Code))

	days, err := svc.BuildAgenda(ctx, models.AgendaQuery{UserID: "stu-1", From: from, To: from})
	require.NoError(t, err)
	assert.Len(t, days, 1)

	_, err = svc.BuildAgenda(ctx, models.AgendaQuery{UserID: "ghost"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestAgendaStudentWithoutEnrollments(t *testing.T) {
	svc, _ := newAgendaFixture(t)
	days, err := svc.BuildAgenda(context.Background(), models.AgendaQuery{UserID: "stu-3"})
	require.NoError(t, err)
	for _, day := range days {
		assert.Empty(t, day.Blocks)
	}
}
