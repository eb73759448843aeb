package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
)

var edgeCols = []string{"id", "subject_id", "required_subject_id", "kind", "study_plan_id", "required_level", "position", "created_at"}

func TestPrerequisiteRepositoryListBySubjectKeepsOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPrerequisiteRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(edgeCols).
		AddRow("e-1", "sub-2", "sub-0", models.PrerequisiteEnroll, nil, nil, 1, now).
		AddRow("e-2", "sub-2", "sub-1", models.PrerequisiteEnroll, "plan-1", 2, 2, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM prerequisite_edges WHERE subject_id = $1 ORDER BY kind, position, created_at")).
		WithArgs("sub-2").
		WillReturnRows(rows)

	edges, err := repo.ListBySubject(context.Background(), "sub-2")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "sub-0", edges[0].RequiredSubjectID)
	require.NotNil(t, edges[1].StudyPlanID)
	assert.Equal(t, "plan-1", *edges[1].StudyPlanID)
	require.NotNil(t, edges[1].RequiredLevel)
	assert.Equal(t, 2, *edges[1].RequiredLevel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPrerequisiteRepositoryCreateAssignsPosition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPrerequisiteRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO prerequisite_edges")).
		WithArgs(sqlmock.AnyArg(), "sub-2", "sub-0", models.PrerequisiteFinal, nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(3))

	edge := &models.PrerequisiteEdge{SubjectID: "sub-2", RequiredSubjectID: "sub-0", Kind: models.PrerequisiteFinal}
	require.NoError(t, repo.Create(context.Background(), nil, edge))
	assert.Equal(t, 3, edge.Position)
	assert.NotEmpty(t, edge.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPrerequisiteRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPrerequisiteRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM prerequisite_edges WHERE id = $1")).
		WithArgs("e-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), nil, "e-9")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPrerequisiteRepositoryCycleCheckRunsUnderGraphLock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPrerequisiteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("prerequisite_edges:ENROLL").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM prerequisite_edges WHERE kind = $1")).
		WithArgs(models.PrerequisiteEnroll).
		WillReturnRows(sqlmock.NewRows(edgeCols).
			AddRow("e-1", "sub-1", "sub-0", models.PrerequisiteEnroll, nil, nil, 1, time.Now()))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.LockGraph(context.Background(), tx, models.PrerequisiteEnroll))
	edges, err := repo.ListByKind(context.Background(), tx, models.PrerequisiteEnroll)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
