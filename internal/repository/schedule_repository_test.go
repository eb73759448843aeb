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

var blockCols = []string{"id", "subject_id", "commission_id", "instructor_id", "day", "start_time", "end_time", "room", "created_at", "updated_at"}

func TestTimeBlockRepositoryListForScopeUsesCommission(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM time_blocks WHERE commission_id = $1 AND day = $2")).
		WithArgs("com-1", models.Monday).
		WillReturnRows(sqlmock.NewRows(blockCols).AddRow("b-1", "sub-1", "com-1", nil, models.Monday, "08:00", "10:00", "A1", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM time_blocks WHERE subject_id = $1 AND day = $2")).
		WithArgs("sub-1", models.Tuesday).
		WillReturnRows(sqlmock.NewRows(blockCols))

	commissionID := "com-1"
	blocks, err := repo.ListForScope(context.Background(), nil, "sub-1", &commissionID, models.Monday)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "08:00", blocks[0].Start)

	blocks, err = repo.ListForScope(context.Background(), nil, "sub-1", nil, models.Tuesday)
	require.NoError(t, err)
	assert.Empty(t, blocks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM time_blocks WHERE subject_id = $1 AND day = $2 ORDER BY day, start_time")).
		WithArgs("sub-1", models.Friday).
		WillReturnRows(sqlmock.NewRows(blockCols))

	_, err := repo.List(context.Background(), models.TimeBlockFilter{SubjectID: "sub-1", Day: models.Friday})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryEnrollmentDetails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	now := time.Now()
	cols := append(append([]string{}, blockCols...), "subject_name", "commission_name")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE (b.commission_id IS NULL AND b.subject_id = ANY($1)) OR b.commission_id = ANY($2)")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("b-1", "sub-1", nil, nil, models.Monday, "08:00", "10:00", "A1", now, now, "Algebra", nil).
			AddRow("b-2", "sub-1", "com-1", nil, models.Wednesday, "14:00", "16:00", "B2", now, now, "Algebra", "Com A"))

	blocks, err := repo.ListDetailsForEnrollments(context.Background(), []string{"sub-1"}, []string{"com-1"})
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.NotNil(t, blocks[1].CommissionName)
	assert.Equal(t, "Com A", *blocks[1].CommissionName)

	none, err := repo.ListDetailsForEnrollments(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_blocks SET")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), nil, &models.TimeBlock{ID: "b-404", SubjectID: "sub-1", Day: models.Monday, Start: "08:00", End: "09:00"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
