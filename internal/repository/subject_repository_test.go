package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
)

func TestSubjectRepositoryScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AS department_universal")).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"department_name", "department_universal"}).AddRow("Engineering", false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT p.career_id")).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"career_id"}).AddRow("car-1").AddRow("car-2"))

	scope, err := repo.Scope(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "Engineering", scope.DepartmentName)
	assert.False(t, scope.DepartmentUniversal)
	assert.Equal(t, []string{"car-1", "car-2"}, scope.CareerIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByIDsSkipsUnknown(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "department_id", "created_at", "updated_at"}).
			AddRow("sub-0", "MAT0", "Intro", "dep-1", now, now))

	subjects, err := repo.FindByIDs(context.Background(), []string{"sub-0", "sub-x"})
	require.NoError(t, err)
	assert.Len(t, subjects, 1)
	assert.Equal(t, "Intro", subjects["sub-0"].Name)

	empty, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryLock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM subjects WHERE id = $1 FOR UPDATE")).
		WithArgs("sub-404").
		WillReturnError(sql.ErrNoRows)

	err := repo.Lock(context.Background(), nil, "sub-404")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 LIMIT 1")).
		WithArgs("usr-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "role", "study_plan_id", "active", "created_at", "updated_at"}).
			AddRow("usr-1", "ana@campus.edu", "Ana", models.RoleStudent, "plan-1", true, now, now))

	user, err := repo.FindByID(context.Background(), "usr-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	require.NotNil(t, user.StudyPlanID)
	assert.Equal(t, "plan-1", *user.StudyPlanID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommissionRepositoryLockByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCommissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM commissions WHERE id = $1 FOR UPDATE")).
		WithArgs("com-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_id", "name", "capacity", "instructor_id", "created_at"}).
			AddRow("com-1", "sub-1", "A", 1, nil, time.Now()))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	commission, err := repo.LockByID(context.Background(), tx, "com-1")
	require.NoError(t, err)
	assert.Equal(t, 1, commission.Capacity)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "campus", nil)
	var dest []string
	assert.Error(t, repo.Get(context.Background(), "prereq:subject:1", &dest))
	assert.NoError(t, repo.Set(context.Background(), "prereq:subject:1", []string{"a"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "prereq:*"))
	assert.NoError(t, repo.PingContext(context.Background()))
	gen, err := repo.Incr(context.Background(), "prereq:subject:1:gen")
	assert.NoError(t, err)
	assert.Zero(t, gen)
	gen, err = repo.Counter(context.Background(), "prereq:subject:1:gen")
	assert.NoError(t, err)
	assert.Zero(t, gen)
	assert.Equal(t, "campus:prereq:1", repo.key("prereq:1"))
}
