package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
)

var userCols = []string{"id", "email", "full_name", "role", "study_plan_id", "active", "created_at", "updated_at"}

func TestUserRepositoryFindByEmailIgnoresCase(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE lower(email) = lower($1) LIMIT 1")).
		WithArgs("Ines@Campus.edu").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("ins-1", "ines@campus.edu", "Ines", models.RoleInstructor, nil, true, now, now))

	user, err := repo.FindByEmail(context.Background(), "Ines@Campus.edu")
	require.NoError(t, err)
	assert.Equal(t, "ins-1", user.ID)
	assert.Nil(t, user.StudyPlanID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmailMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE lower\\(email\\)").
		WithArgs("ghost@campus.edu").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.FindByEmail(context.Background(), "ghost@campus.edu")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}
