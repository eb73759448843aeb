package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-api/internal/models"
)

// ExamRegistrationRepository persists final exam registrations.
type ExamRegistrationRepository struct {
	db *sqlx.DB
}

// NewExamRegistrationRepository constructs the repository.
func NewExamRegistrationRepository(db *sqlx.DB) *ExamRegistrationRepository {
	return &ExamRegistrationRepository{db: db}
}

func (r *ExamRegistrationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const registrationDetailQuery = `SELECT r.id, r.enrollment_id, r.final_exam_id, r.status, r.grade, r.created_at,
    e.student_id, x.subject_id, s.name AS subject_name, x.exam_date, x.start_time, x.end_time, x.room
FROM exam_registrations r
JOIN enrollments e ON e.id = r.enrollment_id
JOIN final_exams x ON x.id = r.final_exam_id
JOIN subjects s ON s.id = x.subject_id`

// Exists reports whether the enrollment is already registered for the exam.
func (r *ExamRegistrationRepository) Exists(ctx context.Context, exec sqlx.ExtContext, enrollmentID, examID string) (bool, error) {
	const query = `SELECT 1 FROM exam_registrations WHERE enrollment_id = $1 AND final_exam_id = $2 LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, enrollmentID, examID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check exam registration: %w", err)
	}
	return true, nil
}

// Create inserts a registration.
func (r *ExamRegistrationRepository) Create(ctx context.Context, exec sqlx.ExtContext, reg *models.ExamRegistration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	if reg.Status == "" {
		reg.Status = models.ExamRegistrationRegistered
	}
	const query = `INSERT INTO exam_registrations (id, enrollment_id, final_exam_id, status, grade, created_at)
VALUES (:id, :enrollment_id, :final_exam_id, :status, :grade, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, reg); err != nil {
		return fmt.Errorf("create exam registration: %w", duplicateOr(err))
	}
	return nil
}

// FindDetailByID returns a registration with its owner and exam data.
func (r *ExamRegistrationRepository) FindDetailByID(ctx context.Context, id string) (*models.ExamRegistrationDetail, error) {
	query := registrationDetailQuery + ` WHERE r.id = $1`
	var detail models.ExamRegistrationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find exam registration: %w", err)
	}
	return &detail, nil
}

// ListByStudent returns the student's registrations, soonest exam first.
func (r *ExamRegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ExamRegistrationDetail, error) {
	query := registrationDetailQuery + ` WHERE e.student_id = $1 ORDER BY x.exam_date, x.start_time`
	var details []models.ExamRegistrationDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID); err != nil {
		return nil, fmt.Errorf("list exam registrations: %w", err)
	}
	return details, nil
}

// Delete removes a registration. Missing rows surface as sql.ErrNoRows.
func (r *ExamRegistrationRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM exam_registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete exam registration: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
