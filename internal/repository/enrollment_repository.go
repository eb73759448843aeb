package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const enrollmentColumns = `id, student_id, subject_id, commission_id, status, absences, final_grade, enrolled_at, finished_at`

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// Standing returns the student's best status per subject.
func (r *EnrollmentRepository) Standing(ctx context.Context, studentID string) (models.Standing, error) {
	const query = `SELECT subject_id, status FROM enrollments WHERE student_id = $1`
	rows, err := r.db.QueryxContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("load standing: %w", err)
	}
	defer rows.Close()

	standing := models.Standing{}
	for rows.Next() {
		var subjectID string
		var status models.EnrollmentStatus
		if err := rows.Scan(&subjectID, &status); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		standing.Record(subjectID, status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standing: %w", err)
	}
	return standing, nil
}

// List returns enrollments with subject and commission names, newest first.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("e.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := `SELECT e.id, e.student_id, e.subject_id, e.commission_id, e.status, e.absences, e.final_grade, e.enrolled_at, e.finished_at,
    s.code AS subject_code, s.name AS subject_name, c.name AS commission_name
FROM enrollments e
JOIN subjects s ON s.id = e.subject_id
LEFT JOIN commissions c ON c.id = e.commission_id` + clause + ` ORDER BY e.enrolled_at DESC`

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListActiveByStudent returns the student's in-progress enrollments.
func (r *EnrollmentRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 AND status = $2`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, models.EnrollmentStatusInProgress); err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	return enrollments, nil
}

// ExistsActive reports whether the student already takes the subject.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, exec sqlx.ExtContext, studentID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND subject_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, studentID, subjectID, models.EnrollmentStatusInProgress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// CountActiveByCommission counts in-progress enrollments of a commission.
func (r *EnrollmentRepository) CountActiveByCommission(ctx context.Context, exec sqlx.ExtContext, commissionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE commission_id = $1 AND status = $2`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, commissionID, models.EnrollmentStatusInProgress); err != nil {
		return 0, fmt.Errorf("count commission enrollments: %w", err)
	}
	return count, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusInProgress
	}
	const query = `INSERT INTO enrollments (id, student_id, subject_id, commission_id, status, absences, final_grade, enrolled_at, finished_at)
VALUES (:id, :student_id, :subject_id, :commission_id, :status, :absences, :final_grade, :enrolled_at, :finished_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", duplicateOr(err))
	}
	return nil
}
