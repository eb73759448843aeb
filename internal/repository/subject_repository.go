package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-api/internal/models"
)

// SubjectRepository reads the subject catalogue and its curriculum placement.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository instantiates the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns the subject with its department name.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT s.id, s.code, s.name, s.department_id, COALESCE(d.name, '') AS department_name, s.created_at, s.updated_at
FROM subjects s
LEFT JOIN departments d ON d.id = s.department_id
WHERE s.id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

// FindByIDs returns the subjects found among ids keyed by id. Unknown ids are absent.
func (r *SubjectRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Subject, error) {
	result := make(map[string]models.Subject, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	const query = `SELECT id, code, name, department_id, created_at, updated_at FROM subjects WHERE id = ANY($1)`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find subjects by ids: %w", err)
	}
	for _, subject := range subjects {
		result[subject.ID] = subject
	}
	return result, nil
}

// Scope returns the department flags of a subject and the careers whose plans include it.
func (r *SubjectRepository) Scope(ctx context.Context, subjectID string) (*models.SubjectScope, error) {
	const deptQuery = `SELECT COALESCE(d.name, '') AS department_name, COALESCE(d.universal, FALSE) AS department_universal
FROM subjects s
LEFT JOIN departments d ON d.id = s.department_id
WHERE s.id = $1`
	var scope models.SubjectScope
	if err := r.db.GetContext(ctx, &scope, deptQuery, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("load subject department: %w", err)
	}

	const careerQuery = `SELECT DISTINCT p.career_id
FROM subject_plan_memberships m
JOIN study_plans p ON p.id = m.study_plan_id
WHERE m.subject_id = $1
ORDER BY p.career_id`
	if err := r.db.SelectContext(ctx, &scope.CareerIDs, careerQuery, subjectID); err != nil {
		return nil, fmt.Errorf("load subject careers: %w", err)
	}
	return &scope, nil
}

// FindStudyPlan returns a study plan by id.
func (r *SubjectRepository) FindStudyPlan(ctx context.Context, id string) (*models.StudyPlan, error) {
	const query = `SELECT id, career_id, name FROM study_plans WHERE id = $1`
	var plan models.StudyPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find study plan: %w", err)
	}
	return &plan, nil
}

// Lock takes a row lock on the subject for the rest of the transaction.
func (r *SubjectRepository) Lock(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `SELECT id FROM subjects WHERE id = $1 FOR UPDATE`
	var locked string
	if err := sqlx.GetContext(ctx, r.exec(exec), &locked, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock subject: %w", err)
	}
	return nil
}
