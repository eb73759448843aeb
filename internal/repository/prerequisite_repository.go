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

// PrerequisiteRepository persists prerequisite edges.
type PrerequisiteRepository struct {
	db *sqlx.DB
}

// NewPrerequisiteRepository constructs the repository.
func NewPrerequisiteRepository(db *sqlx.DB) *PrerequisiteRepository {
	return &PrerequisiteRepository{db: db}
}

func (r *PrerequisiteRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// LockGraph serialises edge writes of one kind until the transaction ends.
func (r *PrerequisiteRepository) LockGraph(ctx context.Context, exec sqlx.ExtContext, kind models.PrerequisiteKind) error {
	if _, err := r.exec(exec).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "prerequisite_edges:"+string(kind)); err != nil {
		return fmt.Errorf("lock prerequisite graph: %w", err)
	}
	return nil
}

const prerequisiteColumns = `id, subject_id, required_subject_id, kind, study_plan_id, required_level, position, created_at`

// ListBySubject returns every edge of a subject in declaration order.
func (r *PrerequisiteRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.PrerequisiteEdge, error) {
	query := `SELECT ` + prerequisiteColumns + ` FROM prerequisite_edges WHERE subject_id = $1 ORDER BY kind, position, created_at`
	var edges []models.PrerequisiteEdge
	if err := r.db.SelectContext(ctx, &edges, query, subjectID); err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	return edges, nil
}

// ListByKind returns all edges of a kind, used to check acyclicity.
func (r *PrerequisiteRepository) ListByKind(ctx context.Context, exec sqlx.ExtContext, kind models.PrerequisiteKind) ([]models.PrerequisiteEdge, error) {
	query := `SELECT ` + prerequisiteColumns + ` FROM prerequisite_edges WHERE kind = $1 ORDER BY subject_id, position`
	var edges []models.PrerequisiteEdge
	if err := sqlx.SelectContext(ctx, r.exec(exec), &edges, query, kind); err != nil {
		return nil, fmt.Errorf("list prerequisites by kind: %w", err)
	}
	return edges, nil
}

// FindByID returns a single edge.
func (r *PrerequisiteRepository) FindByID(ctx context.Context, id string) (*models.PrerequisiteEdge, error) {
	query := `SELECT ` + prerequisiteColumns + ` FROM prerequisite_edges WHERE id = $1`
	var edge models.PrerequisiteEdge
	if err := r.db.GetContext(ctx, &edge, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find prerequisite: %w", err)
	}
	return &edge, nil
}

// Create appends an edge after the existing edges of the same subject and kind.
func (r *PrerequisiteRepository) Create(ctx context.Context, exec sqlx.ExtContext, edge *models.PrerequisiteEdge) error {
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO prerequisite_edges (id, subject_id, required_subject_id, kind, study_plan_id, required_level, position, created_at)
VALUES ($1, $2, $3, $4, $5, $6,
    (SELECT COALESCE(MAX(position), 0) + 1 FROM prerequisite_edges WHERE subject_id = $2 AND kind = $4), $7)
RETURNING position`
	if err := r.exec(exec).QueryRowxContext(ctx, query,
		edge.ID, edge.SubjectID, edge.RequiredSubjectID, edge.Kind, edge.StudyPlanID, edge.RequiredLevel, edge.CreatedAt,
	).Scan(&edge.Position); err != nil {
		return fmt.Errorf("create prerequisite: %w", duplicateOr(err))
	}
	return nil
}

// Delete removes an edge.
func (r *PrerequisiteRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM prerequisite_edges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete prerequisite: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
