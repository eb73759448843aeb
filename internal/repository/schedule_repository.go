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
	"github.com/lib/pq"

	"github.com/noah-isme/campus-api/internal/models"
)

// TimeBlockRepository persists weekly time blocks of subjects and commissions.
type TimeBlockRepository struct {
	db *sqlx.DB
}

// NewTimeBlockRepository constructs the repository.
func NewTimeBlockRepository(db *sqlx.DB) *TimeBlockRepository {
	return &TimeBlockRepository{db: db}
}

func (r *TimeBlockRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const timeBlockColumns = `id, subject_id, commission_id, instructor_id, day, start_time, end_time, room, created_at, updated_at`

const timeBlockDetailSelect = `SELECT b.id, b.subject_id, b.commission_id, b.instructor_id, b.day, b.start_time, b.end_time, b.room, b.created_at, b.updated_at,
    s.name AS subject_name, c.name AS commission_name
FROM time_blocks b
JOIN subjects s ON s.id = b.subject_id
LEFT JOIN commissions c ON c.id = b.commission_id`

// FindByID returns a block.
func (r *TimeBlockRepository) FindByID(ctx context.Context, id string) (*models.TimeBlock, error) {
	query := `SELECT ` + timeBlockColumns + ` FROM time_blocks WHERE id = $1`
	var block models.TimeBlock
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find time block: %w", err)
	}
	return &block, nil
}

// List returns blocks matching the filter ordered by day and start.
func (r *TimeBlockRepository) List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, error) {
	var conditions []string
	var args []interface{}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.CommissionID != "" {
		conditions = append(conditions, fmt.Sprintf("commission_id = $%d", len(args)+1))
		args = append(args, filter.CommissionID)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}
	query := `SELECT ` + timeBlockColumns + ` FROM time_blocks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY day, start_time"

	var blocks []models.TimeBlock
	if err := r.db.SelectContext(ctx, &blocks, query, args...); err != nil {
		return nil, fmt.Errorf("list time blocks: %w", err)
	}
	return blocks, nil
}

// ListForScope returns the blocks an edited block is compared against: the
// commission's blocks when commissionID is set, otherwise the subject's.
func (r *TimeBlockRepository) ListForScope(ctx context.Context, exec sqlx.ExtContext, subjectID string, commissionID *string, day models.Weekday) ([]models.TimeBlock, error) {
	var (
		query string
		args  []interface{}
	)
	if commissionID != nil && *commissionID != "" {
		query = `SELECT ` + timeBlockColumns + ` FROM time_blocks WHERE commission_id = $1 AND day = $2`
		args = []interface{}{*commissionID, day}
	} else {
		query = `SELECT ` + timeBlockColumns + ` FROM time_blocks WHERE subject_id = $1 AND day = $2`
		args = []interface{}{subjectID, day}
	}
	var blocks []models.TimeBlock
	if err := sqlx.SelectContext(ctx, r.exec(exec), &blocks, query, args...); err != nil {
		return nil, fmt.Errorf("list scoped time blocks: %w", err)
	}
	return blocks, nil
}

// Create inserts a block.
func (r *TimeBlockRepository) Create(ctx context.Context, exec sqlx.ExtContext, block *models.TimeBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	block.CreatedAt = now
	block.UpdatedAt = now
	const query = `INSERT INTO time_blocks (id, subject_id, commission_id, instructor_id, day, start_time, end_time, room, created_at, updated_at)
VALUES (:id, :subject_id, :commission_id, :instructor_id, :day, :start_time, :end_time, :room, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, block); err != nil {
		return fmt.Errorf("create time block: %w", err)
	}
	return nil
}

// Update replaces every mutable column of a block.
func (r *TimeBlockRepository) Update(ctx context.Context, exec sqlx.ExtContext, block *models.TimeBlock) error {
	block.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_blocks SET subject_id = :subject_id, commission_id = :commission_id, instructor_id = :instructor_id,
    day = :day, start_time = :start_time, end_time = :end_time, room = :room, updated_at = :updated_at
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, block)
	if err != nil {
		return fmt.Errorf("update time block: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a block.
func (r *TimeBlockRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete time block: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDetailsForEnrollments returns the general blocks of subjectIDs (those
// without a commission) together with every block of commissionIDs.
func (r *TimeBlockRepository) ListDetailsForEnrollments(ctx context.Context, subjectIDs, commissionIDs []string) ([]models.TimeBlockDetail, error) {
	if len(subjectIDs) == 0 && len(commissionIDs) == 0 {
		return nil, nil
	}
	query := timeBlockDetailSelect + `
WHERE (b.commission_id IS NULL AND b.subject_id = ANY($1)) OR b.commission_id = ANY($2)`
	var blocks []models.TimeBlockDetail
	if err := r.db.SelectContext(ctx, &blocks, query, pq.Array(subjectIDs), pq.Array(commissionIDs)); err != nil {
		return nil, fmt.Errorf("list enrollment time blocks: %w", err)
	}
	return blocks, nil
}

// ListDetailsByInstructor returns blocks taught by the instructor, either
// directly or through a commission they lead.
func (r *TimeBlockRepository) ListDetailsByInstructor(ctx context.Context, instructorID string) ([]models.TimeBlockDetail, error) {
	query := timeBlockDetailSelect + `
WHERE b.instructor_id = $1 OR c.instructor_id = $1`
	var blocks []models.TimeBlockDetail
	if err := r.db.SelectContext(ctx, &blocks, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor time blocks: %w", err)
	}
	return blocks, nil
}

// ListAllDetails returns every block.
func (r *TimeBlockRepository) ListAllDetails(ctx context.Context) ([]models.TimeBlockDetail, error) {
	var blocks []models.TimeBlockDetail
	if err := r.db.SelectContext(ctx, &blocks, timeBlockDetailSelect); err != nil {
		return nil, fmt.Errorf("list time blocks: %w", err)
	}
	return blocks, nil
}
