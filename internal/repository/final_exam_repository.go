package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-api/internal/models"
)

// FinalExamRepository reads final exams and maintains their seat counters.
type FinalExamRepository struct {
	db *sqlx.DB
}

// NewFinalExamRepository constructs the repository.
func NewFinalExamRepository(db *sqlx.DB) *FinalExamRepository {
	return &FinalExamRepository{db: db}
}

func (r *FinalExamRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns a final exam.
func (r *FinalExamRepository) FindByID(ctx context.Context, id string) (*models.FinalExam, error) {
	const query = `SELECT id, subject_id, instructor_id, exam_date, start_time, end_time, room, capacity, registered_count
FROM final_exams WHERE id = $1`
	var exam models.FinalExam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find final exam: %w", err)
	}
	return &exam, nil
}

// ReserveSeat increments the registered count only while seats remain. It
// returns false when the exam was already full.
func (r *FinalExamRepository) ReserveSeat(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	const query = `UPDATE final_exams SET registered_count = registered_count + 1 WHERE id = $1 AND registered_count < capacity`
	res, err := r.exec(exec).ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("reserve exam seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve exam seat: %w", err)
	}
	return affected == 1, nil
}

// ReleaseSeat decrements the registered count without going below zero.
func (r *FinalExamRepository) ReleaseSeat(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE final_exams SET registered_count = GREATEST(registered_count - 1, 0) WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("release exam seat: %w", err)
	}
	return nil
}
