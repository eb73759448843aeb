package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-api/internal/models"
)

// CommissionRepository reads subject commissions.
type CommissionRepository struct {
	db *sqlx.DB
}

// NewCommissionRepository constructs the repository.
func NewCommissionRepository(db *sqlx.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

const commissionColumns = `id, subject_id, name, capacity, instructor_id, created_at`

// FindByID returns a commission.
func (r *CommissionRepository) FindByID(ctx context.Context, id string) (*models.Commission, error) {
	query := `SELECT ` + commissionColumns + ` FROM commissions WHERE id = $1`
	var commission models.Commission
	if err := r.db.GetContext(ctx, &commission, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find commission: %w", err)
	}
	return &commission, nil
}

// LockByID reads a commission holding a row lock until the transaction ends.
// Concurrent enrollments into the same commission queue here.
func (r *CommissionRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Commission, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + commissionColumns + ` FROM commissions WHERE id = $1 FOR UPDATE`
	var commission models.Commission
	if err := sqlx.GetContext(ctx, exec, &commission, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock commission: %w", err)
	}
	return &commission, nil
}
