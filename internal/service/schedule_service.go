package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type timeBlockRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimeBlock, error)
	List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, error)
	ListForScope(ctx context.Context, exec sqlx.ExtContext, subjectID string, commissionID *string, day models.Weekday) ([]models.TimeBlock, error)
	Create(ctx context.Context, exec sqlx.ExtContext, block *models.TimeBlock) error
	Update(ctx context.Context, exec sqlx.ExtContext, block *models.TimeBlock) error
	Delete(ctx context.Context, id string) error
}

type subjectLocker interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Lock(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type commissionReader interface {
	FindByID(ctx context.Context, id string) (*models.Commission, error)
}

// TimeBlockService maintains weekly time blocks without overlaps in a scope.
type TimeBlockService struct {
	repo        timeBlockRepository
	subjects    subjectLocker
	commissions commissionReader
	tx          transactor
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTimeBlockService constructs the service.
func NewTimeBlockService(repo timeBlockRepository, subjects subjectLocker, commissions commissionReader, tx transactor, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TimeBlockService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeBlockService{
		repo:        repo,
		subjects:    subjects,
		commissions: commissions,
		tx:          tx,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// List returns blocks for a subject, a commission or a day.
func (s *TimeBlockService) List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, error) {
	blocks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time blocks")
	}
	if blocks == nil {
		blocks = []models.TimeBlock{}
	}
	return blocks, nil
}

// Get returns a single block.
func (s *TimeBlockService) Get(ctx context.Context, id string) (*models.TimeBlock, error) {
	block, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
	}
	return block, nil
}

// Create validates and stores a new block.
func (s *TimeBlockService) Create(ctx context.Context, req models.TimeBlockRequest) (block *models.TimeBlock, err error) {
	defer func() { s.metrics.RecordDecision("create_time_block", err) }()

	block, err = s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.write(ctx, block, "", s.repo.Create); err != nil {
		return nil, err
	}
	s.logger.Info("time block created", zap.String("block_id", block.ID), zap.String("subject_id", block.SubjectID))
	return block, nil
}

// Update replaces a block. The block's previous version is not considered a conflict.
func (s *TimeBlockService) Update(ctx context.Context, id string, req models.TimeBlockRequest) (block *models.TimeBlock, err error) {
	defer func() { s.metrics.RecordDecision("update_time_block", err) }()

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	block, err = s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	block.ID = existing.ID
	block.CreatedAt = existing.CreatedAt
	if err := s.write(ctx, block, existing.ID, s.repo.Update); err != nil {
		return nil, err
	}
	s.logger.Info("time block updated", zap.String("block_id", block.ID))
	return block, nil
}

// Delete removes a block.
func (s *TimeBlockService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "time block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time block")
	}
	return nil
}

// prepare validates the request and resolves the block it describes.
func (s *TimeBlockService) prepare(ctx context.Context, req models.TimeBlockRequest) (*models.TimeBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid time block payload")
	}
	day, _ := models.ParseWeekday(string(req.Day))
	span, err := blockInterval(req.Start, req.End)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if span.start >= span.end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start must be before end")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if req.CommissionID != nil {
		commission, err := s.commissions.FindByID(ctx, *req.CommissionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "commission not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commission")
		}
		if commission.SubjectID != req.SubjectID {
			return nil, appErrors.Clone(appErrors.ErrSubjectMismatch, "commission belongs to another subject")
		}
	}

	return &models.TimeBlock{
		SubjectID:    req.SubjectID,
		CommissionID: req.CommissionID,
		InstructorID: req.InstructorID,
		Day:          day,
		Start:        req.Start,
		End:          req.End,
		Room:         req.Room,
	}, nil
}

// write checks the scope for overlaps and persists the block while holding the
// subject row lock, so concurrent edits of the same subject are serialised.
func (s *TimeBlockService) write(ctx context.Context, block *models.TimeBlock, excludeID string, persist func(context.Context, sqlx.ExtContext, *models.TimeBlock) error) error {
	return s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.subjects.Lock(ctx, exec, block.SubjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock subject")
		}
		existing, err := s.repo.ListForScope(ctx, exec, block.SubjectID, block.CommissionID, block.Day)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduled blocks")
		}
		conflict, err := FindOverlap(block.Day, block.Start, block.End, existing, excludeID)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		if conflict != nil {
			return appErrors.WithDetails(appErrors.ErrScheduleOverlap, "", models.ScheduleConflict{
				BlockID:      conflict.ID,
				SubjectID:    conflict.SubjectID,
				CommissionID: conflict.CommissionID,
				Day:          conflict.Day,
				Start:        conflict.Start,
				End:          conflict.End,
				Room:         conflict.Room,
			})
		}
		if err := persist(ctx, exec, block); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "time block not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save time block")
		}
		return nil
	})
}
