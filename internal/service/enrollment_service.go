package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// transactor runs fn inside a database transaction.
type transactor interface {
	WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

type prerequisiteEvaluator interface {
	Evaluate(ctx context.Context, student *models.User, subjectID string, kind models.PrerequisiteKind) (models.PrerequisiteResult, error)
}

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
	ExistsActive(ctx context.Context, exec sqlx.ExtContext, studentID, subjectID string) (bool, error)
	CountActiveByCommission(ctx context.Context, exec sqlx.ExtContext, commissionID string) (int, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
}

type enrollmentSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Scope(ctx context.Context, subjectID string) (*models.SubjectScope, error)
	FindStudyPlan(ctx context.Context, id string) (*models.StudyPlan, error)
}

type commissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Commission, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Commission, error)
}

// EnrollmentConfig carries institution rules for enrollment.
type EnrollmentConfig struct {
	// UniversalDepartment names the department whose subjects every career may take.
	UniversalDepartment string
}

// EnrollmentService validates and records subject enrollments.
type EnrollmentService struct {
	users       userReader
	subjects    enrollmentSubjectReader
	commissions commissionRepository
	repo        enrollmentRepository
	checker     prerequisiteEvaluator
	tx          transactor
	cfg         EnrollmentConfig
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, users userReader, subjects enrollmentSubjectReader, commissions commissionRepository, checker prerequisiteEvaluator, tx transactor, cfg EnrollmentConfig, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		users:       users,
		subjects:    subjects,
		commissions: commissions,
		repo:        repo,
		checker:     checker,
		tx:          tx,
		cfg:         cfg,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Enroll runs the enrollment gates in order and records an IN_PROGRESS
// enrollment when all pass. The first failing gate decides the error and
// nothing is written before it.
func (s *EnrollmentService) Enroll(ctx context.Context, req models.CreateEnrollmentRequest) (enrollment *models.Enrollment, err error) {
	defer func() { s.metrics.RecordDecision("enroll", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	if strings.TrimSpace(req.StudentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if err := s.checkScope(ctx, student, req.SubjectID); err != nil {
		return nil, err
	}

	result, err := s.checker.Evaluate(ctx, student, req.SubjectID, models.PrerequisiteEnroll)
	if err != nil {
		return nil, err
	}
	if !result.Satisfied {
		return nil, prerequisitesUnmet(result)
	}

	active, err := s.repo.ExistsActive(ctx, nil, student.ID, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if active {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}

	var commission *models.Commission
	if req.CommissionID != nil {
		commission, err = s.commissions.FindByID(ctx, *req.CommissionID)
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

	enrollment = &models.Enrollment{
		StudentID:    student.ID,
		SubjectID:    req.SubjectID,
		CommissionID: req.CommissionID,
		Status:       models.EnrollmentStatusInProgress,
	}
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if commission != nil {
			locked, err := s.commissions.LockByID(ctx, exec, commission.ID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock commission")
			}
			count, err := s.repo.CountActiveByCommission(ctx, exec, locked.ID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count commission enrollments")
			}
			if count >= locked.Capacity {
				return appErrors.WithDetails(appErrors.ErrCommissionFull, "",
					map[string]interface{}{"commission_id": locked.ID, "capacity": locked.Capacity})
			}
		}
		if err := s.repo.Create(ctx, exec, enrollment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("student enrolled",
		zap.String("student_id", enrollment.StudentID),
		zap.String("subject_id", enrollment.SubjectID),
		zap.String("enrollment_id", enrollment.ID))
	return enrollment, nil
}

// checkScope enforces that the subject belongs to the student's career or to
// a universal department.
func (s *EnrollmentService) checkScope(ctx context.Context, student *models.User, subjectID string) error {
	scope, err := s.subjects.Scope(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject scope")
	}

	careerID := ""
	if student.StudyPlanID != nil {
		plan, err := s.subjects.FindStudyPlan(ctx, *student.StudyPlanID)
		switch {
		case err == nil:
			careerID = plan.CareerID
		case errors.Is(err, sql.ErrNoRows):
			s.logger.Warn("student references missing study plan", zap.String("student_id", student.ID))
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plan")
		}
	}

	if InEnrollmentScope(scope, careerID, s.cfg.UniversalDepartment) {
		return nil
	}
	return appErrors.WithDetails(appErrors.ErrOutOfScope, "", map[string]string{"subject_id": subjectID})
}

// InEnrollmentScope decides the scope rule for a subject and a student career.
func InEnrollmentScope(scope *models.SubjectScope, careerID, universalDepartment string) bool {
	if scope == nil {
		return false
	}
	if scope.DepartmentUniversal {
		return true
	}
	if universalDepartment != "" && strings.EqualFold(strings.TrimSpace(scope.DepartmentName), strings.TrimSpace(universalDepartment)) {
		return true
	}
	if careerID == "" {
		return false
	}
	for _, id := range scope.CareerIDs {
		if id == careerID {
			return true
		}
	}
	return false
}

// ListByStudent returns the student's enrollment history, newest first.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	list, err := s.repo.List(ctx, models.EnrollmentFilter{StudentID: studentID, Status: status})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if list == nil {
		list = []models.EnrollmentDetail{}
	}
	return list, nil
}
