package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type enrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type finalExamRepository interface {
	FindByID(ctx context.Context, id string) (*models.FinalExam, error)
	ReserveSeat(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error)
	ReleaseSeat(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type examRegistrationRepository interface {
	Exists(ctx context.Context, exec sqlx.ExtContext, enrollmentID, examID string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, reg *models.ExamRegistration) error
	FindDetailByID(ctx context.Context, id string) (*models.ExamRegistrationDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ExamRegistrationDetail, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

// ExamRegistrationService validates final exam registrations and keeps exam
// seat counters consistent with them.
type ExamRegistrationService struct {
	enrollments   enrollmentReader
	exams         finalExamRepository
	registrations examRegistrationRepository
	users         userReader
	checker       prerequisiteEvaluator
	tx            transactor
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewExamRegistrationService constructs the service.
func NewExamRegistrationService(registrations examRegistrationRepository, enrollments enrollmentReader, exams finalExamRepository, users userReader, checker prerequisiteEvaluator, tx transactor, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ExamRegistrationService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamRegistrationService{
		enrollments:   enrollments,
		exams:         exams,
		registrations: registrations,
		users:         users,
		checker:       checker,
		tx:            tx,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// Register signs an enrollment up for a final exam. A student actor may only
// register their own enrollments; staff may register anyone.
func (s *ExamRegistrationService) Register(ctx context.Context, actor *models.JWTClaims, req models.RegisterFinalRequest) (reg *models.ExamRegistration, err error) {
	defer func() { s.metrics.RecordDecision("register_final", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	exam, err := s.exams.FindByID(ctx, req.FinalExamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "final exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final exam")
	}
	if actor != nil && actor.Role == models.RoleStudent && actor.UserID != enrollment.StudentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another student")
	}

	if enrollment.SubjectID != exam.SubjectID {
		return nil, appErrors.Clone(appErrors.ErrSubjectMismatch, "")
	}
	if !exam.HasSeats() {
		return nil, appErrors.Clone(appErrors.ErrNoSeats, "")
	}

	student, err := s.users.FindByID(ctx, enrollment.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	result, err := s.checker.Evaluate(ctx, student, enrollment.SubjectID, models.PrerequisiteFinal)
	if err != nil {
		return nil, err
	}
	if !result.Satisfied {
		return nil, prerequisitesUnmet(result)
	}

	if !CanSitFinal(enrollment.Status) {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidStanding, "",
			map[string]string{"status": string(enrollment.Status)})
	}

	exists, err := s.registrations.Exists(ctx, nil, enrollment.ID, exam.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyRegistered, "")
	}

	reg = &models.ExamRegistration{
		EnrollmentID: enrollment.ID,
		FinalExamID:  exam.ID,
		Status:       models.ExamRegistrationRegistered,
	}
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		reserved, err := s.exams.ReserveSeat(ctx, exec, exam.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve exam seat")
		}
		if !reserved {
			return appErrors.Clone(appErrors.ErrNoSeats, "")
		}
		if err := s.registrations.Create(ctx, exec, reg); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return appErrors.Clone(appErrors.ErrAlreadyRegistered, "")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("final exam registration created",
		zap.String("registration_id", reg.ID),
		zap.String("enrollment_id", reg.EnrollmentID),
		zap.String("final_exam_id", reg.FinalExamID))
	return reg, nil
}

// CanSitFinal reports whether the coursework standing allows a final exam.
func CanSitFinal(status models.EnrollmentStatus) bool {
	return status == models.EnrollmentStatusInProgress || status == models.EnrollmentStatusPassed
}

// Cancel withdraws a registration on behalf of the student owning it.
func (s *ExamRegistrationService) Cancel(ctx context.Context, registrationID, requesterID string) (err error) {
	defer func() { s.metrics.RecordDecision("cancel_final", err) }()

	detail, err := s.loadRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	if detail.StudentID != requesterID {
		return appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another student")
	}
	return s.withdraw(ctx, detail)
}

// Remove withdraws a registration as staff, without ownership checks.
func (s *ExamRegistrationService) Remove(ctx context.Context, registrationID string) (err error) {
	defer func() { s.metrics.RecordDecision("remove_final", err) }()

	detail, err := s.loadRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	return s.withdraw(ctx, detail)
}

// ListByStudent returns the student's registrations.
func (s *ExamRegistrationService) ListByStudent(ctx context.Context, studentID string) ([]models.ExamRegistrationDetail, error) {
	list, err := s.registrations.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	if list == nil {
		list = []models.ExamRegistrationDetail{}
	}
	return list, nil
}

func (s *ExamRegistrationService) loadRegistration(ctx context.Context, id string) (*models.ExamRegistrationDetail, error) {
	detail, err := s.registrations.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return detail, nil
}

func (s *ExamRegistrationService) withdraw(ctx context.Context, detail *models.ExamRegistrationDetail) error {
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.registrations.Delete(ctx, exec, detail.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete registration")
		}
		if err := s.exams.ReleaseSeat(ctx, exec, detail.FinalExamID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release exam seat")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("final exam registration withdrawn",
		zap.String("registration_id", detail.ID),
		zap.String("final_exam_id", detail.FinalExamID))
	return nil
}
