package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type prerequisiteRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.PrerequisiteEdge, error)
	FindByID(ctx context.Context, id string) (*models.PrerequisiteEdge, error)
	LockGraph(ctx context.Context, exec sqlx.ExtContext, kind models.PrerequisiteKind) error
	ListByKind(ctx context.Context, exec sqlx.ExtContext, kind models.PrerequisiteKind) ([]models.PrerequisiteEdge, error)
	Create(ctx context.Context, exec sqlx.ExtContext, edge *models.PrerequisiteEdge) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type subjectCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Subject, error)
}

type studyPlanReader interface {
	FindStudyPlan(ctx context.Context, id string) (*models.StudyPlan, error)
}

type standingReader interface {
	Standing(ctx context.Context, studentID string) (models.Standing, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

func prerequisiteCacheKey(subjectID string) string {
	return "prereq:subject:" + subjectID
}

// CorrelativesService answers prerequisite questions and manages the edges.
type CorrelativesService struct {
	edges     prerequisiteRepository
	subjects  subjectCatalog
	plans     studyPlanReader
	standings standingReader
	users     userReader
	tx        transactor
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCorrelativesService constructs the service. cache and metrics may be nil.
func NewCorrelativesService(edges prerequisiteRepository, subjects subjectCatalog, plans studyPlanReader, standings standingReader, users userReader, tx transactor, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CorrelativesService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CorrelativesService{
		edges:     edges,
		subjects:  subjects,
		plans:     plans,
		standings: standings,
		users:     users,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// CheckCursada reports whether the student may take the subject's coursework.
func (s *CorrelativesService) CheckCursada(ctx context.Context, studentID, subjectID string) (*models.PrerequisiteResult, error) {
	return s.checkKind(ctx, studentID, subjectID, models.PrerequisiteEnroll)
}

// CheckFinal reports whether the student may sit the subject's final exam.
func (s *CorrelativesService) CheckFinal(ctx context.Context, studentID, subjectID string) (*models.PrerequisiteResult, error) {
	return s.checkKind(ctx, studentID, subjectID, models.PrerequisiteFinal)
}

// CheckAll evaluates both kinds over a single standing snapshot.
func (s *CorrelativesService) CheckAll(ctx context.Context, studentID, subjectID string) (*models.PrerequisiteReport, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	graph, err := s.subjectGraph(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	standing, err := s.loadStanding(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	cursadaEdges := graph.EdgesFor(subjectID, models.PrerequisiteEnroll, student.StudyPlanID)
	finalEdges := graph.EdgesFor(subjectID, models.PrerequisiteFinal, student.StudyPlanID)
	names, err := s.resolveNames(ctx, append(append([]models.PrerequisiteEdge{}, cursadaEdges...), finalEdges...))
	if err != nil {
		return nil, err
	}

	report := &models.PrerequisiteReport{
		Cursada: EvaluatePrerequisites(models.PrerequisiteEnroll, cursadaEdges, standing, names),
		Final:   EvaluatePrerequisites(models.PrerequisiteFinal, finalEdges, standing, names),
	}
	report.Passed = report.Cursada.Satisfied && report.Final.Satisfied
	return report, nil
}

// Evaluate checks one kind for an already loaded student. It is the entry
// point used by the enrollment and exam validators.
func (s *CorrelativesService) Evaluate(ctx context.Context, student *models.User, subjectID string, kind models.PrerequisiteKind) (models.PrerequisiteResult, error) {
	graph, err := s.subjectGraph(ctx, subjectID)
	if err != nil {
		return models.PrerequisiteResult{}, err
	}
	edges := graph.EdgesFor(subjectID, kind, student.StudyPlanID)
	if len(edges) == 0 {
		return models.PrerequisiteResult{Satisfied: true, Missing: []models.SubjectRef{}}, nil
	}
	standing, err := s.loadStanding(ctx, student.ID)
	if err != nil {
		return models.PrerequisiteResult{}, err
	}
	names, err := s.resolveNames(ctx, edges)
	if err != nil {
		return models.PrerequisiteResult{}, err
	}
	return EvaluatePrerequisites(kind, edges, standing, names), nil
}

func (s *CorrelativesService) checkKind(ctx context.Context, studentID, subjectID string, kind models.PrerequisiteKind) (*models.PrerequisiteResult, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	result, err := s.Evaluate(ctx, student, subjectID, kind)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListEdges returns the subject's edges in declaration order.
func (s *CorrelativesService) ListEdges(ctx context.Context, subjectID string) ([]models.PrerequisiteEdge, error) {
	if err := s.ensureSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	graph, err := s.subjectGraph(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	var edges []models.PrerequisiteEdge
	for _, kind := range []models.PrerequisiteKind{models.PrerequisiteEnroll, models.PrerequisiteFinal} {
		edges = append(edges, graph.edges[subjectID][kind]...)
	}
	if edges == nil {
		edges = []models.PrerequisiteEdge{}
	}
	return edges, nil
}

// AddEdge declares a new prerequisite for subjectID. Self references and
// edges closing a cycle are rejected.
func (s *CorrelativesService) AddEdge(ctx context.Context, subjectID string, req models.CreatePrerequisiteRequest) (*models.PrerequisiteEdge, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid prerequisite payload")
	}
	if err := s.ensureSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	if _, err := s.subjects.FindByID(ctx, req.RequiredSubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "required subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load required subject")
	}
	if req.StudyPlanID != nil {
		if _, err := s.plans.FindStudyPlan(ctx, *req.StudyPlanID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plan")
		}
	}

	edge := &models.PrerequisiteEdge{
		SubjectID:         subjectID,
		RequiredSubjectID: req.RequiredSubjectID,
		Kind:              req.Kind,
		StudyPlanID:       req.StudyPlanID,
		RequiredLevel:     req.RequiredLevel,
	}
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.edges.LockGraph(ctx, exec, req.Kind); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock prerequisite graph")
		}
		all, err := s.edges.ListByKind(ctx, exec, req.Kind)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite graph")
		}
		if NewPrerequisiteGraph(all).WouldCycle(subjectID, req.RequiredSubjectID, req.Kind) {
			return appErrors.WithDetails(appErrors.ErrPrerequisiteCycle, "",
				map[string]string{"subject_id": subjectID, "required_subject_id": req.RequiredSubjectID})
		}
		if err := s.edges.Create(ctx, exec, edge); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create prerequisite")
		}
		return s.retireGraph(ctx, subjectID)
	})
	if err != nil {
		return nil, err
	}
	s.refreshGraph(ctx, subjectID)
	s.logger.Info("prerequisite added",
		zap.String("subject_id", subjectID),
		zap.String("required_subject_id", req.RequiredSubjectID),
		zap.String("kind", string(req.Kind)))
	return edge, nil
}

// RemoveEdge deletes an edge.
func (s *CorrelativesService) RemoveEdge(ctx context.Context, edgeID string) error {
	edge, err := s.edges.FindByID(ctx, edgeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "prerequisite not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite")
	}
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.edges.Delete(ctx, exec, edgeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "prerequisite not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete prerequisite")
		}
		return s.retireGraph(ctx, edge.SubjectID)
	})
	if err != nil {
		return err
	}
	s.refreshGraph(ctx, edge.SubjectID)
	return nil
}

// retireGraph bumps the subject's cache generation inside the edge write
// transaction, so a cache failure rolls the write back.
func (s *CorrelativesService) retireGraph(ctx context.Context, subjectID string) error {
	if err := s.cache.Invalidate(ctx, prerequisiteCacheKey(subjectID)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate prerequisite cache")
	}
	return nil
}

// refreshGraph bumps the generation again after commit. Readers that cached
// between the first bump and the commit hold the pre-write graph.
func (s *CorrelativesService) refreshGraph(ctx context.Context, subjectID string) {
	if err := s.cache.Invalidate(ctx, prerequisiteCacheKey(subjectID)); err != nil {
		s.logger.Error("prerequisite cache not refreshed after commit",
			zap.String("subject_id", subjectID), zap.Error(err))
	}
}

func (s *CorrelativesService) loadStudent(ctx context.Context, studentID string) (*models.User, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

func (s *CorrelativesService) ensureSubject(ctx context.Context, subjectID string) error {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return nil
}

// subjectGraph builds the graph restricted to one subject's edges, served
// from the cache when enabled.
func (s *CorrelativesService) subjectGraph(ctx context.Context, subjectID string) (*PrerequisiteGraph, error) {
	edges, err := cachedLoad(ctx, s.cache, prerequisiteCacheKey(subjectID), func(ctx context.Context) ([]models.PrerequisiteEdge, error) {
		return s.edges.ListBySubject(ctx, subjectID)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}
	return NewPrerequisiteGraph(edges), nil
}

func (s *CorrelativesService) loadStanding(ctx context.Context, studentID string) (models.Standing, error) {
	standing, err := s.standings.Standing(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic standing")
	}
	return standing, nil
}

func (s *CorrelativesService) resolveNames(ctx context.Context, edges []models.PrerequisiteEdge) (map[string]models.Subject, error) {
	ids := RequiredSubjectIDs(edges)
	if len(ids) == 0 {
		return map[string]models.Subject{}, nil
	}
	names, err := s.subjects.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve prerequisite subjects")
	}
	return names, nil
}

// prerequisitesUnmet builds the rejection returned by the validators.
func prerequisitesUnmet(result models.PrerequisiteResult) error {
	return appErrors.WithDetails(appErrors.ErrPrerequisitesUnmet,
		fmt.Sprintf("missing prerequisites: %s", strings.Join(result.MissingNames(), ", ")),
		map[string]interface{}{"faltantes": result.Missing})
}
