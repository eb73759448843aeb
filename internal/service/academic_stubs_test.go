package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// txStub serialises units of work the way row locks would.
type txStub struct {
	mu    sync.Mutex
	calls int
}

func (t *txStub) WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return fn(nil)
}

type userStub struct {
	users map[string]*models.User
}

func (s userStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

type subjectStub struct {
	subjects map[string]models.Subject
	scopes   map[string]*models.SubjectScope
	plans    map[string]*models.StudyPlan
	mu       sync.Mutex
	locks    int
}

func (s *subjectStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := s.subjects[id]; ok {
		return &subject, nil
	}
	return nil, sql.ErrNoRows
}

func (s *subjectStub) FindByIDs(ctx context.Context, ids []string) (map[string]models.Subject, error) {
	out := make(map[string]models.Subject, len(ids))
	for _, id := range ids {
		if subject, ok := s.subjects[id]; ok {
			out[id] = subject
		}
	}
	return out, nil
}

func (s *subjectStub) Scope(ctx context.Context, subjectID string) (*models.SubjectScope, error) {
	if scope, ok := s.scopes[subjectID]; ok {
		return scope, nil
	}
	if _, ok := s.subjects[subjectID]; ok {
		return &models.SubjectScope{}, nil
	}
	return nil, sql.ErrNoRows
}

func (s *subjectStub) FindStudyPlan(ctx context.Context, id string) (*models.StudyPlan, error) {
	if plan, ok := s.plans[id]; ok {
		return plan, nil
	}
	return nil, sql.ErrNoRows
}

func (s *subjectStub) Lock(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[id]; !ok {
		return sql.ErrNoRows
	}
	s.locks++
	return nil
}

type edgeStub struct {
	mu          sync.Mutex
	edges       []models.PrerequisiteEdge
	subjectList int
	graphLocks  []models.PrerequisiteKind
	createErr   error
	// afterList runs once a subject listing has been read, before it returns.
	afterList func()
}

func (s *edgeStub) LockGraph(ctx context.Context, exec sqlx.ExtContext, kind models.PrerequisiteKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphLocks = append(s.graphLocks, kind)
	return nil
}

func (s *edgeStub) ListBySubject(ctx context.Context, subjectID string) ([]models.PrerequisiteEdge, error) {
	s.mu.Lock()
	s.subjectList++
	var out []models.PrerequisiteEdge
	for _, edge := range s.edges {
		if edge.SubjectID == subjectID {
			out = append(out, edge)
		}
	}
	hook := s.afterList
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (s *edgeStub) ListByKind(ctx context.Context, exec sqlx.ExtContext, kind models.PrerequisiteKind) ([]models.PrerequisiteEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PrerequisiteEdge
	for _, edge := range s.edges {
		if edge.Kind == kind {
			out = append(out, edge)
		}
	}
	return out, nil
}

func (s *edgeStub) FindByID(ctx context.Context, id string) (*models.PrerequisiteEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, edge := range s.edges {
		if edge.ID == id {
			e := edge
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *edgeStub) Create(ctx context.Context, exec sqlx.ExtContext, edge *models.PrerequisiteEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	edge.ID = fmt.Sprintf("edge-%d", len(s.edges)+1)
	edge.Position = len(s.edges) + 1
	s.edges = append(s.edges, *edge)
	return nil
}

func (s *edgeStub) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, edge := range s.edges {
		if edge.ID == id {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

// enrollmentStub keeps enrollments in memory and enforces the single active
// enrollment per student and subject the database index guarantees.
type enrollmentStub struct {
	mu    sync.Mutex
	items []*models.Enrollment
}

func (s *enrollmentStub) add(e models.Enrollment) *models.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = fmt.Sprintf("enr-%d", len(s.items)+1)
	}
	s.items = append(s.items, &e)
	return &e
}

func (s *enrollmentStub) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			clone := *e
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *enrollmentStub) Standing(ctx context.Context, studentID string) (models.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	standing := models.Standing{}
	for _, e := range s.items {
		if e.StudentID == studentID {
			standing.Record(e.SubjectID, e.Status)
		}
	}
	return standing, nil
}

func (s *enrollmentStub) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.EnrollmentDetail
	for i := len(s.items) - 1; i >= 0; i-- {
		e := s.items[i]
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, models.EnrollmentDetail{Enrollment: *e})
	}
	return out, nil
}

func (s *enrollmentStub) ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Enrollment
	for _, e := range s.items {
		if e.StudentID == studentID && e.Status == models.EnrollmentStatusInProgress {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *enrollmentStub) ExistsActive(ctx context.Context, exec sqlx.ExtContext, studentID, subjectID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(studentID, subjectID), nil
}

func (s *enrollmentStub) activeLocked(studentID, subjectID string) bool {
	for _, e := range s.items {
		if e.StudentID == studentID && e.SubjectID == subjectID && e.Status == models.EnrollmentStatusInProgress {
			return true
		}
	}
	return false
}

func (s *enrollmentStub) CountActiveByCommission(ctx context.Context, exec sqlx.ExtContext, commissionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.items {
		if e.CommissionID != nil && *e.CommissionID == commissionID && e.Status == models.EnrollmentStatusInProgress {
			count++
		}
	}
	return count, nil
}

func (s *enrollmentStub) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeLocked(enrollment.StudentID, enrollment.SubjectID) {
		return fmt.Errorf("create enrollment: %w", repository.ErrDuplicate)
	}
	enrollment.ID = fmt.Sprintf("enr-%d", len(s.items)+1)
	enrollment.EnrolledAt = time.Now().UTC()
	stored := *enrollment
	s.items = append(s.items, &stored)
	return nil
}

func (s *enrollmentStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type commissionStub struct {
	commissions map[string]*models.Commission
}

func (s commissionStub) FindByID(ctx context.Context, id string) (*models.Commission, error) {
	if c, ok := s.commissions[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (s commissionStub) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Commission, error) {
	return s.FindByID(ctx, id)
}

type examStub struct {
	mu    sync.Mutex
	exams map[string]*models.FinalExam
}

func (s *examStub) FindByID(ctx context.Context, id string) (*models.FinalExam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exam, ok := s.exams[id]; ok {
		clone := *exam
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *examStub) ReserveSeat(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exam, ok := s.exams[id]
	if !ok || exam.RegisteredCount >= exam.Capacity {
		return false, nil
	}
	exam.RegisteredCount++
	return true, nil
}

func (s *examStub) ReleaseSeat(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exam, ok := s.exams[id]; ok && exam.RegisteredCount > 0 {
		exam.RegisteredCount--
	}
	return nil
}

func (s *examStub) registered(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exams[id].RegisteredCount
}

type registrationStub struct {
	mu          sync.Mutex
	enrollments *enrollmentStub
	items       map[string]*models.ExamRegistration
}

func newRegistrationStub(enrollments *enrollmentStub) *registrationStub {
	return &registrationStub{enrollments: enrollments, items: map[string]*models.ExamRegistration{}}
}

func (s *registrationStub) Exists(ctx context.Context, exec sqlx.ExtContext, enrollmentID, examID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existsLocked(enrollmentID, examID), nil
}

func (s *registrationStub) existsLocked(enrollmentID, examID string) bool {
	for _, reg := range s.items {
		if reg.EnrollmentID == enrollmentID && reg.FinalExamID == examID {
			return true
		}
	}
	return false
}

func (s *registrationStub) Create(ctx context.Context, exec sqlx.ExtContext, reg *models.ExamRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsLocked(reg.EnrollmentID, reg.FinalExamID) {
		return fmt.Errorf("create registration: %w", repository.ErrDuplicate)
	}
	reg.ID = fmt.Sprintf("reg-%d", len(s.items)+1)
	reg.CreatedAt = time.Now().UTC()
	stored := *reg
	s.items[reg.ID] = &stored
	return nil
}

func (s *registrationStub) FindDetailByID(ctx context.Context, id string) (*models.ExamRegistrationDetail, error) {
	s.mu.Lock()
	reg, ok := s.items[id]
	s.mu.Unlock()
	if !ok {
		return nil, sql.ErrNoRows
	}
	enrollment, err := s.enrollments.FindByID(ctx, reg.EnrollmentID)
	if err != nil {
		return nil, err
	}
	return &models.ExamRegistrationDetail{
		ExamRegistration: *reg,
		StudentID:        enrollment.StudentID,
		SubjectID:        enrollment.SubjectID,
	}, nil
}

func (s *registrationStub) ListByStudent(ctx context.Context, studentID string) ([]models.ExamRegistrationDetail, error) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Strings(ids)
	var out []models.ExamRegistrationDetail
	for _, id := range ids {
		detail, err := s.FindDetailByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if detail.StudentID == studentID {
			out = append(out, *detail)
		}
	}
	return out, nil
}

func (s *registrationStub) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

// blockStub mirrors the time block repository over a slice.
type blockStub struct {
	mu          sync.Mutex
	blocks      []models.TimeBlock
	names       map[string]string
	instructors map[string]string
}

func (s *blockStub) FindByID(ctx context.Context, id string) (*models.TimeBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.blocks {
		if b.ID == id {
			clone := b
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *blockStub) List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TimeBlock
	for _, b := range s.blocks {
		if filter.SubjectID != "" && b.SubjectID != filter.SubjectID {
			continue
		}
		if filter.CommissionID != "" && (b.CommissionID == nil || *b.CommissionID != filter.CommissionID) {
			continue
		}
		if filter.Day != "" && b.Day != filter.Day {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *blockStub) ListForScope(ctx context.Context, exec sqlx.ExtContext, subjectID string, commissionID *string, day models.Weekday) ([]models.TimeBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TimeBlock
	for _, b := range s.blocks {
		if b.Day != day {
			continue
		}
		if commissionID != nil {
			if b.CommissionID != nil && *b.CommissionID == *commissionID {
				out = append(out, b)
			}
			continue
		}
		if b.SubjectID == subjectID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *blockStub) Create(ctx context.Context, exec sqlx.ExtContext, block *models.TimeBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	block.ID = fmt.Sprintf("blk-%d", len(s.blocks)+1)
	s.blocks = append(s.blocks, *block)
	return nil
}

func (s *blockStub) Update(ctx context.Context, exec sqlx.ExtContext, block *models.TimeBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.blocks {
		if b.ID == block.ID {
			s.blocks[i] = *block
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *blockStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.blocks {
		if b.ID == id {
			s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *blockStub) detail(b models.TimeBlock) models.TimeBlockDetail {
	return models.TimeBlockDetail{TimeBlock: b, SubjectName: s.names[b.SubjectID]}
}

func (s *blockStub) ListDetailsForEnrollments(ctx context.Context, subjectIDs, commissionIDs []string) ([]models.TimeBlockDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subjects := toSet(subjectIDs)
	commissions := toSet(commissionIDs)
	var out []models.TimeBlockDetail
	for _, b := range s.blocks {
		_, subjectOK := subjects[b.SubjectID]
		if b.CommissionID == nil && subjectOK {
			out = append(out, s.detail(b))
			continue
		}
		if b.CommissionID != nil {
			if _, ok := commissions[*b.CommissionID]; ok {
				out = append(out, s.detail(b))
			}
		}
	}
	return out, nil
}

func (s *blockStub) ListDetailsByInstructor(ctx context.Context, instructorID string) ([]models.TimeBlockDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TimeBlockDetail
	for _, b := range s.blocks {
		direct := b.InstructorID != nil && *b.InstructorID == instructorID
		viaCommission := b.CommissionID != nil && s.instructors[*b.CommissionID] == instructorID
		if direct || viaCommission {
			out = append(out, s.detail(b))
		}
	}
	return out, nil
}

func (s *blockStub) ListAllDetails(ctx context.Context) ([]models.TimeBlockDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TimeBlockDetail, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, s.detail(b))
	}
	return out, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// cacheRepoStub is an in-memory CacheRepository storing values by reference.
type cacheRepoStub struct {
	mu      sync.Mutex
	entries map[string][]models.PrerequisiteEdge
	gens    map[string]int64
	deleted []string
	incrErr error
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: map[string][]models.PrerequisiteEdge{}, gens: map[string]int64{}}
}

func (s *cacheRepoStub) Counter(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[key], nil
}

func (s *cacheRepoStub) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incrErr != nil {
		return 0, s.incrErr
	}
	s.gens[key]++
	return s.gens[key], nil
}

func (s *cacheRepoStub) generation(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[generationKey(key)]
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	target, ok := dest.(*[]models.PrerequisiteEdge)
	if !ok {
		return fmt.Errorf("unexpected cache target %T", dest)
	}
	*target = append([]models.PrerequisiteEdge(nil), value...)
	return nil
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	edges, ok := value.([]models.PrerequisiteEdge)
	if !ok {
		return fmt.Errorf("unexpected cache value %T", value)
	}
	s.entries[key] = append([]models.PrerequisiteEdge(nil), edges...)
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.entries {
		if key == pattern || (prefix != pattern && strings.HasPrefix(key, prefix)) {
			delete(s.entries, key)
		}
	}
	return nil
}

func strPtr(v string) *string { return &v }
