package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type activeEnrollmentReader interface {
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type agendaBlockReader interface {
	ListDetailsForEnrollments(ctx context.Context, subjectIDs, commissionIDs []string) ([]models.TimeBlockDetail, error)
	ListDetailsByInstructor(ctx context.Context, instructorID string) ([]models.TimeBlockDetail, error)
	ListAllDetails(ctx context.Context) ([]models.TimeBlockDetail, error)
}

// AgendaConfig carries the agenda window rules.
type AgendaConfig struct {
	Location    *time.Location
	DefaultDays int
	MaxDays     int
}

// AgendaService projects weekly time blocks onto calendar days.
type AgendaService struct {
	users       userReader
	enrollments activeEnrollmentReader
	blocks      agendaBlockReader
	cfg         AgendaConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewAgendaService constructs the service.
func NewAgendaService(users userReader, enrollments activeEnrollmentReader, blocks agendaBlockReader, cfg AgendaConfig, logger *zap.Logger) *AgendaService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 6
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = 120
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgendaService{
		users:       users,
		enrollments: enrollments,
		blocks:      blocks,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the clock used to resolve "today".
func (s *AgendaService) WithClock(now func() time.Time) *AgendaService {
	if now != nil {
		s.now = now
	}
	return s
}

// Location returns the institutional time zone agenda dates are read in.
func (s *AgendaService) Location() *time.Location {
	return s.cfg.Location
}

// blockSource yields the weekly blocks a user attends, chosen once per role.
type blockSource func(ctx context.Context, user *models.User) ([]weekdayBlock, error)

func (s *AgendaService) sourceFor(role models.UserRole) blockSource {
	switch role {
	case models.RoleStudent:
		return s.studentBlocks
	case models.RoleInstructor:
		return s.instructorBlocks
	default:
		return s.oversightBlocks
	}
}

// BuildAgenda returns one entry per day of the closed range [from, to] with
// the blocks that apply on that weekday, ordered by start time.
func (s *AgendaService) BuildAgenda(ctx context.Context, query models.AgendaQuery) ([]models.DayAgenda, error) {
	from, to, err := s.window(query.From, query.To)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, query.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	blocks, err := s.sourceFor(user.Role)(ctx, user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time blocks")
	}

	byDay := make(map[models.Weekday][]models.AgendaBlock)
	for _, b := range blocks {
		byDay[b.day] = append(byDay[b.day], b.AgendaBlock)
	}
	for day := range byDay {
		sortBlocks(byDay[day])
	}

	days := make([]models.DayAgenda, 0, daysBetween(from, to)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		weekday := models.WeekdayOf(d.Weekday())
		entries := byDay[weekday]
		dayBlocks := make([]models.AgendaBlock, len(entries))
		copy(dayBlocks, entries)
		days = append(days, models.DayAgenda{
			Date:    d.Format(models.DateLayout),
			Weekday: weekday,
			Blocks:  dayBlocks,
		})
	}

	s.logger.Debug("agenda built",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Int("days", len(days)))
	return days, nil
}

// window resolves defaults and validates the requested range. Dates are
// truncated to civil days in the configured location.
func (s *AgendaService) window(from, to time.Time) (time.Time, time.Time, error) {
	loc := s.cfg.Location
	if from.IsZero() {
		from = s.now()
	}
	from = civilDay(from, loc)
	if to.IsZero() {
		to = from.AddDate(0, 0, s.cfg.DefaultDays)
	}
	to = civilDay(to, loc)

	if to.Before(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidAgendaWindow, "to must not be before from")
	}
	if span := daysBetween(from, to); span > s.cfg.MaxDays {
		return time.Time{}, time.Time{}, appErrors.WithDetails(appErrors.ErrInvalidAgendaWindow,
			fmt.Sprintf("range exceeds %d days", s.cfg.MaxDays),
			map[string]int{"requested_days": span, "max_days": s.cfg.MaxDays})
	}
	return from, to, nil
}

// weekdayBlock pairs an agenda entry with the weekday it recurs on.
type weekdayBlock struct {
	models.AgendaBlock
	day models.Weekday
}

func (s *AgendaService) studentBlocks(ctx context.Context, user *models.User) ([]weekdayBlock, error) {
	enrollments, err := s.enrollments.ListActiveByStudent(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	subjectIDs := make([]string, 0, len(enrollments))
	var commissionIDs []string
	for _, e := range enrollments {
		subjectIDs = append(subjectIDs, e.SubjectID)
		if e.CommissionID != nil {
			commissionIDs = append(commissionIDs, *e.CommissionID)
		}
	}
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	details, err := s.blocks.ListDetailsForEnrollments(ctx, subjectIDs, commissionIDs)
	if err != nil {
		return nil, err
	}
	return toAgendaBlocks(details, false), nil
}

func (s *AgendaService) instructorBlocks(ctx context.Context, user *models.User) ([]weekdayBlock, error) {
	details, err := s.blocks.ListDetailsByInstructor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return toAgendaBlocks(details, true), nil
}

func (s *AgendaService) oversightBlocks(ctx context.Context, _ *models.User) ([]weekdayBlock, error) {
	details, err := s.blocks.ListAllDetails(ctx)
	if err != nil {
		return nil, err
	}
	return toAgendaBlocks(details, false), nil
}

func toAgendaBlocks(details []models.TimeBlockDetail, instructor bool) []weekdayBlock {
	out := make([]weekdayBlock, 0, len(details))
	for _, d := range details {
		out = append(out, weekdayBlock{
			day: d.Day,
			AgendaBlock: models.AgendaBlock{
				BlockID:        d.ID,
				SubjectID:      d.SubjectID,
				SubjectName:    d.SubjectName,
				CommissionID:   d.CommissionID,
				CommissionName: d.CommissionName,
				Start:          d.Start,
				End:            d.End,
				Room:           d.Room,
				IsInstructor:   instructor,
			},
		})
	}
	return out
}

// sortBlocks orders by start, then end, then block id for a stable output.
func sortBlocks(blocks []models.AgendaBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		si, _ := models.ParseClock(blocks[i].Start)
		sj, _ := models.ParseClock(blocks[j].Start)
		if si != sj {
			return si < sj
		}
		ei, _ := models.ParseClock(blocks[i].End)
		ej, _ := models.ParseClock(blocks[j].End)
		if ei != ej {
			return ei < ej
		}
		return blocks[i].BlockID < blocks[j].BlockID
	})
}

func civilDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days, tolerant of DST shifts.
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
