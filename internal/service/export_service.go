package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/export"
)

type agendaBuilder interface {
	BuildAgenda(ctx context.Context, query models.AgendaQuery) ([]models.DayAgenda, error)
}

type datasetRenderer interface {
	Render(format export.Format, data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered agenda ready to be served as a download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders personal agendas as CSV or PDF files.
type ExportService struct {
	agenda   agendaBuilder
	renderer datasetRenderer
	logger   *zap.Logger
	now      func() time.Time
}

var agendaHeaders = []string{"date", "weekday", "start", "end", "subject", "commission", "room", "role"}

// NewExportService constructs an ExportService. A nil renderer falls back to
// the built-in CSV and PDF exporters.
func NewExportService(agenda agendaBuilder, renderer datasetRenderer, logger *zap.Logger) *ExportService {
	if renderer == nil {
		renderer = export.NewRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{agenda: agenda, renderer: renderer, logger: logger, now: time.Now}
}

// ExportAgenda builds the agenda for query and renders it in the given format.
func (s *ExportService) ExportAgenda(ctx context.Context, query models.AgendaQuery, format export.Format) (*ExportResult, error) {
	days, err := s.agenda.BuildAgenda(ctx, query)
	if err != nil {
		return nil, err
	}

	dataset := AgendaDataset(days)
	payload, err := s.renderer.Render(format, dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render agenda")
	}

	s.logger.Info("agenda exported",
		zap.String("user_id", query.UserID),
		zap.String("format", string(format)),
		zap.Int("bytes", len(payload)))

	return &ExportResult{
		Filename:    s.buildFilename(query.UserID, days, format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

// AgendaDataset flattens an agenda into one row per block, grouped by date.
// Days without blocks still produce a row so the calendar stays contiguous.
func AgendaDataset(days []models.DayAgenda) export.Dataset {
	rows := make([]map[string]string, 0, len(days))
	for _, day := range days {
		if len(day.Blocks) == 0 {
			rows = append(rows, map[string]string{
				"date":    day.Date,
				"weekday": string(day.Weekday),
			})
			continue
		}
		for _, block := range day.Blocks {
			commission := ""
			if block.CommissionName != nil {
				commission = *block.CommissionName
			}
			role := "attendee"
			if block.IsInstructor {
				role = "instructor"
			}
			rows = append(rows, map[string]string{
				"date":       day.Date,
				"weekday":    string(day.Weekday),
				"start":      block.Start,
				"end":        block.End,
				"subject":    block.SubjectName,
				"commission": commission,
				"room":       block.Room,
				"role":       role,
			})
		}
	}
	return export.Dataset{
		Title:   "Personal agenda",
		Headers: agendaHeaders,
		Rows:    rows,
		GroupBy: "date",
	}
}

func (s *ExportService) buildFilename(userID string, days []models.DayAgenda, format export.Format) string {
	span := s.now().UTC().Format("20060102")
	if len(days) > 0 {
		span = fmt.Sprintf("%s_%s", days[0].Date, days[len(days)-1].Date)
	}
	return fmt.Sprintf("agenda_%s_%s.%s", userID, span, format)
}
