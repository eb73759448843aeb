package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/service"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/export"
	"github.com/noah-isme/campus-api/pkg/response"
)

type agendaService interface {
	BuildAgenda(ctx context.Context, query models.AgendaQuery) ([]models.DayAgenda, error)
	Location() *time.Location
}

type agendaExporter interface {
	ExportAgenda(ctx context.Context, query models.AgendaQuery, format export.Format) (*service.ExportResult, error)
}

// AgendaHandler exposes personal agendas.
type AgendaHandler struct {
	agenda   agendaService
	exporter agendaExporter
}

// NewAgendaHandler constructs AgendaHandler.
func NewAgendaHandler(agenda agendaService, exporter agendaExporter) *AgendaHandler {
	return &AgendaHandler{agenda: agenda, exporter: exporter}
}

// query reads from/to as civil dates and the target user. Only staff may look
// at someone else's agenda.
func (h *AgendaHandler) query(c *gin.Context) (models.AgendaQuery, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.AgendaQuery{}, appErrors.ErrUnauthorized
	}
	q := models.AgendaQuery{UserID: claims.UserID}
	if requested := strings.TrimSpace(c.Query("userId")); requested != "" && requested != claims.UserID {
		if !claims.Role.IsStaff() {
			return models.AgendaQuery{}, appErrors.Clone(appErrors.ErrForbidden, "only staff may view other agendas")
		}
		q.UserID = requested
	}

	loc := h.agenda.Location()
	for _, param := range []struct {
		name   string
		target *time.Time
	}{{"from", &q.From}, {"to", &q.To}} {
		raw := strings.TrimSpace(c.Query(param.name))
		if raw == "" {
			continue
		}
		parsed, err := time.ParseInLocation(models.DateLayout, raw, loc)
		if err != nil {
			return models.AgendaQuery{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be YYYY-MM-DD", param.name))
		}
		*param.target = parsed
	}
	return q, nil
}

// Get godoc
// @Summary Personal agenda
// @Description One entry per day of the closed range with the blocks that apply on that weekday.
// @Tags Agenda
// @Produce json
// @Param from query string false "First day (YYYY-MM-DD), defaults to today"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Param userId query string false "Target user (staff only)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /agenda [get]
func (h *AgendaHandler) Get(c *gin.Context) {
	q, err := h.query(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	days, err := h.agenda.BuildAgenda(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, response.Meta{"user_id": q.UserID, "days": len(days)})
}

// Export godoc
// @Summary Download personal agenda
// @Tags Agenda
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Param userId query string false "Target user (staff only)"
// @Success 200 {file} file
// @Router /agenda/export [get]
func (h *AgendaHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	q, err := h.query(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exporter.ExportAgenda(c.Request.Context(), q, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
