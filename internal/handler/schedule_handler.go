package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/response"
)

type timeBlockService interface {
	List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, error)
	Create(ctx context.Context, req models.TimeBlockRequest) (*models.TimeBlock, error)
	Update(ctx context.Context, id string, req models.TimeBlockRequest) (*models.TimeBlock, error)
	Delete(ctx context.Context, id string) error
}

// TimeBlockHandler exposes weekly time block management.
type TimeBlockHandler struct {
	blocks timeBlockService
}

// NewTimeBlockHandler constructs TimeBlockHandler.
func NewTimeBlockHandler(blocks timeBlockService) *TimeBlockHandler {
	return &TimeBlockHandler{blocks: blocks}
}

// List godoc
// @Summary List time blocks
// @Tags Time Blocks
// @Produce json
// @Param subjectId query string false "Filter by subject"
// @Param commissionId query string false "Filter by commission"
// @Param day query string false "Filter by weekday (MONDAY..SUNDAY)"
// @Success 200 {object} response.Envelope
// @Router /time-blocks [get]
func (h *TimeBlockHandler) List(c *gin.Context) {
	filter := models.TimeBlockFilter{
		SubjectID:    strings.TrimSpace(c.Query("subjectId")),
		CommissionID: strings.TrimSpace(c.Query("commissionId")),
	}
	if raw := c.Query("day"); raw != "" {
		day, ok := models.ParseWeekday(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid day"))
			return
		}
		filter.Day = day
	}
	if filter.SubjectID == "" && filter.CommissionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subjectId or commissionId is required"))
		return
	}
	blocks, err := h.blocks.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, blocks)
}

// Create godoc
// @Summary Create a time block
// @Tags Time Blocks
// @Accept json
// @Produce json
// @Param payload body models.TimeBlockRequest true "Time block payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope "SCHEDULE_OVERLAP carries the conflicting block in details"
// @Router /time-blocks [post]
func (h *TimeBlockHandler) Create(c *gin.Context) {
	var req models.TimeBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.blocks.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// Update godoc
// @Summary Replace a time block
// @Tags Time Blocks
// @Accept json
// @Produce json
// @Param id path string true "Time block ID"
// @Param payload body models.TimeBlockRequest true "Time block payload"
// @Success 200 {object} response.Envelope
// @Router /time-blocks/{id} [put]
func (h *TimeBlockHandler) Update(c *gin.Context) {
	var req models.TimeBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.blocks.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, block)
}

// Delete godoc
// @Summary Delete a time block
// @Tags Time Blocks
// @Param id path string true "Time block ID"
// @Success 204
// @Router /time-blocks/{id} [delete]
func (h *TimeBlockHandler) Delete(c *gin.Context) {
	if err := h.blocks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
