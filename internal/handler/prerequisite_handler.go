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

type correlativesService interface {
	CheckCursada(ctx context.Context, studentID, subjectID string) (*models.PrerequisiteResult, error)
	CheckFinal(ctx context.Context, studentID, subjectID string) (*models.PrerequisiteResult, error)
	CheckAll(ctx context.Context, studentID, subjectID string) (*models.PrerequisiteReport, error)
	ListEdges(ctx context.Context, subjectID string) ([]models.PrerequisiteEdge, error)
	AddEdge(ctx context.Context, subjectID string, req models.CreatePrerequisiteRequest) (*models.PrerequisiteEdge, error)
	RemoveEdge(ctx context.Context, edgeID string) error
}

// PrerequisiteHandler exposes prerequisite checks and edge management.
type PrerequisiteHandler struct {
	service correlativesService
}

// NewPrerequisiteHandler constructs PrerequisiteHandler.
func NewPrerequisiteHandler(service correlativesService) *PrerequisiteHandler {
	return &PrerequisiteHandler{service: service}
}

func (h *PrerequisiteHandler) checkTarget(c *gin.Context) (studentID, subjectID string, err error) {
	studentID, err = subjectUserID(c, c.Query("studentId"), false)
	if err != nil {
		return "", "", err
	}
	subjectID = strings.TrimSpace(c.Query("subjectId"))
	if subjectID == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "subjectId is required")
	}
	return studentID, subjectID, nil
}

// Check godoc
// @Summary Check coursework and final prerequisites
// @Tags Prerequisites
// @Produce json
// @Param studentId query string false "Student (staff only)"
// @Param subjectId query string true "Subject"
// @Success 200 {object} response.Envelope
// @Router /prerequisites/check [get]
func (h *PrerequisiteHandler) Check(c *gin.Context) {
	studentID, subjectID, err := h.checkTarget(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.service.CheckAll(c.Request.Context(), studentID, subjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// CheckCursada godoc
// @Summary Check coursework prerequisites
// @Tags Prerequisites
// @Produce json
// @Param studentId query string false "Student (staff only)"
// @Param subjectId query string true "Subject"
// @Success 200 {object} response.Envelope
// @Router /prerequisites/check/cursada [get]
func (h *PrerequisiteHandler) CheckCursada(c *gin.Context) {
	h.checkOne(c, h.service.CheckCursada)
}

// CheckFinal godoc
// @Summary Check final exam prerequisites
// @Tags Prerequisites
// @Produce json
// @Param studentId query string false "Student (staff only)"
// @Param subjectId query string true "Subject"
// @Success 200 {object} response.Envelope
// @Router /prerequisites/check/final [get]
func (h *PrerequisiteHandler) CheckFinal(c *gin.Context) {
	h.checkOne(c, h.service.CheckFinal)
}

func (h *PrerequisiteHandler) checkOne(c *gin.Context, check func(ctx context.Context, studentID, subjectID string) (*models.PrerequisiteResult, error)) {
	studentID, subjectID, err := h.checkTarget(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := check(c.Request.Context(), studentID, subjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// List godoc
// @Summary List prerequisites of a subject
// @Tags Prerequisites
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/prerequisites [get]
func (h *PrerequisiteHandler) List(c *gin.Context) {
	edges, err := h.service.ListEdges(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, edges)
}

// Create godoc
// @Summary Add a prerequisite to a subject
// @Tags Prerequisites
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body models.CreatePrerequisiteRequest true "Prerequisite payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subjects/{id}/prerequisites [post]
func (h *PrerequisiteHandler) Create(c *gin.Context) {
	var req models.CreatePrerequisiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.Kind = models.PrerequisiteKind(strings.ToUpper(string(req.Kind)))
	edge, err := h.service.AddEdge(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, edge)
}

// Delete godoc
// @Summary Remove a prerequisite
// @Tags Prerequisites
// @Param edgeId path string true "Prerequisite ID"
// @Success 204
// @Router /prerequisites/{edgeId} [delete]
func (h *PrerequisiteHandler) Delete(c *gin.Context) {
	if err := h.service.RemoveEdge(c.Request.Context(), c.Param("edgeId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
