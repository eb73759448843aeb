package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/response"
)

type examRegistrationService interface {
	Register(ctx context.Context, actor *models.JWTClaims, req models.RegisterFinalRequest) (*models.ExamRegistration, error)
	Cancel(ctx context.Context, registrationID, requesterID string) error
	Remove(ctx context.Context, registrationID string) error
	ListByStudent(ctx context.Context, studentID string) ([]models.ExamRegistrationDetail, error)
}

// FinalExamHandler exposes final exam registration endpoints.
type FinalExamHandler struct {
	registrations examRegistrationService
}

// NewFinalExamHandler constructs FinalExamHandler.
func NewFinalExamHandler(registrations examRegistrationService) *FinalExamHandler {
	return &FinalExamHandler{registrations: registrations}
}

// Register godoc
// @Summary Register an enrollment for a final exam
// @Tags Final Exams
// @Accept json
// @Produce json
// @Param payload body models.RegisterFinalRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /final-exams/registrations [post]
func (h *FinalExamHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.RegisterFinalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reg, err := h.registrations.Register(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reg)
}

// Mine godoc
// @Summary List own final exam registrations
// @Tags Final Exams
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /final-exams/registrations/mine [get]
func (h *FinalExamHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	list, err := h.registrations.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// CancelMine godoc
// @Summary Cancel own final exam registration
// @Tags Final Exams
// @Param id path string true "Registration ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /final-exams/registrations/mine/{id} [delete]
func (h *FinalExamHandler) CancelMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.registrations.Cancel(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Remove godoc
// @Summary Remove a final exam registration
// @Tags Final Exams
// @Param id path string true "Registration ID"
// @Success 204
// @Router /final-exams/registrations/{id} [delete]
func (h *FinalExamHandler) Remove(c *gin.Context) {
	if err := h.registrations.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
