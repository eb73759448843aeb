package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/middleware"
	"github.com/noah-isme/campus-api/internal/models"
)

// Handlers groups every HTTP handler served under the API prefix.
type Handlers struct {
	Enrollments   *EnrollmentHandler
	Prerequisites *PrerequisiteHandler
	FinalExams    *FinalExamHandler
	TimeBlocks    *TimeBlockHandler
	Agenda        *AgendaHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts the authenticated API on group.
func RegisterRoutes(group *gin.RouterGroup, tokens middleware.TokenValidator, h Handlers) {
	api := group.Group("")
	api.Use(middleware.JWT(tokens))

	staff := middleware.RequireRoles(middleware.StaffRoles...)
	studentOrStaff := middleware.RequireRoles(models.RoleStudent, models.RoleAdmin, models.RoleSecretary)
	studentOnly := middleware.RequireRoles(models.RoleStudent)

	enrollments := api.Group("/enrollments")
	enrollments.POST("", studentOrStaff, h.Enrollments.Create)
	enrollments.GET("/mine", studentOnly, h.Enrollments.Mine)

	prereq := api.Group("/prerequisites")
	prereq.GET("/check", h.Prerequisites.Check)
	prereq.GET("/check/cursada", h.Prerequisites.CheckCursada)
	prereq.GET("/check/final", h.Prerequisites.CheckFinal)
	prereq.DELETE("/:edgeId", staff, h.Prerequisites.Delete)

	api.GET("/subjects/:id/prerequisites", h.Prerequisites.List)
	api.POST("/subjects/:id/prerequisites", staff, h.Prerequisites.Create)

	regs := api.Group("/final-exams/registrations")
	regs.POST("", studentOrStaff, h.FinalExams.Register)
	regs.GET("/mine", studentOnly, h.FinalExams.Mine)
	regs.DELETE("/mine/:id", studentOnly, h.FinalExams.CancelMine)
	regs.DELETE("/:id", staff, h.FinalExams.Remove)

	blocks := api.Group("/time-blocks")
	blocks.GET("", h.TimeBlocks.List)
	blocks.POST("", staff, h.TimeBlocks.Create)
	blocks.PUT("/:id", staff, h.TimeBlocks.Update)
	blocks.DELETE("/:id", staff, h.TimeBlocks.Delete)

	api.GET("/agenda", h.Agenda.Get)
	api.GET("/agenda/export", h.Agenda.Export)

	if h.Metrics != nil {
		api.GET("/admin/metrics", middleware.RequireRoles(models.RoleAdmin), h.Metrics.Summary)
	}
}
