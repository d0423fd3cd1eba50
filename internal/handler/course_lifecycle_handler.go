package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/afterschool-api/internal/dto"
	"github.com/noah-isme/afterschool-api/internal/models"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
	"github.com/noah-isme/afterschool-api/pkg/response"
)

type courseLifecycleService interface {
	List(ctx context.Context, status *models.CourseStatus) ([]models.CourseWithCount, error)
	UpdateStatus(ctx context.Context, courseID string, req dto.UpdateCourseStatusRequest) (*models.Course, error)
	ApproveAllPending(ctx context.Context) (int64, error)
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}

// CourseAdminHandler exposes the admin side of the course lifecycle.
type CourseAdminHandler struct {
	service courseLifecycleService
	now     func() time.Time
}

// NewCourseAdminHandler builds the handler.
func NewCourseAdminHandler(svc courseLifecycleService) *CourseAdminHandler {
	return &CourseAdminHandler{service: svc, now: time.Now}
}

// List godoc
// @Summary List all courses
// @Tags Admin
// @Produce json
// @Param status query string false "PENDING, APPROVED, REJECTED or CLOSED"
// @Success 200 {object} response.Envelope
// @Router /admin/courses [get]
func (h *CourseAdminHandler) List(c *gin.Context) {
	var status *models.CourseStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := models.CourseStatus(strings.ToUpper(raw))
		status = &s
	}
	courses, err := h.service.List(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// UpdateStatus godoc
// @Summary Approve or reject a pending course
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.UpdateCourseStatusRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/courses/{id}/status [patch]
func (h *CourseAdminHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateCourseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	course, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// ApproveAll godoc
// @Summary Approve every pending course
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/courses/approve-all [post]
func (h *CourseAdminHandler) ApproveAll(c *gin.Context) {
	n, err := h.service.ApproveAllPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.BulkResult{Affected: n}, nil)
}

// CloseExpired godoc
// @Summary Close approved courses whose end date has passed
// @Description Runs the daily closing sweep immediately
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/courses/close-expired [post]
func (h *CourseAdminHandler) CloseExpired(c *gin.Context) {
	n, err := h.service.CloseExpired(c.Request.Context(), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.BulkResult{Affected: n}, nil)
}
