package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/afterschool-api/internal/dto"
	"github.com/noah-isme/afterschool-api/internal/middleware"
	"github.com/noah-isme/afterschool-api/internal/models"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
	"github.com/noah-isme/afterschool-api/pkg/response"
)

type enrollmentService interface {
	Catalog(ctx context.Context, studentID string, query dto.CatalogQuery) ([]dto.CatalogItem, bool, error)
	Detail(ctx context.Context, studentID, courseID string) (*dto.CourseDetail, error)
	Enroll(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	Cancel(ctx context.Context, studentID, courseID string) error
	MyCourses(ctx context.Context, studentID string) (*dto.MyCoursesResponse, error)
	CanEnroll(ctx context.Context, studentID string) (bool, error)
	AdminEnroll(ctx context.Context, courseID, studentID string) (*models.Enrollment, error)
	AdminUnenroll(ctx context.Context, courseID, studentID string) error
}

// EnrollmentHandler serves the student catalog and enrollment endpoints plus
// the admin override.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler builds the handler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Catalog godoc
// @Summary Browse open courses
// @Tags Student
// @Produce json
// @Param keyword query string false "Matches course or teacher name"
// @Param category query string false "Category"
// @Success 200 {object} response.Envelope
// @Router /student/courses [get]
func (h *EnrollmentHandler) Catalog(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var query dto.CatalogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid catalog query"))
		return
	}
	items, cacheHit, err := h.service.Catalog(c.Request.Context(), actor.ID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}

// Detail godoc
// @Summary Course detail with enrollment eligibility
// @Tags Student
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/courses/{id} [get]
func (h *EnrollmentHandler) Detail(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	detail, err := h.service.Detail(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Enroll godoc
// @Summary Enroll in a course
// @Description Requires an overall attendance rate of at least the configured minimum and a free seat
// @Tags Student
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/courses/{id}/enrollment [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	enrollment, err := h.service.Enroll(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Cancel godoc
// @Summary Cancel an enrollment
// @Tags Student
// @Param id path string true "Course ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /student/courses/{id}/enrollment [delete]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MyCourses godoc
// @Summary My enrollments with attendance
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/my-courses [get]
func (h *EnrollmentHandler) MyCourses(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	res, err := h.service.MyCourses(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Eligibility godoc
// @Summary Whether I may enroll in new courses
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/eligibility [get]
func (h *EnrollmentHandler) Eligibility(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	eligible, err := h.service.CanEnroll(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"can_enroll": eligible}, nil)
}

// AdminEnroll godoc
// @Summary Enroll a student on their behalf
// @Description Skips the attendance gate but keeps the duplicate and capacity checks
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.AdminEnrollRequest true "Student"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/courses/{id}/enrollments [post]
func (h *EnrollmentHandler) AdminEnroll(c *gin.Context) {
	var req dto.AdminEnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	enrollment, err := h.service.AdminEnroll(c.Request.Context(), c.Param("id"), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// AdminUnenroll godoc
// @Summary Remove a student from a course
// @Tags Admin
// @Param id path string true "Course ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/courses/{id}/enrollments/{studentId} [delete]
func (h *EnrollmentHandler) AdminUnenroll(c *gin.Context) {
	if err := h.service.AdminUnenroll(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
