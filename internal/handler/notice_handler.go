package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/afterschool-api/internal/dto"
	"github.com/noah-isme/afterschool-api/internal/models"
	"github.com/noah-isme/afterschool-api/internal/service"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
	"github.com/noah-isme/afterschool-api/pkg/response"
)

type noticeService interface {
	ListForStudent(ctx context.Context, studentID string) ([]models.Notice, error)
	ListGlobal(ctx context.Context) ([]models.Notice, error)
	ListForCourse(ctx context.Context, actor service.Actor, courseID string) ([]models.Notice, error)
	CreateForCourse(ctx context.Context, actor service.Actor, courseID string, req dto.NoticeRequest) (*models.Notice, error)
	CreateGlobal(ctx context.Context, actor service.Actor, req dto.NoticeRequest) (*models.Notice, error)
	Update(ctx context.Context, actor service.Actor, noticeID string, req dto.NoticeRequest) (*models.Notice, error)
	Delete(ctx context.Context, actor service.Actor, noticeID string) error
}

// NoticeHandler serves course and global notices.
type NoticeHandler struct {
	service noticeService
}

// NewNoticeHandler builds the handler.
func NewNoticeHandler(svc noticeService) *NoticeHandler {
	return &NoticeHandler{service: svc}
}

// ListMine godoc
// @Summary Notices visible to me
// @Description Global notices plus notices of the courses I am enrolled in
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/notices [get]
func (h *NoticeHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	notices, err := h.service.ListForStudent(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notices, nil)
}

// ListCourse godoc
// @Summary Notices of a course
// @Tags Teacher
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/courses/{id}/notices [get]
func (h *NoticeHandler) ListCourse(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	notices, err := h.service.ListForCourse(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notices, nil)
}

// CreateCourse godoc
// @Summary Post a course notice
// @Tags Teacher
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.NoticeRequest true "Notice"
// @Success 201 {object} response.Envelope
// @Router /teacher/courses/{id}/notices [post]
func (h *NoticeHandler) CreateCourse(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	req, ok := bindNotice(c)
	if !ok {
		return
	}
	notice, err := h.service.CreateForCourse(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notice)
}

// ListGlobal godoc
// @Summary Global notices
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/notices [get]
func (h *NoticeHandler) ListGlobal(c *gin.Context) {
	notices, err := h.service.ListGlobal(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notices, nil)
}

// CreateGlobal godoc
// @Summary Post a notice to everyone
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.NoticeRequest true "Notice"
// @Success 201 {object} response.Envelope
// @Router /admin/notices [post]
func (h *NoticeHandler) CreateGlobal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	req, ok := bindNotice(c)
	if !ok {
		return
	}
	notice, err := h.service.CreateGlobal(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notice)
}

// Update godoc
// @Summary Edit a notice
// @Tags Teacher
// @Accept json
// @Produce json
// @Param id path string true "Notice ID"
// @Param payload body dto.NoticeRequest true "Notice"
// @Success 200 {object} response.Envelope
// @Router /teacher/notices/{id} [put]
func (h *NoticeHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	req, ok := bindNotice(c)
	if !ok {
		return
	}
	notice, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notice, nil)
}

// Delete godoc
// @Summary Delete a notice
// @Tags Teacher
// @Param id path string true "Notice ID"
// @Success 204
// @Router /teacher/notices/{id} [delete]
func (h *NoticeHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func bindNotice(c *gin.Context) (dto.NoticeRequest, bool) {
	var req dto.NoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notice payload"))
		return req, false
	}
	return req, true
}
