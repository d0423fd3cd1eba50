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

type surveyService interface {
	Available(ctx context.Context, studentID string) ([]dto.SurveyListItem, error)
	Detail(ctx context.Context, studentID, surveyID string) (*models.Survey, error)
	Submit(ctx context.Context, studentID, surveyID string, req dto.SubmitSurveyRequest) error
	CreateForCourse(ctx context.Context, actor service.Actor, courseID string, req dto.CreateSurveyRequest) (*models.Survey, error)
	CreateGlobal(ctx context.Context, actor service.Actor, req dto.CreateSurveyRequest) (*models.Survey, error)
	ListForCourse(ctx context.Context, actor service.Actor, courseID string) ([]models.Survey, error)
	ListGlobal(ctx context.Context) ([]models.Survey, error)
}

// SurveyHandler serves survey authoring and answering.
type SurveyHandler struct {
	service surveyService
}

// NewSurveyHandler builds the handler.
func NewSurveyHandler(svc surveyService) *SurveyHandler {
	return &SurveyHandler{service: svc}
}

// Available godoc
// @Summary Open surveys I have not answered
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/surveys [get]
func (h *SurveyHandler) Available(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	items, err := h.service.Available(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Detail godoc
// @Summary Survey questions
// @Tags Student
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/surveys/{id} [get]
func (h *SurveyHandler) Detail(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	survey, err := h.service.Detail(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, survey, nil)
}

// Submit godoc
// @Summary Answer a survey
// @Tags Student
// @Accept json
// @Param id path string true "Survey ID"
// @Param payload body dto.SubmitSurveyRequest true "Answers"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/surveys/{id}/responses [post]
func (h *SurveyHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.SubmitSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid survey response payload"))
		return
	}
	if err := h.service.Submit(c.Request.Context(), actor.ID, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCourse godoc
// @Summary Surveys of a course
// @Tags Teacher
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/courses/{id}/surveys [get]
func (h *SurveyHandler) ListCourse(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	surveys, err := h.service.ListForCourse(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, surveys, nil)
}

// CreateCourse godoc
// @Summary Create a course survey
// @Tags Teacher
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.CreateSurveyRequest true "Survey"
// @Success 201 {object} response.Envelope
// @Router /teacher/courses/{id}/surveys [post]
func (h *SurveyHandler) CreateCourse(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	req, ok := bindSurvey(c)
	if !ok {
		return
	}
	survey, err := h.service.CreateForCourse(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, survey)
}

// ListGlobal godoc
// @Summary Global surveys
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/surveys [get]
func (h *SurveyHandler) ListGlobal(c *gin.Context) {
	surveys, err := h.service.ListGlobal(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, surveys, nil)
}

// CreateGlobal godoc
// @Summary Create a survey for every student
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateSurveyRequest true "Survey"
// @Success 201 {object} response.Envelope
// @Router /admin/surveys [post]
func (h *SurveyHandler) CreateGlobal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	req, ok := bindSurvey(c)
	if !ok {
		return
	}
	survey, err := h.service.CreateGlobal(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, survey)
}

func bindSurvey(c *gin.Context) (dto.CreateSurveyRequest, bool) {
	var req dto.CreateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid survey payload"))
		return req, false
	}
	return req, true
}
