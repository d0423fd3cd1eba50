package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/afterschool-api/internal/dto"
	"github.com/noah-isme/afterschool-api/internal/models"
	"github.com/noah-isme/afterschool-api/internal/service"
)

type noticeServiceMock struct {
	lastStudent string
	lastCourse  string
	lastReq     dto.NoticeRequest
	global      bool
}

func (m *noticeServiceMock) ListForStudent(ctx context.Context, studentID string) ([]models.Notice, error) {
	m.lastStudent = studentID
	return []models.Notice{{ID: "n1"}}, nil
}

func (m *noticeServiceMock) ListGlobal(ctx context.Context) ([]models.Notice, error) {
	return []models.Notice{}, nil
}

func (m *noticeServiceMock) ListForCourse(ctx context.Context, actor service.Actor, courseID string) ([]models.Notice, error) {
	m.lastCourse = courseID
	return []models.Notice{}, nil
}

func (m *noticeServiceMock) CreateForCourse(ctx context.Context, actor service.Actor, courseID string, req dto.NoticeRequest) (*models.Notice, error) {
	m.lastCourse, m.lastReq = courseID, req
	return &models.Notice{ID: "n2", CourseID: &courseID, Title: req.Title}, nil
}

func (m *noticeServiceMock) CreateGlobal(ctx context.Context, actor service.Actor, req dto.NoticeRequest) (*models.Notice, error) {
	m.global, m.lastReq = true, req
	return &models.Notice{ID: "n3", Title: req.Title}, nil
}

func (m *noticeServiceMock) Update(ctx context.Context, actor service.Actor, noticeID string, req dto.NoticeRequest) (*models.Notice, error) {
	m.lastReq = req
	return &models.Notice{ID: noticeID, Title: req.Title}, nil
}

func (m *noticeServiceMock) Delete(ctx context.Context, actor service.Actor, noticeID string) error {
	return nil
}

func TestNoticeHandlerListMine(t *testing.T) {
	mockSvc := &noticeServiceMock{}
	handler := NewNoticeHandler(mockSvc)

	c, w := jsonContext(http.MethodGet, "/student/notices", "")
	withUser(c, "s1", models.RoleStudent)
	handler.ListMine(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", mockSvc.lastStudent)
}

func TestNoticeHandlerCreateCourse(t *testing.T) {
	mockSvc := &noticeServiceMock{}
	handler := NewNoticeHandler(mockSvc)

	c, w := jsonContext(http.MethodPost, "/teacher/courses/c1/notices", `{"title":"No class Friday","content":"Field trip"}`)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	withUser(c, "t1", models.RoleTeacher)
	handler.CreateCourse(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "c1", mockSvc.lastCourse)
	assert.Equal(t, "No class Friday", mockSvc.lastReq.Title)
}

func TestNoticeHandlerCreateGlobalInvalidBody(t *testing.T) {
	mockSvc := &noticeServiceMock{}
	handler := NewNoticeHandler(mockSvc)

	c, w := jsonContext(http.MethodPost, "/admin/notices", `{"title":`)
	withUser(c, "a1", models.RoleAdmin)
	handler.CreateGlobal(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.global)
}
