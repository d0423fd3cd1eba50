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
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

type enrollmentServiceMock struct {
	catalogResp   []dto.CatalogItem
	catalogHit    bool
	lastQuery     dto.CatalogQuery
	enrollErr     error
	lastStudent   string
	lastCourse    string
	canEnroll     bool
	unenrolled    bool
	adminEnrolled bool
}

func (m *enrollmentServiceMock) Catalog(ctx context.Context, studentID string, query dto.CatalogQuery) ([]dto.CatalogItem, bool, error) {
	m.lastStudent = studentID
	m.lastQuery = query
	return m.catalogResp, m.catalogHit, nil
}

func (m *enrollmentServiceMock) Detail(ctx context.Context, studentID, courseID string) (*dto.CourseDetail, error) {
	return &dto.CourseDetail{CanEnroll: m.canEnroll}, nil
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	m.lastStudent, m.lastCourse = studentID, courseID
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	return &models.Enrollment{ID: "e1", StudentID: studentID, CourseID: courseID, Status: models.EnrollmentStatusActive}, nil
}

func (m *enrollmentServiceMock) Cancel(ctx context.Context, studentID, courseID string) error {
	m.lastStudent, m.lastCourse = studentID, courseID
	return nil
}

func (m *enrollmentServiceMock) MyCourses(ctx context.Context, studentID string) (*dto.MyCoursesResponse, error) {
	return &dto.MyCoursesResponse{OverallRate: 80}, nil
}

func (m *enrollmentServiceMock) CanEnroll(ctx context.Context, studentID string) (bool, error) {
	return m.canEnroll, nil
}

func (m *enrollmentServiceMock) AdminEnroll(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	m.adminEnrolled = true
	m.lastStudent, m.lastCourse = studentID, courseID
	return &models.Enrollment{ID: "e2"}, nil
}

func (m *enrollmentServiceMock) AdminUnenroll(ctx context.Context, courseID, studentID string) error {
	m.unenrolled = true
	m.lastStudent, m.lastCourse = studentID, courseID
	return nil
}

func TestEnrollmentHandlerCatalog(t *testing.T) {
	mockSvc := &enrollmentServiceMock{catalogResp: []dto.CatalogItem{{IsEnrolled: true}}, catalogHit: true}
	handler := NewEnrollmentHandler(mockSvc)

	c, w := jsonContext(http.MethodGet, "/student/courses?keyword=chess&category=Games", "")
	withUser(c, "s1", models.RoleStudent)
	handler.Catalog(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", mockSvc.lastStudent)
	assert.Equal(t, dto.CatalogQuery{Keyword: "chess", Category: "Games"}, mockSvc.lastQuery)
	body := decodeEnvelope(t, w)
	assert.Equal(t, true, body["meta"].(map[string]interface{})["cache_hit"])
}

func TestEnrollmentHandlerEnroll(t *testing.T) {
	mockSvc := &enrollmentServiceMock{}
	handler := NewEnrollmentHandler(mockSvc)

	c, w := jsonContext(http.MethodPost, "/student/courses/c1/enrollment", "")
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	withUser(c, "s1", models.RoleStudent)
	handler.Enroll(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "c1", mockSvc.lastCourse)
}

func TestEnrollmentHandlerEnrollErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"ineligible": {appErrors.ErrIneligible, http.StatusConflict},
		"full":       {appErrors.ErrCapacityExceeded, http.StatusConflict},
		"missing":    {appErrors.ErrNotFound, http.StatusNotFound},
		"pending":    {appErrors.ErrInvalidState, http.StatusConflict},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := NewEnrollmentHandler(&enrollmentServiceMock{enrollErr: tc.err})
			c, w := jsonContext(http.MethodPost, "/student/courses/c1/enrollment", "")
			c.Params = gin.Params{{Key: "id", Value: "c1"}}
			withUser(c, "s1", models.RoleStudent)
			handler.Enroll(c)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestEnrollmentHandlerRequiresClaims(t *testing.T) {
	handler := NewEnrollmentHandler(&enrollmentServiceMock{})

	c, w := jsonContext(http.MethodGet, "/student/my-courses", "")
	handler.MyCourses(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnrollmentHandlerEligibility(t *testing.T) {
	handler := NewEnrollmentHandler(&enrollmentServiceMock{canEnroll: false})

	c, w := jsonContext(http.MethodGet, "/student/eligibility", "")
	withUser(c, "s1", models.RoleStudent)
	handler.Eligibility(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["data"].(map[string]interface{})["can_enroll"])
}

func TestEnrollmentHandlerAdminOverride(t *testing.T) {
	mockSvc := &enrollmentServiceMock{}
	handler := NewEnrollmentHandler(mockSvc)

	c, w := jsonContext(http.MethodPost, "/admin/courses/c1/enrollments", `{"student_id":"s9"}`)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	handler.AdminEnroll(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "s9", mockSvc.lastStudent)

	c, w = jsonContext(http.MethodDelete, "/admin/courses/c1/enrollments/s9", "")
	c.Params = gin.Params{{Key: "id", Value: "c1"}, {Key: "studentId", Value: "s9"}}
	handler.AdminUnenroll(c)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.unenrolled)
}
