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
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

type userServiceMock struct {
	lastFilter models.UserFilter
	lastActor  service.Actor
	lastMeta   models.RequestMeta
	lastRole   models.UserRole
	deleteErr  error
}

func (m *userServiceMock) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	m.lastFilter = filter
	return []models.User{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (m *userServiceMock) Get(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (m *userServiceMock) UpdateRole(ctx context.Context, id string, req dto.UpdateRoleRequest, actor service.Actor, meta models.RequestMeta) (*models.User, error) {
	m.lastActor, m.lastMeta, m.lastRole = actor, meta, req.Role
	return &models.User{ID: id, Role: req.Role}, nil
}

func (m *userServiceMock) Delete(ctx context.Context, id string, actor service.Actor, meta models.RequestMeta) error {
	m.lastActor = actor
	return m.deleteErr
}

func TestUserHandlerListFilters(t *testing.T) {
	mockSvc := &userServiceMock{}
	handler := NewUserHandler(mockSvc)

	c, w := jsonContext(http.MethodGet, "/admin/users?role=student&name=kim&page=2&page_size=5", "")
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastFilter.Role)
	assert.Equal(t, models.RoleStudent, *mockSvc.lastFilter.Role)
	assert.Equal(t, "kim", mockSvc.lastFilter.Name)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 5, mockSvc.lastFilter.PageSize)
	assert.NotNil(t, decodeEnvelope(t, w)["pagination"])
}

func TestUserHandlerUpdateRole(t *testing.T) {
	mockSvc := &userServiceMock{}
	handler := NewUserHandler(mockSvc)

	c, w := jsonContext(http.MethodPatch, "/admin/users/u2/role", `{"role":"TEACHER"}`)
	c.Params = gin.Params{{Key: "id", Value: "u2"}}
	c.Request.Header.Set("User-Agent", "admin-console")
	withUser(c, "a1", models.RoleAdmin)
	handler.UpdateRole(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleTeacher, mockSvc.lastRole)
	assert.Equal(t, "a1", mockSvc.lastActor.ID)
	assert.Equal(t, "admin-console", mockSvc.lastMeta.UserAgent)
}

func TestUserHandlerDeleteSelf(t *testing.T) {
	handler := NewUserHandler(&userServiceMock{deleteErr: appErrors.Clone(appErrors.ErrForbidden, "you cannot delete your own account")})

	c, w := jsonContext(http.MethodDelete, "/admin/users/a1", "")
	c.Params = gin.Params{{Key: "id", Value: "a1"}}
	withUser(c, "a1", models.RoleAdmin)
	handler.Delete(c)

	require.Equal(t, http.StatusForbidden, w.Code)
}
