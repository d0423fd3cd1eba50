package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/afterschool-api/internal/models"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

type stubValidator struct {
	token string
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != s.token {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}, nil
}

type recordingAuditWriter struct {
	logs []*models.AuditLog
	err  error
}

func (r *recordingAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return r.err
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/courses/:id", handlers...)
	r.POST("/courses/:id", handlers...)
	return r
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func serve(r *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	r := newRouter(JWT(stubValidator{token: "good"}), ok)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/courses/c1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/courses/c1", "Basic good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/courses/c1", "Bearer bad").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/courses/c1", "bearer good").Code)
}

func TestOptionalJWT(t *testing.T) {
	var seen bool
	r := newRouter(OptionalJWT(stubValidator{token: "good"}), func(c *gin.Context) {
		_, seen = c.Get(ContextUserKey)
		c.Status(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/courses/c1", "Bearer bad").Code)
	assert.False(t, seen)
	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/courses/c1", "Bearer good").Code)
	assert.True(t, seen)
}

func TestRequireRoles(t *testing.T) {
	r := newRouter(JWT(stubValidator{token: "good"}), RequireRoles(models.RoleAdmin), ok)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/courses/c1", "Bearer good").Code)

	r = newRouter(JWT(stubValidator{token: "good"}), RequireRoles(models.RoleTeacher, models.RoleAdmin), ok)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/courses/c1", "Bearer good").Code)

	r = newRouter(RequireRoles(models.RoleTeacher), ok)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/courses/c1", "").Code)
}

func TestRBACSelf(t *testing.T) {
	r := newRouter(JWT(stubValidator{token: "good"}), RBAC(string(models.RoleAdmin), "SELF"), ok)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/courses/t1", "Bearer good").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/courses/t2", "Bearer good").Code)
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	writer := &recordingAuditWriter{}
	r := newRouter(JWT(stubValidator{token: "good"}), Audit(writer, nil, models.AuditActionCourseStatus, "courses"), func(c *gin.Context) {
		if c.Request.Method == http.MethodPost {
			c.Status(http.StatusConflict)
			return
		}
		c.Status(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/courses/c1", "Bearer good").Code)
	require.Len(t, writer.logs, 1)
	entry := writer.logs[0]
	assert.Equal(t, models.AuditActionCourseStatus, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "t1", *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "c1", *entry.ResourceID)
	assert.Contains(t, string(entry.NewValues), `"status":200`)

	serve(r, http.MethodPost, "/courses/c1", "Bearer good")
	assert.Len(t, writer.logs, 1, "failed requests are not audited")

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/courses/c1", "").Code)
	assert.Len(t, writer.logs, 1)
}

func TestAuditWriteFailureDoesNotChangeResponse(t *testing.T) {
	writer := &recordingAuditWriter{err: errors.New("db down")}
	r := newRouter(Audit(writer, nil, models.AuditActionNoticeCreate, "notices"), ok)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/courses/c1", "").Code)
	assert.Len(t, writer.logs, 1)
}

func TestResponseMeta(t *testing.T) {
	var meta map[string]interface{}
	r := newRouter(WithResponseMeta(), func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodGet, "/courses/c1", "")
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}
