package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/afterschool-api/internal/handler"
	"github.com/noah-isme/afterschool-api/internal/middleware"
	"github.com/noah-isme/afterschool-api/internal/models"
	"github.com/noah-isme/afterschool-api/internal/service"
	"github.com/noah-isme/afterschool-api/pkg/config"
	"github.com/noah-isme/afterschool-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/afterschool-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/afterschool-api/pkg/middleware/requestid"
)

// Dependencies is everything the route table needs.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Tokens  middleware.TokenValidator
	Audit   middleware.AuditWriter
	Metrics *service.MetricsService
	// Ready reports whether backing stores are reachable.
	Ready func(ctx context.Context) error

	Auth        *handler.AuthHandler
	Courses     *handler.CourseHandler
	CourseAdmin *handler.CourseAdminHandler
	Enrollments *handler.EnrollmentHandler
	Attendance  *handler.AttendanceHandler
	Notices     *handler.NoticeHandler
	Surveys     *handler.SurveyHandler
	Users       *handler.UserHandler
}

// New builds the gin engine with every route registered.
func New(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	metricsHandler := handler.NewMetricsHandler(deps.Metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", readiness(deps.Ready))
	r.GET("/metrics", metricsHandler.Prometheus)

	if deps.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.Config.APIPrefix)
	auth := middleware.JWT(deps.Tokens)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, log, action, resource)
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/send-verification", deps.Auth.SendVerification)
		authGroup.POST("/verify", deps.Auth.VerifyCode)
		authGroup.POST("/signup", deps.Auth.Signup)
		authGroup.POST("/login", deps.Auth.Login)
		authGroup.POST("/refresh", deps.Auth.Refresh)
		authGroup.POST("/logout", auth, deps.Auth.Logout)
		authGroup.POST("/change-password", auth, deps.Auth.ChangePassword)
		authGroup.GET("/me", auth, deps.Auth.Me)
	}

	student := api.Group("/student", auth, middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/courses", deps.Enrollments.Catalog)
		student.GET("/courses/:id", deps.Enrollments.Detail)
		student.POST("/courses/:id/enrollment", deps.Enrollments.Enroll)
		student.DELETE("/courses/:id/enrollment", deps.Enrollments.Cancel)
		student.GET("/my-courses", deps.Enrollments.MyCourses)
		student.GET("/eligibility", deps.Enrollments.Eligibility)
		student.GET("/notices", deps.Notices.ListMine)
		student.GET("/surveys", deps.Surveys.Available)
		student.GET("/surveys/:id", deps.Surveys.Detail)
		student.POST("/surveys/:id/responses", deps.Surveys.Submit)
	}

	teacher := api.Group("/teacher", auth, middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))
	{
		teacher.GET("/courses", deps.Courses.List)
		teacher.POST("/courses", deps.Courses.Create)
		teacher.GET("/courses/:id", deps.Courses.Get)
		teacher.PUT("/courses/:id", deps.Courses.Update)
		teacher.DELETE("/courses/:id", deps.Courses.Delete)
		teacher.GET("/courses/:id/students", deps.Courses.Roster)
		teacher.GET("/courses/:id/attendance", deps.Attendance.Sheet)
		teacher.PUT("/courses/:id/attendance", deps.Attendance.Record)
		teacher.GET("/courses/:id/attendance/export", deps.Attendance.Export)
		teacher.GET("/courses/:id/notices", deps.Notices.ListCourse)
		teacher.POST("/courses/:id/notices", audit(models.AuditActionNoticeCreate, "notices"), deps.Notices.CreateCourse)
		teacher.PUT("/notices/:id", deps.Notices.Update)
		teacher.DELETE("/notices/:id", deps.Notices.Delete)
		teacher.GET("/courses/:id/surveys", deps.Surveys.ListCourse)
		teacher.POST("/courses/:id/surveys", audit(models.AuditActionSurveyCreate, "surveys"), deps.Surveys.CreateCourse)
	}

	admin := api.Group("/admin", auth, middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", deps.Users.List)
		admin.GET("/users/:id", deps.Users.Get)
		admin.PATCH("/users/:id/role", deps.Users.UpdateRole)
		admin.DELETE("/users/:id", deps.Users.Delete)

		admin.GET("/courses", deps.CourseAdmin.List)
		admin.PATCH("/courses/:id/status", audit(models.AuditActionCourseStatus, "courses"), deps.CourseAdmin.UpdateStatus)
		admin.POST("/courses/approve-all", audit(models.AuditActionCourseApproveAll, "courses"), deps.CourseAdmin.ApproveAll)
		admin.POST("/courses/close-expired", audit(models.AuditActionCourseCloseExpired, "courses"), deps.CourseAdmin.CloseExpired)
		admin.POST("/courses/:id/enrollments", audit(models.AuditActionEnrollmentOverride, "enrollments"), deps.Enrollments.AdminEnroll)
		admin.DELETE("/courses/:id/enrollments/:studentId", audit(models.AuditActionEnrollmentRemove, "enrollments"), deps.Enrollments.AdminUnenroll)

		admin.GET("/notices", deps.Notices.ListGlobal)
		admin.POST("/notices", audit(models.AuditActionNoticeCreate, "notices"), deps.Notices.CreateGlobal)
		admin.GET("/surveys", deps.Surveys.ListGlobal)
		admin.POST("/surveys", audit(models.AuditActionSurveyCreate, "surveys"), deps.Surveys.CreateGlobal)

		admin.GET("/metrics/summary", metricsHandler.Summary)
	}

	return r
}

func readiness(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
