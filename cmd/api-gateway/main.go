package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/afterschool-api/api/swagger"
	"github.com/noah-isme/afterschool-api/internal/handler"
	"github.com/noah-isme/afterschool-api/internal/repository"
	"github.com/noah-isme/afterschool-api/internal/router"
	"github.com/noah-isme/afterschool-api/internal/service"
	"github.com/noah-isme/afterschool-api/pkg/cache"
	"github.com/noah-isme/afterschool-api/pkg/config"
	"github.com/noah-isme/afterschool-api/pkg/database"
	"github.com/noah-isme/afterschool-api/pkg/jobs"
	"github.com/noah-isme/afterschool-api/pkg/logger"
	"github.com/noah-isme/afterschool-api/pkg/mailer"
)

// @title After-school Program API
// @version 1.0.0
// @description Course registration, attendance and approval workflow for after-school programs
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("redis connection failed", zap.Error(err))
		}
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)

	var catalogCache *service.CacheService
	if redisClient != nil {
		catalogCache = service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Courses.CatalogCacheTTL, logr, cfg.Courses.CatalogCacheOn)
	}

	var codeStore service.VerificationStore
	if cfg.Verification.Store == config.StoreRedis && redisClient != nil {
		codeStore = repository.NewVerificationRepository(redisClient)
	} else {
		if cfg.Verification.Store == config.StoreRedis {
			logr.Warn("redis disabled, verification codes kept in process memory")
		}
		codeStore = repository.NewMemoryVerificationStore()
	}

	mailQueue := jobs.NewQueue("mail", jobs.QueueConfig{
		Workers:    cfg.Workers.MailConcurrency,
		MaxRetries: cfg.Workers.MailRetries,
		RetryDelay: cfg.Workers.MailRetryDelay,
		Logger:     logr,
	})
	mailQueue.Register(service.JobVerificationMail, service.NewVerificationMailHandler(mailer.New(cfg.Mail, logr)))
	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	verification := service.NewVerificationService(codeStore, mailQueue, cfg.Verification.CodeTTL, metrics, logr)
	authService := service.NewAuthService(userRepo, verification, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	guard := service.NewCourseAccessGuard(courseRepo)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, guard, service.NewRoomPolicy(cfg.Courses.AllowedRooms), catalogCache, validate, logr)
	lifecycle := service.NewCourseLifecycleService(courseRepo, catalogCache, metrics, validate, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, attendanceRepo, courseRepo, userRepo, catalogCache, metrics, service.EnrollmentConfig{
		MinAttendanceRate: cfg.Courses.MinAttendanceRate,
		CatalogCacheTTL:   cfg.Courses.CatalogCacheTTL,
	}, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, enrollmentRepo, guard, nil, validate, logr)
	noticeService := service.NewNoticeService(noticeRepo, enrollmentRepo, guard, validate, logr)
	surveyService := service.NewSurveyService(surveyRepo, enrollmentRepo, guard, validate, logr)
	userService := service.NewUserService(userRepo, validate, logr)

	if cfg.Courses.SweepEnabled {
		sweeper, err := service.NewCourseSweeper(lifecycle, cfg.Courses.SweepSchedule, logr)
		if err != nil {
			logr.Fatal("invalid course sweep schedule", zap.String("schedule", cfg.Courses.SweepSchedule), zap.Error(err))
		}
		sweeper.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sweeper.Stop(stopCtx)
		}()
	}

	engine := router.New(router.Dependencies{
		Config:  cfg,
		Logger:  logr,
		Tokens:  authService,
		Audit:   userRepo,
		Metrics: metrics,
		Ready: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			if redisClient != nil {
				return redisClient.Ping(ctx).Err()
			}
			return nil
		},
		Auth:        handler.NewAuthHandler(authService),
		Courses:     handler.NewCourseHandler(courseService),
		CourseAdmin: handler.NewCourseAdminHandler(lifecycle),
		Enrollments: handler.NewEnrollmentHandler(enrollmentService),
		Attendance:  handler.NewAttendanceHandler(attendanceService),
		Notices:     handler.NewNoticeHandler(noticeService),
		Surveys:     handler.NewSurveyHandler(surveyService),
		Users:       handler.NewUserHandler(userService),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
