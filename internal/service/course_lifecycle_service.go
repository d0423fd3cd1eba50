package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/afterschool-api/internal/dto"
	"github.com/noah-isme/afterschool-api/internal/models"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

type lifecycleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseWithCount, error)
	TransitionStatus(ctx context.Context, id string, from, to models.CourseStatus) error
	ApproveAllPending(ctx context.Context) (int64, error)
	CloseExpired(ctx context.Context, today time.Time) (int64, error)
}

// CourseLifecycleService drives admin decisions and the expiry sweep.
type CourseLifecycleService struct {
	repo      lifecycleRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseLifecycleService constructs the service.
func NewCourseLifecycleService(repo lifecycleRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CourseLifecycleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseLifecycleService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns every course, optionally narrowed to one status.
func (s *CourseLifecycleService) List(ctx context.Context, status *models.CourseStatus) ([]models.CourseWithCount, error) {
	if status != nil && !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown course status %q", *status))
	}
	courses, err := s.repo.List(ctx, models.CourseFilter{Status: status})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// UpdateStatus approves or rejects a pending course.
func (s *CourseLifecycleService) UpdateStatus(ctx context.Context, courseID string, req dto.UpdateCourseStatusRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	course, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	from := course.Status
	if from != models.CourseStatusPending || !from.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot move course from %s to %s", from, req.Status))
	}

	if err := s.repo.TransitionStatus(ctx, courseID, from, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "course status changed concurrently, reload and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course status")
	}
	course.Status = req.Status

	if req.Status == models.CourseStatusApproved {
		s.metrics.AddCoursesApproved(1)
	}
	s.cache.InvalidateCatalog(ctx)
	s.logger.Info("course status changed", zap.String("course_id", courseID), zap.String("from", string(from)), zap.String("to", string(req.Status)))
	return course, nil
}

// ApproveAllPending approves every pending course in one statement. Having
// nothing to approve is not an error.
func (s *CourseLifecycleService) ApproveAllPending(ctx context.Context) (int64, error) {
	n, err := s.repo.ApproveAllPending(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve pending courses")
	}
	if n > 0 {
		s.metrics.AddCoursesApproved(n)
		s.cache.InvalidateCatalog(ctx)
	}
	s.logger.Info("pending courses approved", zap.Int64("count", n))
	return n, nil
}

// CloseExpired closes approved courses whose end date is before now's
// calendar day. Running it again the same day closes nothing new.
func (s *CourseLifecycleService) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.CloseExpired(ctx, now)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close expired courses")
	}
	if n > 0 {
		s.metrics.AddCoursesClosed(n)
		s.cache.InvalidateCatalog(ctx)
	}
	s.logger.Info("expired courses closed", zap.Int64("count", n), zap.String("date", models.DateOf(now).Format(dateLayout)))
	return n, nil
}
