package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/afterschool-api/internal/dto"
	"github.com/noah-isme/afterschool-api/internal/models"
	"github.com/noah-isme/afterschool-api/internal/repository"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindWithCount(ctx context.Context, id string) (*models.CourseWithCount, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseWithCount, error)
	Create(ctx context.Context, course *models.Course, check repository.RoomCheck) error
	Update(ctx context.Context, course *models.Course, expected models.CourseStatus, check repository.RoomCheck) error
	Delete(ctx context.Context, id string, expected models.CourseStatus) error
}

type rosterRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
}

// CourseService implements the teacher side of course management.
type CourseService struct {
	courses   courseRepository
	roster    rosterRepository
	guard     *CourseAccessGuard
	rooms     RoomPolicy
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the service.
func NewCourseService(courses courseRepository, roster rosterRepository, guard *CourseAccessGuard, rooms RoomPolicy, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, roster: roster, guard: guard, rooms: rooms, cache: cache, validator: validate, logger: logger}
}

// Create registers a new course awaiting admin approval.
func (s *CourseService) Create(ctx context.Context, actor Actor, req dto.CourseRequest) (*models.Course, error) {
	course := &models.Course{TeacherID: actor.ID, Status: models.CourseStatusPending}
	if err := s.apply(course, req); err != nil {
		return nil, err
	}
	if err := s.courses.Create(ctx, course, roomCheck(course)); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("teacher_id", actor.ID), zap.String("room", course.Room))
	return course, nil
}

// Update edits a PENDING or REJECTED course. A rejected course goes back to
// PENDING for another review.
func (s *CourseService) Update(ctx context.Context, actor Actor, courseID string, req dto.CourseRequest) (*models.Course, error) {
	course, err := s.guard.Authorize(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Status.TeacherEditable() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("course in %s status can no longer be edited", course.Status))
	}
	if err := s.apply(course, req); err != nil {
		return nil, err
	}
	previous := course.Status
	if course.Status == models.CourseStatusRejected {
		course.Status = models.CourseStatusPending
	}

	if err := s.courses.Update(ctx, course, previous, roomCheck(course)); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errCourseChanged()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	if previous != course.Status {
		s.logger.Info("course resubmitted", zap.String("course_id", course.ID), zap.String("from", string(previous)), zap.String("to", string(course.Status)))
	}
	return course, nil
}

// Delete removes a course that was never approved.
func (s *CourseService) Delete(ctx context.Context, actor Actor, courseID string) error {
	course, err := s.guard.Authorize(ctx, actor, courseID)
	if err != nil {
		return err
	}
	if !course.Status.TeacherEditable() {
		return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("course in %s status cannot be deleted", course.Status))
	}
	if err := s.courses.Delete(ctx, courseID, course.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errCourseChanged()
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.cache.InvalidateCatalog(ctx)
	return nil
}

// ListMine returns the actor's courses with their enrollment counts.
func (s *CourseService) ListMine(ctx context.Context, actor Actor) ([]models.CourseWithCount, error) {
	courses, err := s.courses.List(ctx, models.CourseFilter{TeacherID: actor.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns one managed course with its enrollment count.
func (s *CourseService) Get(ctx context.Context, actor Actor, courseID string) (*models.CourseWithCount, error) {
	if _, err := s.guard.Authorize(ctx, actor, courseID); err != nil {
		return nil, err
	}
	course, err := s.courses.FindWithCount(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Roster lists the students actively enrolled in a managed course.
func (s *CourseService) Roster(ctx context.Context, actor Actor, courseID string) ([]models.EnrollmentDetail, error) {
	if _, err := s.guard.Authorize(ctx, actor, courseID); err != nil {
		return nil, err
	}
	students, err := s.roster.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled students")
	}
	return students, nil
}

// apply validates req and copies it onto course, rejecting disallowed rooms.
// Collisions with other bookings are checked by roomCheck at write time.
func (s *CourseService) apply(course *models.Course, req dto.CourseRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	room, ok := s.rooms.Normalize(req.Room)
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room %q is not available for courses", strings.TrimSpace(req.Room)))
	}
	days := models.SplitDays(req.CourseDays)
	if len(days) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one course day is required")
	}

	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "end_date must use YYYY-MM-DD")
		}
		endDate = &parsed
	}

	course.Name = strings.TrimSpace(req.Name)
	course.Category = strings.TrimSpace(req.Category)
	course.Description = req.Description
	course.CourseDays = strings.Join(days, ",")
	course.CourseTime = strings.TrimSpace(req.CourseTime)
	course.Room = room
	course.Capacity = req.Capacity
	course.Quarter = req.Quarter
	course.EndDate = endDate
	return nil
}

// roomCheck rejects the booking of course when another course holds the same
// room, day and time. It runs under the room lock taken by the repository.
func roomCheck(course *models.Course) repository.RoomCheck {
	return func(occupants []models.Course) error {
		slot := SlotOf(*course)
		if clash := FindCourseConflict(slot, occupants, course.ID); clash != nil {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("room %s is already booked at %s by course %q", slot.Room, slot.Time, clash.Name))
		}
		return nil
	}
}

func errCourseChanged() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrInvalidState, "course status changed concurrently, reload and retry")
}
