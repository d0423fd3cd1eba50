package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/afterschool-api/internal/dto"
	"github.com/noah-isme/afterschool-api/internal/models"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

type noticeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Notice, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Notice, error)
	ListVisible(ctx context.Context, courseIDs []string) ([]models.Notice, error)
	Create(ctx context.Context, notice *models.Notice) error
	Update(ctx context.Context, notice *models.Notice) error
	Delete(ctx context.Context, id string) error
}

type activeCourseLister interface {
	ActiveCourseIDs(ctx context.Context, studentID string) ([]string, error)
}

// NoticeService manages course notices and global announcements.
type NoticeService struct {
	notices     noticeRepository
	enrollments activeCourseLister
	guard       *CourseAccessGuard
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewNoticeService constructs the service.
func NewNoticeService(notices noticeRepository, enrollments activeCourseLister, guard *CourseAccessGuard, validate *validator.Validate, logger *zap.Logger) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoticeService{notices: notices, enrollments: enrollments, guard: guard, validator: validate, logger: logger}
}

// ListForStudent returns global notices and those of courses the student
// actively attends.
func (s *NoticeService) ListForStudent(ctx context.Context, studentID string) ([]models.Notice, error) {
	courseIDs, err := s.enrollments.ActiveCourseIDs(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	notices, err := s.notices.ListVisible(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	return notices, nil
}

// ListGlobal returns notices not bound to a course.
func (s *NoticeService) ListGlobal(ctx context.Context) ([]models.Notice, error) {
	notices, err := s.notices.ListVisible(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	return notices, nil
}

// ListForCourse returns the notices of a managed course.
func (s *NoticeService) ListForCourse(ctx context.Context, actor Actor, courseID string) ([]models.Notice, error) {
	if _, err := s.guard.Authorize(ctx, actor, courseID); err != nil {
		return nil, err
	}
	notices, err := s.notices.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	return notices, nil
}

// CreateForCourse posts a notice to a managed course.
func (s *NoticeService) CreateForCourse(ctx context.Context, actor Actor, courseID string, req dto.NoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	course, err := s.guard.Authorize(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	notice := &models.Notice{AuthorID: actor.ID, CourseID: &course.ID, CourseName: &course.Name, Title: req.Title, Content: req.Content}
	return s.create(ctx, notice)
}

// CreateGlobal posts an announcement visible to every student.
func (s *NoticeService) CreateGlobal(ctx context.Context, actor Actor, req dto.NoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	return s.create(ctx, &models.Notice{AuthorID: actor.ID, Title: req.Title, Content: req.Content})
}

// Update edits a notice the actor may manage.
func (s *NoticeService) Update(ctx context.Context, actor Actor, noticeID string, req dto.NoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	notice, err := s.authorizeNotice(ctx, actor, noticeID)
	if err != nil {
		return nil, err
	}
	notice.Title = req.Title
	notice.Content = req.Content
	if err := s.notices.Update(ctx, notice); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notice")
	}
	return notice, nil
}

// Delete removes a notice the actor may manage.
func (s *NoticeService) Delete(ctx context.Context, actor Actor, noticeID string) error {
	if _, err := s.authorizeNotice(ctx, actor, noticeID); err != nil {
		return err
	}
	if err := s.notices.Delete(ctx, noticeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}
	return nil
}

func (s *NoticeService) create(ctx context.Context, notice *models.Notice) (*models.Notice, error) {
	if err := s.notices.Create(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}
	s.logger.Info("notice created", zap.String("notice_id", notice.ID), zap.String("author_id", notice.AuthorID), zap.Bool("global", notice.CourseID == nil))
	return notice, nil
}

// authorizeNotice loads a notice. Course notices follow the course guard;
// global notices are admin only.
func (s *NoticeService) authorizeNotice(ctx context.Context, actor Actor, noticeID string) (*models.Notice, error) {
	notice, err := s.notices.FindByID(ctx, noticeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}
	if notice.CourseID == nil {
		if !actor.IsAdmin() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins manage global notices")
		}
		return notice, nil
	}
	if _, err := s.guard.Authorize(ctx, actor, *notice.CourseID); err != nil {
		return nil, err
	}
	return notice, nil
}
