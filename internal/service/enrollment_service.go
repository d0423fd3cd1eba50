package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/afterschool-api/internal/dto"
	"github.com/noah-isme/afterschool-api/internal/models"
	"github.com/noah-isme/afterschool-api/internal/repository"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

// DefaultMinAttendanceRate is the overall attendance percentage a student with
// a recorded history needs before enrolling again.
const DefaultMinAttendanceRate = 60.0

type enrollmentRepository interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ActiveCourseIDs(ctx context.Context, studentID string) ([]string, error)
	CreateWithinCapacity(ctx context.Context, enrollment *models.Enrollment) error
	DeleteByStudentAndCourse(ctx context.Context, studentID, courseID string) error
}

type attendanceHistoryRepository interface {
	ListByEnrollments(ctx context.Context, enrollmentIDs []string) ([]models.AttendanceRecord, error)
}

type catalogRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindWithCount(ctx context.Context, id string) (*models.CourseWithCount, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseWithCount, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// EnrollmentConfig tunes enrollment rules.
type EnrollmentConfig struct {
	MinAttendanceRate float64
	CatalogCacheTTL   time.Duration
}

// EnrollmentService covers the student catalog, enrollment and attendance
// history, plus the admin enrollment override.
type EnrollmentService struct {
	enrollments enrollmentRepository
	attendance  attendanceHistoryRepository
	courses     catalogRepository
	users       userFinder
	cache       *CacheService
	metrics     *MetricsService
	config      EnrollmentConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(enrollments enrollmentRepository, attendance attendanceHistoryRepository, courses catalogRepository, users userFinder, cache *CacheService, metrics *MetricsService, config EnrollmentConfig, logger *zap.Logger) *EnrollmentService {
	if config.MinAttendanceRate <= 0 {
		config.MinAttendanceRate = DefaultMinAttendanceRate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		attendance:  attendance,
		courses:     courses,
		users:       users,
		cache:       cache,
		metrics:     metrics,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// CanEnroll decides whether the student may take a new course. A student
// without enrollments, or whose enrollments have no recorded class yet, is
// always eligible. Otherwise the overall attendance rate must reach the
// configured minimum.
func (s *EnrollmentService) CanEnroll(ctx context.Context, studentID string) (bool, error) {
	history, err := s.MyCourses(ctx, studentID)
	if err != nil {
		return false, err
	}
	if len(history.Courses) == 0 {
		return true, nil
	}
	summaries := make([]models.AttendanceSummary, 0, len(history.Courses))
	for _, c := range history.Courses {
		summaries = append(summaries, c.AttendanceSummary)
	}
	if !hasAnyRecord(summaries) {
		return true, nil
	}
	return history.OverallRate >= s.config.MinAttendanceRate, nil
}

// MyCourses returns every enrollment of the student with attendance counts,
// dated logs newest first and the overall rate.
func (s *EnrollmentService) MyCourses(ctx context.Context, studentID string) (*dto.MyCoursesResponse, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	resp := &dto.MyCoursesResponse{Courses: make([]dto.MyCourse, 0, len(enrollments))}
	if len(enrollments) == 0 {
		return resp, nil
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.ID)
	}
	records, err := s.attendance.ListByEnrollments(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	byEnrollment := make(map[string][]models.AttendanceRecord, len(enrollments))
	for _, rec := range records {
		byEnrollment[rec.EnrollmentID] = append(byEnrollment[rec.EnrollmentID], rec)
	}

	summaries := make([]models.AttendanceSummary, 0, len(enrollments))
	for _, e := range enrollments {
		recs := byEnrollment[e.ID]
		summary := AggregateAttendance(recs)
		summaries = append(summaries, summary)

		logs := make([]dto.AttendanceLog, 0, len(recs))
		for _, rec := range recs {
			logs = append(logs, dto.AttendanceLog{ClassDate: rec.ClassDate.Format(dateLayout), Status: rec.Status})
		}
		resp.Courses = append(resp.Courses, dto.MyCourse{
			EnrollmentID:      e.ID,
			CourseID:          e.CourseID,
			CourseName:        e.CourseName,
			TeacherName:       e.TeacherName,
			Status:            e.Status,
			AttendanceSummary: summary,
			Records:           logs,
		})
	}
	resp.OverallRate = OverallAttendanceRate(summaries)
	return resp, nil
}

// Catalog lists approved courses that have not ended, marking the ones the
// student already takes. The bool reports whether the course rows came from
// the cache.
func (s *EnrollmentService) Catalog(ctx context.Context, studentID string, query dto.CatalogQuery) ([]dto.CatalogItem, bool, error) {
	key := CatalogKey(query.Keyword, query.Category)
	var courses []models.CourseWithCount
	hit := s.cache.Get(ctx, key, &courses)
	if !hit {
		status := models.CourseStatusApproved
		today := models.DateOf(s.now())
		var err error
		courses, err = s.courses.List(ctx, models.CourseFilter{
			Status:   &status,
			Keyword:  query.Keyword,
			Category: query.Category,
			OpenOn:   &today,
		})
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		s.cache.Set(ctx, key, courses, s.config.CatalogCacheTTL)
	}

	enrolled, err := s.activeCourseSet(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	items := make([]dto.CatalogItem, 0, len(courses))
	for _, c := range courses {
		_, ok := enrolled[c.ID]
		items = append(items, dto.CatalogItem{CourseWithCount: c, IsEnrolled: ok})
	}
	return items, hit, nil
}

// Detail returns one course with the student's enrollment state and
// eligibility.
func (s *EnrollmentService) Detail(ctx context.Context, studentID, courseID string) (*dto.CourseDetail, error) {
	course, err := s.courses.FindWithCount(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	enrolled, err := s.isEnrolled(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	canEnroll, err := s.CanEnroll(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &dto.CourseDetail{
		CatalogItem: dto.CatalogItem{CourseWithCount: *course, IsEnrolled: enrolled},
		CanEnroll:   canEnroll,
	}, nil
}

// Enroll signs the student up for an approved course. The eligibility gate
// runs first; duplicate and capacity checks run inside the insert transaction.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	eligible, err := s.CanEnroll(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		s.metrics.RecordEnrollment(EnrollmentResultIneligible)
		return nil, appErrors.Clone(appErrors.ErrIneligible, "overall attendance rate is below the enrollment threshold")
	}

	if _, err := s.loadUser(ctx, studentID, "student not found"); err != nil {
		return nil, err
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "course is not open for enrollment")
	}

	enrollment, err := s.create(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("student enrolled", zap.String("student_id", studentID), zap.String("course_id", courseID))
	return enrollment, nil
}

// Cancel removes the student's enrollment. Its attendance goes with it.
func (s *EnrollmentService) Cancel(ctx context.Context, studentID, courseID string) error {
	if err := s.enrollments.DeleteByStudentAndCourse(ctx, studentID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
	}
	s.cache.InvalidateCatalog(ctx)
	return nil
}

// AdminEnroll enrolls a student on an admin's behalf. The attendance gate is
// skipped; duplicate and capacity checks still apply.
func (s *EnrollmentService) AdminEnroll(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	user, err := s.loadUser(ctx, studentID, "user not found")
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only students can be enrolled")
	}
	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return nil, err
	}
	enrollment, err := s.create(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("student enrolled by admin", zap.String("student_id", studentID), zap.String("course_id", courseID))
	return enrollment, nil
}

// AdminUnenroll removes a student from a course.
func (s *EnrollmentService) AdminUnenroll(ctx context.Context, courseID, studentID string) error {
	return s.Cancel(ctx, studentID, courseID)
}

func (s *EnrollmentService) create(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{StudentID: studentID, CourseID: courseID}
	if err := s.enrollments.CreateWithinCapacity(ctx, enrollment); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			s.metrics.RecordEnrollment(EnrollmentResultDuplicate)
			return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
		case errors.Is(err, repository.ErrCapacityReached):
			s.metrics.RecordEnrollment(EnrollmentResultFull)
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "course is full")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.metrics.RecordEnrollment(EnrollmentResultCreated)
	s.cache.InvalidateCatalog(ctx)
	return enrollment, nil
}

func (s *EnrollmentService) activeCourseSet(ctx context.Context, studentID string) (map[string]struct{}, error) {
	ids, err := s.enrollments.ActiveCourseIDs(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (s *EnrollmentService) isEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	_, err := s.enrollments.FindByStudentAndCourse(ctx, studentID, courseID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
}

func (s *EnrollmentService) loadUser(ctx context.Context, id, notFound string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, notFound)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *EnrollmentService) loadCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}
