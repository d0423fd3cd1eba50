package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/afterschool-api/internal/dto"
	"github.com/noah-isme/afterschool-api/internal/models"
	"github.com/noah-isme/afterschool-api/internal/repository"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
	"github.com/noah-isme/afterschool-api/pkg/export"
)

type attendanceRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.AttendanceRecord, error)
	ListByCourseAndDate(ctx context.Context, courseID string, classDate time.Time) ([]models.AttendanceRecord, error)
	UpsertBatch(ctx context.Context, courseID string, records []models.AttendanceRecord) error
}

// ExportFile is a rendered attendance sheet.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// AttendanceService lets course owners take and export attendance.
type AttendanceService struct {
	attendance attendanceRepository
	roster     rosterRepository
	guard      *CourseAccessGuard
	renderers  map[string]export.Renderer
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAttendanceService constructs the service. Without renderers it exports
// CSV and PDF.
func NewAttendanceService(attendance attendanceRepository, roster rosterRepository, guard *CourseAccessGuard, renderers []export.Renderer, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if len(renderers) == 0 {
		renderers = []export.Renderer{export.NewCSVExporter(true), export.NewPDFExporter()}
	}
	byExt := make(map[string]export.Renderer, len(renderers))
	for _, r := range renderers {
		byExt[r.Extension()] = r
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{attendance: attendance, roster: roster, guard: guard, renderers: byExt, validator: validate, logger: logger}
}

// Sheet lists every enrolled student with the status recorded for classDate,
// or nil when nothing was recorded yet.
func (s *AttendanceService) Sheet(ctx context.Context, actor Actor, courseID, classDate string) ([]dto.AttendanceSheetRow, error) {
	day, err := time.Parse(dateLayout, classDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must use YYYY-MM-DD")
	}
	if _, err := s.guard.Authorize(ctx, actor, courseID); err != nil {
		return nil, err
	}

	students, err := s.roster.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled students")
	}
	records, err := s.attendance.ListByCourseAndDate(ctx, courseID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	statusOf := make(map[string]models.AttendanceStatus, len(records))
	for _, rec := range records {
		statusOf[rec.EnrollmentID] = rec.Status
	}

	rows := make([]dto.AttendanceSheetRow, 0, len(students))
	for _, st := range students {
		row := dto.AttendanceSheetRow{
			EnrollmentID: st.ID,
			StudentID:    st.StudentID,
			StudentName:  st.StudentName,
			StudentIDNo:  st.StudentIDNo,
		}
		if status, ok := statusOf[st.ID]; ok {
			status := status
			row.Status = &status
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Record upserts one class date for many students in a single transaction.
// Every entry must reference an enrollment of the course.
func (s *AttendanceService) Record(ctx context.Context, actor Actor, courseID string, req dto.RecordAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	day, err := time.Parse(dateLayout, req.ClassDate)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "class_date must use YYYY-MM-DD")
	}
	if _, err := s.guard.Authorize(ctx, actor, courseID); err != nil {
		return err
	}

	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		records = append(records, models.AttendanceRecord{EnrollmentID: entry.EnrollmentID, ClassDate: day, Status: entry.Status})
	}
	if err := s.attendance.UpsertBatch(ctx, courseID, records); err != nil {
		if errors.Is(err, repository.ErrForeignRecord) {
			return appErrors.Clone(appErrors.ErrForbidden, "attendance entries must belong to this course")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.logger.Info("attendance recorded", zap.String("course_id", courseID), zap.String("class_date", req.ClassDate), zap.Int("entries", len(records)))
	return nil
}

// Export renders the course attendance sheet with one column per class date
// and per-student totals.
func (s *AttendanceService) Export(ctx context.Context, actor Actor, courseID, format string) (*ExportFile, error) {
	renderer, ok := s.renderers[strings.ToLower(format)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	course, err := s.guard.Authorize(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	students, err := s.roster.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled students")
	}
	records, err := s.attendance.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	body, err := renderer.Render(buildAttendanceDataset(course, students, records))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("attendance-%s.%s", course.ID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

var attendanceMarks = map[models.AttendanceStatus]string{
	models.AttendancePresent: "P",
	models.AttendanceAbsent:  "A",
	models.AttendanceLate:    "L",
}

func buildAttendanceDataset(course *models.Course, students []models.EnrollmentDetail, records []models.AttendanceRecord) export.Dataset {
	byEnrollment := make(map[string][]models.AttendanceRecord)
	dateSet := make(map[string]struct{})
	for _, rec := range records {
		byEnrollment[rec.EnrollmentID] = append(byEnrollment[rec.EnrollmentID], rec)
		dateSet[rec.ClassDate.Format(dateLayout)] = struct{}{}
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	headers := append([]string{"Student No", "Name"}, dates...)
	headers = append(headers, "Present", "Absent", "Late", "Rate")

	rows := make([]map[string]string, 0, len(students))
	summaries := make([]models.AttendanceSummary, 0, len(students))
	for _, st := range students {
		recs := byEnrollment[st.ID]
		summary := AggregateAttendance(recs)
		summaries = append(summaries, summary)

		row := map[string]string{
			"Name":    st.StudentName,
			"Present": fmt.Sprintf("%d", summary.PresentCount),
			"Absent":  fmt.Sprintf("%d", summary.AbsentCount),
			"Late":    fmt.Sprintf("%d", summary.LateCount),
			"Rate":    fmt.Sprintf("%.1f%%", summary.Rate),
		}
		if st.StudentIDNo != nil {
			row["Student No"] = *st.StudentIDNo
		}
		for _, rec := range recs {
			row[rec.ClassDate.Format(dateLayout)] = attendanceMarks[rec.Status]
		}
		rows = append(rows, row)
	}

	return export.Dataset{
		Title:   fmt.Sprintf("%s attendance (%s, %s)", course.Name, course.Room, course.CourseTime),
		Headers: headers,
		Rows:    rows,
		Footer: []string{
			fmt.Sprintf("Students: %d, class dates: %d", len(students), len(dates)),
			fmt.Sprintf("Average rate: %.1f%%", OverallAttendanceRate(summaries)),
		},
	}
}
