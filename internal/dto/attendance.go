package dto

import "github.com/noah-isme/afterschool-api/internal/models"

// AttendanceLog is one dated record in a student's history.
type AttendanceLog struct {
	ClassDate string                  `json:"class_date"`
	Status    models.AttendanceStatus `json:"status"`
}

// MyCourse summarises one enrollment of the current student.
type MyCourse struct {
	EnrollmentID string                  `json:"enrollment_id"`
	CourseID     string                  `json:"course_id"`
	CourseName   string                  `json:"course_name"`
	TeacherName  string                  `json:"teacher_name"`
	Status       models.EnrollmentStatus `json:"status"`
	models.AttendanceSummary
	Records []AttendanceLog `json:"records"`
}

// MyCoursesResponse lists enrollments with the overall attendance rate.
type MyCoursesResponse struct {
	Courses     []MyCourse `json:"courses"`
	OverallRate float64    `json:"overall_attendance_rate"`
}

// AttendanceSheetRow is one enrolled student on a class date. Status is nil
// when nothing was recorded yet.
type AttendanceSheetRow struct {
	EnrollmentID string                   `json:"enrollment_id"`
	StudentID    string                   `json:"student_id"`
	StudentName  string                   `json:"student_name"`
	StudentIDNo  *string                  `json:"student_id_no,omitempty"`
	Status       *models.AttendanceStatus `json:"status"`
}

// AttendanceEntry is one student's status in a batch.
type AttendanceEntry struct {
	EnrollmentID string                  `json:"enrollment_id" validate:"required"`
	Status       models.AttendanceStatus `json:"status" validate:"required,oneof=PRESENT ABSENT LATE"`
}

// RecordAttendanceRequest upserts a class date for many students at once.
type RecordAttendanceRequest struct {
	ClassDate string            `json:"class_date" validate:"required,datetime=2006-01-02"`
	Entries   []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}
