package dto

import "github.com/noah-isme/afterschool-api/internal/models"

// CourseRequest is the teacher payload for creating or editing a course.
type CourseRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Category    string `json:"category" validate:"required,max=50"`
	Description string `json:"description" validate:"max=2000"`
	CourseDays  string `json:"course_days" validate:"required,max=50"`
	CourseTime  string `json:"course_time" validate:"required,max=50"`
	Room        string `json:"room" validate:"required,max=50"`
	Capacity    int    `json:"capacity" validate:"required,gt=0"`
	Quarter     int    `json:"quarter" validate:"required,min=1,max=4"`
	// EndDate uses YYYY-MM-DD.
	EndDate string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateCourseStatusRequest is the admin decision on a pending course.
type UpdateCourseStatusRequest struct {
	Status models.CourseStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

// BulkResult reports how many rows a bulk transition touched.
type BulkResult struct {
	Affected int64 `json:"affected"`
}

// CatalogItem is a course as shown in the student catalog.
type CatalogItem struct {
	models.CourseWithCount
	IsEnrolled bool `json:"is_enrolled"`
}

// CourseDetail adds the eligibility verdict for the requesting student.
type CourseDetail struct {
	CatalogItem
	CanEnroll bool `json:"can_enroll"`
}

// CatalogQuery filters the student catalog.
type CatalogQuery struct {
	Keyword  string `form:"keyword"`
	Category string `form:"category"`
}

// AdminEnrollRequest enrolls a student on their behalf.
type AdminEnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}
