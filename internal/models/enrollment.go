package models

import "time"

// EnrollmentStatus enumerates enrollment states. Cancelling deletes the row,
// so ACTIVE is the only persisted value.
type EnrollmentStatus string

const EnrollmentStatusActive EnrollmentStatus = "ACTIVE"

// Enrollment links a student to a course.
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentDetail carries the student and course names for rosters and
// my-courses views.
type EnrollmentDetail struct {
	Enrollment
	StudentName  string  `db:"student_name" json:"student_name"`
	StudentEmail string  `db:"student_email" json:"student_email"`
	StudentIDNo  *string `db:"student_id_no" json:"student_id_no,omitempty"`
	CourseName   string  `db:"course_name" json:"course_name"`
	TeacherName  string  `db:"teacher_name" json:"teacher_name"`
}
