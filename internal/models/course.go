package models

import (
	"strings"
	"time"
)

// CourseStatus is the lifecycle state of a course.
type CourseStatus string

const (
	CourseStatusPending  CourseStatus = "PENDING"
	CourseStatusApproved CourseStatus = "APPROVED"
	CourseStatusRejected CourseStatus = "REJECTED"
	CourseStatusClosed   CourseStatus = "CLOSED"
)

var courseTransitions = map[CourseStatus][]CourseStatus{
	CourseStatusPending:  {CourseStatusApproved, CourseStatusRejected},
	CourseStatusApproved: {CourseStatusClosed},
	CourseStatusRejected: {CourseStatusPending},
}

// Valid reports whether s is a known status.
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusPending, CourseStatusApproved, CourseStatusRejected, CourseStatusClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// CLOSED is terminal.
func (s CourseStatus) CanTransitionTo(next CourseStatus) bool {
	for _, allowed := range courseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TeacherEditable reports whether the owning teacher may still change content.
func (s CourseStatus) TeacherEditable() bool {
	return s == CourseStatusPending || s == CourseStatusRejected
}

// HoldsRoom reports whether a course in this status occupies its room slot.
func (s CourseStatus) HoldsRoom() bool {
	return s != CourseStatusRejected && s != CourseStatusClosed
}

// Course is an after-school course offered by a teacher.
type Course struct {
	ID          string       `db:"id" json:"id"`
	TeacherID   string       `db:"teacher_id" json:"teacher_id"`
	TeacherName string       `db:"teacher_name" json:"teacher_name"`
	Name        string       `db:"name" json:"name"`
	Category    string       `db:"category" json:"category"`
	Description string       `db:"description" json:"description"`
	CourseDays  string       `db:"course_days" json:"course_days"`
	CourseTime  string       `db:"course_time" json:"course_time"`
	Room        string       `db:"room" json:"room"`
	Capacity    int          `db:"capacity" json:"capacity"`
	Status      CourseStatus `db:"status" json:"status"`
	Quarter     int          `db:"quarter" json:"quarter"`
	EndDate     *time.Time   `db:"end_date" json:"end_date,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// Days splits the comma-delimited day tokens, trimming blanks.
func (c Course) Days() []string {
	return SplitDays(c.CourseDays)
}

// SplitDays parses a comma-delimited day list. Empty tokens are dropped and
// comparison elsewhere stays case-sensitive.
func SplitDays(raw string) []string {
	parts := strings.Split(raw, ",")
	days := make([]string, 0, len(parts))
	for _, part := range parts {
		if day := strings.TrimSpace(part); day != "" {
			days = append(days, day)
		}
	}
	return days
}

// CourseWithCount adds the current number of active enrollments.
type CourseWithCount struct {
	Course
	EnrolledCount int `db:"enrolled_count" json:"enrolled_count"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Status    *CourseStatus
	TeacherID string
	Room      string
	Keyword   string
	Category  string
	// OpenOn keeps courses whose end date is on or after the given day, or unset.
	OpenOn *time.Time
}
