package models

import "time"

// Notice is an announcement. A nil CourseID marks a global notice.
type Notice struct {
	ID         string    `db:"id" json:"id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	CourseID   *string   `db:"course_id" json:"course_id,omitempty"`
	CourseName *string   `db:"course_name" json:"course_name,omitempty"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
