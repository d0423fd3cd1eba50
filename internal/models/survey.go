package models

import "time"

// QuestionType distinguishes survey question kinds.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionText           QuestionType = "TEXT"
)

// Survey groups questions answered by students. A nil CourseID marks a global
// survey.
type Survey struct {
	ID        string           `db:"id" json:"id"`
	AuthorID  string           `db:"author_id" json:"author_id"`
	CourseID  *string          `db:"course_id" json:"course_id,omitempty"`
	Title     string           `db:"title" json:"title"`
	StartDate time.Time        `db:"start_date" json:"start_date"`
	EndDate   time.Time        `db:"end_date" json:"end_date"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	Questions []SurveyQuestion `db:"-" json:"questions,omitempty"`
}

// OpenOn reports whether day falls inside the survey window, both ends inclusive.
func (s Survey) OpenOn(day time.Time) bool {
	d := DateOf(day)
	return !DateOf(s.StartDate).After(d) && !DateOf(s.EndDate).Before(d)
}

// SurveyQuestion is one question of a survey. Options is comma-separated for
// multiple choice questions.
type SurveyQuestion struct {
	ID           string       `db:"id" json:"id"`
	SurveyID     string       `db:"survey_id" json:"survey_id"`
	QuestionText string       `db:"question_text" json:"question_text"`
	QuestionType QuestionType `db:"question_type" json:"question_type"`
	Options      *string      `db:"options" json:"options,omitempty"`
	Position     int          `db:"position" json:"position"`
}

// SurveyResponse is a respondent's answer to a single question.
type SurveyResponse struct {
	ID           string    `db:"id" json:"id"`
	QuestionID   string    `db:"question_id" json:"question_id"`
	RespondentID string    `db:"respondent_id" json:"respondent_id"`
	Content      string    `db:"content" json:"content"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
