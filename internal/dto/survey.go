package dto

import (
	"time"

	"github.com/noah-isme/afterschool-api/internal/models"
)

// QuestionRequest describes one question of a new survey.
type QuestionRequest struct {
	Text    string              `json:"question_text" validate:"required,max=1000"`
	Type    models.QuestionType `json:"question_type" validate:"required,oneof=MULTIPLE_CHOICE TEXT"`
	Options []string            `json:"options" validate:"required_if=Type MULTIPLE_CHOICE,dive,required"`
}

// CreateSurveyRequest creates a course or global survey.
type CreateSurveyRequest struct {
	Title     string            `json:"title" validate:"required,max=200"`
	StartDate string            `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string            `json:"end_date" validate:"required,datetime=2006-01-02"`
	Questions []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// AnswerRequest is a response to one question.
type AnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Content    string `json:"content" validate:"required,max=2000"`
}

// SubmitSurveyRequest carries all answers of a respondent.
type SubmitSurveyRequest struct {
	Responses []AnswerRequest `json:"responses" validate:"required,min=1,dive"`
}

// SurveyListItem is a survey as listed to students.
type SurveyListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CourseID  *string   `json:"course_id,omitempty"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Submitted bool      `json:"submitted"`
}
