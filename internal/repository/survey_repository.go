package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/afterschool-api/internal/models"
)

const surveyColumns = "id, author_id, course_id, title, start_date, end_date, created_at"

// SurveyRepository persists surveys, their questions and responses.
type SurveyRepository struct {
	db *sqlx.DB
}

// NewSurveyRepository constructs the repository.
func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// Create inserts a survey and its questions atomically.
func (r *SurveyRepository) Create(ctx context.Context, survey *models.Survey) error {
	if survey.ID == "" {
		survey.ID = uuid.NewString()
	}
	survey.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin survey create: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const insertSurvey = `INSERT INTO surveys (id, author_id, course_id, title, start_date, end_date, created_at) VALUES (:id, :author_id, :course_id, :title, :start_date, :end_date, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertSurvey, survey); err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}

	const insertQuestion = `INSERT INTO survey_questions (id, survey_id, question_text, question_type, options, position) VALUES (:id, :survey_id, :question_text, :question_type, :options, :position)`
	for i := range survey.Questions {
		q := &survey.Questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.SurveyID = survey.ID
		q.Position = i + 1
		if _, err := tx.NamedExecContext(ctx, insertQuestion, q); err != nil {
			return fmt.Errorf("insert survey question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit survey create: %w", err)
	}
	commit = true
	return nil
}

// FindByID returns a survey with its questions in order.
func (r *SurveyRepository) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	var survey models.Survey
	if err := r.db.GetContext(ctx, &survey, `SELECT `+surveyColumns+` FROM surveys WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find survey: %w", err)
	}

	const questions = `SELECT id, survey_id, question_text, question_type, options, position FROM survey_questions WHERE survey_id = $1 ORDER BY position ASC`
	if err := r.db.SelectContext(ctx, &survey.Questions, questions, id); err != nil {
		return nil, fmt.Errorf("list survey questions: %w", err)
	}
	return &survey, nil
}

// ListByCourse returns the surveys of a course.
func (r *SurveyRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Survey, error) {
	var surveys []models.Survey
	if err := r.db.SelectContext(ctx, &surveys, `SELECT `+surveyColumns+` FROM surveys WHERE course_id = $1 ORDER BY created_at DESC`, courseID); err != nil {
		return nil, fmt.Errorf("list course surveys: %w", err)
	}
	return surveys, nil
}

// ListGlobal returns surveys not bound to a course.
func (r *SurveyRepository) ListGlobal(ctx context.Context) ([]models.Survey, error) {
	var surveys []models.Survey
	if err := r.db.SelectContext(ctx, &surveys, `SELECT `+surveyColumns+` FROM surveys WHERE course_id IS NULL ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list global surveys: %w", err)
	}
	return surveys, nil
}

// ListVisible returns global surveys plus those of the given courses that are
// open on day.
func (r *SurveyRepository) ListVisible(ctx context.Context, courseIDs []string, day time.Time) ([]models.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys WHERE start_date <= ? AND end_date >= ? AND (course_id IS NULL`
	d := models.DateOf(day)
	args := []interface{}{d, d}
	if len(courseIDs) > 0 {
		query += ` OR course_id IN (?)`
		args = append(args, courseIDs)
	}
	query += `) ORDER BY end_date ASC`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build survey query: %w", err)
	}
	var surveys []models.Survey
	if err := r.db.SelectContext(ctx, &surveys, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list visible surveys: %w", err)
	}
	return surveys, nil
}

// HasResponded reports whether the respondent answered any question of the survey.
func (r *SurveyRepository) HasResponded(ctx context.Context, surveyID, respondentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM survey_responses sr JOIN survey_questions q ON q.id = sr.question_id WHERE q.survey_id = $1 AND sr.respondent_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, surveyID, respondentID); err != nil {
		return false, fmt.Errorf("check survey response: %w", err)
	}
	return exists, nil
}

// SaveResponses stores all answers of one submission atomically.
func (r *SurveyRepository) SaveResponses(ctx context.Context, responses []models.SurveyResponse) error {
	if len(responses) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin survey responses: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const insert = `INSERT INTO survey_responses (id, question_id, respondent_id, content, created_at) VALUES (:id, :question_id, :respondent_id, :content, :created_at)`
	for i := range responses {
		resp := &responses[i]
		if resp.ID == "" {
			resp.ID = uuid.NewString()
		}
		resp.CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, resp); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert survey response: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit survey responses: %w", err)
	}
	commit = true
	return nil
}
