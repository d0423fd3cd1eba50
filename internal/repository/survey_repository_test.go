package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/afterschool-api/internal/models"
)

func TestSurveyCreateWithQuestions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSurveyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO surveys").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO survey_questions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO survey_questions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	options := "yes,no"
	survey := &models.Survey{
		AuthorID: "t1",
		Title:    "Mid-term feedback",
		Questions: []models.SurveyQuestion{
			{QuestionText: "Enjoying it?", QuestionType: models.QuestionMultipleChoice, Options: &options},
			{QuestionText: "Comments", QuestionType: models.QuestionText},
		},
	}
	require.NoError(t, repo.Create(context.Background(), survey))
	assert.Equal(t, survey.ID, survey.Questions[1].SurveyID)
	assert.Equal(t, 2, survey.Questions[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyListVisibleWithoutCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSurveyRepository(db)

	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE start_date <= ? AND end_date >= ? AND (course_id IS NULL) ORDER BY end_date ASC")).
		WithArgs(day, day).
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id", "course_id", "title", "start_date", "end_date", "created_at"}))

	surveys, err := repo.ListVisible(context.Background(), nil, day)
	require.NoError(t, err)
	assert.Empty(t, surveys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyHasResponded(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSurveyRepository(db)

	mock.ExpectQuery("FROM survey_responses sr JOIN survey_questions q").
		WithArgs("sv1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasResponded(context.Background(), "sv1", "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}
