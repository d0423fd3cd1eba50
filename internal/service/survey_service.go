package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/afterschool-api/internal/dto"
	"github.com/noah-isme/afterschool-api/internal/models"
	"github.com/noah-isme/afterschool-api/internal/repository"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

type surveyRepository interface {
	Create(ctx context.Context, survey *models.Survey) error
	FindByID(ctx context.Context, id string) (*models.Survey, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Survey, error)
	ListGlobal(ctx context.Context) ([]models.Survey, error)
	ListVisible(ctx context.Context, courseIDs []string, day time.Time) ([]models.Survey, error)
	HasResponded(ctx context.Context, surveyID, respondentID string) (bool, error)
	SaveResponses(ctx context.Context, responses []models.SurveyResponse) error
}

// SurveyService handles survey authoring and student responses.
type SurveyService struct {
	surveys     surveyRepository
	enrollments activeCourseLister
	guard       *CourseAccessGuard
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSurveyService constructs the service.
func NewSurveyService(surveys surveyRepository, enrollments activeCourseLister, guard *CourseAccessGuard, validate *validator.Validate, logger *zap.Logger) *SurveyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SurveyService{surveys: surveys, enrollments: enrollments, guard: guard, validator: validate, logger: logger, now: time.Now}
}

// Available lists surveys the student can answer today: global or of an
// enrolled course, inside the window and not yet submitted.
func (s *SurveyService) Available(ctx context.Context, studentID string) ([]dto.SurveyListItem, error) {
	courseIDs, err := s.enrollments.ActiveCourseIDs(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	surveys, err := s.surveys.ListVisible(ctx, courseIDs, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list surveys")
	}

	items := make([]dto.SurveyListItem, 0, len(surveys))
	for _, sv := range surveys {
		done, err := s.surveys.HasResponded(ctx, sv.ID, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check survey responses")
		}
		if done {
			continue
		}
		items = append(items, dto.SurveyListItem{ID: sv.ID, Title: sv.Title, CourseID: sv.CourseID, StartDate: sv.StartDate, EndDate: sv.EndDate})
	}
	return items, nil
}

// Detail returns a survey for answering. It must be open, unanswered and
// either global or of a course the student attends.
func (s *SurveyService) Detail(ctx context.Context, studentID, surveyID string) (*models.Survey, error) {
	survey, err := s.surveys.FindByID(ctx, surveyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}
	if !survey.OpenOn(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "survey is not active")
	}
	done, err := s.surveys.HasResponded(ctx, surveyID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check survey responses")
	}
	if done {
		return nil, appErrors.Clone(appErrors.ErrConflict, "survey already submitted")
	}
	if survey.CourseID != nil {
		courseIDs, err := s.enrollments.ActiveCourseIDs(ctx, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
		}
		if !contains(courseIDs, *survey.CourseID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "survey belongs to a course you are not enrolled in")
		}
	}
	return survey, nil
}

// Submit stores the student's answers. Every answer must target a question of
// the survey, once, and multiple choice answers must pick a listed option.
func (s *SurveyService) Submit(ctx context.Context, studentID, surveyID string, req dto.SubmitSurveyRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid survey response payload")
	}
	survey, err := s.Detail(ctx, studentID, surveyID)
	if err != nil {
		return err
	}

	questions := make(map[string]models.SurveyQuestion, len(survey.Questions))
	for _, q := range survey.Questions {
		questions[q.ID] = q
	}
	answered := make(map[string]struct{}, len(req.Responses))
	responses := make([]models.SurveyResponse, 0, len(req.Responses))
	for _, ans := range req.Responses {
		q, ok := questions[ans.QuestionID]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("question %s not found in survey", ans.QuestionID))
		}
		if _, dup := answered[q.ID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s answered twice", q.ID))
		}
		answered[q.ID] = struct{}{}
		if q.QuestionType == models.QuestionMultipleChoice && !contains(splitOptions(q.Options), strings.TrimSpace(ans.Content)) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("answer to question %s is not one of its options", q.ID))
		}
		responses = append(responses, models.SurveyResponse{QuestionID: q.ID, RespondentID: studentID, Content: strings.TrimSpace(ans.Content)})
	}

	if err := s.surveys.SaveResponses(ctx, responses); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return appErrors.Clone(appErrors.ErrConflict, "survey already submitted")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save survey responses")
	}
	return nil
}

// CreateForCourse adds a survey to a managed course.
func (s *SurveyService) CreateForCourse(ctx context.Context, actor Actor, courseID string, req dto.CreateSurveyRequest) (*models.Survey, error) {
	survey, err := s.build(actor, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, actor, courseID); err != nil {
		return nil, err
	}
	survey.CourseID = &courseID
	return s.create(ctx, survey)
}

// CreateGlobal adds a survey open to every student.
func (s *SurveyService) CreateGlobal(ctx context.Context, actor Actor, req dto.CreateSurveyRequest) (*models.Survey, error) {
	survey, err := s.build(actor, req)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, survey)
}

// ListForCourse returns the surveys of a managed course.
func (s *SurveyService) ListForCourse(ctx context.Context, actor Actor, courseID string) ([]models.Survey, error) {
	if _, err := s.guard.Authorize(ctx, actor, courseID); err != nil {
		return nil, err
	}
	surveys, err := s.surveys.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list surveys")
	}
	return surveys, nil
}

// ListGlobal returns surveys not bound to a course.
func (s *SurveyService) ListGlobal(ctx context.Context) ([]models.Survey, error) {
	surveys, err := s.surveys.ListGlobal(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list surveys")
	}
	return surveys, nil
}

func (s *SurveyService) build(actor Actor, req dto.CreateSurveyRequest) (*models.Survey, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid survey payload")
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start_date must use YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "end_date must use YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}

	survey := &models.Survey{AuthorID: actor.ID, Title: strings.TrimSpace(req.Title), StartDate: start, EndDate: end}
	for _, q := range req.Questions {
		question := models.SurveyQuestion{QuestionText: q.Text, QuestionType: q.Type}
		if q.Type == models.QuestionMultipleChoice {
			options := make([]string, 0, len(q.Options))
			for _, opt := range q.Options {
				opt = strings.TrimSpace(opt)
				if strings.Contains(opt, ",") {
					return nil, appErrors.Clone(appErrors.ErrValidation, "options must not contain commas")
				}
				options = append(options, opt)
			}
			joined := strings.Join(options, ",")
			question.Options = &joined
		}
		survey.Questions = append(survey.Questions, question)
	}
	return survey, nil
}

func (s *SurveyService) create(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	if err := s.surveys.Create(ctx, survey); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create survey")
	}
	s.logger.Info("survey created", zap.String("survey_id", survey.ID), zap.Int("questions", len(survey.Questions)))
	return survey, nil
}

func splitOptions(raw *string) []string {
	if raw == nil {
		return nil
	}
	parts := strings.Split(*raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
