package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/afterschool-api/internal/models"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
)

// Actor is the authenticated caller of a use case.
type Actor struct {
	ID   string
	Role models.UserRole
}

// ActorFromClaims converts access token claims into an Actor.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{ID: claims.UserID, Role: claims.Role}
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CourseAccessGuard decides whether an actor may manage a course. The owning
// teacher and admins pass; everyone else is forbidden.
type CourseAccessGuard struct {
	courses courseFinder
}

// NewCourseAccessGuard constructs the guard.
func NewCourseAccessGuard(courses courseFinder) *CourseAccessGuard {
	return &CourseAccessGuard{courses: courses}
}

// Authorize loads the course and checks the actor's rights on it.
func (g *CourseAccessGuard) Authorize(ctx context.Context, actor Actor, courseID string) (*models.Course, error) {
	course, err := g.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if actor.IsAdmin() || (actor.Role == models.RoleTeacher && course.TeacherID == actor.ID) {
		return course, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not manage this course")
}
