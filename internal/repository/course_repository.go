package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/afterschool-api/internal/models"
)

const courseSelect = `SELECT c.id, c.teacher_id, u.full_name AS teacher_name, c.name, c.category, c.description,
       c.course_days, c.course_time, c.room, c.capacity, c.status, c.quarter, c.end_date, c.created_at, c.updated_at`

const courseFrom = ` FROM courses c JOIN users u ON u.id = c.teacher_id`

const enrolledCountColumn = `,
       (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id AND e.status = 'ACTIVE') AS enrolled_count`

// CourseRepository persists courses and runs the lifecycle bulk updates.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course with its teacher name.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := courseSelect + courseFrom + ` WHERE c.id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// FindWithCount returns a course together with its active enrollment count.
func (r *CourseRepository) FindWithCount(ctx context.Context, id string) (*models.CourseWithCount, error) {
	query := courseSelect + enrolledCountColumn + courseFrom + ` WHERE c.id = $1`
	var course models.CourseWithCount
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course with count: %w", err)
	}
	return &course, nil
}

// List returns courses matching the filter, newest first.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseWithCount, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Room != "" {
		conditions = append(conditions, fmt.Sprintf("c.room = $%d", len(args)+1))
		args = append(args, filter.Room)
	}
	if filter.Keyword != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.name) LIKE $%d OR LOWER(u.full_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Keyword)+"%")
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.OpenOn != nil {
		conditions = append(conditions, fmt.Sprintf("(c.end_date IS NULL OR c.end_date >= $%d)", len(args)+1))
		args = append(args, models.DateOf(*filter.OpenOn))
	}

	query := courseSelect + enrolledCountColumn + courseFrom
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.created_at DESC"

	var courses []models.CourseWithCount
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// RoomCheck inspects the courses currently holding a room and returns an
// error to reject the booking being written.
type RoomCheck func(occupants []models.Course) error

func listRoomOccupants(ctx context.Context, q sqlx.QueryerContext, room string) ([]models.Course, error) {
	query := courseSelect + courseFrom + ` WHERE c.room = $1 AND c.status NOT IN ($2, $3)`
	var courses []models.Course
	if err := sqlx.SelectContext(ctx, q, &courses, query, room, models.CourseStatusRejected, models.CourseStatusClosed); err != nil {
		return nil, fmt.Errorf("list room occupants: %w", err)
	}
	return courses, nil
}

// withRoomLock runs write inside a transaction holding the room's advisory
// lock, after check has accepted the room's current occupants. Concurrent
// bookings of one room are serialised; errors from check are returned as is.
func (r *CourseRepository) withRoomLock(ctx context.Context, room string, check RoomCheck, write func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin room booking: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, room); err != nil {
		return fmt.Errorf("lock room: %w", err)
	}
	if check != nil {
		occupants, err := listRoomOccupants(ctx, tx, room)
		if err != nil {
			return err
		}
		if err := check(occupants); err != nil {
			return err
		}
	}
	if err := write(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit room booking: %w", err)
	}
	commit = true
	return nil
}

// Create inserts a new course once check accepts the room's bookings.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course, check RoomCheck) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, teacher_id, name, category, description, course_days, course_time, room, capacity, status, quarter, end_date, created_at, updated_at)
VALUES (:id, :teacher_id, :name, :category, :description, :course_days, :course_time, :room, :capacity, :status, :quarter, :end_date, :created_at, :updated_at)`
	return r.withRoomLock(ctx, course.Room, check, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, course); err != nil {
			return fmt.Errorf("create course: %w", err)
		}
		return nil
	})
}

// Update stores edited content and status. The row is only written while it
// is still in the expected status; otherwise sql.ErrNoRows is returned.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course, expected models.CourseStatus, check RoomCheck) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = $3, category = $4, description = $5, course_days = $6, course_time = $7, room = $8,
capacity = $9, status = $10, quarter = $11, end_date = $12, updated_at = $13
WHERE id = $1 AND status = $2`
	return r.withRoomLock(ctx, course.Room, check, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, course.ID, expected,
			course.Name, course.Category, course.Description, course.CourseDays, course.CourseTime, course.Room,
			course.Capacity, course.Status, course.Quarter, course.EndDate, course.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update course: %w", err)
		}
		return expectAffected(res)
	})
}

// Delete removes a course still in the expected status, returning
// sql.ErrNoRows otherwise. Enrollments and attendance cascade.
func (r *CourseRepository) Delete(ctx context.Context, id string, expected models.CourseStatus) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1 AND status = $2`, id, expected)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return expectAffected(res)
}

// TransitionStatus moves a course from one status to another. It returns
// sql.ErrNoRows when the course is gone or no longer in the expected status.
func (r *CourseRepository) TransitionStatus(ctx context.Context, id string, from, to models.CourseStatus) error {
	const query = `UPDATE courses SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("transition course status: %w", err)
	}
	return expectAffected(res)
}

// ApproveAllPending approves every pending course in one statement.
func (r *CourseRepository) ApproveAllPending(ctx context.Context) (int64, error) {
	const query = `UPDATE courses SET status = $1, updated_at = $3 WHERE status = $2`
	res, err := r.db.ExecContext(ctx, query, models.CourseStatusApproved, models.CourseStatusPending, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("approve pending courses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("approve pending courses rows: %w", err)
	}
	return n, nil
}

// CloseExpired closes approved courses whose end date is strictly before today.
func (r *CourseRepository) CloseExpired(ctx context.Context, today time.Time) (int64, error) {
	const query = `UPDATE courses SET status = $1, updated_at = $4 WHERE status = $2 AND end_date < $3`
	res, err := r.db.ExecContext(ctx, query, models.CourseStatusClosed, models.CourseStatusApproved, models.DateOf(today), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("close expired courses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("close expired courses rows: %w", err)
	}
	return n, nil
}
