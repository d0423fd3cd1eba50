package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/afterschool-api/internal/models"
)

const attendanceColumns = "a.id, a.enrollment_id, a.class_date, a.status, a.created_at, a.updated_at"

// AttendanceRepository stores per-date attendance of enrollments.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByEnrollments returns the records of the given enrollments, newest
// class date first.
func (r *AttendanceRepository) ListByEnrollments(ctx context.Context, enrollmentIDs []string) ([]models.AttendanceRecord, error) {
	if len(enrollmentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+attendanceColumns+` FROM attendance a WHERE a.enrollment_id IN (?) ORDER BY a.class_date DESC`, enrollmentIDs)
	if err != nil {
		return nil, fmt.Errorf("build attendance query: %w", err)
	}
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list attendance by enrollments: %w", err)
	}
	return records, nil
}

// ListByCourse returns every record of a course ordered by class date.
func (r *AttendanceRepository) ListByCourse(ctx context.Context, courseID string) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance a JOIN enrollments e ON e.id = a.enrollment_id WHERE e.course_id = $1 ORDER BY a.class_date ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, courseID); err != nil {
		return nil, fmt.Errorf("list attendance by course: %w", err)
	}
	return records, nil
}

// ListByCourseAndDate returns the records of a course for one class date.
func (r *AttendanceRepository) ListByCourseAndDate(ctx context.Context, courseID string, classDate time.Time) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance a JOIN enrollments e ON e.id = a.enrollment_id WHERE e.course_id = $1 AND a.class_date = $2`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, courseID, models.DateOf(classDate)); err != nil {
		return nil, fmt.Errorf("list attendance by date: %w", err)
	}
	return records, nil
}

// UpsertBatch writes a class date for many enrollments of one course in a
// single transaction. Every enrollment must belong to courseID, otherwise
// nothing is written and ErrForeignRecord is returned.
func (r *AttendanceRepository) UpsertBatch(ctx context.Context, courseID string, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance batch: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.EnrollmentID)
	}
	countQuery, args, err := sqlx.In(`SELECT COUNT(DISTINCT id) FROM enrollments WHERE course_id = ? AND id IN (?)`, courseID, ids)
	if err != nil {
		return fmt.Errorf("build enrollment scope query: %w", err)
	}
	var owned int
	if err := tx.GetContext(ctx, &owned, tx.Rebind(countQuery), args...); err != nil {
		return fmt.Errorf("check enrollment scope: %w", err)
	}
	if owned != distinct(ids) {
		return ErrForeignRecord
	}

	const upsert = `INSERT INTO attendance (id, enrollment_id, class_date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (enrollment_id, class_date) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	stmt, err := tx.PreparexContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("prepare attendance upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, id, rec.EnrollmentID, models.DateOf(rec.ClassDate), rec.Status, now); err != nil {
			return fmt.Errorf("upsert attendance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance batch: %w", err)
	}
	commit = true
	return nil
}

func distinct(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
