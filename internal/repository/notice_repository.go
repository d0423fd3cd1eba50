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

const noticeSelect = `SELECT n.id, n.author_id, u.full_name AS author_name, n.course_id, c.name AS course_name,
       n.title, n.content, n.created_at, n.updated_at
FROM notices n
JOIN users u ON u.id = n.author_id
LEFT JOIN courses c ON c.id = n.course_id`

// NoticeRepository persists course and global notices.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository constructs the repository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// FindByID returns a notice.
func (r *NoticeRepository) FindByID(ctx context.Context, id string) (*models.Notice, error) {
	var notice models.Notice
	if err := r.db.GetContext(ctx, &notice, noticeSelect+` WHERE n.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find notice: %w", err)
	}
	return &notice, nil
}

// ListByCourse returns the notices of a course, newest first.
func (r *NoticeRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Notice, error) {
	var notices []models.Notice
	if err := r.db.SelectContext(ctx, &notices, noticeSelect+` WHERE n.course_id = $1 ORDER BY n.created_at DESC`, courseID); err != nil {
		return nil, fmt.Errorf("list course notices: %w", err)
	}
	return notices, nil
}

// ListVisible returns global notices plus those of the given courses.
func (r *NoticeRepository) ListVisible(ctx context.Context, courseIDs []string) ([]models.Notice, error) {
	query := noticeSelect + ` WHERE n.course_id IS NULL`
	var args []interface{}
	if len(courseIDs) > 0 {
		inQuery, inArgs, err := sqlx.In(` OR n.course_id IN (?)`, courseIDs)
		if err != nil {
			return nil, fmt.Errorf("build notice query: %w", err)
		}
		query += inQuery
		args = inArgs
	}
	query += ` ORDER BY n.created_at DESC`

	var notices []models.Notice
	if err := r.db.SelectContext(ctx, &notices, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list visible notices: %w", err)
	}
	return notices, nil
}

// Create inserts a notice.
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	notice.CreatedAt = now
	notice.UpdatedAt = now
	const query = `INSERT INTO notices (id, author_id, course_id, title, content, created_at, updated_at) VALUES (:id, :author_id, :course_id, :title, :content, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notice); err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

// Update changes title and content.
func (r *NoticeRepository) Update(ctx context.Context, notice *models.Notice) error {
	notice.UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, `UPDATE notices SET title = :title, content = :content, updated_at = :updated_at WHERE id = :id`, notice)
	if err != nil {
		return fmt.Errorf("update notice: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a notice.
func (r *NoticeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return expectAffected(res)
}
