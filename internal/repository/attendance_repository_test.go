package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/afterschool-api/internal/models"
)

func TestListByEnrollmentsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	records, err := repo.ListByEnrollments(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByEnrollmentsExpandsIn(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM attendance a WHERE a.enrollment_id IN \(\?, \?\) ORDER BY a.class_date DESC`).
		WithArgs("e1", "e2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "enrollment_id", "class_date", "status", "created_at", "updated_at"}).
			AddRow("a1", "e1", day, "PRESENT", day, day))

	records, err := repo.ListByEnrollments(context.Background(), []string{"e1", "e2"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendancePresent, records[0].Status)
}

func TestUpsertBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT id\) FROM enrollments WHERE course_id = \? AND id IN \(\?, \?\)`).
		WithArgs("c1", "e1", "e2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	prep := mock.ExpectPrepare("ON CONFLICT \\(enrollment_id, class_date\\) DO UPDATE")
	prep.ExpectExec().WithArgs(sqlmock.AnyArg(), "e1", models.DateOf(day), models.AttendancePresent, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(sqlmock.AnyArg(), "e2", models.DateOf(day), models.AttendanceLate, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.UpsertBatch(context.Background(), "c1", []models.AttendanceRecord{
		{EnrollmentID: "e1", ClassDate: day, Status: models.AttendancePresent},
		{EnrollmentID: "e2", ClassDate: day, Status: models.AttendanceLate},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchRejectsForeignEnrollment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT id\) FROM enrollments`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.UpsertBatch(context.Background(), "c1", []models.AttendanceRecord{
		{EnrollmentID: "e1", Status: models.AttendancePresent},
		{EnrollmentID: "other-course", Status: models.AttendanceAbsent},
	})
	assert.ErrorIs(t, err, ErrForeignRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}
