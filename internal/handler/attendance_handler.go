package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/afterschool-api/internal/dto"
	"github.com/noah-isme/afterschool-api/internal/service"
	appErrors "github.com/noah-isme/afterschool-api/pkg/errors"
	"github.com/noah-isme/afterschool-api/pkg/response"
)

type attendanceService interface {
	Sheet(ctx context.Context, actor service.Actor, courseID, classDate string) ([]dto.AttendanceSheetRow, error)
	Record(ctx context.Context, actor service.Actor, courseID string, req dto.RecordAttendanceRequest) error
	Export(ctx context.Context, actor service.Actor, courseID, format string) (*service.ExportFile, error)
}

// AttendanceHandler lets course owners take and export attendance.
type AttendanceHandler struct {
	service attendanceService
	now     func() time.Time
}

// NewAttendanceHandler builds the handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, now: time.Now}
}

// Sheet godoc
// @Summary Attendance sheet for a class date
// @Tags Teacher
// @Produce json
// @Param id path string true "Course ID"
// @Param date query string false "Class date YYYY-MM-DD (defaults to today)"
// @Success 200 {object} response.Envelope
// @Router /teacher/courses/{id}/attendance [get]
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		date = h.now().Format("2006-01-02")
	}
	rows, err := h.service.Sheet(c.Request.Context(), actor, c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Record godoc
// @Summary Record attendance for a class date
// @Description Upserts one status per enrollment. The whole batch fails if any enrollment belongs to another course.
// @Tags Teacher
// @Accept json
// @Param id path string true "Course ID"
// @Param payload body dto.RecordAttendanceRequest true "Attendance batch"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/courses/{id}/attendance [put]
func (h *AttendanceHandler) Record(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	if err := h.service.Record(c.Request.Context(), actor, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Download the attendance sheet
// @Tags Teacher
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Course ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /teacher/courses/{id}/attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), actor, c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
