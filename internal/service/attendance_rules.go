package service

import "github.com/noah-isme/afterschool-api/internal/models"

// AggregateAttendance counts the records of one enrollment. Late counts as
// attended; the rate is 0 when nothing was recorded.
func AggregateAttendance(records []models.AttendanceRecord) models.AttendanceSummary {
	var summary models.AttendanceSummary
	for _, rec := range records {
		switch rec.Status {
		case models.AttendancePresent:
			summary.PresentCount++
		case models.AttendanceAbsent:
			summary.AbsentCount++
		case models.AttendanceLate:
			summary.LateCount++
		}
	}
	if total := summary.Total(); total > 0 {
		summary.Rate = float64(summary.PresentCount+summary.LateCount) / float64(total) * 100
	}
	return summary
}

// OverallAttendanceRate is the unweighted mean of the per-course rates, so a
// course with two classes weighs as much as one with twenty.
func OverallAttendanceRate(summaries []models.AttendanceSummary) float64 {
	if len(summaries) == 0 {
		return 0
	}
	var sum float64
	for _, s := range summaries {
		sum += s.Rate
	}
	return sum / float64(len(summaries))
}

// hasAnyRecord reports whether at least one class was logged.
func hasAnyRecord(summaries []models.AttendanceSummary) bool {
	for _, s := range summaries {
		if s.Total() > 0 {
			return true
		}
	}
	return false
}
