package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/afterschool-api/internal/models"
	"github.com/noah-isme/afterschool-api/internal/repository"
)

// memStore backs the fake repositories below with the same semantics the SQL
// repositories enforce: unique enrollments, capacity, cascades and
// conditional status updates.
type memStore struct {
	mu          sync.Mutex
	seq         int
	users       map[string]*models.User
	courses     []*models.Course
	enrollments []*models.Enrollment
	attendance  []models.AttendanceRecord
	notices     []*models.Notice
	surveys     []*models.Survey
	responses   []models.SurveyResponse
	auditLogs   []*models.AuditLog
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.User{}}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addUser(id string, role models.UserRole, name string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: id, Email: id + "@school.kr", FullName: name, Role: role, Active: true}
	m.users[id] = u
	return u
}

func (m *memStore) addCourse(c models.Course) *models.Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = m.nextID("course")
	}
	if c.Capacity == 0 {
		c.Capacity = 10
	}
	if u, ok := m.users[c.TeacherID]; ok {
		c.TeacherName = u.FullName
	}
	m.seq++
	c.CreatedAt = time.Date(2024, 3, 1, 0, 0, m.seq, 0, time.UTC)
	m.courses = append(m.courses, &c)
	return &c
}

func (m *memStore) enroll(studentID, courseID string) *models.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &models.Enrollment{ID: m.nextID("enr"), StudentID: studentID, CourseID: courseID, Status: models.EnrollmentStatusActive, EnrolledAt: time.Now().UTC()}
	m.enrollments = append(m.enrollments, e)
	return e
}

func (m *memStore) mark(enrollmentID, day string, status models.AttendanceStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, _ := time.Parse(dateLayout, day)
	m.attendance = append(m.attendance, models.AttendanceRecord{ID: m.nextID("att"), EnrollmentID: enrollmentID, ClassDate: d, Status: status})
}

func (m *memStore) course(id string) *models.Course {
	for _, c := range m.courses {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *memStore) countActive(courseID string) int {
	n := 0
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.Status == models.EnrollmentStatusActive {
			n++
		}
	}
	return n
}

func (m *memStore) detail(e *models.Enrollment) models.EnrollmentDetail {
	d := models.EnrollmentDetail{Enrollment: *e}
	if u, ok := m.users[e.StudentID]; ok {
		d.StudentName = u.FullName
		d.StudentEmail = u.Email
		d.StudentIDNo = u.StudentIDNo
	}
	if c := m.course(e.CourseID); c != nil {
		d.CourseName = c.Name
		d.TeacherName = c.TeacherName
	}
	return d
}

func (m *memStore) dropEnrollment(id string) {
	kept := m.attendance[:0]
	for _, rec := range m.attendance {
		if rec.EnrollmentID != id {
			kept = append(kept, rec)
		}
	}
	m.attendance = kept
}

type memCourses struct{ *memStore }

func (r memCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.course(id)
	if c == nil {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (r memCourses) FindWithCount(ctx context.Context, id string) (*models.CourseWithCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.course(id)
	if c == nil {
		return nil, sql.ErrNoRows
	}
	return &models.CourseWithCount{Course: *c, EnrolledCount: r.countActive(id)}, nil
}

func (r memCourses) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseWithCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CourseWithCount
	for _, c := range r.courses {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.TeacherID != "" && c.TeacherID != filter.TeacherID {
			continue
		}
		if filter.Room != "" && c.Room != filter.Room {
			continue
		}
		if kw := strings.ToLower(filter.Keyword); kw != "" &&
			!strings.Contains(strings.ToLower(c.Name), kw) && !strings.Contains(strings.ToLower(c.TeacherName), kw) {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.OpenOn != nil && c.EndDate != nil && c.EndDate.Before(models.DateOf(*filter.OpenOn)) {
			continue
		}
		out = append(out, models.CourseWithCount{Course: *c, EnrolledCount: r.countActive(c.ID)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memCourses) occupants(room string) []models.Course {
	var out []models.Course
	for _, c := range r.courses {
		if c.Room == room && c.Status.HoldsRoom() {
			out = append(out, *c)
		}
	}
	return out
}

func (r memCourses) Create(ctx context.Context, course *models.Course, check repository.RoomCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if check != nil {
		if err := check(r.occupants(course.Room)); err != nil {
			return err
		}
	}
	course.ID = r.nextID("course")
	course.CreatedAt = time.Now().UTC()
	course.UpdatedAt = course.CreatedAt
	if u, ok := r.users[course.TeacherID]; ok {
		course.TeacherName = u.FullName
	}
	copied := *course
	r.courses = append(r.courses, &copied)
	return nil
}

func (r memCourses) Update(ctx context.Context, course *models.Course, expected models.CourseStatus, check repository.RoomCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if check != nil {
		if err := check(r.occupants(course.Room)); err != nil {
			return err
		}
	}
	c := r.course(course.ID)
	if c == nil || c.Status != expected {
		return sql.ErrNoRows
	}
	*c = *course
	return nil
}

func (r memCourses) Delete(ctx context.Context, id string, expected models.CourseStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.courses {
		if c.ID != id {
			continue
		}
		if c.Status != expected {
			return sql.ErrNoRows
		}
		r.courses = append(r.courses[:i], r.courses[i+1:]...)
		kept := r.enrollments[:0]
		for _, e := range r.enrollments {
			if e.CourseID == id {
				r.dropEnrollment(e.ID)
				continue
			}
			kept = append(kept, e)
		}
		r.enrollments = kept
		return nil
	}
	return sql.ErrNoRows
}

func (r memCourses) TransitionStatus(ctx context.Context, id string, from, to models.CourseStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.course(id)
	if c == nil || c.Status != from {
		return sql.ErrNoRows
	}
	c.Status = to
	return nil
}

func (r memCourses) ApproveAllPending(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.courses {
		if c.Status == models.CourseStatusPending {
			c.Status = models.CourseStatusApproved
			n++
		}
	}
	return n, nil
}

func (r memCourses) CloseExpired(ctx context.Context, today time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := models.DateOf(today)
	var n int64
	for _, c := range r.courses {
		if c.Status == models.CourseStatusApproved && c.EndDate != nil && c.EndDate.Before(day) {
			c.Status = models.CourseStatusClosed
			n++
		}
	}
	return n, nil
}

type memEnrollments struct{ *memStore }

func (r memEnrollments) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memEnrollments) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.EnrollmentDetail
	for _, e := range r.enrollments {
		if e.StudentID == studentID {
			out = append(out, r.detail(e))
		}
	}
	return out, nil
}

func (r memEnrollments) ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.EnrollmentDetail
	for _, e := range r.enrollments {
		if e.CourseID == courseID && e.Status == models.EnrollmentStatusActive {
			out = append(out, r.detail(e))
		}
	}
	return out, nil
}

func (r memEnrollments) ActiveCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, e := range r.enrollments {
		if e.StudentID == studentID && e.Status == models.EnrollmentStatusActive {
			ids = append(ids, e.CourseID)
		}
	}
	return ids, nil
}

func (r memEnrollments) CreateWithinCapacity(ctx context.Context, enrollment *models.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.course(enrollment.CourseID)
	if c == nil {
		return sql.ErrNoRows
	}
	for _, e := range r.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return repository.ErrDuplicate
		}
	}
	if r.countActive(c.ID) >= c.Capacity {
		return repository.ErrCapacityReached
	}
	enrollment.ID = r.nextID("enr")
	enrollment.Status = models.EnrollmentStatusActive
	enrollment.EnrolledAt = time.Now().UTC()
	copied := *enrollment
	r.enrollments = append(r.enrollments, &copied)
	return nil
}

func (r memEnrollments) DeleteByStudentAndCourse(ctx context.Context, studentID, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			r.dropEnrollment(e.ID)
			r.enrollments = append(r.enrollments[:i], r.enrollments[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type memAttendance struct{ *memStore }

func (r memAttendance) ListByEnrollments(ctx context.Context, enrollmentIDs []string) ([]models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(enrollmentIDs))
	for _, id := range enrollmentIDs {
		wanted[id] = true
	}
	var out []models.AttendanceRecord
	for _, rec := range r.attendance {
		if wanted[rec.EnrollmentID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r memAttendance) courseOf(enrollmentID string) string {
	for _, e := range r.enrollments {
		if e.ID == enrollmentID {
			return e.CourseID
		}
	}
	return ""
}

func (r memAttendance) ListByCourse(ctx context.Context, courseID string) ([]models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AttendanceRecord
	for _, rec := range r.attendance {
		if r.courseOf(rec.EnrollmentID) == courseID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r memAttendance) ListByCourseAndDate(ctx context.Context, courseID string, classDate time.Time) ([]models.AttendanceRecord, error) {
	all, _ := r.ListByCourse(ctx, courseID)
	var out []models.AttendanceRecord
	for _, rec := range all {
		if rec.ClassDate.Equal(models.DateOf(classDate)) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r memAttendance) UpsertBatch(ctx context.Context, courseID string, records []models.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		if r.courseOf(rec.EnrollmentID) != courseID {
			return repository.ErrForeignRecord
		}
	}
	for _, rec := range records {
		replaced := false
		for i := range r.attendance {
			if r.attendance[i].EnrollmentID == rec.EnrollmentID && r.attendance[i].ClassDate.Equal(rec.ClassDate) {
				r.attendance[i].Status = rec.Status
				replaced = true
			}
		}
		if !replaced {
			rec.ID = r.nextID("att")
			r.attendance = append(r.attendance, rec)
		}
	}
	return nil
}

type memUsers struct{ *memStore }

func (r memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r memUsers) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if !u.Active || (filter.Role != nil && u.Role != *filter.Role) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r memUsers) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Role = role
	return nil
}

func (r memUsers) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || !u.Active {
		return sql.ErrNoRows
	}
	u.Active = false
	return nil
}

func (r memUsers) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auditLogs = append(r.auditLogs, log)
	return nil
}

type memNotices struct{ *memStore }

func (r memNotices) find(id string) *models.Notice {
	for _, n := range r.notices {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (r memNotices) FindByID(ctx context.Context, id string) (*models.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.find(id)
	if n == nil {
		return nil, sql.ErrNoRows
	}
	copied := *n
	return &copied, nil
}

func (r memNotices) ListByCourse(ctx context.Context, courseID string) ([]models.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notice
	for _, n := range r.notices {
		if n.CourseID != nil && *n.CourseID == courseID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r memNotices) ListVisible(ctx context.Context, courseIDs []string) ([]models.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notice
	for _, n := range r.notices {
		if n.CourseID == nil || contains(courseIDs, *n.CourseID) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r memNotices) Create(ctx context.Context, notice *models.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notice.ID = r.nextID("notice")
	copied := *notice
	r.notices = append(r.notices, &copied)
	return nil
}

func (r memNotices) Update(ctx context.Context, notice *models.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.find(notice.ID)
	if n == nil {
		return sql.ErrNoRows
	}
	*n = *notice
	return nil
}

func (r memNotices) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notices {
		if n.ID == id {
			r.notices = append(r.notices[:i], r.notices[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type memSurveys struct{ *memStore }

func (r memSurveys) Create(ctx context.Context, survey *models.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	survey.ID = r.nextID("survey")
	for i := range survey.Questions {
		survey.Questions[i].ID = fmt.Sprintf("%s-q%d", survey.ID, i+1)
		survey.Questions[i].SurveyID = survey.ID
		survey.Questions[i].Position = i + 1
	}
	copied := *survey
	r.surveys = append(r.surveys, &copied)
	return nil
}

func (r memSurveys) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.surveys {
		if s.ID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memSurveys) ListByCourse(ctx context.Context, courseID string) ([]models.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Survey
	for _, s := range r.surveys {
		if s.CourseID != nil && *s.CourseID == courseID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r memSurveys) ListGlobal(ctx context.Context) ([]models.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Survey
	for _, s := range r.surveys {
		if s.CourseID == nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r memSurveys) ListVisible(ctx context.Context, courseIDs []string, day time.Time) ([]models.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Survey
	for _, s := range r.surveys {
		if !s.OpenOn(day) {
			continue
		}
		if s.CourseID == nil || contains(courseIDs, *s.CourseID) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r memSurveys) HasResponded(ctx context.Context, surveyID, respondentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := surveyID + "-q"
	for _, resp := range r.responses {
		if resp.RespondentID == respondentID && strings.HasPrefix(resp.QuestionID, prefix) {
			return true, nil
		}
	}
	return false, nil
}

func (r memSurveys) SaveResponses(ctx context.Context, responses []models.SurveyResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range responses {
		for _, existing := range r.responses {
			if existing.QuestionID == resp.QuestionID && existing.RespondentID == resp.RespondentID {
				return repository.ErrDuplicate
			}
		}
	}
	r.responses = append(r.responses, responses...)
	return nil
}

func mustDate(raw string) *time.Time {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		panic(err)
	}
	return &d
}
