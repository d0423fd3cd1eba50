package service

import (
	"strings"

	"github.com/noah-isme/afterschool-api/internal/models"
)

// CourseSlot is the room booking a course asks for.
type CourseSlot struct {
	Room string
	Days []string
	Time string
}

// SlotOf returns the booking held by c.
func SlotOf(c models.Course) CourseSlot {
	return CourseSlot{Room: c.Room, Days: c.Days(), Time: c.CourseTime}
}

// FindCourseConflict returns the first course in existing that books the same
// room with an identical time token on at least one shared day. Courses that
// no longer hold their room, and the course identified by ignoreID, are
// skipped. Time tokens are compared as opaque strings.
func FindCourseConflict(candidate CourseSlot, existing []models.Course, ignoreID string) *models.Course {
	for i := range existing {
		course := &existing[i]
		if ignoreID != "" && course.ID == ignoreID {
			continue
		}
		if course.Room != candidate.Room || !course.Status.HoldsRoom() {
			continue
		}
		if course.CourseTime != candidate.Time {
			continue
		}
		if daysIntersect(candidate.Days, course.Days()) {
			return course
		}
	}
	return nil
}

func daysIntersect(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, day := range a {
		set[day] = struct{}{}
	}
	for _, day := range b {
		if _, ok := set[day]; ok {
			return true
		}
	}
	return false
}

// RoomPolicy checks room identifiers against the configured allow-list. An
// empty list accepts any non-blank room.
type RoomPolicy struct {
	allowed map[string]struct{}
}

// NewRoomPolicy builds a policy from the configured rooms.
func NewRoomPolicy(rooms []string) RoomPolicy {
	allowed := make(map[string]struct{}, len(rooms))
	for _, room := range rooms {
		if room = strings.TrimSpace(room); room != "" {
			allowed[room] = struct{}{}
		}
	}
	return RoomPolicy{allowed: allowed}
}

// Normalize trims raw and reports whether the result may be booked.
func (p RoomPolicy) Normalize(raw string) (string, bool) {
	room := strings.TrimSpace(raw)
	if room == "" {
		return "", false
	}
	if len(p.allowed) == 0 {
		return room, true
	}
	_, ok := p.allowed[room]
	return room, ok
}
