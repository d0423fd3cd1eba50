package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/afterschool-api/internal/models"
)

func TestFindCourseConflict(t *testing.T) {
	existing := []models.Course{
		{ID: "a", Room: "301", CourseDays: "MON,WED", CourseTime: "16:00-17:30", Status: models.CourseStatusApproved},
		{ID: "b", Room: "301", CourseDays: "TUE", CourseTime: "16:00-17:30", Status: models.CourseStatusRejected},
		{ID: "c", Room: "302", CourseDays: "FRI", CourseTime: "16:00-17:30", Status: models.CourseStatusClosed},
	}

	cases := []struct {
		name      string
		slot      CourseSlot
		ignore    string
		wantID    string
		wantClear bool
	}{
		{name: "shared day and equal time", slot: CourseSlot{Room: "301", Days: []string{"WED", "FRI"}, Time: "16:00-17:30"}, wantID: "a"},
		{name: "different room", slot: CourseSlot{Room: "302", Days: []string{"MON"}, Time: "16:00-17:30"}, wantClear: true},
		{name: "disjoint days", slot: CourseSlot{Room: "301", Days: []string{"THU"}, Time: "16:00-17:30"}, wantClear: true},
		{name: "overlapping but unequal time token", slot: CourseSlot{Room: "301", Days: []string{"MON"}, Time: "16:30-18:00"}, wantClear: true},
		{name: "rejected course releases room", slot: CourseSlot{Room: "301", Days: []string{"TUE"}, Time: "16:00-17:30"}, wantClear: true},
		{name: "closed course releases room", slot: CourseSlot{Room: "302", Days: []string{"FRI"}, Time: "16:00-17:30"}, wantClear: true},
		{name: "editing itself", slot: CourseSlot{Room: "301", Days: []string{"MON"}, Time: "16:00-17:30"}, ignore: "a", wantClear: true},
		{name: "day tokens are case sensitive", slot: CourseSlot{Room: "301", Days: []string{"mon"}, Time: "16:00-17:30"}, wantClear: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FindCourseConflict(tc.slot, existing, tc.ignore)
			if tc.wantClear {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.wantID, got.ID)
		})
	}
}

func TestFindCourseConflictPendingHoldsRoom(t *testing.T) {
	existing := []models.Course{{ID: "p", Room: "강당", CourseDays: " MON , ,THU", CourseTime: "A", Status: models.CourseStatusPending}}
	got := FindCourseConflict(CourseSlot{Room: "강당", Days: models.SplitDays("THU"), Time: "A"}, existing, "")
	require.NotNil(t, got)
	assert.Equal(t, "p", got.ID)
}

func TestRoomPolicy(t *testing.T) {
	policy := NewRoomPolicy([]string{"301", " 강당 "})

	room, ok := policy.Normalize("  301 ")
	assert.True(t, ok)
	assert.Equal(t, "301", room)

	room, ok = policy.Normalize("강당")
	assert.True(t, ok)
	assert.Equal(t, "강당", room)

	_, ok = policy.Normalize("999")
	assert.False(t, ok)

	_, ok = NewRoomPolicy(nil).Normalize("   ")
	assert.False(t, ok)
	room, ok = NewRoomPolicy(nil).Normalize(" lab ")
	assert.True(t, ok)
	assert.Equal(t, "lab", room)
}
