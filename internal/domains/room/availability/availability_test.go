package availability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lodge/internal/domains/room/availability"
	"lodge/internal/lifecycle"
	"lodge/shared/timezone"
)

func day(d int) time.Time {
	return time.Date(2030, time.January, d, 0, 0, 0, 0, timezone.GetLocation())
}

func TestAvailableCount(t *testing.T) {
	stays := []availability.Stay{
		{RoomType: "Deluxe", Status: lifecycle.StatusApproved, Dates: "01/01/2030 - 05/01/2030"},
		{RoomType: "Deluxe", Status: lifecycle.StatusPending, CheckIn: "2030-01-04", CheckOut: "2030-01-06"},
		{RoomType: "Deluxe", Status: lifecycle.StatusCancelled, Dates: "02/01/2030 - 03/01/2030"},
	}

	assert.Equal(t, 1, availability.AvailableCount("Deluxe", 3, day(3), day(4), stays))
}

func TestAvailableCount_Filters(t *testing.T) {
	tests := []struct {
		name  string
		stay  availability.Stay
		count int
	}{
		{
			name:  "other room type",
			stay:  availability.Stay{RoomType: "Suite", Status: lifecycle.StatusApproved, Dates: "01/01/2030 - 05/01/2030"},
			count: 2,
		},
		{
			name:  "rejected",
			stay:  availability.Stay{RoomType: "Deluxe", Status: lifecycle.StatusRejected, Dates: "01/01/2030 - 05/01/2030"},
			count: 2,
		},
		{
			name:  "unparseable dates",
			stay:  availability.Stay{RoomType: "Deluxe", Status: lifecycle.StatusApproved, Dates: "next week"},
			count: 2,
		},
		{
			name:  "touching on the last day",
			stay:  availability.Stay{RoomType: "Deluxe", Status: lifecycle.StatusCheckedIn, Dates: "10/01/2030 - 12/01/2030"},
			count: 1,
		},
		{
			name:  "contained in the query",
			stay:  availability.Stay{RoomType: "Deluxe", Status: lifecycle.StatusApproved, CheckIn: "2030-01-06", CheckOut: "2030-01-07"},
			count: 1,
		},
		{
			name:  "after the query",
			stay:  availability.Stay{RoomType: "Deluxe", Status: lifecycle.StatusApproved, CheckIn: "2030-01-11", CheckOut: "2030-01-12"},
			count: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := availability.AvailableCount("Deluxe", 2, day(5), day(10), []availability.Stay{tt.stay})
			assert.Equal(t, tt.count, got)
		})
	}
}

func TestAvailableCount_Monotonic(t *testing.T) {
	var stays []availability.Stay

	previous := availability.AvailableCount("Deluxe", 3, day(1), day(2), stays)
	assert.Equal(t, 3, previous)

	for range 5 {
		stays = append(stays, availability.Stay{RoomType: "Deluxe", Status: lifecycle.StatusApproved, Dates: "01/01/2030 - 02/01/2030"})

		got := availability.AvailableCount("Deluxe", 3, day(1), day(2), stays)
		assert.LessOrEqual(t, got, previous)
		assert.GreaterOrEqual(t, got, 0)

		previous = got
	}

	assert.Equal(t, 0, previous)
}

func TestOverlaps(t *testing.T) {
	assert.True(t, availability.Overlaps(day(1), day(3), day(3), day(5)))
	assert.True(t, availability.Overlaps(day(3), day(5), day(1), day(3)))
	assert.True(t, availability.Overlaps(day(1), day(10), day(4), day(5)))
	assert.False(t, availability.Overlaps(day(1), day(2), day(3), day(5)))
}
