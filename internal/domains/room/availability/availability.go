// Package availability computes how many rooms of a type remain bookable
// over a stay, given the bookings already on the books.
package availability

import (
	"time"

	"lodge/internal/lifecycle"
	"lodge/shared/datetime"
)

// Stay is the part of a booking that can hold a room.
type Stay struct {
	RoomType string
	Status   lifecycle.Status
	CheckIn  string
	CheckOut string
	Dates    string
}

// Span prefers the ISO pair and falls back to the display range.
func (s Stay) Span() (checkIn, checkOut time.Time, ok bool) {
	checkIn, okIn := datetime.ParseDate(s.CheckIn)
	checkOut, okOut := datetime.ParseDate(s.CheckOut)

	if okIn && okOut {
		return checkIn, checkOut, true
	}

	return datetime.ParseRange(s.Dates)
}

func holdsRoom(status lifecycle.Status) bool {
	return status != lifecycle.StatusCancelled && status != lifecycle.StatusRejected
}

// Overlaps reports whether [aIn, aOut] and [bIn, bOut] share at least one
// day. Endpoints are inclusive.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return !aIn.After(bOut) && !bIn.After(aOut)
}

// Conflicts counts the stays of roomName that hold a room on any day of
// [checkIn, checkOut].
func Conflicts(roomName string, checkIn, checkOut time.Time, stays []Stay) int {
	count := 0

	for _, stay := range stays {
		if stay.RoomType != roomName || !holdsRoom(stay.Status) {
			continue
		}

		in, out, ok := stay.Span()
		if !ok {
			continue
		}

		if Overlaps(checkIn, checkOut, in, out) {
			count++
		}
	}

	return count
}

// AvailableCount is quantity minus the conflicting stays, never below zero.
func AvailableCount(roomName string, quantity int, checkIn, checkOut time.Time, stays []Stay) int {
	return max(0, quantity-Conflicts(roomName, checkIn, checkOut, stays))
}
