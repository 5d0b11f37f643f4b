// Package expiry decides whether a checked-in booking has overstayed its
// checkout instant. It never reads the clock; callers pass now.
package expiry

import (
	"strconv"
	"strings"
	"time"

	"lodge/internal/lifecycle"
	"lodge/shared/datetime"
)

const minDisplayYear = 2000

// Stay carries the fields of a booking the checkout instant can come from.
type Stay struct {
	Status       lifecycle.Status
	CheckOut     string
	Dates        string
	CheckOutTime string
}

type Result struct {
	Expired        bool `json:"expired"`
	ElapsedMinutes *int `json:"elapsed_minutes,omitempty"`
}

// Evaluate reports whether now is past the checkout instant of a checked-in
// stay. Any other status, or a stay whose checkout cannot be resolved, is not
// expired.
func Evaluate(stay Stay, now time.Time) Result {
	if stay.Status != lifecycle.StatusCheckedIn {
		return Result{}
	}

	checkOut, ok := CheckOutInstant(stay)
	if !ok || !now.After(checkOut) {
		return Result{}
	}

	elapsed := int(now.Sub(checkOut) / time.Minute)

	return Result{Expired: true, ElapsedMinutes: &elapsed}
}

// CheckOutInstant resolves the checkout date from the explicit field first,
// then from the end of the dates range, and applies CheckOutTime or 11:00.
func CheckOutInstant(stay Stay) (time.Time, bool) {
	date, ok := explicitDate(stay.CheckOut)
	if !ok {
		date, ok = rangeEnd(stay.Dates)
	}

	if !ok {
		return time.Time{}, false
	}

	tod := datetime.StandardCheckOut
	if parsed, ok := datetime.ParseTimeOfDay(stay.CheckOutTime); ok {
		tod = parsed
	}

	return datetime.At(date, tod), true
}

func explicitDate(value string) (time.Time, bool) {
	if _, end, ok := datetime.SplitRange(value); ok {
		value = end
	}

	return datetime.ParseDate(value)
}

func rangeEnd(dates string) (time.Time, bool) {
	_, end, ok := datetime.SplitRange(dates)
	if !ok {
		return time.Time{}, false
	}

	parts := strings.Split(end, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil || year <= minDisplayYear {
		return time.Time{}, false
	}

	return datetime.ParseDisplayDate(end)
}
