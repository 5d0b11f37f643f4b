// Package datetime resolves the loosely formatted dates and times stored on
// bookings into instants in the application timezone.
//
// Three date shapes are accepted: ISO "YYYY-MM-DD" (optionally followed by a
// time part, which is ignored), day-first "DD/MM/YYYY", and a range of either
// shape joined by " - ". Dates always resolve to local midnight; a separate
// "HH:MM" string supplies the time of day. Every parser reports failure through
// its boolean result and never returns a usable zero instant.
package datetime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"lodge/shared/constant"
	"lodge/shared/timezone"
)

const (
	RangeSeparator = " - "

	isoDateLength = len(constant.ISODateFormat)
	hoursPerDay   = 24
)

var timeOfDayPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

type TimeOfDay struct {
	Hour   int
	Minute int
}

var (
	Midnight         = TimeOfDay{}
	StandardCheckOut = TimeOfDay{Hour: 11}
)

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM" (24h, single digit hour allowed).
func ParseTimeOfDay(value string) (TimeOfDay, bool) {
	match := timeOfDayPattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return TimeOfDay{}, false
	}

	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])

	return TimeOfDay{Hour: hour, Minute: minute}, true
}

// ParseDate parses a single ISO or day-first date to local midnight.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if strings.Contains(value, "/") {
		return ParseDisplayDate(value)
	}

	return parseISODate(value)
}

// ParseDisplayDate parses "DD/MM/YYYY" field by field. Month first inputs such
// as "12/31/2025" are rejected rather than reinterpreted.
func ParseDisplayDate(value string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil || len(parts[2]) != 4 {
		return time.Time{}, false
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, timezone.GetLocation())
	if date.Day() != day {
		// 31/02 and friends normalise into the next month
		return time.Time{}, false
	}

	return date, true
}

func parseISODate(value string) (time.Time, bool) {
	if len(value) < isoDateLength {
		return time.Time{}, false
	}

	if len(value) > isoDateLength && value[isoDateLength] != 'T' && value[isoDateLength] != ' ' {
		return time.Time{}, false
	}

	date, err := time.ParseInLocation(constant.ISODateFormat, value[:isoDateLength], timezone.GetLocation())
	if err != nil {
		return time.Time{}, false
	}

	return date, true
}

// SplitRange splits "D1 - D2" into its halves.
func SplitRange(value string) (start, end string, ok bool) {
	start, end, found := strings.Cut(value, RangeSeparator)
	if !found {
		return constant.Empty, constant.Empty, false
	}

	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)

	if start == constant.Empty || end == constant.Empty {
		return constant.Empty, constant.Empty, false
	}

	return start, end, true
}

// ParseRange parses both halves of a date range.
func ParseRange(value string) (checkIn, checkOut time.Time, ok bool) {
	start, end, ok := SplitRange(value)
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	checkIn, okIn := ParseDate(start)
	checkOut, okOut := ParseDate(end)

	if !okIn || !okOut {
		return time.Time{}, time.Time{}, false
	}

	return checkIn, checkOut, true
}

// ResolveInstant resolves a date (a range resolves to its start) and applies
// timeLike as time of day, falling back to def when timeLike is not "HH:MM".
func ResolveInstant(dateLike, timeLike string, def TimeOfDay) (time.Time, bool) {
	if start, _, ok := SplitRange(dateLike); ok {
		dateLike = start
	}

	return resolve(dateLike, timeLike, def)
}

func ResolveCheckIn(dateLike, timeLike string) (time.Time, bool) {
	return ResolveInstant(dateLike, timeLike, Midnight)
}

// ResolveCheckOut uses the end of a range and defaults to the standard
// checkout time.
func ResolveCheckOut(dateLike, timeLike string) (time.Time, bool) {
	if _, end, ok := SplitRange(dateLike); ok {
		dateLike = end
	}

	return resolve(dateLike, timeLike, StandardCheckOut)
}

func resolve(dateLike, timeLike string, def TimeOfDay) (time.Time, bool) {
	date, ok := ParseDate(dateLike)
	if !ok {
		return time.Time{}, false
	}

	tod := def
	if parsed, ok := ParseTimeOfDay(timeLike); ok {
		tod = parsed
	}

	return At(date, tod), true
}

func At(date time.Time, tod TimeOfDay) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, date.Location())
}

func StartOfDay(t time.Time) time.Time {
	return At(t, Midnight)
}

// NightsBetween counts calendar days between two dates, never less than one.
func NightsBetween(checkIn, checkOut time.Time) int {
	nights := civilDay(checkOut) - civilDay(checkIn)
	if nights < 1 {
		return 1
	}

	return nights
}

func civilDay(t time.Time) int {
	utc := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	return int(utc.Unix() / int64(hoursPerDay*time.Hour/time.Second))
}

// RollForward moves a stay that starts before today so that it starts today,
// keeping its length.
func RollForward(checkIn, checkOut, today time.Time) (time.Time, time.Time, bool) {
	start := StartOfDay(today)
	if !StartOfDay(checkIn).Before(start) {
		return checkIn, checkOut, false
	}

	nights := NightsBetween(checkIn, checkOut)

	return start, start.AddDate(0, 0, nights), true
}

func FormatDisplay(t time.Time) string {
	return t.Format(constant.DisplayDateFormat)
}

func FormatISO(t time.Time) string {
	return t.Format(constant.ISODateFormat)
}

func FormatRange(checkIn, checkOut time.Time) string {
	return FormatDisplay(checkIn) + RangeSeparator + FormatDisplay(checkOut)
}
