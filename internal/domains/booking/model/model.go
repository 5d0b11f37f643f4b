package model

import (
	"time"

	"lodge/internal/domains/booking/expiry"
	"lodge/internal/lifecycle"
	"lodge/shared/datetime"
	"lodge/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID              = "id"
	FieldCustomerName    = "customer_name"
	FieldCustomerEmail   = "customer_email"
	FieldCustomerPhone   = "customer_phone"
	FieldRoomType        = "room_type"
	FieldRoomCount       = "room_count"
	FieldGuests          = "guests"
	FieldDates           = "dates"
	FieldCheckIn         = "check_in"
	FieldCheckOut        = "check_out"
	FieldCheckInTime     = "check_in_time"
	FieldCheckOutTime    = "check_out_time"
	FieldStatus          = "status"
	FieldAmount          = "amount"
	FieldSpecialRequests = "special_requests"
	FieldStatusHistory   = "status_history"
)

// Booking is a room reservation. Dates holds the display range
// "DD/MM/YYYY - DD/MM/YYYY"; CheckIn and CheckOut hold the same days as ISO
// dates when known. Both time fields are "HH:MM" or empty.
type Booking struct {
	ID              string                                `db:"id"`
	CustomerName    string                                `db:"customer_name"`
	CustomerEmail   string                                `db:"customer_email"`
	CustomerPhone   string                                `db:"customer_phone"`
	RoomType        string                                `db:"room_type"`
	RoomCount       int                                   `db:"room_count"`
	Guests          int                                   `db:"guests"`
	Dates           string                                `db:"dates"`
	CheckIn         string                                `db:"check_in"`
	CheckOut        string                                `db:"check_out"`
	CheckInTime     string                                `db:"check_in_time"`
	CheckOutTime    string                                `db:"check_out_time"`
	Status          lifecycle.Status                      `db:"status"`
	Amount          int64                                 `db:"amount"`
	SpecialRequests string                                `db:"special_requests"`
	StatusHistory   model.JSONB[[]lifecycle.HistoryEntry] `db:"status_history"`
	model.Metadata
}

// Span returns the check-in and check-out days, preferring the ISO fields and
// falling back to the dates range.
func (b Booking) Span() (checkIn, checkOut time.Time, ok bool) {
	checkIn, okIn := datetime.ParseDate(b.CheckIn)
	checkOut, okOut := datetime.ParseDate(b.CheckOut)

	if okIn && okOut {
		return checkIn, checkOut, true
	}

	return datetime.ParseRange(b.Dates)
}

func (b Booking) Nights() int {
	checkIn, checkOut, ok := b.Span()
	if !ok {
		return 1
	}

	return datetime.NightsBetween(checkIn, checkOut)
}

func (b Booking) Stay() expiry.Stay {
	return expiry.Stay{
		Status:       b.Status,
		CheckOut:     b.CheckOut,
		Dates:        b.Dates,
		CheckOutTime: b.CheckOutTime,
	}
}

func (b Booking) History() []lifecycle.HistoryEntry {
	return b.StatusHistory.V
}
