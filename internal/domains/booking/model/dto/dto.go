package dto

import (
	"time"

	"lodge/internal/domains/booking/expiry"
	"lodge/internal/domains/booking/model"
	"lodge/internal/lifecycle"
	"lodge/shared"
	"lodge/shared/constant"
	"lodge/shared/datetime"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	gModel "lodge/shared/model"
	"lodge/shared/timezone"

	"github.com/google/uuid"
)

// CreateBookingRequest is what the public booking form posts. The stay can be
// given as a dates range, as separate check-in/check-out dates, or both; the
// camelCase aliases older clients send are accepted too. encoding/json
// matches keys case-insensitively, so checkOut also covers "checkout".
type CreateBookingRequest struct {
	CustomerName    string `json:"customer_name"    validate:"required,max=100"`
	CustomerEmail   string `json:"customer_email"   validate:"required,email,max=100"`
	CustomerPhone   string `json:"customer_phone"   validate:"omitempty,max=20"`
	RoomType        string `json:"room_type"        validate:"required,max=100"`
	RoomCount       int    `json:"room_count"       validate:"omitempty,min=1,max=50"`
	Guests          int    `json:"guests"           validate:"omitempty,min=1,max=200"`
	Dates           string `json:"dates"            validate:"omitempty,bookingdate"`
	SpecialRequests string `json:"special_requests" validate:"omitempty,max=1000"`

	CheckIn      string `json:"check_in"     validate:"omitempty,bookingdate"`
	CheckInAlias string `json:"checkIn"      validate:"omitempty,bookingdate"`
	CheckInTime  string `json:"check_in_time" validate:"omitempty,hhmm"`

	CheckOut          string `json:"check_out"      validate:"omitempty,bookingdate"`
	CheckOutAlias     string `json:"checkOut"       validate:"omitempty,bookingdate"`
	CheckOutDate      string `json:"checkOutDate"   validate:"omitempty,bookingdate"`
	CheckOutTime      string `json:"check_out_time" validate:"omitempty,hhmm"`
	CheckOutTimeAlias string `json:"checkOutTime"   validate:"omitempty,hhmm"`
}

// Stay is the normalised form of the dates on a request.
type Stay struct {
	CheckIn      time.Time
	CheckOut     time.Time
	CheckOutTime string
}

// Normalize collapses the date field aliases into a single stay.
func (c CreateBookingRequest) Normalize() (Stay, error) {
	stay := Stay{CheckOutTime: shared.FirstNonEmpty(c.CheckOutTime, c.CheckOutTimeAlias)}

	checkInValue := shared.FirstNonEmpty(c.CheckIn, c.CheckInAlias)
	checkOutValue := shared.FirstNonEmpty(c.CheckOut, c.CheckOutAlias, c.CheckOutDate)

	checkIn, okIn := datetime.ParseDate(checkInValue)
	checkOut, okOut := datetime.ParseDate(checkOutValue)

	if !okIn || !okOut {
		var ok bool

		checkIn, checkOut, ok = datetime.ParseRange(c.Dates)
		if !ok {
			return stay, failure.BadRequestFromString("a valid stay is required: dates \"DD/MM/YYYY - DD/MM/YYYY\" or check_in and check_out") // nolint:wrapcheck
		}
	}

	if checkOut.Before(checkIn) {
		return stay, failure.BadRequestFromString("check-out cannot be before check-in") // nolint:wrapcheck
	}

	stay.CheckIn = checkIn
	stay.CheckOut = checkOut

	return stay, nil
}

// ToModel builds a pending booking. When rollForward is set a stay starting
// before today is moved to start today; rolled reports whether that happened.
func (c CreateBookingRequest) ToModel(user string, today time.Time, rollForward bool) (res model.Booking, rolled bool, err error) {
	stay, err := c.Normalize()
	if err != nil {
		return res, false, err
	}

	checkIn, checkOut := stay.CheckIn, stay.CheckOut
	if rollForward {
		checkIn, checkOut, rolled = datetime.RollForward(checkIn, checkOut, today)
	}

	roomCount := c.RoomCount
	if roomCount < 1 {
		roomCount = 1
	}

	guests := c.Guests
	if guests < 1 {
		guests = 1
	}

	now := timezone.Now()
	history := []lifecycle.HistoryEntry{}

	if rolled {
		history = append(history, lifecycle.EventEntry(
			EventRolledForward,
			"requested "+datetime.FormatRange(stay.CheckIn, stay.CheckOut),
			now,
		))
	}

	return model.Booking{
		ID:              uuid.NewString(),
		CustomerName:    c.CustomerName,
		CustomerEmail:   c.CustomerEmail,
		CustomerPhone:   c.CustomerPhone,
		RoomType:        c.RoomType,
		RoomCount:       roomCount,
		Guests:          guests,
		Dates:           datetime.FormatRange(checkIn, checkOut),
		CheckIn:         datetime.FormatISO(checkIn),
		CheckOut:        datetime.FormatISO(checkOut),
		CheckInTime:     c.CheckInTime,
		CheckOutTime:    stay.CheckOutTime,
		Status:          lifecycle.StatusPending,
		SpecialRequests: c.SpecialRequests,
		StatusHistory:   gModel.NewJSONB(history),
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}, rolled, nil
}

const EventRolledForward = "rolled-forward"

// ApproveBookingRequest approves a booking, optionally against a different
// room type. A CheckInTime checks the guest in at once.
type ApproveBookingRequest struct {
	RoomType    string `json:"room_type"     validate:"omitempty,max=100"`
	Method      string `json:"method"        validate:"omitempty,oneof=card cash mpesa"`
	CheckInTime string `json:"check_in_time" validate:"omitempty,hhmm"`
	Note        string `json:"note"          validate:"omitempty,max=500"`
}

type CheckInRequest struct {
	CheckInTime  string `json:"check_in_time"  validate:"omitempty,hhmm"`
	CheckOutTime string `json:"check_out_time" validate:"omitempty,hhmm"`
	Note         string `json:"note"           validate:"omitempty,max=500"`
}

// CheckOutRequest with Mistake set sends the booking back to pending and
// zeroes its amount.
type CheckOutRequest struct {
	Mistake bool   `json:"mistake"`
	Note    string `json:"note" validate:"omitempty,max=500"`
}

func (c CheckOutRequest) Action() lifecycle.Action {
	if c.Mistake {
		return lifecycle.ActionCheckOutByMistake
	}

	return lifecycle.ActionCheckOut
}

type NoteRequest struct {
	Note string `json:"note" validate:"omitempty,max=500"`
}

type BookingResponse struct {
	ID              string                   `json:"id"`
	CustomerName    string                   `json:"customer_name"`
	CustomerEmail   string                   `json:"customer_email"`
	CustomerPhone   string                   `json:"customer_phone"`
	RoomType        string                   `json:"room_type"`
	RoomCount       int                      `json:"room_count"`
	Guests          int                      `json:"guests"`
	Dates           string                   `json:"dates"`
	CheckIn         string                   `json:"check_in"`
	CheckOut        string                   `json:"check_out"`
	CheckInTime     string                   `json:"check_in_time"`
	CheckOutTime    string                   `json:"check_out_time"`
	Nights          int                      `json:"nights"`
	Status          string                   `json:"status"`
	Amount          int64                    `json:"amount"`
	SpecialRequests string                   `json:"special_requests"`
	StatusHistory   []lifecycle.HistoryEntry `json:"status_history"`
	Actions         []lifecycle.Action       `json:"actions"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.CustomerName = model.CustomerName
	r.CustomerEmail = model.CustomerEmail
	r.CustomerPhone = model.CustomerPhone
	r.RoomType = model.RoomType
	r.RoomCount = model.RoomCount
	r.Guests = model.Guests
	r.Dates = model.Dates
	r.CheckIn = model.CheckIn
	r.CheckOut = model.CheckOut
	r.CheckInTime = model.CheckInTime
	r.CheckOutTime = model.CheckOutTime
	r.Nights = model.Nights()
	r.Status = model.Status.String()
	r.Amount = model.Amount
	r.SpecialRequests = model.SpecialRequests
	r.StatusHistory = model.History()
	r.Actions = lifecycle.Booking().Allowed(model.Status)
	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

type ExpiredBookingResponse struct {
	BookingResponse
	CheckOutAt     string `json:"check_out_at"`
	ElapsedMinutes int    `json:"elapsed_minutes"`
}

// FromModel fills the response from an expired evaluation.
func (r *ExpiredBookingResponse) FromModel(booking model.Booking, result expiry.Result) {
	r.BookingResponse.FromModel(booking)

	if checkOut, ok := expiry.CheckOutInstant(booking.Stay()); ok {
		r.CheckOutAt = timezone.Format(checkOut, constant.DateFormat)
	}

	if result.ElapsedMinutes != nil {
		r.ElapsedMinutes = *result.ElapsedMinutes
	}
}
