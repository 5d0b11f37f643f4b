package dto

import (
	"lodge/internal/domains/event/model"
	venueModel "lodge/internal/domains/venue/model"
	"lodge/internal/lifecycle"
	"lodge/shared"
	"lodge/shared/datetime"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	gModel "lodge/shared/model"
	"lodge/shared/timezone"

	"github.com/google/uuid"
)

// CreateEventRequest is the public quote request form. Venue is a venue id
// or name.
type CreateEventRequest struct {
	CustomerName  string `json:"customer_name"  validate:"required,max=100"`
	CustomerEmail string `json:"customer_email" validate:"required,email,max=100"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,max=20"`
	Venue         string `json:"venue"          validate:"required,max=100"`
	Date          string `json:"date"           validate:"required,bookingdate"`
	Guests        int    `json:"guests"         validate:"omitempty,min=1,max=10000"`
	EventType     string `json:"event_type"     validate:"omitempty,max=100"`
	Package       string `json:"package"        validate:"omitempty,max=100"`
	Notes         string `json:"notes"          validate:"omitempty,max=1000"`
}

// ToModel builds a pending event against a resolved venue. The quoted amount
// is the package price when a package was picked.
func (c CreateEventRequest) ToModel(user string, venue venueModel.Venue) (model.Event, error) {
	date, ok := datetime.ResolveCheckIn(c.Date, "")
	if !ok {
		return model.Event{}, failure.BadRequestFromString("date must be YYYY-MM-DD or DD/MM/YYYY") // nolint:wrapcheck
	}

	var ref *model.PackageRef

	if c.Package != "" {
		pkg, ok := venue.Package(c.Package)
		if !ok {
			return model.Event{}, failure.BadRequestFromString("venue " + venue.Name + " has no package " + c.Package) // nolint:wrapcheck
		}

		ref = &model.PackageRef{Name: pkg.Name, Price: pkg.Price, Duration: pkg.Duration}
	}

	guests := max(c.Guests, 1)
	now := timezone.Now()

	event := model.Event{
		ID:            uuid.NewString(),
		EventCode:     model.NewEventCode(),
		Venue:         venue.Name,
		VenueID:       venue.ID,
		Date:          datetime.FormatISO(date),
		Guests:        guests,
		EventType:     c.EventType,
		CustomerName:  c.CustomerName,
		CustomerEmail: c.CustomerEmail,
		CustomerPhone: c.CustomerPhone,
		Package:       gModel.NewJSONB(ref),
		Status:        lifecycle.StatusPending,
		Notes:         c.Notes,
		StatusHistory: gModel.NewJSONB([]lifecycle.HistoryEntry{}),
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
	event.Amount = event.QuotedPrice()

	return event, nil
}

// ApproveEventRequest approves an event. Without Amount the package price, or
// failing that the stored amount, is charged.
type ApproveEventRequest struct {
	Amount *int64 `json:"amount" validate:"omitempty,min=0"`
	Method string `json:"method" validate:"omitempty,oneof=card cash mpesa"`
	Note   string `json:"note"   validate:"omitempty,max=500"`
}

type NoteRequest struct {
	Note string `json:"note" validate:"omitempty,max=500"`
}

type EventResponse struct {
	ID            string                   `json:"id"`
	EventCode     string                   `json:"event_code"`
	Venue         string                   `json:"venue"`
	VenueID       string                   `json:"venue_id"`
	Date          string                   `json:"date"`
	DisplayDate   string                   `json:"display_date"`
	Guests        int                      `json:"guests"`
	EventType     string                   `json:"event_type"`
	CustomerName  string                   `json:"customer_name"`
	CustomerEmail string                   `json:"customer_email"`
	CustomerPhone string                   `json:"customer_phone"`
	Package       *model.PackageRef        `json:"package"`
	Status        string                   `json:"status"`
	Amount        int64                    `json:"amount"`
	Notes         string                   `json:"notes"`
	StatusHistory []lifecycle.HistoryEntry `json:"status_history"`
	Actions       []lifecycle.Action       `json:"actions"`
	gDto.Metadata
}

func (r *EventResponse) FromModel(event model.Event) {
	r.ID = event.ID
	r.EventCode = event.EventCode
	r.Venue = event.Venue
	r.VenueID = event.VenueID
	r.Date = event.Date
	r.Guests = event.Guests
	r.EventType = event.EventType
	r.CustomerName = event.CustomerName
	r.CustomerEmail = event.CustomerEmail
	r.CustomerPhone = event.CustomerPhone
	r.Package = event.Package.V
	r.Status = event.Status.String()
	r.Amount = event.Amount
	r.Notes = event.Notes
	r.StatusHistory = event.History()
	r.Actions = lifecycle.Event().Allowed(event.Status)
	r.Metadata.FromModel(event.Metadata)

	if date, ok := datetime.ParseDate(event.Date); ok {
		r.DisplayDate = datetime.FormatDisplay(date)
	}
}

type GetEventsResponse struct {
	Events    []EventResponse `json:"events"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetEventsResponse) FromModels(models []model.Event, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Events = make([]EventResponse, len(models))
	for i, m := range models {
		r.Events[i].FromModel(m)
	}
}
