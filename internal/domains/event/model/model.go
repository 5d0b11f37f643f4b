package model

import (
	"strings"

	"lodge/internal/lifecycle"
	"lodge/shared/model"

	"github.com/google/uuid"
)

const (
	TableName  = "client_events"
	EntityName = "event"

	FieldID             = "id"
	FieldEventCode      = "event_code"
	FieldVenue          = "venue"
	FieldVenueID        = "venue_id"
	FieldDate           = "date"
	FieldGuests         = "guests"
	FieldEventType      = "event_type"
	FieldCustomerName   = "customer_name"
	FieldCustomerEmail  = "customer_email"
	FieldCustomerPhone  = "customer_phone"
	FieldPackage        = "package"
	FieldStatus         = "status"
	FieldAmount         = "amount"
	FieldNotes          = "notes"
	FieldStatusHistory  = "status_history"
	eventCodePrefix     = "EVT-"
	eventCodeRandLength = 8
)

// PackageRef is the venue package an event was quoted against, copied at
// submission so later venue edits do not change the quote.
type PackageRef struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Duration string `json:"duration"`
}

// Event is a client's venue reservation. It has two identities: ID is the
// storage key and EventCode the display reference customers quote. Payments
// may point at either.
type Event struct {
	ID            string                                `db:"id"`
	EventCode     string                                `db:"event_code"`
	Venue         string                                `db:"venue"`
	VenueID       string                                `db:"venue_id"`
	Date          string                                `db:"date"`
	Guests        int                                   `db:"guests"`
	EventType     string                                `db:"event_type"`
	CustomerName  string                                `db:"customer_name"`
	CustomerEmail string                                `db:"customer_email"`
	CustomerPhone string                                `db:"customer_phone"`
	Package       model.JSONB[*PackageRef]              `db:"package"`
	Status        lifecycle.Status                      `db:"status"`
	Amount        int64                                 `db:"amount"`
	Notes         string                                `db:"notes"`
	StatusHistory model.JSONB[[]lifecycle.HistoryEntry] `db:"status_history"`
	model.Metadata
}

// IDs lists both identities, storage id first, skipping empty ones.
func (e Event) IDs() []string {
	ids := []string{e.ID}
	if e.EventCode != "" && e.EventCode != e.ID {
		ids = append(ids, e.EventCode)
	}

	return ids
}

// QuotedPrice is the package price, or zero without a package.
func (e Event) QuotedPrice() int64 {
	if e.Package.V == nil {
		return 0
	}

	return e.Package.V.Price
}

func (e Event) History() []lifecycle.HistoryEntry {
	return e.StatusHistory.V
}

func NewEventCode() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")

	return eventCodePrefix + strings.ToUpper(random[:eventCodeRandLength])
}
