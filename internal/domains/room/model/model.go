package model

import (
	"lodge/shared/model"

	"github.com/lib/pq"
)

const (
	TableName  = "rooms"
	EntityName = "room"

	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldQuantity    = "quantity"
	FieldCapacity    = "capacity"
	FieldAmenities   = "amenities"
	FieldImages      = "images"
	FieldActive      = "active"
)

// Room is a room type. Bookings reference it by Name, and Quantity is how
// many identical rooms of the type exist.
type Room struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	Price       int64          `db:"price"`
	Quantity    int            `db:"quantity"`
	Capacity    int            `db:"capacity"`
	Amenities   pq.StringArray `db:"amenities"`
	Images      pq.StringArray `db:"images"`
	Active      bool           `db:"active"`
	model.Metadata
}

// Charge is the amount owed for roomCount rooms over nights nights.
func (r Room) Charge(nights, roomCount int) int64 {
	if roomCount < 1 {
		roomCount = 1
	}

	return r.Price * int64(nights) * int64(roomCount)
}
