package model

import (
	"time"

	"lodge/internal/lifecycle"
	"lodge/shared/model"
)

const (
	TableName  = "payments"
	EntityName = "payment"

	FieldID        = "id"
	FieldBookingID = "booking_id"
	FieldType      = "type"
	FieldAmount    = "amount"
	FieldMethod    = "method"
	FieldStatus    = "status"
	FieldDate      = "date"
)

// Type tells which collection BookingID points into.
type Type string

const (
	TypeBooking Type = "booking"
	TypeEvent   Type = "event"
)

const (
	MethodCard  = "card"
	MethodCash  = "cash"
	MethodMpesa = "mpesa"
)

// Payment is at most one per (BookingID, Type); a unique index enforces it.
type Payment struct {
	ID        string                  `db:"id"`
	BookingID string                  `db:"booking_id"`
	Type      Type                    `db:"type"`
	Amount    int64                   `db:"amount"`
	Method    string                  `db:"method"`
	Status    lifecycle.PaymentStatus `db:"status"`
	Date      time.Time               `db:"date"`
	model.Metadata
}
