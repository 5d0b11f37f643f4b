package model

import (
	"time"

	"lodge/shared/model"
)

const (
	TableName  = "notifications"
	EntityName = "notification"

	FieldID     = "id"
	FieldTitle  = "title"
	FieldBody   = "body"
	FieldRole   = "role"
	FieldKind   = "kind"
	FieldReadAt = "read_at"
)

type Kind string

const (
	KindManual         Kind = "manual"
	KindPendingBooking Kind = "pending_booking"
	KindPendingEvent   Kind = "pending_event"
	KindOverdueStay    Kind = "overdue_stay"
)

// Notification is one push as received by the dashboard inbox. An empty
// Role addresses every dashboard account.
type Notification struct {
	ID     string     `db:"id"`
	Title  string     `db:"title"`
	Body   string     `db:"body"`
	Role   string     `db:"role"`
	Kind   Kind       `db:"kind"`
	ReadAt *time.Time `db:"read_at"`
	model.Metadata
}
