package lifecycle

import "fmt"

// Status is the lifecycle state shared by bookings and client events.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusCheckedIn  Status = "checked-in"
	StatusCheckedOut Status = "checked-out"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

// PaymentStatus is the state a payment record is driven into by a transition.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (p PaymentStatus) String() string {
	return string(p)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return PaymentStatus(s), nil
	default:
		return "", fmt.Errorf("invalid payment status: %s", s)
	}
}

// Action is an admin command applied to a booking or event.
type Action string

const (
	ActionApprove           Action = "approve"
	ActionReject            Action = "reject"
	ActionCheckIn           Action = "check-in"
	ActionCheckOut          Action = "check-out"
	ActionCheckOutByMistake Action = "check-out-by-mistake"
	ActionCancel            Action = "cancel"
	ActionUnapprove         Action = "unapprove"
)

func (a Action) String() string {
	return string(a)
}
