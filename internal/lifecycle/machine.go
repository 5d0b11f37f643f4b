// Package lifecycle holds the status transition tables for bookings and
// client events together with the payment side effect every transition
// requires. It performs no I/O.
package lifecycle

import (
	"errors"
	"fmt"
	"slices"
)

var ErrIllegalTransition = errors.New("illegal status transition")

// PaymentEffect describes what the owning payment record must look like once
// a transition has been applied. A zero value means the payment is untouched.
type PaymentEffect struct {
	Required    bool
	Status      PaymentStatus
	ResetAmount bool
}

type Plan struct {
	From    Status
	To      Status
	Action  Action
	Payment PaymentEffect
}

type rule struct {
	from    []Status
	to      Status
	payment PaymentEffect
}

type Machine struct {
	name     string
	statuses []Status
	rules    map[Action]rule
}

var (
	completed = PaymentEffect{Required: true, Status: PaymentCompleted}
	failed    = PaymentEffect{Required: true, Status: PaymentFailed}
	reset     = PaymentEffect{Required: true, Status: PaymentPending, ResetAmount: true}
)

var bookingMachine = Machine{
	name: "booking",
	statuses: []Status{
		StatusPending, StatusApproved, StatusCheckedIn,
		StatusCheckedOut, StatusRejected, StatusCancelled,
	},
	rules: map[Action]rule{
		ActionApprove:           {from: []Status{StatusPending, StatusRejected}, to: StatusApproved, payment: completed},
		ActionReject:            {from: []Status{StatusPending}, to: StatusRejected, payment: failed},
		ActionCheckIn:           {from: []Status{StatusApproved}, to: StatusCheckedIn},
		ActionCheckOut:          {from: []Status{StatusCheckedIn}, to: StatusCheckedOut, payment: completed},
		ActionCheckOutByMistake: {from: []Status{StatusCheckedIn}, to: StatusPending, payment: reset},
		ActionCancel: {
			from:    []Status{StatusPending, StatusApproved, StatusCheckedIn, StatusRejected},
			to:      StatusCancelled,
			payment: failed,
		},
	},
}

var eventMachine = Machine{
	name:     "event",
	statuses: []Status{StatusPending, StatusApproved, StatusRejected},
	rules: map[Action]rule{
		ActionApprove:   {from: []Status{StatusPending, StatusRejected}, to: StatusApproved, payment: completed},
		ActionReject:    {from: []Status{StatusPending}, to: StatusRejected, payment: failed},
		ActionUnapprove: {from: []Status{StatusApproved}, to: StatusPending, payment: reset},
	},
}

// Booking returns the room booking machine.
func Booking() Machine {
	return bookingMachine
}

// Event returns the client event machine.
func Event() Machine {
	return eventMachine
}

// Plan resolves action against the current status. Unknown statuses and
// actions the machine does not define are reported as illegal transitions.
func (m Machine) Plan(from Status, action Action) (Plan, error) {
	r, ok := m.rules[action]
	if !ok || !m.Valid(from) || !slices.Contains(r.from, from) {
		return Plan{}, fmt.Errorf("%w: cannot %s a %s %s", ErrIllegalTransition, action, from, m.name)
	}

	return Plan{
		From:    from,
		To:      r.to,
		Action:  action,
		Payment: r.payment,
	}, nil
}

func (m Machine) CanApply(from Status, action Action) bool {
	_, err := m.Plan(from, action)

	return err == nil
}

// Allowed lists the actions that may be applied from a status, in a stable
// order.
func (m Machine) Allowed(from Status) []Action {
	actions := []Action{}

	for _, action := range []Action{
		ActionApprove, ActionReject, ActionCheckIn, ActionCheckOut,
		ActionCheckOutByMistake, ActionCancel, ActionUnapprove,
	} {
		if m.CanApply(from, action) {
			actions = append(actions, action)
		}
	}

	return actions
}

func (m Machine) Valid(s Status) bool {
	return slices.Contains(m.statuses, s)
}

func (m Machine) IsTerminal(s Status) bool {
	return m.Valid(s) && len(m.Allowed(s)) == 0
}

func (m Machine) Statuses() []Status {
	return slices.Clone(m.statuses)
}
