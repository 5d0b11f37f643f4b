package lifecycle_test

import (
	"testing"
	"time"

	"lodge/internal/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingPlan(t *testing.T) {
	machine := lifecycle.Booking()

	tests := []struct {
		name    string
		from    lifecycle.Status
		action  lifecycle.Action
		to      lifecycle.Status
		payment lifecycle.PaymentEffect
		wantErr bool
	}{
		{
			name:    "approve pending",
			from:    lifecycle.StatusPending,
			action:  lifecycle.ActionApprove,
			to:      lifecycle.StatusApproved,
			payment: lifecycle.PaymentEffect{Required: true, Status: lifecycle.PaymentCompleted},
		},
		{
			name:    "re-approve rejected",
			from:    lifecycle.StatusRejected,
			action:  lifecycle.ActionApprove,
			to:      lifecycle.StatusApproved,
			payment: lifecycle.PaymentEffect{Required: true, Status: lifecycle.PaymentCompleted},
		},
		{
			name:    "reject pending",
			from:    lifecycle.StatusPending,
			action:  lifecycle.ActionReject,
			to:      lifecycle.StatusRejected,
			payment: lifecycle.PaymentEffect{Required: true, Status: lifecycle.PaymentFailed},
		},
		{
			name:   "check in approved leaves payment alone",
			from:   lifecycle.StatusApproved,
			action: lifecycle.ActionCheckIn,
			to:     lifecycle.StatusCheckedIn,
		},
		{
			name:    "check out",
			from:    lifecycle.StatusCheckedIn,
			action:  lifecycle.ActionCheckOut,
			to:      lifecycle.StatusCheckedOut,
			payment: lifecycle.PaymentEffect{Required: true, Status: lifecycle.PaymentCompleted},
		},
		{
			name:    "check out by mistake returns to pending",
			from:    lifecycle.StatusCheckedIn,
			action:  lifecycle.ActionCheckOutByMistake,
			to:      lifecycle.StatusPending,
			payment: lifecycle.PaymentEffect{Required: true, Status: lifecycle.PaymentPending, ResetAmount: true},
		},
		{
			name:    "cancel checked in",
			from:    lifecycle.StatusCheckedIn,
			action:  lifecycle.ActionCancel,
			to:      lifecycle.StatusCancelled,
			payment: lifecycle.PaymentEffect{Required: true, Status: lifecycle.PaymentFailed},
		},
		{name: "cancel checked out", from: lifecycle.StatusCheckedOut, action: lifecycle.ActionCancel, wantErr: true},
		{name: "cancel cancelled", from: lifecycle.StatusCancelled, action: lifecycle.ActionCancel, wantErr: true},
		{name: "approve cancelled", from: lifecycle.StatusCancelled, action: lifecycle.ActionApprove, wantErr: true},
		{name: "check in pending", from: lifecycle.StatusPending, action: lifecycle.ActionCheckIn, wantErr: true},
		{name: "reject approved", from: lifecycle.StatusApproved, action: lifecycle.ActionReject, wantErr: true},
		{name: "unapprove is event only", from: lifecycle.StatusApproved, action: lifecycle.ActionUnapprove, wantErr: true},
		{name: "unknown status", from: lifecycle.Status("archived"), action: lifecycle.ActionApprove, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := machine.Plan(tt.from, tt.action)

			if tt.wantErr {
				require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.from, plan.From)
			assert.Equal(t, tt.to, plan.To)
			assert.Equal(t, tt.action, plan.Action)
			assert.Equal(t, tt.payment, plan.Payment)
		})
	}
}

func TestEventPlan(t *testing.T) {
	machine := lifecycle.Event()

	plan, err := machine.Plan(lifecycle.StatusApproved, lifecycle.ActionUnapprove)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPending, plan.To)
	assert.Equal(t, lifecycle.PaymentPending, plan.Payment.Status)

	plan, err = machine.Plan(lifecycle.StatusRejected, lifecycle.ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusApproved, plan.To)

	_, err = machine.Plan(lifecycle.StatusApproved, lifecycle.ActionCheckIn)
	require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)

	_, err = machine.Plan(lifecycle.StatusCheckedIn, lifecycle.ActionCancel)
	require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
}

func TestTerminalStates(t *testing.T) {
	bookings := lifecycle.Booking()

	assert.True(t, bookings.IsTerminal(lifecycle.StatusCheckedOut))
	assert.True(t, bookings.IsTerminal(lifecycle.StatusCancelled))
	assert.False(t, bookings.IsTerminal(lifecycle.StatusRejected))
	assert.False(t, bookings.IsTerminal(lifecycle.Status("unknown")))

	assert.Equal(t,
		[]lifecycle.Action{lifecycle.ActionApprove, lifecycle.ActionReject, lifecycle.ActionCancel},
		bookings.Allowed(lifecycle.StatusPending),
	)
	assert.Len(t, lifecycle.Event().Statuses(), 3)
}

func TestHistoryEntry(t *testing.T) {
	at := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)

	plan, err := lifecycle.Booking().Plan(lifecycle.StatusPending, lifecycle.ActionApprove)
	require.NoError(t, err)

	entry := plan.Entry("room Deluxe", at)
	assert.Equal(t, lifecycle.StatusPending, entry.From)
	assert.Equal(t, lifecycle.StatusApproved, entry.To)
	assert.Equal(t, "room Deluxe", entry.Note)
	assert.Empty(t, entry.Event)

	event := lifecycle.EventEntry("rolled-forward", "moved to today", at)
	assert.Equal(t, "rolled-forward", event.Event)
	assert.Empty(t, event.From)
}
