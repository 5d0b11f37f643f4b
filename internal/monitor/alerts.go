package monitor

import (
	"context"
	"fmt"
	"time"

	"lodge/internal/domains/booking/expiry"
	bookingModel "lodge/internal/domains/booking/model"
	notificationModel "lodge/internal/domains/notification/model"
	notificationDto "lodge/internal/domains/notification/model/dto"
	"lodge/internal/lifecycle"
	"lodge/shared/constant"

	"github.com/rs/zerolog/log"
)

type pendingCounts struct {
	bookings int
	events   int
	known    bool
}

func countPending(snapshot Snapshot) pendingCounts {
	counts := pendingCounts{known: true}

	for _, booking := range snapshot.Bookings {
		if booking.Status == lifecycle.StatusPending {
			counts.bookings++
		}
	}

	for _, event := range snapshot.Events {
		if event.Status == lifecycle.StatusPending {
			counts.events++
		}
	}

	return counts
}

// notifyPending pushes when a pending count rose since the last snapshot. The
// first snapshot only sets the baseline.
func (m *Monitor) notifyPending(ctx context.Context, current pendingCounts) {
	m.mu.Lock()
	previous := m.pending
	m.pending = current
	m.mu.Unlock()

	if !previous.known {
		return
	}

	if current.bookings > previous.bookings {
		m.notification.Notify(ctx, notificationDto.SendPushRequest{
			Title: "New booking request",
			Body:  fmt.Sprintf("%d booking(s) awaiting approval", current.bookings),
			Role:  constant.RoleAdmin,
			Kind:  notificationModel.KindPendingBooking,
		})
	}

	if current.events > previous.events {
		m.notification.Notify(ctx, notificationDto.SendPushRequest{
			Title: "New event request",
			Body:  fmt.Sprintf("%d event request(s) awaiting approval", current.events),
			Role:  constant.RoleAdmin,
			Kind:  notificationModel.KindPendingEvent,
		})
	}
}

// Overdue returns the checked-in bookings of the snapshot whose checkout
// instant has passed, keyed by booking id.
func Overdue(bookings []bookingModel.Booking, now time.Time) map[string]expiry.Result {
	overdue := map[string]expiry.Result{}

	for _, booking := range bookings {
		if result := expiry.Evaluate(booking.Stay(), now); result.Expired {
			overdue[booking.ID] = result
		}
	}

	return overdue
}

// CheckOverdue evaluates the latest snapshot against now and pushes once per
// booking when it becomes overdue. It returns the ids overdue at now.
func (m *Monitor) CheckOverdue(ctx context.Context, now time.Time) []string {
	bookings := m.Snapshot().Bookings
	overdue := Overdue(bookings, now)

	ids := make([]string, 0, len(overdue))
	fresh := []bookingModel.Booking{}

	m.mu.Lock()

	for _, booking := range bookings {
		if _, ok := overdue[booking.ID]; !ok {
			continue
		}

		ids = append(ids, booking.ID)

		if _, alerted := m.overdue[booking.ID]; !alerted {
			fresh = append(fresh, booking)
		}
	}

	m.overdue = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m.overdue[id] = struct{}{}
	}

	m.mu.Unlock()

	for _, booking := range fresh {
		elapsed := 0
		if minutes := overdue[booking.ID].ElapsedMinutes; minutes != nil {
			elapsed = *minutes
		}

		log.Info().Str("booking", booking.ID).Int("elapsed_minutes", elapsed).Msg("Check-out overdue")

		m.notification.Notify(ctx, notificationDto.SendPushRequest{
			Title: "Check-out overdue",
			Body:  fmt.Sprintf("%s (%s) should have checked out %d minute(s) ago", booking.CustomerName, booking.RoomType, elapsed),
			Kind:  notificationModel.KindOverdueStay,
		})
	}

	return ids
}
