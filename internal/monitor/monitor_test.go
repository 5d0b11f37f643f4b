package monitor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lodge/config"
	"lodge/infras/otel/mocks"
	"lodge/infras/postgres"
	pgMocks "lodge/infras/postgres/mocks"
	bookingMocks "lodge/internal/domains/booking/mocks"
	bookingModel "lodge/internal/domains/booking/model"
	eventMocks "lodge/internal/domains/event/mocks"
	eventModel "lodge/internal/domains/event/model"
	notificationMocks "lodge/internal/domains/notification/mocks"
	notificationModel "lodge/internal/domains/notification/model"
	notificationDto "lodge/internal/domains/notification/model/dto"
	paymentMocks "lodge/internal/domains/payment/mocks"
	paymentModel "lodge/internal/domains/payment/model"
	paymentDto "lodge/internal/domains/payment/model/dto"
	"lodge/internal/lifecycle"
	"lodge/internal/monitor"
	"lodge/shared/timezone"
)

type fixture struct {
	listener     *pgMocks.MockListener
	bookings     *bookingMocks.MockBookingService
	events       *eventMocks.MockEventService
	payment      *paymentMocks.MockPaymentService
	notification *notificationMocks.MockNotificationService
	monitor      *monitor.Monitor
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		listener:     pgMocks.NewMockListener(ctrl),
		bookings:     bookingMocks.NewMockBookingService(ctrl),
		events:       eventMocks.NewMockEventService(ctrl),
		payment:      paymentMocks.NewMockPaymentService(ctrl),
		notification: notificationMocks.NewMockNotificationService(ctrl),
	}

	cfg := &config.Config{}
	cfg.Monitor.ExpiryPollSeconds = 5
	cfg.Monitor.BadgePollSeconds = 60

	f.monitor = monitor.New(f.listener, f.bookings, f.events, f.payment, f.notification, cfg, mocks.NewOtel())

	return f
}

func pending(id string) bookingModel.Booking {
	return bookingModel.Booking{ID: id, Status: lifecycle.StatusPending, RoomType: "Deluxe"}
}

func at(day, hour, minute int) time.Time {
	return time.Date(2030, time.January, day, hour, minute, 0, 0, timezone.GetLocation())
}

func TestMonitor_Apply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	events := []eventModel.Event{{ID: "ev-1", EventCode: "EVT-0000AAAA", Status: lifecycle.StatusApproved}}

	f.bookings.EXPECT().Snapshot(gomock.Any()).Return([]bookingModel.Booking{pending("bk-1")}, nil)
	f.events.EXPECT().Snapshot(gomock.Any()).Return(events, nil)
	f.payment.EXPECT().
		Sweep(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, subjects []paymentDto.Subject) (int, error) {
			require.Len(t, subjects, 2)
			assert.Equal(t, paymentModel.TypeBooking, subjects[0].Type)
			assert.Equal(t, []string{"ev-1", "EVT-0000AAAA"}, subjects[1].IDs)

			return 0, nil
		})

	require.NoError(t, f.monitor.Apply(ctx, postgres.Change{Collection: postgres.CollectionAll}))
	assert.Len(t, f.monitor.Snapshot().Bookings, 1)
	assert.Len(t, f.monitor.Snapshot().Events, 1)

	f.bookings.EXPECT().Snapshot(gomock.Any()).Return([]bookingModel.Booking{pending("bk-1"), pending("bk-2")}, nil)
	f.payment.EXPECT().Sweep(gomock.Any(), gomock.Any()).Return(1, nil)
	f.notification.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, req notificationDto.SendPushRequest) {
			assert.Equal(t, notificationModel.KindPendingBooking, req.Kind)
			assert.Contains(t, req.Body, "2 booking")
		})

	require.NoError(t, f.monitor.Apply(ctx, postgres.Change{Collection: bookingModel.TableName, ID: "bk-2", Operation: "INSERT"}))
	assert.Len(t, f.monitor.Snapshot().Events, 1, "events are kept when only bookings change")

	// a drop in pending count is silent
	f.bookings.EXPECT().Snapshot(gomock.Any()).Return([]bookingModel.Booking{pending("bk-1")}, nil)
	f.payment.EXPECT().Sweep(gomock.Any(), gomock.Any()).Return(0, errors.New("db down"))

	require.NoError(t, f.monitor.Apply(ctx, postgres.Change{Collection: bookingModel.TableName}))

	// unrelated collections are ignored
	require.NoError(t, f.monitor.Apply(ctx, postgres.Change{Collection: "rooms"}))
}

func TestMonitor_Apply_ReloadFailureKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookings.EXPECT().Snapshot(gomock.Any()).Return([]bookingModel.Booking{pending("bk-1")}, nil)
	f.payment.EXPECT().Sweep(gomock.Any(), gomock.Any()).Return(0, nil)

	require.NoError(t, f.monitor.Apply(ctx, postgres.Change{Collection: bookingModel.TableName}))

	f.bookings.EXPECT().Snapshot(gomock.Any()).Return(nil, errors.New("db down"))

	assert.Error(t, f.monitor.Apply(ctx, postgres.Change{Collection: bookingModel.TableName}))
	assert.Len(t, f.monitor.Snapshot().Bookings, 1)
}

func TestMonitor_CheckOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stays := []bookingModel.Booking{
		{ID: "bk-1", CustomerName: "Amina", RoomType: "Deluxe", Status: lifecycle.StatusCheckedIn, CheckOut: "2030-01-02", CheckOutTime: "11:00"},
		{ID: "bk-2", Status: lifecycle.StatusCheckedIn, Dates: "01/01/2030 - 03/01/2030"},
		{ID: "bk-3", Status: lifecycle.StatusApproved, CheckOut: "2030-01-01"},
	}

	f.bookings.EXPECT().Snapshot(gomock.Any()).Return(stays, nil)
	f.payment.EXPECT().Sweep(gomock.Any(), gomock.Any()).Return(0, nil)
	require.NoError(t, f.monitor.Apply(ctx, postgres.Change{Collection: bookingModel.TableName}))

	f.notification.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, req notificationDto.SendPushRequest) {
			assert.Equal(t, notificationModel.KindOverdueStay, req.Kind)
			assert.Contains(t, req.Body, "Amina")
			assert.Contains(t, req.Body, "60 minute")
		})

	assert.Equal(t, []string{"bk-1"}, f.monitor.CheckOverdue(ctx, at(2, 12, 0)))

	// already alerted
	assert.Equal(t, []string{"bk-1"}, f.monitor.CheckOverdue(ctx, at(2, 12, 5)))

	f.notification.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(1)

	assert.Equal(t, []string{"bk-1", "bk-2"}, f.monitor.CheckOverdue(ctx, at(3, 11, 1)))

	// leaving the overdue set re-arms the alert
	assert.Empty(t, f.monitor.CheckOverdue(ctx, at(1, 0, 0)))

	f.notification.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(2)

	assert.Len(t, f.monitor.CheckOverdue(ctx, at(4, 0, 0)), 2)
}

func TestOverdue(t *testing.T) {
	bookings := []bookingModel.Booking{
		{ID: "in-time", Status: lifecycle.StatusCheckedIn, CheckOut: "2030-01-05"},
		{ID: "late", Status: lifecycle.StatusCheckedIn, CheckOut: "2030-01-01", CheckOutTime: "09:30"},
		{ID: "unparseable", Status: lifecycle.StatusCheckedIn, Dates: "soon"},
		{ID: "checked-out", Status: lifecycle.StatusCheckedOut, CheckOut: "2030-01-01"},
	}

	overdue := monitor.Overdue(bookings, at(1, 10, 0))

	require.Len(t, overdue, 1)
	require.Contains(t, overdue, "late")
	assert.Equal(t, 30, *overdue["late"].ElapsedMinutes)
}

func TestMonitor_Start(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	f.bookings.EXPECT().Snapshot(gomock.Any()).Return([]bookingModel.Booking{}, nil).Times(2)
	f.events.EXPECT().Snapshot(gomock.Any()).Return([]eventModel.Event{}, nil)
	f.payment.EXPECT().Sweep(gomock.Any(), gomock.Any()).Return(0, nil).Times(2)
	f.listener.EXPECT().
		Listen(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, handle func(postgres.Change)) error {
			handle(postgres.Change{Collection: bookingModel.TableName})
			cancel()
			<-ctx.Done()

			return nil
		})

	done := make(chan struct{})

	go func() {
		f.monitor.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
}
