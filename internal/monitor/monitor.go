// Package monitor keeps an in-memory snapshot of bookings and events in step
// with the store and drives the background work that hangs off it: payment
// sweeps, pending-count pushes, overdue check-out alerts and the badge.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lodge/config"
	"lodge/infras/otel"
	"lodge/infras/postgres"
	bookingModel "lodge/internal/domains/booking/model"
	bookingService "lodge/internal/domains/booking/service"
	eventModel "lodge/internal/domains/event/model"
	eventService "lodge/internal/domains/event/service"
	notificationService "lodge/internal/domains/notification/service"
	paymentModel "lodge/internal/domains/payment/model"
	paymentDto "lodge/internal/domains/payment/model/dto"
	paymentService "lodge/internal/domains/payment/service"
	"lodge/shared/constant"
	"lodge/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	defaultExpiryPoll = 5 * time.Second
	defaultBadgePoll  = 60 * time.Second
)

// Snapshot is the full content of the watched collections at LoadedAt.
type Snapshot struct {
	Bookings []bookingModel.Booking
	Events   []eventModel.Event
	LoadedAt time.Time
}

type Monitor struct {
	listener     postgres.Listener
	bookings     bookingService.Booking
	events       eventService.Event
	payment      paymentService.Payment
	notification notificationService.Notification
	cfg          *config.Config
	otel         otel.Otel

	mu       sync.RWMutex
	snapshot Snapshot
	pending  pendingCounts
	overdue  map[string]struct{}
}

func New(
	listener postgres.Listener,
	bookings bookingService.Booking,
	events eventService.Event,
	payment paymentService.Payment,
	notification notificationService.Notification,
	cfg *config.Config,
	otel otel.Otel,
) *Monitor {
	return &Monitor{
		listener:     listener,
		bookings:     bookings,
		events:       events,
		payment:      payment,
		notification: notification,
		cfg:          cfg,
		otel:         otel,
		overdue:      map[string]struct{}{},
	}
}

// Start loads the first snapshot and runs the change feed and both pollers
// until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	if err := m.Apply(ctx, postgres.Change{Collection: postgres.CollectionAll}); err != nil {
		log.Error().Err(err).Msg("Initial snapshot failed, waiting for the next change")
	}

	var wg sync.WaitGroup

	wg.Add(3)

	go func() {
		defer wg.Done()

		m.feed(ctx)
	}()

	go func() {
		defer wg.Done()

		m.every(ctx, seconds(m.cfg.Monitor.ExpiryPollSeconds, defaultExpiryPoll), func(ctx context.Context) {
			m.CheckOverdue(ctx, timezone.Now())
		})
	}()

	go func() {
		defer wg.Done()

		m.every(ctx, seconds(m.cfg.Monitor.BadgePollSeconds, defaultBadgePoll), func(ctx context.Context) {
			if _, err := m.notification.RefreshBadge(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to refresh badge")
			}
		})
	}()

	log.Info().Msg("Monitor started")

	wg.Wait()

	log.Info().Msg("Monitor stopped")
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshot
}

func (m *Monitor) feed(ctx context.Context) {
	err := m.listener.Listen(ctx, func(change postgres.Change) {
		if err := m.Apply(ctx, change); err != nil {
			log.Error().Err(err).Str("collection", change.Collection).Msg("Failed to apply change")
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("Change feed stopped, snapshot only refreshes on restart")
	}
}

func (m *Monitor) every(ctx context.Context, interval time.Duration, tick func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// Apply reloads the collections a change touches, replacing them in full,
// then sweeps payments and pushes when the pending count grew.
func (m *Monitor) Apply(ctx context.Context, change postgres.Change) (err error) {
	ctx, scope := m.otel.NewScope(ctx, constant.OtelMonitorScopeName, constant.OtelMonitorScopeName+".Apply")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute("collection", change.Collection)

	reloadBookings := change.Touches(bookingModel.TableName)
	reloadEvents := change.Touches(eventModel.TableName)

	if !reloadBookings && !reloadEvents {
		return nil
	}

	m.mu.RLock()
	next := m.snapshot
	m.mu.RUnlock()

	if reloadBookings {
		if next.Bookings, err = m.bookings.Snapshot(ctx); err != nil {
			return fmt.Errorf("failed to reload bookings: %w", err)
		}
	}

	if reloadEvents {
		if next.Events, err = m.events.Snapshot(ctx); err != nil {
			return fmt.Errorf("failed to reload events: %w", err)
		}
	}

	next.LoadedAt = timezone.Now()

	m.mu.Lock()
	m.snapshot = next
	m.mu.Unlock()

	if changed, err := m.payment.Sweep(ctx, Subjects(next)); err != nil {
		log.Error().Err(err).Msg("Payment sweep failed")
	} else if changed > 0 {
		log.Info().Int("changed", changed).Msg("Payment sweep corrected records")
	}

	m.notifyPending(ctx, countPending(next))

	return nil
}

// Subjects lists every booking and event for a payment sweep.
func Subjects(snapshot Snapshot) []paymentDto.Subject {
	subjects := make([]paymentDto.Subject, 0, len(snapshot.Bookings)+len(snapshot.Events))

	for _, booking := range snapshot.Bookings {
		subjects = append(subjects, paymentDto.Subject{
			IDs:    []string{booking.ID},
			Type:   paymentModel.TypeBooking,
			Status: booking.Status,
		})
	}

	for _, event := range snapshot.Events {
		subjects = append(subjects, paymentDto.Subject{
			IDs:    event.IDs(),
			Type:   paymentModel.TypeEvent,
			Status: event.Status,
		})
	}

	return subjects
}

func seconds(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}

	return time.Duration(value) * time.Second
}
