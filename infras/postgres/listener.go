package postgres

//go:generate go run go.uber.org/mock/mockgen -source=./listener.go -destination=./mocks/listener_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lodge/config"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// CollectionAll marks a change that may touch every collection, delivered
// after a reconnect and on every resync tick.
const CollectionAll = "*"

const defaultResyncInterval = 90 * time.Second

// Change is the payload published by the notify_collection_change trigger.
type Change struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Operation  string `json:"op"`
}

func (c Change) Touches(collection string) bool {
	return c.Collection == CollectionAll || c.Collection == collection
}

type Listener interface {
	Listen(ctx context.Context, handle func(Change)) error
}

type listener struct {
	config *config.Config
}

func NewListener(config *config.Config) Listener {
	return &listener{
		config: config,
	}
}

// Listen blocks until ctx is done. handle runs on the listening goroutine.
func (l *listener) Listen(ctx context.Context, handle func(Change)) error {
	monitor := l.config.Monitor

	pl := pq.NewListener(
		WriteDSN(*l.config),
		time.Duration(monitor.MinReconnectSeconds)*time.Second,
		time.Duration(monitor.MaxReconnectSeconds)*time.Second,
		func(event pq.ListenerEventType, err error) {
			switch event {
			case pq.ListenerEventConnected:
				log.Info().Str("channel", monitor.Channel).Msg("Change listener connected")
			case pq.ListenerEventReconnected:
				log.Info().Str("channel", monitor.Channel).Msg("Change listener reconnected")
			case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
				log.Warn().Err(err).Str("channel", monitor.Channel).Msg("Change listener lost its connection")
			}
		},
	)
	defer pl.Close()

	if err := pl.Listen(monitor.Channel); err != nil {
		return fmt.Errorf("failed to listen on channel %s: %w", monitor.Channel, err)
	}

	interval := time.Duration(monitor.ResyncIntervalSecond) * time.Second
	if interval <= 0 {
		interval = defaultResyncInterval
	}

	resync := time.NewTicker(interval)
	defer resync.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case notification := <-pl.Notify:
			if notification == nil {
				handle(Change{Collection: CollectionAll})

				continue
			}

			var change Change
			if err := json.Unmarshal([]byte(notification.Extra), &change); err != nil {
				log.Warn().Err(err).Str("payload", notification.Extra).Msg("Ignoring malformed change notification")

				continue
			}

			handle(change)
		case <-resync.C:
			go func() {
				if err := pl.Ping(); err != nil {
					log.Warn().Err(err).Msg("Change listener ping failed")
				}
			}()

			handle(Change{Collection: CollectionAll})
		}
	}
}
