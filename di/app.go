package di

import (
	"lodge/infras/otel"
	"lodge/infras/postgres"
	notificationService "lodge/internal/domains/notification/service"
	"lodge/internal/monitor"
	"lodge/transport/http"
)

// App holds everything cmd/app runs: the HTTP server and the background
// workers that live next to it.
type App struct {
	HTTP         *http.HTTP
	Monitor      *monitor.Monitor
	Notification notificationService.Notification
	Otel         otel.Otel
	DB           *postgres.Connection
}
