package router

import (
	"lodge/internal/handlers/auth"
	"lodge/internal/handlers/booking"
	"lodge/internal/handlers/event"
	"lodge/internal/handlers/notification"
	"lodge/internal/handlers/payment"
	"lodge/internal/handlers/room"
	"lodge/internal/handlers/user"
	"lodge/internal/handlers/venue"
	"lodge/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Auth         auth.Handler
	User         user.Handler
	Room         room.Handler
	Venue        venue.Handler
	Booking      booking.Handler
	Event        event.Handler
	Payment      payment.Handler
	Notification notification.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	AuthRole       middleware.AuthRole
}

// SetupRoutes mounts every domain under /v1. Public routes are marked skip
// in permissions.json; everything else needs a token and, where listed, a role.
func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.AuthRole.APIKey, r.AuthRole.Auth, r.AuthRole.RBAC)

		r.DomainHandlers.Auth.Router(routerGroup)
		r.DomainHandlers.User.Router(routerGroup)
		r.DomainHandlers.Room.Router(routerGroup)
		r.DomainHandlers.Venue.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Event.Router(routerGroup)
		r.DomainHandlers.Payment.Router(routerGroup)
		r.DomainHandlers.Notification.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers, authRole middleware.AuthRole) Router {
	return Router{
		DomainHandlers: domainHandlers,
		AuthRole:       authRole,
	}
}
