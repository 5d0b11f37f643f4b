//go:build wireinject
// +build wireinject

package di

import (
	"lodge/config"
	"lodge/infras/jwt"
	"lodge/infras/kafka"
	"lodge/infras/otel"
	"lodge/infras/postgres"
	"lodge/infras/redis"
	"lodge/infras/s3"
	"lodge/internal/domains/session"
	"lodge/internal/monitor"
	"lodge/permissions"
	"lodge/shared/cache"
	gRepo "lodge/shared/repository"
	"lodge/transport/http"
	"lodge/transport/http/middleware"
	"lodge/transport/http/router"

	"github.com/google/wire"

	authService "lodge/internal/domains/auth/service"
	bookingRepository "lodge/internal/domains/booking/repository"
	bookingService "lodge/internal/domains/booking/service"
	eventRepository "lodge/internal/domains/event/repository"
	eventService "lodge/internal/domains/event/service"
	notificationRepository "lodge/internal/domains/notification/repository"
	notificationService "lodge/internal/domains/notification/service"
	paymentRepository "lodge/internal/domains/payment/repository"
	paymentService "lodge/internal/domains/payment/service"
	roomRepository "lodge/internal/domains/room/repository"
	roomService "lodge/internal/domains/room/service"
	userRepository "lodge/internal/domains/user/repository"
	userService "lodge/internal/domains/user/service"
	venueRepository "lodge/internal/domains/venue/repository"
	venueService "lodge/internal/domains/venue/service"

	authHandler "lodge/internal/handlers/auth"
	bookingHandler "lodge/internal/handlers/booking"
	eventHandler "lodge/internal/handlers/event"
	notificationHandler "lodge/internal/handlers/notification"
	paymentHandler "lodge/internal/handlers/payment"
	roomHandler "lodge/internal/handlers/room"
	userHandler "lodge/internal/handlers/user"
	venueHandler "lodge/internal/handlers/venue"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	postgres.NewListener,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	gRepo.NewTransactor,
)

var userDomain = wire.NewSet(
	userRepository.New,
	session.New,
	userService.New,
	authService.New,
)

var stayDomain = wire.NewSet(
	roomRepository.New,
	roomService.New,
	venueRepository.New,
	venueService.New,
	paymentRepository.New,
	paymentService.New,
	bookingRepository.New,
	bookingService.New,
	eventRepository.New,
	eventService.New,
)

var notificationDomain = wire.NewSet(
	notificationRepository.New,
	notificationService.New,
)

var domains = wire.NewSet(
	userDomain,
	stayDomain,
	notificationDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	roomHandler.New,
	venueHandler.New,
	bookingHandler.New,
	eventHandler.New,
	paymentHandler.New,
	notificationHandler.New,
	router.New,
)

func InitializeApp() *App {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
		monitor.New,
		wire.Struct(new(App), "*"),
	)

	return &App{}
}
