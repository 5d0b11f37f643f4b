package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Notification=MockNotificationService

import (
	"context"
	"fmt"

	"lodge/config"
	"lodge/infras/kafka"
	"lodge/infras/otel"
	bookingModel "lodge/internal/domains/booking/model"
	bookingService "lodge/internal/domains/booking/service"
	eventModel "lodge/internal/domains/event/model"
	eventService "lodge/internal/domains/event/service"
	"lodge/internal/domains/notification/model"
	"lodge/internal/domains/notification/model/dto"
	"lodge/internal/domains/notification/repository"
	"lodge/internal/lifecycle"
	"lodge/shared"
	"lodge/shared/cache"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	"lodge/shared/timezone"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
)

const (
	cacheBadge              = "notification:badge"
	cacheGetAllNotification = "notification:gets"
	cacheCountNotification  = "notification:count"

	minBadgeTTL = 120
)

type Notification interface {
	Send(ctx context.Context, req dto.SendPushRequest) error
	Notify(ctx context.Context, req dto.SendPushRequest)
	Store(ctx context.Context, msg dto.PushMessage) error
	Consume(ctx context.Context)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetNotificationsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	MarkRead(ctx context.Context, id string) error
	Badge(ctx context.Context) (dto.BadgeResponse, error)
	RefreshBadge(ctx context.Context) (dto.BadgeResponse, error)
}

type serviceImpl struct {
	repo     repository.Notification
	kafka    kafka.Client
	bookings bookingService.Booking
	events   eventService.Event
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(
	repo repository.Notification,
	kafka kafka.Client,
	bookings bookingService.Booking,
	events eventService.Event,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Notification {
	return &serviceImpl{
		repo:     repo,
		kafka:    kafka,
		bookings: bookings,
		events:   events,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

// Send publishes one push to the push topic, keyed by the addressed role.
func (s *serviceImpl) Send(ctx context.Context, req dto.SendPushRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Send")
	defer scope.End()
	defer scope.TraceIfError(err)

	msg := req.ToMessage(timezone.Now())

	if err = s.kafka.SendMessages(ctx, s.cfg.Kafka.PushTopic, kafka.Message{Key: msg.Role, Value: msg}); err != nil {
		log.Error().Err(err).Str("title", msg.Title).Msg("failed to send push notification")

		return fmt.Errorf("failed to send push notification: %w", err)
	}

	return nil
}

// Notify sends in the background and only logs a failure.
func (s *serviceImpl) Notify(ctx context.Context, req dto.SendPushRequest) {
	go func() {
		if err := s.Send(context.WithoutCancel(ctx), req); err != nil {
			log.Warn().Err(err).Str("kind", string(req.Kind)).Msg("push notification dropped")
		}
	}()
}

// Store files a consumed push into the inbox. Redelivered messages keep
// their id, so a duplicate insert is treated as already stored.
func (s *serviceImpl) Store(ctx context.Context, msg dto.PushMessage) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Store")
	defer scope.End()
	defer scope.TraceIfError(err)

	notification := msg.ToModel()

	exist, err := s.repo.Count(ctx, shared.FilterByID(notification.ID, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check notification")

		return fmt.Errorf("failed to check notification: %w", err)
	}

	if exist > 0 {
		return nil
	}

	if err = s.repo.Insert(ctx, notification); err != nil {
		log.Error().Err(err).Msg("failed to store notification")

		return fmt.Errorf("failed to store notification: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllNotification)
		shared.InvalidateCaches(c, s.cache, cacheCountNotification)
	}()

	return nil
}

// Consume blocks until ctx is done.
func (s *serviceImpl) Consume(ctx context.Context) {
	log.Info().Str("topic", s.cfg.Kafka.PushTopic).Msg("Starting notification inbox consumer")

	s.kafka.Consume(ctx, constant.Empty, s.cfg.Kafka.PushTopic, s.handle)
}

func (s *serviceImpl) handle(ctx context.Context, message kafkaGo.Message) {
	msg, err := kafka.Decode[dto.PushMessage](message)
	if err != nil {
		log.Warn().Err(err).Str("key", string(message.Key)).Msg("Skipping malformed push message")

		return
	}

	if err := s.Store(ctx, msg); err != nil {
		log.Error().Err(err).Str("id", msg.ID).Msg("Failed to store push message")
	}
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetNotificationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllNotification, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, err
	}

	notifications, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get notifications")

		return res, fmt.Errorf("failed to get notifications: %w", err)
	}

	res.FromModels(notifications, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save notifications to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountNotification, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count notifications")

		return res, fmt.Errorf("failed to count notifications: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save notification count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) MarkRead(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".MarkRead")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	notification, err := s.repo.Get(ctx, filter, model.FieldID, model.FieldRole, model.FieldReadAt)
	if err != nil {
		log.Error().Err(err).Msg("failed to get notification")

		return fmt.Errorf("failed to get notification: %w", err)
	}

	visible := notification.Role == constant.Empty || notification.Role == role || role == constant.RoleSuperAdmin
	if notification.ID == constant.Empty || !visible {
		return failure.NotFound("notification not found") // nolint:wrapcheck
	}

	if notification.ReadAt != nil {
		return nil
	}

	if err = s.repo.Update(ctx, shared.TransformFields(dto.MarkReadRequest{ReadAt: timezone.Now()}, user), filter); err != nil {
		log.Error().Err(err).Msg("failed to mark notification read")

		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllNotification)
		shared.InvalidateCaches(c, s.cache, cacheCountNotification)
	}()

	return nil
}

// Badge returns the counts computed by the last refresh, refreshing on a miss.
func (s *serviceImpl) Badge(ctx context.Context) (res dto.BadgeResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Badge")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.cache.Get(ctx, cacheBadge, &res); err == nil {
		return res, nil
	}

	return s.RefreshBadge(ctx)
}

func (s *serviceImpl) RefreshBadge(ctx context.Context) (res dto.BadgeResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RefreshBadge")
	defer scope.End()
	defer scope.TraceIfError(err)

	now := timezone.Now()

	pendingBookings, err := s.bookings.Count(ctx, gDto.QueryParams{},
		shared.FilterByField(bookingModel.FieldStatus, lifecycle.StatusPending, bookingModel.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to count pending bookings: %w", err)
	}

	pendingEvents, err := s.events.Count(ctx, gDto.QueryParams{},
		shared.FilterByField(eventModel.FieldStatus, lifecycle.StatusPending, eventModel.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to count pending events: %w", err)
	}

	overdue, err := s.bookings.Expired(ctx, now)
	if err != nil {
		return res, fmt.Errorf("failed to list overdue stays: %w", err)
	}

	res = dto.NewBadge(pendingBookings, pendingEvents, len(overdue), now)

	if err := s.cache.Save(ctx, cacheBadge, res, s.badgeTTL()); err != nil {
		log.Error().Err(err).Msg("failed to save badge to cache")
	}

	return res, nil
}

func (s *serviceImpl) badgeTTL() int {
	return max(minBadgeTTL, 2*s.cfg.Monitor.BadgePollSeconds)
}
