package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Event=MockEventService

import (
	"context"
	"errors"
	"fmt"

	"lodge/config"
	"lodge/infras/otel"
	"lodge/internal/domains/event/model"
	"lodge/internal/domains/event/model/dto"
	"lodge/internal/domains/event/repository"
	paymentModel "lodge/internal/domains/payment/model"
	paymentDto "lodge/internal/domains/payment/model/dto"
	paymentService "lodge/internal/domains/payment/service"
	venueRepo "lodge/internal/domains/venue/repository"
	"lodge/internal/lifecycle"
	"lodge/shared"
	"lodge/shared/cache"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	gRepo "lodge/shared/repository"
	"lodge/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetEvent    = "event:get"
	cacheGetAllEvent = "event:gets"
	cacheCountEvent  = "event:count"
)

type Event interface {
	Create(ctx context.Context, req dto.CreateEventRequest) (dto.EventResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetEventsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, ref string) (dto.EventResponse, error)
	Snapshot(ctx context.Context) ([]model.Event, error)
	Approve(ctx context.Context, ref string, req dto.ApproveEventRequest) error
	Reject(ctx context.Context, ref string, req dto.NoteRequest) error
	Unapprove(ctx context.Context, ref string, req dto.NoteRequest) error
	Delete(ctx context.Context, ref string) error
}

type serviceImpl struct {
	repo       repository.Event
	venueRepo  venueRepo.Venue
	payment    paymentService.Payment
	transactor gRepo.Transactor
	machine    lifecycle.Machine
	cfg        *config.Config
	cache      cache.RedisCache
	otel       otel.Otel
}

func New(
	repo repository.Event,
	venueRepo venueRepo.Venue,
	payment paymentService.Payment,
	transactor gRepo.Transactor,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Event {
	return &serviceImpl{
		repo:       repo,
		venueRepo:  venueRepo,
		payment:    payment,
		transactor: transactor,
		machine:    lifecycle.Event(),
		cfg:        cfg,
		cache:      cache,
		otel:       otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateEventRequest) (res dto.EventResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == constant.Empty {
		user = constant.ContextGuest
	}

	venue, err := s.venueRepo.Get(ctx, venueRepo.FilterByReference(req.Venue))
	if err != nil {
		log.Error().Err(err).Str("venue", req.Venue).Msg("failed to get venue")

		return res, fmt.Errorf("failed to get venue: %w", err)
	}

	if venue.ID == constant.Empty {
		return res, failure.BadRequestFromString("venue " + req.Venue + " does not exist") // nolint:wrapcheck
	}

	event, err := req.ToModel(user, venue)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, event); err != nil {
		log.Error().Err(err).Msg("failed to create event")

		return res, fmt.Errorf("failed to create event: %w", err)
	}

	s.invalidate(ctx, constant.Empty)

	res.FromModel(event)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetEventsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllEvent, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for events")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, err
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get events")

		return res, fmt.Errorf("failed to get events: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save events to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountEvent, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count events")

		return res, fmt.Errorf("failed to count events: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save event count to cache")
		}
	}()

	return res, nil
}

// Get accepts either the storage id or the event code.
func (s *serviceImpl) Get(ctx context.Context, ref string) (res dto.EventResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetEvent, ref)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	event, err := s.load(ctx, ref)
	if err != nil {
		return res, err
	}

	res.FromModel(event)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save event to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Snapshot(ctx context.Context) (res []model.Event, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Snapshot")
	defer scope.End()
	defer scope.TraceIfError(err)

	res, err = s.repo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to load events snapshot")

		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	return res, nil
}

// Approve charges the requested amount, else the quoted package price, else
// whatever amount the event already carries.
func (s *serviceImpl) Approve(ctx context.Context, ref string, req dto.ApproveEventRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Approve")
	defer scope.End()
	defer scope.TraceIfError(err)

	event, err := s.load(ctx, ref)
	if err != nil {
		return err
	}

	plan, err := s.plan(event, lifecycle.ActionApprove)
	if err != nil {
		return err
	}

	amount := event.Amount
	if quoted := event.QuotedPrice(); quoted > 0 {
		amount = quoted
	}

	if req.Amount != nil {
		amount = *req.Amount
	}

	payment := s.reconcileRequest(event, plan.Payment)
	payment.Amount = &amount

	if req.Method != constant.Empty {
		payment.Method = &req.Method
	}

	return s.apply(ctx, event, map[string]any{
		model.FieldStatus: plan.To,
		model.FieldAmount: amount,
	}, plan.Entry(req.Note, timezone.Now()), payment)
}

func (s *serviceImpl) Reject(ctx context.Context, ref string, req dto.NoteRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reject")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.simple(ctx, ref, lifecycle.ActionReject, req.Note)
}

// Unapprove sends an approved event back to pending and zeroes its amount
// and payment.
func (s *serviceImpl) Unapprove(ctx context.Context, ref string, req dto.NoteRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Unapprove")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.simple(ctx, ref, lifecycle.ActionUnapprove, req.Note)
}

// Delete removes the event and any payment recorded against either of its
// ids.
func (s *serviceImpl) Delete(ctx context.Context, ref string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	event, err := s.load(ctx, ref)
	if err != nil {
		return err
	}

	err = s.transactor.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.DeleteTx(ctx, tx, shared.FilterByID(event.ID, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}

		return s.payment.RemoveFor(ctx, tx, event.IDs(), paymentModel.TypeEvent) //nolint:wrapcheck
	})
	if err != nil {
		log.Error().Err(err).Str("event", event.ID).Msg("failed to delete event")

		return fmt.Errorf("failed to delete event: %w", err)
	}

	s.invalidate(ctx, event.ID, event.EventCode)

	return nil
}

func (s *serviceImpl) simple(ctx context.Context, ref string, action lifecycle.Action, note string) error {
	event, err := s.load(ctx, ref)
	if err != nil {
		return err
	}

	plan, err := s.plan(event, action)
	if err != nil {
		return err
	}

	fields := map[string]any{model.FieldStatus: plan.To}
	if plan.Payment.ResetAmount {
		fields[model.FieldAmount] = int64(0)
	}

	return s.apply(ctx, event, fields, plan.Entry(note, timezone.Now()), s.reconcileRequest(event, plan.Payment))
}

// apply writes the event and its payment in one transaction, then appends
// the audit entry. A failed history append is logged and ignored.
func (s *serviceImpl) apply(ctx context.Context, event model.Event, fields map[string]any, entry lifecycle.HistoryEntry, payment *paymentDto.ReconcileRequest) error {
	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	fields[constant.FieldModifiedAt] = timezone.Now()
	fields[constant.FieldModifiedBy] = user

	err := s.transactor.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateTx(ctx, tx, fields, shared.FilterByID(event.ID, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}

		if payment == nil {
			return nil
		}

		_, err := s.payment.Reconcile(ctx, tx, *payment)

		return err //nolint:wrapcheck
	})
	if err != nil {
		log.Error().Err(err).Str("event", event.ID).Msg("failed to apply event transition")

		return fmt.Errorf("failed to apply event transition: %w", err)
	}

	if err := s.repo.AppendHistory(ctx, event.ID, entry); err != nil {
		log.Warn().Err(err).Str("event", event.ID).Msg("failed to append status history")
	}

	log.Info().
		Str("event", event.ID).
		Str("code", event.EventCode).
		Str("from", event.Status.String()).
		Interface("to", fields[model.FieldStatus]).
		Msg("event status changed")

	s.invalidate(ctx, event.ID, event.EventCode)

	return nil
}

func (s *serviceImpl) load(ctx context.Context, ref string) (model.Event, error) {
	event, err := s.repo.Get(ctx, repository.FilterByReference(ref))
	if err != nil {
		log.Error().Err(err).Str("event", ref).Msg("failed to get event")

		return event, fmt.Errorf("failed to get event: %w", err)
	}

	if event.ID == constant.Empty {
		return event, failure.NotFound("event not found") // nolint:wrapcheck
	}

	return event, nil
}

func (s *serviceImpl) plan(event model.Event, action lifecycle.Action) (lifecycle.Plan, error) {
	plan, err := s.machine.Plan(event.Status, action)
	if errors.Is(err, lifecycle.ErrIllegalTransition) {
		return plan, failure.Conflict(err.Error()) // nolint:wrapcheck
	}

	return plan, err //nolint:wrapcheck
}

// reconcileRequest targets the payment under both event ids. Every event
// transition touches the payment.
func (s *serviceImpl) reconcileRequest(event model.Event, effect lifecycle.PaymentEffect) *paymentDto.ReconcileRequest {
	req := paymentDto.ReconcileRequest{
		EntityID: event.ID,
		AltIDs:   event.IDs()[1:],
		Type:     paymentModel.TypeEvent,
		Status:   effect.Status,
	}

	if effect.ResetAmount {
		zero := int64(0)
		req.Amount = &zero
	}

	return &req
}

func (s *serviceImpl) invalidate(ctx context.Context, keys ...string) {
	go func() {
		c := context.WithoutCancel(ctx)

		for _, key := range keys {
			if key == constant.Empty {
				continue
			}

			if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetEvent, key)); err != nil {
				log.Error().Err(err).Msg("failed to delete event from cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllEvent)
		shared.InvalidateCaches(c, s.cache, cacheCountEvent)
	}()
}
