package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Booking=MockBookingService

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lodge/config"
	"lodge/infras/otel"
	"lodge/internal/domains/booking/expiry"
	"lodge/internal/domains/booking/model"
	"lodge/internal/domains/booking/model/dto"
	"lodge/internal/domains/booking/repository"
	paymentModel "lodge/internal/domains/payment/model"
	paymentDto "lodge/internal/domains/payment/model/dto"
	paymentService "lodge/internal/domains/payment/service"
	roomRepo "lodge/internal/domains/room/repository"
	"lodge/internal/lifecycle"
	"lodge/shared"
	"lodge/shared/cache"
	"lodge/shared/constant"
	"lodge/shared/datetime"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	gRepo "lodge/shared/repository"
	"lodge/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	Snapshot(ctx context.Context) ([]model.Booking, error)
	Expired(ctx context.Context, now time.Time) ([]dto.ExpiredBookingResponse, error)
	Approve(ctx context.Context, id string, req dto.ApproveBookingRequest) error
	Reject(ctx context.Context, id string, req dto.NoteRequest) error
	CheckIn(ctx context.Context, id string, req dto.CheckInRequest) error
	CheckOut(ctx context.Context, id string, req dto.CheckOutRequest) error
	Cancel(ctx context.Context, id string, req dto.NoteRequest) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo       repository.Booking
	roomRepo   roomRepo.Room
	payment    paymentService.Payment
	transactor gRepo.Transactor
	machine    lifecycle.Machine
	cfg        *config.Config
	cache      cache.RedisCache
	otel       otel.Otel
}

func New(
	repo repository.Booking,
	roomRepo roomRepo.Room,
	payment paymentService.Payment,
	transactor gRepo.Transactor,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:       repo,
		roomRepo:   roomRepo,
		payment:    payment,
		transactor: transactor,
		machine:    lifecycle.Booking(),
		cfg:        cfg,
		cache:      cache,
		otel:       otel,
	}
}

// change is everything one admin action writes: the booking columns, the
// audit entries and, when the transition requires it, the payment upsert.
type change struct {
	fields  map[string]any
	entries []lifecycle.HistoryEntry
	payment *paymentDto.ReconcileRequest
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == constant.Empty {
		user = constant.ContextGuest
	}

	roomExists, err := s.roomRepo.Exist(ctx, roomRepo.FilterByName(req.RoomType))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if room exists")

		return res, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !roomExists {
		return res, failure.BadRequestFromString("room type " + req.RoomType + " does not exist") // nolint:wrapcheck
	}

	booking, rolled, err := req.ToModel(user, timezone.Now(), s.cfg.Booking.RollForward)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	if rolled {
		log.Info().Str("booking", booking.ID).Str("dates", booking.Dates).Msg("past stay rolled forward on submission")
	}

	if err = s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	s.invalidate(ctx, constant.Empty)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

// Snapshot reads the whole collection, bypassing the cache.
func (s *serviceImpl) Snapshot(ctx context.Context) (res []model.Booking, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Snapshot")
	defer scope.End()
	defer scope.TraceIfError(err)

	res, err = s.repo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to load bookings snapshot")

		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	return res, nil
}

// Expired lists checked-in bookings whose checkout instant is before now.
func (s *serviceImpl) Expired(ctx context.Context, now time.Time) (res []dto.ExpiredBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Expired")
	defer scope.End()
	defer scope.TraceIfError(err)

	bookings, err := s.repo.GetAll(ctx, gDto.QueryParams{}, shared.FilterByField(model.FieldStatus, lifecycle.StatusCheckedIn, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get checked-in bookings")

		return nil, fmt.Errorf("failed to get checked-in bookings: %w", err)
	}

	res = []dto.ExpiredBookingResponse{}

	for _, booking := range bookings {
		result := expiry.Evaluate(booking.Stay(), now)
		if !result.Expired {
			continue
		}

		item := dto.ExpiredBookingResponse{}
		item.FromModel(booking, result)

		res = append(res, item)
	}

	return res, nil
}

// Approve prices the stay against the selected room type and marks the
// payment completed. Past stays are rolled forward first, and a check-in
// time on the request checks the guest in within the same write.
func (s *serviceImpl) Approve(ctx context.Context, id string, req dto.ApproveBookingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Approve")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	plan, err := s.plan(booking, lifecycle.ActionApprove)
	if err != nil {
		return err
	}

	roomType := shared.FirstNonEmpty(req.RoomType, booking.RoomType)

	room, err := s.roomRepo.Get(ctx, roomRepo.FilterByName(roomType))
	if err != nil {
		log.Error().Err(err).Str("room", roomType).Msg("failed to get room")

		return fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return failure.BadRequestFromString("room type " + roomType + " does not exist") // nolint:wrapcheck
	}

	checkIn, checkOut, ok := booking.Span()
	if !ok {
		return failure.BadRequestFromString("booking dates cannot be resolved") // nolint:wrapcheck
	}

	now := timezone.Now()
	c := change{fields: map[string]any{model.FieldRoomType: roomType}}

	if s.cfg.Booking.RollForward {
		var rolled bool

		from := datetime.FormatRange(checkIn, checkOut)

		checkIn, checkOut, rolled = datetime.RollForward(checkIn, checkOut, now)
		if rolled {
			c.fields[model.FieldDates] = datetime.FormatRange(checkIn, checkOut)
			c.fields[model.FieldCheckIn] = datetime.FormatISO(checkIn)
			c.fields[model.FieldCheckOut] = datetime.FormatISO(checkOut)
			c.entries = append(c.entries, lifecycle.EventEntry(dto.EventRolledForward, "from "+from, now))
		}
	}

	amount := room.Charge(datetime.NightsBetween(checkIn, checkOut), booking.RoomCount)

	c.fields[model.FieldStatus] = plan.To
	c.fields[model.FieldAmount] = amount
	c.entries = append(c.entries, plan.Entry(req.Note, now))
	c.payment = s.reconcileRequest(booking, plan.Payment, &amount, optional(req.Method))

	if req.CheckInTime != constant.Empty {
		checkInPlan, err := s.machine.Plan(plan.To, lifecycle.ActionCheckIn)
		if err != nil {
			return failure.Conflict(err.Error()) // nolint:wrapcheck
		}

		c.fields[model.FieldStatus] = checkInPlan.To
		c.fields[model.FieldCheckInTime] = req.CheckInTime
		c.fields[model.FieldCheckOutTime] = shared.FirstNonEmpty(booking.CheckOutTime, s.defaultCheckOutTime())
		c.entries = append(c.entries, checkInPlan.Entry(req.Note, now))
	}

	return s.apply(ctx, booking, c)
}

func (s *serviceImpl) Reject(ctx context.Context, id string, req dto.NoteRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reject")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.simple(ctx, id, lifecycle.ActionReject, req.Note)
}

func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.NoteRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.simple(ctx, id, lifecycle.ActionCancel, req.Note)
}

// CheckIn stamps the check-in time (now when not given) and fills in the
// standard checkout time when the booking has none.
func (s *serviceImpl) CheckIn(ctx context.Context, id string, req dto.CheckInRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckIn")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	plan, err := s.plan(booking, lifecycle.ActionCheckIn)
	if err != nil {
		return err
	}

	now := timezone.Now()

	return s.apply(ctx, booking, change{
		fields: map[string]any{
			model.FieldStatus:       plan.To,
			model.FieldCheckInTime:  shared.FirstNonEmpty(req.CheckInTime, now.Format(constant.TimeOfDayFormat)),
			model.FieldCheckOutTime: shared.FirstNonEmpty(req.CheckOutTime, booking.CheckOutTime, s.defaultCheckOutTime()),
		},
		entries: []lifecycle.HistoryEntry{plan.Entry(req.Note, now)},
		payment: s.reconcileRequest(booking, plan.Payment, nil, nil),
	})
}

// CheckOut completes the stay. A checkout made by mistake sends the booking
// back to pending and zeroes both its amount and its payment.
func (s *serviceImpl) CheckOut(ctx context.Context, id string, req dto.CheckOutRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckOut")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	plan, err := s.plan(booking, req.Action())
	if err != nil {
		return err
	}

	c := change{
		fields:  map[string]any{model.FieldStatus: plan.To},
		entries: []lifecycle.HistoryEntry{plan.Entry(req.Note, timezone.Now())},
		payment: s.reconcileRequest(booking, plan.Payment, nil, nil),
	}

	if plan.Payment.ResetAmount {
		c.fields[model.FieldAmount] = int64(0)
	}

	return s.apply(ctx, booking, c)
}

// Delete removes the booking together with its payment.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	err = s.transactor.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.DeleteTx(ctx, tx, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to delete booking: %w", err)
		}

		return s.payment.RemoveFor(ctx, tx, []string{booking.ID}, paymentModel.TypeBooking) //nolint:wrapcheck
	})
	if err != nil {
		log.Error().Err(err).Str("booking", id).Msg("failed to delete booking")

		return fmt.Errorf("failed to delete booking: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) simple(ctx context.Context, id string, action lifecycle.Action, note string) error {
	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	plan, err := s.plan(booking, action)
	if err != nil {
		return err
	}

	return s.apply(ctx, booking, change{
		fields:  map[string]any{model.FieldStatus: plan.To},
		entries: []lifecycle.HistoryEntry{plan.Entry(note, timezone.Now())},
		payment: s.reconcileRequest(booking, plan.Payment, nil, nil),
	})
}

// apply writes the booking and its payment in one transaction, then records
// the audit entries. A failed history append is logged and ignored.
func (s *serviceImpl) apply(ctx context.Context, booking model.Booking, c change) error {
	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	c.fields[constant.FieldModifiedAt] = timezone.Now()
	c.fields[constant.FieldModifiedBy] = user

	err := s.transactor.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.UpdateTx(ctx, tx, c.fields, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}

		if c.payment == nil {
			return nil
		}

		_, err := s.payment.Reconcile(ctx, tx, *c.payment)

		return err //nolint:wrapcheck
	})
	if err != nil {
		log.Error().Err(err).Str("booking", booking.ID).Msg("failed to apply booking transition")

		return fmt.Errorf("failed to apply booking transition: %w", err)
	}

	if err := s.repo.AppendHistory(ctx, booking.ID, c.entries...); err != nil {
		log.Warn().Err(err).Str("booking", booking.ID).Msg("failed to append status history")
	}

	log.Info().
		Str("booking", booking.ID).
		Str("from", booking.Status.String()).
		Interface("to", c.fields[model.FieldStatus]).
		Msg("booking status changed")

	s.invalidate(ctx, booking.ID)

	return nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Str("booking", id).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) plan(booking model.Booking, action lifecycle.Action) (lifecycle.Plan, error) {
	plan, err := s.machine.Plan(booking.Status, action)
	if errors.Is(err, lifecycle.ErrIllegalTransition) {
		return plan, failure.Conflict(err.Error()) // nolint:wrapcheck
	}

	return plan, err //nolint:wrapcheck
}

func (s *serviceImpl) reconcileRequest(booking model.Booking, effect lifecycle.PaymentEffect, amount *int64, method *string) *paymentDto.ReconcileRequest {
	if !effect.Required {
		return nil
	}

	req := paymentDto.ReconcileRequest{
		EntityID: booking.ID,
		Type:     paymentModel.TypeBooking,
		Status:   effect.Status,
		Amount:   amount,
		Method:   method,
	}

	if effect.Status == lifecycle.PaymentCompleted {
		req.FallbackAmount = booking.Amount
	}

	if effect.ResetAmount {
		zero := int64(0)
		req.Amount = &zero
	}

	return &req
}

func (s *serviceImpl) defaultCheckOutTime() string {
	if tod, ok := datetime.ParseTimeOfDay(s.cfg.Booking.DefaultCheckOutTime); ok {
		return tod.String()
	}

	return datetime.StandardCheckOut.String()
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if id != constant.Empty {
			if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete booking from cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()
}

func optional(value string) *string {
	if value == constant.Empty {
		return nil
	}

	return &value
}
