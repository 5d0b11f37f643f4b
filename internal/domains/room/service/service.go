package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Room=MockRoomService

import (
	"context"
	"fmt"

	"lodge/config"
	"lodge/infras/otel"
	"lodge/infras/s3"
	bookingModel "lodge/internal/domains/booking/model"
	bookingRepo "lodge/internal/domains/booking/repository"
	"lodge/internal/domains/room/availability"
	"lodge/internal/domains/room/model"
	"lodge/internal/domains/room/model/dto"
	"lodge/internal/domains/room/repository"
	"lodge/shared"
	"lodge/shared/cache"
	"lodge/shared/constant"
	"lodge/shared/datetime"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	"lodge/shared/media"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetRoom    = "room:get"
	cacheGetAllRoom = "room:gets"
	cacheCountRoom  = "room:count"
)

type Room interface {
	Create(ctx context.Context, req dto.CreateRoomRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetRoomsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.RoomResponse, error)
	Availability(ctx context.Context, id string, req dto.AvailabilityRequest) (dto.AvailabilityResponse, error)
	Update(ctx context.Context, req dto.UpdateRoomRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo     repository.Room
	bookings bookingRepo.Booking
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
	s3       s3.S3
}

func New(repo repository.Room, bookings bookingRepo.Booking, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3) Room {
	return &serviceImpl{
		repo:     repo,
		bookings: bookings,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
		s3:       s3,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateRoomRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	exist, err := s.repo.Exist(ctx, repository.FilterByName(req.Name))
	if err != nil {
		log.Error().Err(err).Msg("failed to check room name")

		return fmt.Errorf("failed to check room name: %w", err)
	}

	if exist {
		return failure.Conflict("room " + req.Name + " already exists") // nolint:wrapcheck
	}

	images, err := media.Upload(ctx, s.s3, model.EntityName, req.Images)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload room images")

		return fmt.Errorf("failed to upload images: %w", err)
	}

	if err = s.repo.Insert(ctx, req.ToModel(user, images)); err != nil {
		log.Error().Err(err).Msg("failed to insert room")
		media.Remove(context.WithoutCancel(ctx), s.s3, images)

		return fmt.Errorf("failed to insert room: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllRoom)
		shared.InvalidateCaches(c, s.cache, cacheCountRoom)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetRoomsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllRoom, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for rooms")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count rooms")

		return res, fmt.Errorf("failed to count rooms: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get rooms")

		return res, fmt.Errorf("failed to get rooms: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save rooms to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountRoom, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count rooms")

		return res, fmt.Errorf("failed to count rooms: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save room count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.RoomResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetRoom, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for room")

		return res, nil
	}

	room, err := s.find(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(room)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save room to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) find(ctx context.Context, id string) (model.Room, error) {
	room, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return room, fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return room, failure.NotFound("room not found") // nolint:wrapcheck
	}

	return room, nil
}

// Availability is how many rooms of the type are still free over the stay.
// It is advisory: bookings are never refused on it.
func (s *serviceImpl) Availability(ctx context.Context, id string, req dto.AvailabilityRequest) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Availability")
	defer scope.End()
	defer scope.TraceIfError(err)

	checkIn, okIn := datetime.ResolveCheckIn(req.CheckIn, constant.Empty)
	checkOut, okOut := datetime.ResolveCheckOut(req.CheckOut, constant.Empty)
	checkOut = datetime.StartOfDay(checkOut)

	if !okIn || !okOut {
		return res, failure.BadRequestFromString("check_in and check_out must be dates") // nolint:wrapcheck
	}

	if checkOut.Before(checkIn) {
		return res, failure.BadRequestFromString("check_out is before check_in") // nolint:wrapcheck
	}

	room, err := s.find(ctx, id)
	if err != nil {
		return res, err
	}

	bookings, err := s.bookings.GetAll(ctx, gDto.QueryParams{}, bookingRepo.FilterByRoomType(room.Name),
		bookingModel.FieldID,
		bookingModel.FieldRoomType,
		bookingModel.FieldStatus,
		bookingModel.FieldDates,
		bookingModel.FieldCheckIn,
		bookingModel.FieldCheckOut,
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings for room")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	stays := make([]availability.Stay, len(bookings))
	for i, booking := range bookings {
		stays[i] = availability.Stay{
			RoomType: booking.RoomType,
			Status:   booking.Status,
			CheckIn:  booking.CheckIn,
			CheckOut: booking.CheckOut,
			Dates:    booking.Dates,
		}
	}

	nights := datetime.NightsBetween(checkIn, checkOut)

	return dto.AvailabilityResponse{
		RoomID:    room.ID,
		Room:      room.Name,
		Quantity:  room.Quantity,
		Available: availability.AvailableCount(room.Name, room.Quantity, checkIn, checkOut, stays),
		CheckIn:   datetime.FormatISO(checkIn),
		CheckOut:  datetime.FormatISO(checkOut),
		Nights:    nights,
		Total:     room.Charge(nights, 1),
	}, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateRoomRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	current, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if req.Name != constant.Empty && req.Name != current.Name {
		exist, err := s.repo.Exist(ctx, repository.FilterByName(req.Name))
		if err != nil {
			return fmt.Errorf("failed to check room name: %w", err)
		}

		if exist {
			return failure.Conflict("room " + req.Name + " already exists") // nolint:wrapcheck
		}
	}

	uploaded, err := media.Upload(ctx, s.s3, model.EntityName, req.Images)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload room images")

		return fmt.Errorf("failed to upload images: %w", err)
	}

	kept, removed := media.Without(current.Images, req.RemoveImages)

	updatedFields := shared.TransformFields(req, user)
	if len(uploaded) > 0 || len(removed) > 0 {
		updatedFields[model.FieldImages] = pq.StringArray(append(kept, uploaded...))
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update room")
		media.Remove(context.WithoutCancel(ctx), s.s3, uploaded)

		return fmt.Errorf("failed to update room: %w", err)
	}

	media.Remove(ctx, s.s3, removed)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetRoom, current.ID)); err != nil {
			log.Error().Err(err).Msg("failed to delete room cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllRoom)
		shared.InvalidateCaches(c, s.cache, cacheCountRoom)
	}()

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	room, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err = s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete room")

		return fmt.Errorf("failed to delete room: %w", err)
	}

	media.Remove(ctx, s.s3, room.Images)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetRoom, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete room from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllRoom)
		shared.InvalidateCaches(c, s.cache, cacheCountRoom)
	}()

	return nil
}
