package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Venue=MockVenueService

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"lodge/config"
	"lodge/infras/otel"
	"lodge/infras/s3"
	"lodge/internal/domains/venue/model"
	"lodge/internal/domains/venue/model/dto"
	"lodge/internal/domains/venue/repository"
	"lodge/shared"
	"lodge/shared/cache"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	"lodge/shared/media"
	"lodge/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetVenue    = "venue:get"
	cacheGetAllVenue = "venue:gets"
	cacheCountVenue  = "venue:count"
)

var ErrDeleteImages = errors.New("failed to delete images")

type Venue interface {
	Create(ctx context.Context, req dto.CreateVenueRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetVenuesResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.VenueResponse, error)
	Update(ctx context.Context, req dto.UpdateVenueRequest, id string) error
	Delete(ctx context.Context, id string) error
	UploadImage(ctx context.Context, req dto.UploadImageRequest) (dto.UploadImageResponse, error)
	DeleteImages(ctx context.Context, req dto.DeleteImagesRequest) error
}

type serviceImpl struct {
	repo  repository.Venue
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
	s3    s3.S3
}

func New(repo repository.Venue, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3) Venue {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
		s3:    s3,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateVenueRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	exist, err := s.repo.Exist(ctx, shared.FilterByField(model.FieldName, req.Name, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check venue name")

		return fmt.Errorf("failed to check venue name: %w", err)
	}

	if exist {
		return failure.Conflict("venue " + req.Name + " already exists") // nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, req.ToModel(user)); err != nil {
		log.Error().Err(err).Msg("failed to insert venue")

		return fmt.Errorf("failed to insert venue: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllVenue)
		shared.InvalidateCaches(c, s.cache, cacheCountVenue)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetVenuesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllVenue, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for venues")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, err
	}

	venues, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get venues")

		return res, fmt.Errorf("failed to get venues: %w", err)
	}

	res.FromModels(venues, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save venues to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (total int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountVenue, req, filter)

	err = s.cache.Get(ctx, cacheKey, &total)
	if err == nil {
		return total, nil
	}

	total, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count venues")

		return total, fmt.Errorf("failed to count venues: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, total, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save venue count to cache")
		}
	}()

	return total, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.VenueResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetVenue, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for venue")

		return res, nil
	}

	venue, err := s.find(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(venue)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save venue to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) find(ctx context.Context, id string) (model.Venue, error) {
	venue, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get venue")

		return venue, fmt.Errorf("failed to get venue: %w", err)
	}

	if venue.ID == constant.Empty {
		return venue, failure.NotFound("venue not found") // nolint:wrapcheck
	}

	return venue, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateVenueRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	current, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	fields := req.Fields()
	if len(fields) == 0 {
		return failure.BadRequestFromString("nothing to update") // nolint:wrapcheck
	}

	fields[constant.FieldModifiedAt] = timezone.Now()
	fields[constant.FieldModifiedBy] = user

	if err = s.repo.Update(ctx, fields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update venue")

		return fmt.Errorf("failed to update venue: %w", err)
	}

	if req.Images != nil {
		_, dropped := media.Without(current.Images, req.Images)
		media.Remove(ctx, s.s3, dropped)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetVenue, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete venue cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllVenue)
		shared.InvalidateCaches(c, s.cache, cacheCountVenue)
	}()

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	venue, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err = s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete venue")

		return fmt.Errorf("failed to delete venue: %w", err)
	}

	media.Remove(ctx, s.s3, venue.Images)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetVenue, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete venue cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllVenue)
		shared.InvalidateCaches(c, s.cache, cacheCountVenue)
	}()

	return nil
}

// UploadImage stores one image and returns its URL for use in a later
// create or update.
func (s *serviceImpl) UploadImage(ctx context.Context, req dto.UploadImageRequest) (res dto.UploadImageResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UploadImage")
	defer scope.End()
	defer scope.TraceIfError(err)

	urls, err := media.Upload(ctx, s.s3, model.EntityName, []*multipart.FileHeader{req.Image})
	if err != nil {
		log.Error().Err(err).Msg("failed to upload venue image")

		return res, fmt.Errorf("failed to upload image: %w", err)
	}

	res.URL = urls[0]
	res.FileName = req.Image.Filename

	return res, nil
}

func (s *serviceImpl) DeleteImages(ctx context.Context, req dto.DeleteImagesRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DeleteImages")
	defer scope.End()
	defer scope.TraceIfError(err)

	var failed int

	for _, url := range req.ImageURLs {
		if err := s.s3.Delete(ctx, url); err != nil {
			log.Error().Err(err).Str("url", url).Msg("failed to delete venue image")

			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrDeleteImages, failed, len(req.ImageURLs))
	}

	return nil
}
