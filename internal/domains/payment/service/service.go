package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Payment=MockPaymentService

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"lodge/config"
	"lodge/infras/otel"
	"lodge/internal/domains/payment/model"
	"lodge/internal/domains/payment/model/dto"
	"lodge/internal/domains/payment/repository"
	"lodge/shared"
	"lodge/shared/cache"
	"lodge/shared/constant"
	"lodge/shared/datetime"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	"lodge/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetPayment    = "payment:get"
	cacheGetAllPayment = "payment:gets"
	cacheCountPayment  = "payment:count"
)

var csvHeader = []string{"Booking ID", "Amount", "Method", "Status", "Date"}

type Payment interface {
	Reconcile(ctx context.Context, tx *sqlx.Tx, req dto.ReconcileRequest) (model.Payment, error)
	RemoveFor(ctx context.Context, tx *sqlx.Tx, ids []string, paymentType model.Type) error
	Sweep(ctx context.Context, subjects []dto.Subject) (int, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetPaymentsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.PaymentResponse, error)
	Update(ctx context.Context, req dto.UpdatePaymentRequest, id string) error
	ExportCSV(ctx context.Context, writer io.Writer, filter gDto.FilterGroup) error
}

type serviceImpl struct {
	repo  repository.Payment
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Payment, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Payment {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

// Reconcile upserts the one payment of an entity. The lookup covers every id
// the entity is known by; an update rewrites BookingID to the canonical id.
func (s *serviceImpl) Reconcile(ctx context.Context, tx *sqlx.Tx, req dto.ReconcileRequest) (res model.Payment, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reconcile")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.EntityID == constant.Empty {
		return res, failure.BadRequestFromString("payment reconciliation requires an entity id") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	existing, err := s.repo.GetTx(ctx, tx, repository.FilterByEntity(req.IDs(), req.Type))
	if err != nil {
		log.Error().Err(err).Str("entity", req.EntityID).Msg("failed to look up payment")

		return res, fmt.Errorf("failed to look up payment: %w", err)
	}

	if existing.ID == constant.Empty {
		res = req.ToModel(user)

		if err = s.repo.InsertTx(ctx, tx, res); err != nil {
			if isUniqueViolation(err) {
				return res, failure.Conflict("a payment for this " + string(req.Type) + " already exists") // nolint:wrapcheck
			}

			log.Error().Err(err).Str("entity", req.EntityID).Msg("failed to create payment")

			return res, fmt.Errorf("failed to create payment: %w", err)
		}
	} else {
		res = req.Merge(existing, user)

		if err = s.repo.UpdateTx(ctx, tx, req.Fields(user), shared.FilterByID(existing.ID, model.FieldID, model.TableName)); err != nil {
			log.Error().Err(err).Str("payment", existing.ID).Msg("failed to update payment")

			return res, fmt.Errorf("failed to update payment: %w", err)
		}
	}

	s.invalidate(ctx, res.ID)

	return res, nil
}

func (s *serviceImpl) RemoveFor(ctx context.Context, tx *sqlx.Tx, ids []string, paymentType model.Type) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RemoveFor")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.repo.DeleteTx(ctx, tx, repository.FilterByEntity(ids, paymentType)); err != nil {
		log.Error().Err(err).Strs("ids", ids).Msg("failed to delete payment")

		return fmt.Errorf("failed to delete payment: %w", err)
	}

	s.invalidate(ctx, constant.Empty)

	return nil
}

// Sweep corrects payment status drift for the given subjects and reports how
// many records changed. Running it twice in a row changes nothing the second
// time.
func (s *serviceImpl) Sweep(ctx context.Context, subjects []dto.Subject) (changed int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Sweep")
	defer scope.End()
	defer scope.TraceIfError(err)

	payments, err := s.repo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to load payments for sweep")

		return 0, fmt.Errorf("failed to load payments: %w", err)
	}

	for _, correction := range PlanSweep(subjects, payments) {
		fields := map[string]any{
			model.FieldStatus:        correction.To,
			constant.FieldModifiedAt: timezone.Now(),
			constant.FieldModifiedBy: constant.ContextSystem,
		}

		if err = s.repo.Update(ctx, fields, shared.FilterByID(correction.PaymentID, model.FieldID, model.TableName)); err != nil {
			log.Error().Err(err).Str("payment", correction.PaymentID).Msg("failed to correct payment status")

			return changed, fmt.Errorf("failed to correct payment status: %w", err)
		}

		log.Info().
			Str("payment", correction.PaymentID).
			Str("from", correction.From.String()).
			Str("to", correction.To.String()).
			Msg("payment status corrected")

		changed++
	}

	if changed > 0 {
		s.invalidate(ctx, constant.Empty)
	}

	return changed, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetPaymentsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllPayment, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for payments")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, fmt.Errorf("failed to count payments: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get payments")

		return res, fmt.Errorf("failed to get payments: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save payments to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountPayment, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count payments")

		return res, fmt.Errorf("failed to count payments: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save payment count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.PaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetPayment, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	payment, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get payment")

		return res, fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.ID == constant.Empty {
		return res, failure.NotFound("payment not found") // nolint:wrapcheck
	}

	res.FromModel(payment)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save payment to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdatePaymentRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.IsEmpty() {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if payment exists")

		return fmt.Errorf("failed to check if payment exists: %w", err)
	}

	if !exist {
		return failure.NotFound("payment not found") // nolint:wrapcheck
	}

	if err = s.repo.Update(ctx, shared.TransformFields(req, user), filter); err != nil {
		log.Error().Err(err).Msg("failed to update payment")

		return fmt.Errorf("failed to update payment: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

// ExportCSV writes every payment matching filter as
// "Booking ID, Amount, Method, Status, Date" rows, newest first.
func (s *serviceImpl) ExportCSV(ctx context.Context, writer io.Writer, filter gDto.FilterGroup) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ExportCSV")
	defer scope.End()
	defer scope.TraceIfError(err)

	payments, err := s.repo.GetAll(ctx, gDto.QueryParams{SortBy: model.FieldDate, SortDir: gDto.SortDirDesc}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get payments for export")

		return fmt.Errorf("failed to get payments: %w", err)
	}

	w := csv.NewWriter(writer)

	if err = w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, payment := range payments {
		row := []string{
			payment.BookingID,
			strconv.FormatInt(payment.Amount, 10),
			payment.Method,
			payment.Status.String(),
			datetime.FormatDisplay(timezone.ToAppTime(payment.Date)),
		}

		if err = w.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()

	if err = w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if id != constant.Empty {
			if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetPayment, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete payment from cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllPayment)
		shared.InvalidateCaches(c, s.cache, cacheCountPayment)
	}()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeUniqueViolation
}
