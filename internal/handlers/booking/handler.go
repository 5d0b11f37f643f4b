package booking

import (
	"context"
	"net/http"

	"lodge/infras/otel"
	"lodge/internal/domains/booking/model"
	"lodge/internal/domains/booking/model/dto"
	"lodge/internal/domains/booking/service"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/timezone"
	"lodge/shared/validator"
	"lodge/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/", handler.GetBookings)
		routerGroup.Get("/expired", handler.GetExpiredBookings)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Post("/{id}/approve", handler.ApproveBooking)
		routerGroup.Post("/{id}/reject", handler.RejectBooking)
		routerGroup.Post("/{id}/check-in", handler.CheckInBooking)
		routerGroup.Post("/{id}/check-out", handler.CheckOutBooking)
		routerGroup.Post("/{id}/cancel", handler.CancelBooking)
		routerGroup.Delete("/{id}", handler.DeleteBooking)
	})
}

// CreateBooking handles a guest's booking submission.
// @Summary Submit a booking
// @Description Submit a room booking. It starts pending; stays in the past are moved to start today.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse]
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Booking submitted " + booking.ID)

	response.WithJSON(writer, http.StatusCreated, booking)
}

// GetBookings lists bookings.
// @Summary Get all bookings
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status"
// @Param customer_name query string false "Filter by customer name"
// @Param customer_email query string false "Filter by customer email"
// @Param room_type query string false "Filter by room type"
// @Success 200 {object} response.Data[dto.GetBookingsResponse]
// @Failure 500 {object} response.Error
// @Router /v1/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	filter := gDto.FilterFromQuery(request.URL.Query(), model.TableName, map[string]string{
		model.FieldStatus:        gDto.FilterOperatorEq,
		model.FieldCustomerName:  gDto.FilterOperatorLike,
		model.FieldCustomerEmail: gDto.FilterOperatorLike,
		model.FieldRoomType:      gDto.FilterOperatorLike,
	})

	bookings, err := handler.service.GetAll(ctx, queryParams, filter)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, bookings)
}

// GetExpiredBookings lists checked-in bookings past their checkout instant.
// @Summary Get expired check-ins
// @Tags Booking
// @Produce json
// @Success 200 {object} response.Data[[]dto.ExpiredBookingResponse]
// @Failure 500 {object} response.Error
// @Router /v1/bookings/expired [get]
// @Security BearerAuth
func (handler *Handler) GetExpiredBookings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetExpiredBookings")
	defer scope.End()

	expired, err := handler.service.Expired(ctx, timezone.Now())
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get expired bookings")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, expired)
}

// GetBookingByID retrieves a booking.
// @Summary Get a booking by ID
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	booking, err := handler.service.Get(ctx, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking by ID")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, booking)
}

// ApproveBooking approves a booking and records its pending payment.
// @Summary Approve a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.ApproveBookingRequest false "Approval details"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/bookings/{id}/approve [post]
// @Security BearerAuth
func (handler *Handler) ApproveBooking(writer http.ResponseWriter, request *http.Request) {
	transition(handler, writer, request, "ApproveBooking", handler.service.Approve)
}

// RejectBooking rejects a booking.
// @Summary Reject a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.NoteRequest false "Note"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/bookings/{id}/reject [post]
// @Security BearerAuth
func (handler *Handler) RejectBooking(writer http.ResponseWriter, request *http.Request) {
	transition(handler, writer, request, "RejectBooking", handler.service.Reject)
}

// CheckInBooking checks the guest in and completes the room payment.
// @Summary Check a booking in
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.CheckInRequest false "Check-in details"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/bookings/{id}/check-in [post]
// @Security BearerAuth
func (handler *Handler) CheckInBooking(writer http.ResponseWriter, request *http.Request) {
	transition(handler, writer, request, "CheckInBooking", handler.service.CheckIn)
}

// CheckOutBooking checks the guest out. With mistake set the check-in is
// undone and the payment reset.
// @Summary Check a booking out
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.CheckOutRequest false "Check-out details"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/bookings/{id}/check-out [post]
// @Security BearerAuth
func (handler *Handler) CheckOutBooking(writer http.ResponseWriter, request *http.Request) {
	transition(handler, writer, request, "CheckOutBooking", handler.service.CheckOut)
}

// CancelBooking cancels a booking.
// @Summary Cancel a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.NoteRequest false "Note"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/bookings/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelBooking(writer http.ResponseWriter, request *http.Request) {
	transition(handler, writer, request, "CancelBooking", handler.service.Cancel)
}

// DeleteBooking deletes a booking together with its room payment.
// @Summary Delete a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteBooking")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(request, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete booking")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking deleted by user " + user)

	response.WithMessage(writer, http.StatusOK, "Booking deleted successfully")
}

func transition[T any](
	handler *Handler,
	writer http.ResponseWriter,
	request *http.Request,
	name string,
	apply func(ctx context.Context, id string, req T) error,
) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+"."+name)
	defer scope.End()

	var req T

	if err := validator.ValidateOptional(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	id := chi.URLParam(request, constant.RequestParamID)

	if err := apply(ctx, id, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("id", id).Str("action", name).Msg("failed to apply booking transition")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent(name + " by user " + user)

	response.WithMessage(writer, http.StatusOK, "Booking updated successfully")
}
