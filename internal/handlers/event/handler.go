package event

import (
	"context"
	"net/http"

	"lodge/infras/otel"
	"lodge/internal/domains/event/model"
	"lodge/internal/domains/event/model/dto"
	"lodge/internal/domains/event/service"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/validator"
	"lodge/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Event
	otel    otel.Otel
}

func New(service service.Event, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/events", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateEvent)
		routerGroup.Get("/", handler.GetEvents)
		routerGroup.Get("/{id}", handler.GetEventByID)
		routerGroup.Post("/{id}/approve", handler.ApproveEvent)
		routerGroup.Post("/{id}/reject", handler.RejectEvent)
		routerGroup.Post("/{id}/unapprove", handler.UnapproveEvent)
		routerGroup.Delete("/{id}", handler.DeleteEvent)
	})
}

// CreateEvent handles a client's venue quote request.
// @Summary Submit an event request
// @Tags Event
// @Accept json
// @Produce json
// @Param request body dto.CreateEventRequest true "Create Event Request"
// @Success 201 {object} response.Data[dto.EventResponse]
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/events [post]
func (handler *Handler) CreateEvent(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateEvent")
	defer scope.End()

	req := dto.CreateEventRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	event, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create event")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Event submitted " + event.EventCode)

	response.WithJSON(writer, http.StatusCreated, event)
}

// GetEvents lists client events.
// @Summary Get all events
// @Tags Event
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status"
// @Param venue query string false "Filter by venue"
// @Param customer_name query string false "Filter by customer name"
// @Param event_type query string false "Filter by event type"
// @Success 200 {object} response.Data[dto.GetEventsResponse]
// @Failure 500 {object} response.Error
// @Router /v1/events [get]
// @Security BearerAuth
func (handler *Handler) GetEvents(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetEvents")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	filter := gDto.FilterFromQuery(request.URL.Query(), model.TableName, map[string]string{
		model.FieldStatus:       gDto.FilterOperatorEq,
		model.FieldVenue:        gDto.FilterOperatorLike,
		model.FieldCustomerName: gDto.FilterOperatorLike,
		model.FieldEventType:    gDto.FilterOperatorLike,
	})

	events, err := handler.service.GetAll(ctx, queryParams, filter)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get events")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, events)
}

// GetEventByID retrieves an event by record id or EVT code.
// @Summary Get an event
// @Tags Event
// @Produce json
// @Param id path string true "Event ID or event code"
// @Success 200 {object} response.Data[dto.EventResponse]
// @Failure 404 {object} response.Error
// @Router /v1/events/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetEventByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetEventByID")
	defer scope.End()

	event, err := handler.service.Get(ctx, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get event")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, event)
}

// ApproveEvent approves an event and records the event payment.
// @Summary Approve an event
// @Tags Event
// @Accept json
// @Produce json
// @Param id path string true "Event ID or event code"
// @Param request body dto.ApproveEventRequest false "Approval details"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/events/{id}/approve [post]
// @Security BearerAuth
func (handler *Handler) ApproveEvent(writer http.ResponseWriter, request *http.Request) {
	transition(handler, writer, request, "ApproveEvent", handler.service.Approve)
}

// RejectEvent rejects an event.
// @Summary Reject an event
// @Tags Event
// @Accept json
// @Produce json
// @Param id path string true "Event ID or event code"
// @Param request body dto.NoteRequest false "Note"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/events/{id}/reject [post]
// @Security BearerAuth
func (handler *Handler) RejectEvent(writer http.ResponseWriter, request *http.Request) {
	transition(handler, writer, request, "RejectEvent", handler.service.Reject)
}

// UnapproveEvent moves an approved event back to pending.
// @Summary Unapprove an event
// @Tags Event
// @Accept json
// @Produce json
// @Param id path string true "Event ID or event code"
// @Param request body dto.NoteRequest false "Note"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/events/{id}/unapprove [post]
// @Security BearerAuth
func (handler *Handler) UnapproveEvent(writer http.ResponseWriter, request *http.Request) {
	transition(handler, writer, request, "UnapproveEvent", handler.service.Unapprove)
}

// DeleteEvent deletes an event and its payment.
// @Summary Delete an event
// @Tags Event
// @Produce json
// @Param id path string true "Event ID or event code"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Router /v1/events/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteEvent(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteEvent")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(request, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete event")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Event deleted successfully")
}

func transition[T any](
	handler *Handler,
	writer http.ResponseWriter,
	request *http.Request,
	name string,
	apply func(ctx context.Context, ref string, req T) error,
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

	ref := chi.URLParam(request, constant.RequestParamID)

	if err := apply(ctx, ref, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("ref", ref).Str("action", name).Msg("failed to apply event transition")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent(name + " by user " + user)

	response.WithMessage(writer, http.StatusOK, "Event updated successfully")
}
