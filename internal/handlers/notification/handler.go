package notification

import (
	"net/http"

	"lodge/infras/otel"
	"lodge/internal/domains/notification/model/dto"
	"lodge/internal/domains/notification/repository"
	"lodge/internal/domains/notification/service"
	"lodge/shared"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/validator"
	"lodge/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const queryUnread = "unread"

type Handler struct {
	service service.Notification
	otel    otel.Otel
}

func New(service service.Notification, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/notifications", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetNotifications)
		routerGroup.Get("/badge", handler.GetBadge)
		routerGroup.Post("/{id}/read", handler.MarkRead)
	})

	router.Post("/push/send", handler.SendPush)
}

// GetNotifications lists the caller's inbox: pushes for their role plus
// broadcasts.
// @Summary Get notifications
// @Tags Notification
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param unread query boolean false "Only unread notifications"
// @Success 200 {object} response.Data[dto.GetNotificationsResponse]
// @Failure 500 {object} response.Error
// @Router /v1/notifications [get]
// @Security BearerAuth
func (handler *Handler) GetNotifications(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetNotifications")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	unread := shared.ConvertStringToBool(request.URL.Query().Get(queryUnread))

	notifications, err := handler.service.GetAll(ctx, queryParams, repository.FilterInbox(role, unread != nil && *unread))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get notifications")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, notifications)
}

// GetBadge returns the dashboard counters.
// @Summary Notification badge
// @Tags Notification
// @Produce json
// @Success 200 {object} response.Data[dto.BadgeResponse]
// @Failure 500 {object} response.Error
// @Router /v1/notifications/badge [get]
// @Security BearerAuth
func (handler *Handler) GetBadge(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBadge")
	defer scope.End()

	badge, err := handler.service.Badge(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get badge")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, badge)
}

// MarkRead marks a notification as read.
// @Summary Mark a notification read
// @Tags Notification
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Router /v1/notifications/{id}/read [post]
// @Security BearerAuth
func (handler *Handler) MarkRead(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".MarkRead")
	defer scope.End()

	if err := handler.service.MarkRead(ctx, chi.URLParam(request, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to mark notification read")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Notification marked as read")
}

// SendPush publishes a manual push notification. An empty role broadcasts
// to every dashboard user.
// @Summary Send a push notification
// @Tags Notification
// @Accept json
// @Produce json
// @Param request body dto.SendPushRequest true "Push"
// @Success 202 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/push/send [post]
// @Security BearerAuth
func (handler *Handler) SendPush(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SendPush")
	defer scope.End()

	req := dto.SendPushRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Send(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to send push notification")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Push sent by user " + user)

	response.WithMessage(writer, http.StatusAccepted, "Notification sent")
}
