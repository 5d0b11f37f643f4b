package payment

import (
	"bytes"
	"fmt"
	"net/http"

	"lodge/infras/otel"
	"lodge/internal/domains/payment/model"
	"lodge/internal/domains/payment/model/dto"
	"lodge/internal/domains/payment/service"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/timezone"
	"lodge/shared/validator"
	"lodge/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const exportFileDateFormat = "20060102"

type Handler struct {
	service service.Payment
	otel    otel.Otel
}

func New(service service.Payment, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/payments", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetPayments)
		routerGroup.Get("/export", handler.ExportPayments)
		routerGroup.Get("/{id}", handler.GetPaymentByID)
		routerGroup.Patch("/{id}", handler.UpdatePayment)
	})
}

func filterFromRequest(request *http.Request) gDto.FilterGroup {
	return gDto.FilterFromQuery(request.URL.Query(), model.TableName, map[string]string{
		model.FieldBookingID: gDto.FilterOperatorEq,
		model.FieldType:      gDto.FilterOperatorEq,
		model.FieldStatus:    gDto.FilterOperatorEq,
		model.FieldMethod:    gDto.FilterOperatorEq,
	})
}

// GetPayments lists payments.
// @Summary Get all payments
// @Tags Payment
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param booking_id query string false "Filter by booking or event id"
// @Param type query string false "Filter by type (booking, event)"
// @Param status query string false "Filter by status"
// @Param method query string false "Filter by method"
// @Success 200 {object} response.Data[dto.GetPaymentsResponse]
// @Failure 500 {object} response.Error
// @Router /v1/payments [get]
// @Security BearerAuth
func (handler *Handler) GetPayments(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPayments")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	payments, err := handler.service.GetAll(ctx, queryParams, filterFromRequest(request))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get payments")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, payments)
}

// ExportPayments streams the filtered payments as CSV.
// @Summary Export payments
// @Tags Payment
// @Produce text/csv
// @Param booking_id query string false "Filter by booking or event id"
// @Param type query string false "Filter by type (booking, event)"
// @Param status query string false "Filter by status"
// @Success 200 {file} file
// @Failure 500 {object} response.Error
// @Router /v1/payments/export [get]
// @Security BearerAuth
func (handler *Handler) ExportPayments(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ExportPayments")
	defer scope.End()

	buffer := bytes.Buffer{}

	if err := handler.service.ExportCSV(ctx, &buffer, filterFromRequest(request)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to export payments")

		response.WithError(writer, err)

		return
	}

	response.WithAttachment(writer, fmt.Sprintf("payments-%s.csv", timezone.Now().Format(exportFileDateFormat)), constant.ContentTypeCSV, &buffer)
}

// GetPaymentByID retrieves a payment.
// @Summary Get a payment
// @Tags Payment
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Data[dto.PaymentResponse]
// @Failure 404 {object} response.Error
// @Router /v1/payments/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetPaymentByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPaymentByID")
	defer scope.End()

	payment, err := handler.service.Get(ctx, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get payment")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, payment)
}

// UpdatePayment corrects a payment's amount, method or status.
// @Summary Update a payment
// @Tags Payment
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param request body dto.UpdatePaymentRequest true "Update Payment Request"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/payments/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdatePayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdatePayment")
	defer scope.End()

	req := dto.UpdatePaymentRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Update(ctx, req, chi.URLParam(request, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update payment")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Payment updated by user " + user)

	response.WithMessage(writer, http.StatusOK, "Payment updated successfully")
}
