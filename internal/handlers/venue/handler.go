package venue

import (
	"net/http"

	"lodge/infras/otel"
	"lodge/internal/domains/venue/model"
	"lodge/internal/domains/venue/model/dto"
	"lodge/internal/domains/venue/service"
	"lodge/shared"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	"lodge/shared/validator"
	"lodge/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const formImage = "image"

type Handler struct {
	service service.Venue
	otel    otel.Otel
}

func New(service service.Venue, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/venues", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateVenue)
		routerGroup.Get("/", handler.GetVenues)
		routerGroup.Post("/images", handler.UploadImage)
		routerGroup.Delete("/images", handler.DeleteImages)
		routerGroup.Get("/{id}", handler.GetVenueByID)
		routerGroup.Patch("/{id}", handler.UpdateVenue)
		routerGroup.Delete("/{id}", handler.DeleteVenue)
	})
}

// CreateVenue creates a venue with its capacities, hours and packages.
// @Summary Create a venue
// @Tags Venue
// @Accept json
// @Produce json
// @Param request body dto.CreateVenueRequest true "Create Venue Request"
// @Success 201 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/venues [post]
// @Security BearerAuth
func (handler *Handler) CreateVenue(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateVenue")
	defer scope.End()

	req := dto.CreateVenueRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create venue")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusCreated, "Venue created successfully")
}

// GetVenues lists venues.
// @Summary Get all venues
// @Tags Venue
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param name query string false "Filter by name"
// @Param active query boolean false "Filter by active status"
// @Success 200 {object} response.Data[dto.GetVenuesResponse]
// @Failure 500 {object} response.Error
// @Router /v1/venues [get]
func (handler *Handler) GetVenues(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetVenues")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	filterGroup := gDto.FilterFromQuery(request.URL.Query(), model.TableName, map[string]string{
		model.FieldName: gDto.FilterOperatorLike,
	})

	if active := shared.ConvertStringToBool(request.URL.Query().Get(model.FieldActive)); active != nil {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldActive,
			Operator: gDto.FilterOperatorEq,
			Value:    *active,
			Table:    model.TableName,
		})
	}

	venues, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get venues")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, venues)
}

// GetVenueByID retrieves a venue.
// @Summary Get a venue
// @Tags Venue
// @Produce json
// @Param id path string true "Venue ID"
// @Success 200 {object} response.Data[dto.VenueResponse]
// @Failure 404 {object} response.Error
// @Router /v1/venues/{id} [get]
func (handler *Handler) GetVenueByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetVenueByID")
	defer scope.End()

	venue, err := handler.service.Get(ctx, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get venue")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, venue)
}

// UpdateVenue updates a venue.
// @Summary Update a venue
// @Tags Venue
// @Accept json
// @Produce json
// @Param id path string true "Venue ID"
// @Param request body dto.UpdateVenueRequest true "Update Venue Request"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/venues/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateVenue(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateVenue")
	defer scope.End()

	req := dto.UpdateVenueRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Update(ctx, req, chi.URLParam(request, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update venue")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Venue updated successfully")
}

// DeleteVenue deletes a venue and its stored images.
// @Summary Delete a venue
// @Tags Venue
// @Produce json
// @Param id path string true "Venue ID"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Router /v1/venues/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteVenue(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteVenue")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(request, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete venue")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Venue deleted successfully by user " + user)

	response.WithMessage(writer, http.StatusOK, "Venue deleted successfully")
}

// UploadImage stores one venue image and returns its public URL.
// @Summary Upload a venue image
// @Tags Venue
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image"
// @Success 201 {object} response.Data[dto.UploadImageResponse]
// @Failure 400 {object} response.Error
// @Router /v1/venues/images [post]
// @Security BearerAuth
func (handler *Handler) UploadImage(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UploadImage")
	defer scope.End()

	req := dto.UploadImageRequest{}

	file, fileHeader, err := request.FormFile(formImage)
	if err != nil {
		err = failure.BadRequestFromString("image is required")
	} else {
		file.Close()

		req.Image = fileHeader
		err = validator.ValidateStruct(&req)
	}

	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(writer, err)

		return
	}

	uploaded, err := handler.service.UploadImage(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to upload venue image")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusCreated, uploaded)
}

// DeleteImages removes venue images from storage.
// @Summary Delete venue images
// @Tags Venue
// @Accept json
// @Produce json
// @Param request body dto.DeleteImagesRequest true "Image URLs"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Router /v1/venues/images [delete]
// @Security BearerAuth
func (handler *Handler) DeleteImages(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteImages")
	defer scope.End()

	req := dto.DeleteImagesRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.DeleteImages(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete venue images")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Images deleted successfully")
}
