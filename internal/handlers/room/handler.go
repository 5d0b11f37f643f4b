package room

import (
	"net/http"
	"strconv"
	"strings"

	"lodge/infras/otel"
	"lodge/internal/domains/room/model"
	"lodge/internal/domains/room/model/dto"
	"lodge/internal/domains/room/service"
	"lodge/shared"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	"lodge/shared/validator"
	"lodge/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	formImages       = "images"
	formRemoveImages = "remove_images"
)

type Handler struct {
	service service.Room
	otel    otel.Otel
}

func New(service service.Room, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/rooms", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateRoom)
		routerGroup.Get("/", handler.GetRooms)
		routerGroup.Get("/{id}", handler.GetRoomByID)
		routerGroup.Get("/{id}/availability", handler.GetRoomAvailability)
		routerGroup.Patch("/{id}", handler.UpdateRoom)
		routerGroup.Delete("/{id}", handler.DeleteRoom)
	})
}

// formList reads a repeated form field, also splitting comma separated values.
func formList(request *http.Request, key string) []string {
	var values []string

	for _, raw := range request.MultipartForm.Value[key] {
		for _, value := range strings.Split(raw, ",") {
			if value = strings.TrimSpace(value); value != "" {
				values = append(values, value)
			}
		}
	}

	return values
}

func formInt64(request *http.Request, key string) (*int64, error) {
	raw := request.FormValue(key)
	if raw == "" {
		return nil, nil //nolint:nilnil
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, failure.BadRequestFromString("invalid " + key) // nolint:wrapcheck
	}

	return &value, nil
}

func formInt(request *http.Request, key string) (*int, error) {
	raw := request.FormValue(key)
	if raw == "" {
		return nil, nil //nolint:nilnil
	}

	value, err := shared.ConvertStringToInt(raw)
	if err != nil {
		return nil, failure.BadRequestFromString("invalid " + key) // nolint:wrapcheck
	}

	return &value, nil
}

// CreateRoom handles the creation of a new room type.
// @Summary Create a new room
// @Description Create a room type with its nightly price, inventory and images.
// @Tags Room
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Room name"
// @Param description formData string false "Room description"
// @Param price formData integer true "Nightly price"
// @Param quantity formData integer true "Units of this room type"
// @Param capacity formData integer false "Guests per unit"
// @Param amenities formData []string false "Amenities"
// @Param active formData boolean false "Room active status"
// @Param images formData file false "Room images"
// @Success 201 {object} response.Message "Room created successfully"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms [post]
// @Security BearerAuth
func (handler *Handler) CreateRoom(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateRoom")
	defer scope.End()

	req, err := createRequest(request)
	if err == nil {
		err = validator.ValidateStruct(&req)
	}

	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create room")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Room created successfully by user " + user)

	response.WithMessage(writer, http.StatusCreated, "Room created successfully")
}

func createRequest(request *http.Request) (req dto.CreateRoomRequest, err error) {
	if err = request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		return req, failure.BadRequest(err) // nolint:wrapcheck
	}

	req = dto.CreateRoomRequest{
		Name:        request.FormValue(model.FieldName),
		Description: request.FormValue(model.FieldDescription),
		Amenities:   formList(request, model.FieldAmenities),
		Images:      request.MultipartForm.File[formImages],
		Active:      shared.ConvertStringToBool(request.FormValue(model.FieldActive)),
	}

	price, err := formInt64(request, model.FieldPrice)
	if err != nil {
		return req, err
	}

	if price != nil {
		req.Price = *price
	}

	quantity, err := formInt(request, model.FieldQuantity)
	if err != nil {
		return req, err
	}

	if quantity != nil {
		req.Quantity = *quantity
	}

	capacity, err := formInt(request, model.FieldCapacity)
	if err != nil {
		return req, err
	}

	if capacity != nil {
		req.Capacity = *capacity
	}

	return req, nil
}

// GetRooms retrieves all rooms based on query parameters.
// @Summary Get all rooms
// @Tags Room
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param name query string false "Filter by name"
// @Param active query boolean false "Filter by active status"
// @Success 200 {object} response.Data[dto.GetRoomsResponse] "List of rooms"
// @Failure 500 {object} response.Error
// @Router /v1/rooms [get]
func (handler *Handler) GetRooms(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRooms")
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

	rooms, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get rooms")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, rooms)
}

// GetRoomByID retrieves a room by its ID.
// @Summary Get a room by ID
// @Tags Room
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Data[dto.RoomResponse] "Room details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [get]
func (handler *Handler) GetRoomByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRoomByID")
	defer scope.End()

	room, err := handler.service.Get(ctx, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get room by ID")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, room)
}

// GetRoomAvailability answers how many units of a room are free for a stay.
// The answer is advisory; approving a booking does not consult it.
// @Summary Check room availability
// @Tags Room
// @Produce json
// @Param id path string true "Room ID"
// @Param check_in query string true "Check-in date (YYYY-MM-DD or DD/MM/YYYY)"
// @Param check_out query string true "Check-out date (YYYY-MM-DD or DD/MM/YYYY)"
// @Success 200 {object} response.Data[dto.AvailabilityResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/rooms/{id}/availability [get]
func (handler *Handler) GetRoomAvailability(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRoomAvailability")
	defer scope.End()

	req := dto.AvailabilityRequest{
		CheckIn:  request.URL.Query().Get("check_in"),
		CheckOut: request.URL.Query().Get("check_out"),
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(writer, err)

		return
	}

	availability, err := handler.service.Availability(ctx, chi.URLParam(request, constant.RequestParamID), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to compute room availability")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, availability)
}

// UpdateRoom updates an existing room by its ID.
// @Summary Update a room by ID
// @Tags Room
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Room ID"
// @Param name formData string false "Room name"
// @Param description formData string false "Room description"
// @Param price formData integer false "Nightly price"
// @Param quantity formData integer false "Units of this room type"
// @Param capacity formData integer false "Guests per unit"
// @Param amenities formData []string false "Amenities"
// @Param active formData boolean false "Room active status"
// @Param images formData file false "Images to add"
// @Param remove_images formData []string false "Image URLs to remove"
// @Success 200 {object} response.Message "Room updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateRoom(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateRoom")
	defer scope.End()

	req, err := updateRequest(request)
	if err == nil {
		err = validator.ValidateStruct(&req)
	}

	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Update(ctx, req, chi.URLParam(request, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update room")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Room updated successfully by user " + user)

	response.WithMessage(writer, http.StatusOK, "Room updated successfully")
}

func updateRequest(request *http.Request) (req dto.UpdateRoomRequest, err error) {
	if err = request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		return req, failure.BadRequest(err) // nolint:wrapcheck
	}

	req = dto.UpdateRoomRequest{
		Name:         request.FormValue(model.FieldName),
		Images:       request.MultipartForm.File[formImages],
		RemoveImages: formList(request, formRemoveImages),
		Active:       shared.ConvertStringToBool(request.FormValue(model.FieldActive)),
	}

	if _, ok := request.MultipartForm.Value[model.FieldDescription]; ok {
		description := request.FormValue(model.FieldDescription)
		req.Description = &description
	}

	if _, ok := request.MultipartForm.Value[model.FieldAmenities]; ok {
		req.Amenities = formList(request, model.FieldAmenities)
	}

	if req.Price, err = formInt64(request, model.FieldPrice); err != nil {
		return req, err
	}

	if req.Quantity, err = formInt(request, model.FieldQuantity); err != nil {
		return req, err
	}

	if req.Capacity, err = formInt(request, model.FieldCapacity); err != nil {
		return req, err
	}

	return req, nil
}

// DeleteRoom deletes a room by its ID.
// @Summary Delete a room by ID
// @Tags Room
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Message "Room deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteRoom(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteRoom")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(request, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete room")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Room deleted successfully by user " + user)

	response.WithMessage(writer, http.StatusOK, "Room deleted successfully")
}
