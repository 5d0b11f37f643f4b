package dto

import (
	"mime/multipart"

	"lodge/internal/domains/room/model"
	"lodge/shared"
	gDto "lodge/shared/dto"
	gModel "lodge/shared/model"
	"lodge/shared/timezone"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type CreateRoomRequest struct {
	Name        string                  `json:"name"        validate:"required,max=100"`
	Description string                  `json:"description" validate:"omitempty,max=2000"`
	Price       int64                   `json:"price"       validate:"min=0"`
	Quantity    int                     `json:"quantity"    validate:"min=0"`
	Capacity    int                     `json:"capacity"    validate:"omitempty,min=0"`
	Amenities   []string                `json:"amenities"   validate:"omitempty,dive,max=100"`
	Images      []*multipart.FileHeader `json:"-"           validate:"omitempty,max=10,dive,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=2"`
	Active      *bool                   `json:"active"      validate:"omitempty"`
}

func (c *CreateRoomRequest) ToModel(user string, images []string) model.Room {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Room{
		ID:          uuid.NewString(),
		Name:        c.Name,
		Description: c.Description,
		Price:       c.Price,
		Quantity:    c.Quantity,
		Capacity:    c.Capacity,
		Amenities:   pq.StringArray(c.Amenities),
		Images:      pq.StringArray(images),
		Active:      active,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// UpdateRoomRequest patches a room. New images are appended; RemoveImages
// lists existing URLs to drop.
type UpdateRoomRequest struct {
	Name         string                  `db:"name"        json:"name"          validate:"omitempty,max=100"`
	Description  *string                 `db:"description" json:"description"   validate:"omitempty,max=2000"`
	Price        *int64                  `db:"price"       json:"price"         validate:"omitempty,min=0"`
	Quantity     *int                    `db:"quantity"    json:"quantity"      validate:"omitempty,min=0"`
	Capacity     *int                    `db:"capacity"    json:"capacity"      validate:"omitempty,min=0"`
	Amenities    pq.StringArray          `db:"amenities"   json:"amenities"     validate:"omitempty,dive,max=100"`
	Active       *bool                   `db:"active"      json:"active"        validate:"omitempty"`
	Images       []*multipart.FileHeader `json:"-"         validate:"omitempty,max=10,dive,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=2"`
	RemoveImages []string                `json:"remove_images" validate:"omitempty,dive,url"`
}

type RoomResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Quantity    int      `json:"quantity"`
	Capacity    int      `json:"capacity"`
	Amenities   []string `json:"amenities"`
	Images      []string `json:"images"`
	Active      bool     `json:"active"`
	gDto.Metadata
}

func (r *RoomResponse) FromModel(model model.Room) {
	r.ID = model.ID
	r.Name = model.Name
	r.Description = model.Description
	r.Price = model.Price
	r.Quantity = model.Quantity
	r.Capacity = model.Capacity
	r.Amenities = nonNil(model.Amenities)
	r.Images = nonNil(model.Images)
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}

type GetRoomsResponse struct {
	Rooms     []RoomResponse `json:"rooms"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetRoomsResponse) FromModels(models []model.Room, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Rooms = make([]RoomResponse, len(models))
	for i, mod := range models {
		r.Rooms[i].FromModel(mod)
	}
}

// AvailabilityRequest takes check_in and check_out as ISO or DD/MM/YYYY dates.
type AvailabilityRequest struct {
	CheckIn  string `json:"check_in"  validate:"required,bookingdate"`
	CheckOut string `json:"check_out" validate:"required,bookingdate"`
}

type AvailabilityResponse struct {
	RoomID    string `json:"room_id"`
	Room      string `json:"room"`
	Quantity  int    `json:"quantity"`
	Available int    `json:"available"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Nights    int    `json:"nights"`
	Total     int64  `json:"total"`
}
