package dto

import (
	"mime/multipart"

	"lodge/internal/domains/venue/model"
	"lodge/shared"
	gDto "lodge/shared/dto"
	gModel "lodge/shared/model"
	"lodge/shared/timezone"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type CapacityRequest struct {
	Theatre   int `json:"theatre"   validate:"min=0"`
	Classroom int `json:"classroom" validate:"min=0"`
	UShape    int `json:"u_shape"   validate:"min=0"`
	Boardroom int `json:"boardroom" validate:"min=0"`
}

func (c CapacityRequest) toModel() model.Capacity {
	return model.Capacity{
		Theatre:   c.Theatre,
		Classroom: c.Classroom,
		UShape:    c.UShape,
		Boardroom: c.Boardroom,
	}
}

type HoursRequest struct {
	Open  string `json:"open"  validate:"omitempty,hhmm"`
	Close string `json:"close" validate:"omitempty,hhmm"`
}

type PackageRequest struct {
	Name       string `json:"name"        validate:"required,max=100"`
	Price      int64  `json:"price"       validate:"min=0"`
	Duration   string `json:"duration"    validate:"omitempty,max=50"`
	PaymentURL string `json:"payment_url" validate:"omitempty,url"`
}

func toPackages(reqs []PackageRequest) []model.Package {
	packages := make([]model.Package, len(reqs))
	for i, req := range reqs {
		packages[i] = model.Package(req)
	}

	return packages
}

type CreateVenueRequest struct {
	Name        string           `json:"name"        validate:"required,max=100"`
	Description string           `json:"description" validate:"omitempty,max=2000"`
	Capacity    CapacityRequest  `json:"capacity"`
	Hours       HoursRequest     `json:"hours"`
	Packages    []PackageRequest `json:"packages"    validate:"omitempty,dive"`
	Images      []string         `json:"images"      validate:"omitempty,max=10,dive,url"`
	Active      *bool            `json:"active"`
}

func (c *CreateVenueRequest) ToModel(user string) model.Venue {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Venue{
		ID:          uuid.NewString(),
		Name:        c.Name,
		Description: c.Description,
		Capacity:    gModel.NewJSONB(c.Capacity.toModel()),
		Hours:       gModel.NewJSONB(model.Hours(c.Hours)),
		Packages:    gModel.NewJSONB(toPackages(c.Packages)),
		Images:      pq.StringArray(c.Images),
		Active:      active,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// UpdateVenueRequest replaces whichever groups are present. Packages and
// images are replaced as whole lists.
type UpdateVenueRequest struct {
	Name        string           `json:"name"        validate:"omitempty,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Capacity    *CapacityRequest `json:"capacity"`
	Hours       *HoursRequest    `json:"hours"`
	Packages    []PackageRequest `json:"packages"    validate:"omitempty,dive"`
	Images      []string         `json:"images"      validate:"omitempty,max=10,dive,url"`
	Active      *bool            `json:"active"`
}

// Fields builds the column map for the update.
func (u *UpdateVenueRequest) Fields() map[string]any {
	fields := map[string]any{}

	if u.Name != "" {
		fields[model.FieldName] = u.Name
	}

	if u.Description != nil {
		fields[model.FieldDescription] = *u.Description
	}

	if u.Capacity != nil {
		fields[model.FieldCapacity] = gModel.NewJSONB(u.Capacity.toModel())
	}

	if u.Hours != nil {
		fields[model.FieldHours] = gModel.NewJSONB(model.Hours(*u.Hours))
	}

	if u.Packages != nil {
		fields[model.FieldPackages] = gModel.NewJSONB(toPackages(u.Packages))
	}

	if u.Images != nil {
		fields[model.FieldImages] = pq.StringArray(u.Images)
	}

	if u.Active != nil {
		fields[model.FieldActive] = *u.Active
	}

	return fields
}

type VenueResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Capacity    model.Capacity  `json:"capacity"`
	MaxGuests   int             `json:"max_guests"`
	Hours       model.Hours     `json:"hours"`
	Packages    []model.Package `json:"packages"`
	Images      []string        `json:"images"`
	Active      bool            `json:"active"`
	gDto.Metadata
}

func (r *VenueResponse) FromModel(venue model.Venue) {
	r.ID = venue.ID
	r.Name = venue.Name
	r.Description = venue.Description
	r.Capacity = venue.Capacity.V
	r.MaxGuests = venue.Capacity.V.Largest()
	r.Hours = venue.Hours.V
	r.Packages = venue.Packages.V
	r.Images = venue.Images
	r.Active = venue.Active
	r.Metadata.FromModel(venue.Metadata)

	if r.Packages == nil {
		r.Packages = []model.Package{}
	}

	if r.Images == nil {
		r.Images = []string{}
	}
}

type GetVenuesResponse struct {
	Venues    []VenueResponse `json:"venues"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetVenuesResponse) FromModels(models []model.Venue, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Venues = make([]VenueResponse, len(models))
	for i, m := range models {
		r.Venues[i].FromModel(m)
	}
}

type UploadImageRequest struct {
	Image *multipart.FileHeader `json:"image" swaggerignore:"true" validate:"required,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=2"`
}

type UploadImageResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

type DeleteImagesRequest struct {
	ImageURLs []string `json:"image_urls" validate:"required,min=1,dive,url"`
}
