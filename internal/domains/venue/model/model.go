package model

import (
	"strings"

	"lodge/shared/model"

	"github.com/lib/pq"
)

const (
	TableName  = "venues"
	EntityName = "venue"

	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldCapacity    = "capacity"
	FieldHours       = "hours"
	FieldPackages    = "packages"
	FieldImages      = "images"
	FieldActive      = "active"
)

// Capacity is the number of seats per room layout.
type Capacity struct {
	Theatre   int `json:"theatre"`
	Classroom int `json:"classroom"`
	UShape    int `json:"u_shape"`
	Boardroom int `json:"boardroom"`
}

// Largest is the seat count of the roomiest layout.
func (c Capacity) Largest() int {
	return max(c.Theatre, c.Classroom, c.UShape, c.Boardroom)
}

type Hours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Package is a priced offer for an event. PaymentURL points at an external
// checkout page when the venue sells the package online.
type Package struct {
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Duration   string `json:"duration"`
	PaymentURL string `json:"payment_url,omitempty"`
}

type Venue struct {
	ID          string                 `db:"id"`
	Name        string                 `db:"name"`
	Description string                 `db:"description"`
	Capacity    model.JSONB[Capacity]  `db:"capacity"`
	Hours       model.JSONB[Hours]     `db:"hours"`
	Packages    model.JSONB[[]Package] `db:"packages"`
	Images      pq.StringArray         `db:"images"`
	Active      bool                   `db:"active"`
	model.Metadata
}

// Package finds an offer by name, ignoring case.
func (v Venue) Package(name string) (Package, bool) {
	for _, pkg := range v.Packages.V {
		if strings.EqualFold(pkg.Name, strings.TrimSpace(name)) {
			return pkg, true
		}
	}

	return Package{}, false
}
