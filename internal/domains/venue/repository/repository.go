package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"lodge/infras/otel"
	"lodge/infras/postgres"
	"lodge/internal/domains/venue/model"
	gDto "lodge/shared/dto"
	gRepo "lodge/shared/repository"
)

type Venue interface {
	Insert(ctx context.Context, model model.Venue) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Venue, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Venue, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Venue]
}

func New(db *postgres.Connection, otel otel.Otel) Venue {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Venue](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

// FilterByReference matches a venue by id or by name.
func FilterByReference(ref string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorOr,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldID,
				Operator: gDto.FilterOperatorEq,
				Value:    ref,
				Table:    model.TableName,
			},
			gDto.Filter{
				Field:    model.FieldName,
				Operator: gDto.FilterOperatorEq,
				Value:    ref,
				Table:    model.TableName,
			},
		},
	}
}
