package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"lodge/infras/otel"
	"lodge/infras/postgres"
	"lodge/internal/domains/booking/model"
	"lodge/internal/lifecycle"
	gDto "lodge/shared/dto"
	gRepo "lodge/shared/repository"

	"github.com/jmoiron/sqlx"
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetTx(ctx context.Context, tx *sqlx.Tx, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, filter gDto.FilterGroup) error
	AppendHistory(ctx context.Context, id string, entries ...lifecycle.HistoryEntry) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

func (r *repositoryImpl) AppendHistory(ctx context.Context, id string, entries ...lifecycle.HistoryEntry) error {
	for _, entry := range entries {
		if err := r.AppendJSON(ctx, model.FieldStatusHistory, id, entry); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}

// FilterByRoomType matches bookings of a room type that still hold
// inventory, i.e. anything not cancelled or rejected.
func FilterByRoomType(roomType string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldRoomType,
				Operator: gDto.FilterOperatorEq,
				Value:    roomType,
				Table:    model.TableName,
			},
			gDto.Filter{
				Field:    model.FieldStatus,
				Operator: gDto.FilterOperatorNotIn,
				Value:    []lifecycle.Status{lifecycle.StatusCancelled, lifecycle.StatusRejected},
				Table:    model.TableName,
			},
		},
	}
}
