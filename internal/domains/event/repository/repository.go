package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"lodge/infras/otel"
	"lodge/infras/postgres"
	"lodge/internal/domains/event/model"
	"lodge/internal/lifecycle"
	gDto "lodge/shared/dto"
	gRepo "lodge/shared/repository"

	"github.com/jmoiron/sqlx"
)

type Event interface {
	Insert(ctx context.Context, model model.Event) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Event, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Event, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	UpdateTx(ctx context.Context, tx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, filter gDto.FilterGroup) error
	AppendHistory(ctx context.Context, id string, entries ...lifecycle.HistoryEntry) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Event]
}

func New(db *postgres.Connection, otel otel.Otel) Event {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Event](model.EntityName, model.TableName, model.FieldID, db, otel),
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

// FilterByReference matches an event by storage id or by event code.
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
				Field:    model.FieldEventCode,
				Operator: gDto.FilterOperatorEq,
				Value:    ref,
				Table:    model.TableName,
			},
		},
	}
}
