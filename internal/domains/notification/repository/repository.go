package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"lodge/infras/otel"
	"lodge/infras/postgres"
	"lodge/internal/domains/notification/model"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	gRepo "lodge/shared/repository"
)

type Notification interface {
	Insert(ctx context.Context, model model.Notification) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Notification, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Notification, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Notification]
}

func New(db *postgres.Connection, otel otel.Otel) Notification {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Notification](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

// FilterInbox returns notifications addressed to role or to everyone.
// Superadmins see the whole inbox.
func FilterInbox(role string, unreadOnly bool) gDto.FilterGroup {
	filters := []any{}

	if role != constant.RoleSuperAdmin {
		filters = append(filters, gDto.Filter{
			Field:    model.FieldRole,
			Operator: gDto.FilterOperatorIn,
			Value:    []string{role, constant.Empty},
			Table:    model.TableName,
		})
	}

	if unreadOnly {
		filters = append(filters, gDto.Filter{
			Field:    model.FieldReadAt,
			Operator: gDto.FilterIsNull,
			Table:    model.TableName,
		})
	}

	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  filters,
	}
}
