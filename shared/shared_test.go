package shared_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"lodge/shared"
	"lodge/shared/cache/mocks"
	"lodge/shared/constant"
	"lodge/shared/dto"
)

func TestCalculateTotalPage(t *testing.T) {
	assert.Equal(t, 1, shared.CalculateTotalPage(0, 10))
	assert.Equal(t, 1, shared.CalculateTotalPage(5, 0))
	assert.Equal(t, 1, shared.CalculateTotalPage(10, 10))
	assert.Equal(t, 3, shared.CalculateTotalPage(21, 10))
}

func TestConvertStringToBool(t *testing.T) {
	assert.Nil(t, shared.ConvertStringToBool(""))
	assert.Nil(t, shared.ConvertStringToBool("maybe"))
	assert.True(t, *shared.ConvertStringToBool("true"))
	assert.False(t, *shared.ConvertStringToBool("0"))
}

func TestTransformFields(t *testing.T) {
	name := "Deluxe"

	fields := shared.TransformFields(struct {
		Name     *string `db:"name"`
		Capacity int     `db:"capacity"`
		Price    int64   `db:"price"`
		Ignored  string
	}{Name: &name, Capacity: 0, Price: 450000, Ignored: "x"}, "user-1")

	assert.Equal(t, "Deluxe", fields["name"])
	assert.Equal(t, int64(450000), fields["price"])
	assert.NotContains(t, fields, "capacity")
	assert.Equal(t, "user-1", fields[constant.FieldModifiedBy])
	assert.Contains(t, fields, constant.FieldModifiedAt)
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10}

	first := shared.BuildCacheKeyWithQuery("rooms", params, shared.FilterByField("type", "suite", "rooms"))
	same := shared.BuildCacheKeyWithQuery("rooms", params, shared.FilterByField("type", "suite", "rooms"))
	other := shared.BuildCacheKeyWithQuery("rooms", params, shared.FilterByField("type", "single", "rooms"))

	assert.Equal(t, first, same)
	assert.NotEqual(t, first, other)
	assert.Contains(t, first, "rooms:")
	assert.Equal(t, "limiter:10.0.0.1:curl", shared.BuildCacheKey("limiter", "10.0.0.1", "curl"))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "walk-in", shared.FirstNonEmpty("", "  ", " walk-in ", "online"))
	assert.Empty(t, shared.FirstNonEmpty("", " "))
}

func TestInvalidateCaches(t *testing.T) {
	store := mocks.NewMockRedisCache(gomock.NewController(t))

	store.EXPECT().Clear(gomock.Any(), "rooms*").Return(errors.New("redis down"))

	shared.InvalidateCaches(context.Background(), store, "rooms")
}
