package dto_test

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"lodge/shared/constant"
	"lodge/shared/dto"
)

func TestFilterFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("status", "pending")
	values.Set("customer_name", "  ana ")
	values.Set("room_type", "")

	group := dto.FilterFromQuery(values, "bookings", map[string]string{
		"status":        dto.FilterOperatorEq,
		"customer_name": dto.FilterOperatorLike,
		"room_type":     dto.FilterOperatorLike,
	})

	where, args := group.GetWhereClause()

	assert.Equal(t, "(LOWER(bookings.customer_name) LIKE LOWER(:customer_name)  AND bookings.status = :status)", where)
	assert.Equal(t, map[string]any{"customer_name": "%ana%", "status": "pending"}, args)
}

func TestFilterFromQuery_Empty(t *testing.T) {
	group := dto.FilterFromQuery(url.Values{}, "rooms", map[string]string{"name": dto.FilterOperatorLike})

	where, args := group.GetWhereClause()

	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestFilter_GetWhereClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    dto.Filter
		wantWhere string
		wantArgs  map[string]any
	}{
		{
			name:      "in",
			filter:    dto.Filter{Field: "status", Operator: dto.FilterOperatorIn, Value: []string{"pending", "approved"}},
			wantWhere: "status IN (:status_0, :status_1) ",
			wantArgs:  map[string]any{"status_0": "pending", "status_1": "approved"},
		},
		{
			name:      "empty in matches nothing",
			filter:    dto.Filter{Field: "status", Operator: dto.FilterOperatorIn, Value: []string{}},
			wantWhere: "FALSE",
			wantArgs:  map[string]any{},
		},
		{
			name:      "named argument",
			filter:    dto.Filter{ArgName: "until", Field: "check_in", Operator: dto.FilterOperatorLessEq, Value: "2030-01-01", Table: "bookings"},
			wantWhere: "bookings.check_in <= :until",
			wantArgs:  map[string]any{"until": "2030-01-01"},
		},
		{
			name:      "is null",
			filter:    dto.Filter{Field: "read_at", Operator: dto.FilterIsNull},
			wantWhere: "read_at IS NULL",
			wantArgs:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.GetWhereClause()

			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestQueryParams_FromRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		params := dto.QueryParams{}
		params.FromRequest(httptest.NewRequest("GET", "/v1/bookings", nil), true)

		assert.Equal(t, dto.QueryParams{
			Page:    constant.DefaultValuePage,
			Limit:   constant.DefaultValueLimit,
			SortBy:  constant.DefaultValueSortBy,
			SortDir: constant.DefaultValueSortDir,
		}, params)
	})

	t.Run("explicit values", func(t *testing.T) {
		params := dto.QueryParams{}
		params.FromRequest(httptest.NewRequest("GET", "/v1/bookings?page=3&limit=500&sort_by=check_in&sort_dir=asc", nil), true)

		assert.Equal(t, dto.QueryParams{Page: 3, Limit: constant.MaxValueLimit, SortBy: "check_in", SortDir: dto.SortDirAsc}, params)
	})

	t.Run("unpaginated", func(t *testing.T) {
		params := dto.QueryParams{}
		params.FromRequest(httptest.NewRequest("GET", "/v1/bookings?page=x", nil), false)

		assert.Equal(t, dto.QueryParams{}, params)
	})
}
