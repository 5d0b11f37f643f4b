package dto

import (
	"net/http"
	"strconv"
	"strings"

	"lodge/shared/constant"
)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

type QueryParams struct {
	Page    int    `json:"page"     validate:"omitempty"`
	Limit   int    `json:"limit"    validate:"omitempty"`
	SortBy  string `json:"sort_by"  validate:"omitempty"`
	SortDir string `json:"sort_dir" validate:"omitempty,oneof=ASC DESC"`
}

// FromRequest reads page, limit, sort_by and sort_dir. Invalid values are
// ignored. With paginate set, missing values fall back to the first page of
// DefaultValueLimit rows sorted newest first, and limit is capped at
// MaxValueLimit; without it an absent limit means every row.
func (q *QueryParams) FromRequest(r *http.Request, paginate bool) {
	values := r.URL.Query()

	q.Page = positiveInt(values.Get(constant.RequestParamPage))
	q.Limit = positiveInt(values.Get(constant.RequestParamLimit))
	q.SortBy = strings.TrimSpace(values.Get(constant.RequestParamSortBy))

	if dir := strings.ToUpper(values.Get(constant.RequestParamSortDir)); dir == SortDirAsc || dir == SortDirDesc {
		q.SortDir = dir
	}

	if !paginate {
		return
	}

	if q.Page == 0 {
		q.Page = constant.DefaultValuePage
	}

	if q.Limit == 0 {
		q.Limit = constant.DefaultValueLimit
	}

	q.Limit = min(q.Limit, constant.MaxValueLimit)

	if q.SortBy == "" {
		q.SortBy = constant.DefaultValueSortBy
		q.SortDir = constant.DefaultValueSortDir
	} else if q.SortDir == "" {
		q.SortDir = SortDirAsc
	}
}

func positiveInt(value string) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0
	}

	return parsed
}
