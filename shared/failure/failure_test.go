package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"lodge/shared/failure"
)

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "bad request", err: failure.BadRequestFromString("bad date"), want: http.StatusBadRequest},
		{name: "wrapped not found", err: fmt.Errorf("failed to get room: %w", failure.NotFound("room not found")), want: http.StatusNotFound},
		{name: "conflict", err: failure.Conflict("cannot approve a cancelled booking"), want: http.StatusConflict},
		{name: "plain error", err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failure.GetCode(tt.err))
		})
	}
}

func TestBadRequest(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
	assert.EqualError(t, failure.BadRequest(errors.New("missing name")), "missing name")
}
