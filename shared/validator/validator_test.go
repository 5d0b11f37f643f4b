package validator_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodge/shared/failure"
	"lodge/shared/validator"
)

type stayRequest struct {
	Guest    string `json:"guest_name" validate:"required,max=20"`
	Date     string `json:"date"       validate:"required,bookingdate"`
	CheckOut string `json:"check_out"  validate:"omitempty,hhmm"`
}

type noteRequest struct {
	Note string `json:"note" validate:"omitempty,max=10"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "iso date", body: `{"guest_name":"Ana","date":"2030-01-05"}`},
		{name: "day first range", body: `{"guest_name":"Ana","date":"05/01/2030 - 07/01/2030","check_out":"11:00"}`},
		{name: "missing guest", body: `{"date":"2030-01-05"}`, wantErr: "guest_name is required"},
		{name: "range ends before it starts", body: `{"guest_name":"Ana","date":"2030-01-07 - 2030-01-05"}`, wantErr: "date must be a date (YYYY-MM-DD or DD/MM/YYYY) or a range of dates"},
		{name: "bad time of day", body: `{"guest_name":"Ana","date":"2030-01-05","check_out":"25:00"}`, wantErr: "check_out must be a time of day formatted as HH:MM"},
		{name: "malformed json", body: `{"guest_name":`, wantErr: "failed to decode request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := stayRequest{}

			err := validator.Validate(strings.NewReader(tt.body), &req)
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		})
	}
}

func TestValidateOptional(t *testing.T) {
	req := noteRequest{}
	assert.NoError(t, validator.ValidateOptional(strings.NewReader(""), &req))

	err := validator.ValidateOptional(strings.NewReader(`{"note":"far too long for this"}`), &req)
	assert.EqualError(t, err, "note must be at most 10")
}
