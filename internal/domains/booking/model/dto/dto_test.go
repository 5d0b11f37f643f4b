package dto_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodge/internal/domains/booking/model"
	"lodge/internal/domains/booking/model/dto"
	"lodge/internal/lifecycle"
	"lodge/shared/timezone"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, timezone.GetLocation())
}

func TestCreateBookingRequest_Normalize(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantIn      time.Time
		wantOut     time.Time
		wantOutTime string
		wantErr     bool
	}{
		{
			name:    "dates range",
			body:    `{"dates": "01/01/2030 - 03/01/2030"}`,
			wantIn:  date(2030, time.January, 1),
			wantOut: date(2030, time.January, 3),
		},
		{
			name:        "snake case fields",
			body:        `{"check_in": "2030-02-01", "check_out": "2030-02-05", "check_out_time": "09:00"}`,
			wantIn:      date(2030, time.February, 1),
			wantOut:     date(2030, time.February, 5),
			wantOutTime: "09:00",
		},
		{
			name:        "camel case aliases",
			body:        `{"checkIn": "2030-03-01", "checkoutDate": "2030-03-02", "checkoutTime": "10:30"}`,
			wantIn:      date(2030, time.March, 1),
			wantOut:     date(2030, time.March, 2),
			wantOutTime: "10:30",
		},
		{
			name:    "iso fields win over range",
			body:    `{"dates": "01/01/2030 - 03/01/2030", "check_in": "2030-04-01", "checkOut": "2030-04-03"}`,
			wantIn:  date(2030, time.April, 1),
			wantOut: date(2030, time.April, 3),
		},
		{
			name:    "half an iso pair falls back to range",
			body:    `{"dates": "01/01/2030 - 03/01/2030", "check_in": "2030-04-01"}`,
			wantIn:  date(2030, time.January, 1),
			wantOut: date(2030, time.January, 3),
		},
		{
			name:    "checkout before checkin",
			body:    `{"dates": "05/01/2030 - 03/01/2030"}`,
			wantErr: true,
		},
		{
			name:    "nothing usable",
			body:    `{"dates": "soon"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := dto.CreateBookingRequest{}
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			stay, err := req.Normalize()
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.True(t, tt.wantIn.Equal(stay.CheckIn))
			assert.True(t, tt.wantOut.Equal(stay.CheckOut))
			assert.Equal(t, tt.wantOutTime, stay.CheckOutTime)
		})
	}
}

func TestCreateBookingRequest_ToModel(t *testing.T) {
	req := dto.CreateBookingRequest{
		CustomerName: "Amina",
		RoomType:     "Deluxe",
		RoomCount:    2,
		Dates:        "10/01/2030 - 12/01/2030",
	}

	booking, rolled, err := req.ToModel("guest", date(2030, time.January, 1), true)
	require.NoError(t, err)
	assert.False(t, rolled)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, lifecycle.StatusPending, booking.Status)
	assert.Equal(t, "2030-01-10", booking.CheckIn)
	assert.Equal(t, "2030-01-12", booking.CheckOut)
	assert.Equal(t, 2, booking.RoomCount)
	assert.Equal(t, int64(0), booking.Amount)

	booking, rolled, err = req.ToModel("guest", date(2030, time.January, 20), true)
	require.NoError(t, err)
	assert.True(t, rolled)
	assert.Equal(t, "20/01/2030 - 22/01/2030", booking.Dates)

	booking, rolled, err = req.ToModel("guest", date(2030, time.January, 20), false)
	require.NoError(t, err)
	assert.False(t, rolled)
	assert.Equal(t, "10/01/2030 - 12/01/2030", booking.Dates)
}

func TestBookingResponse_FromModel(t *testing.T) {
	res := dto.BookingResponse{}
	res.FromModel(model.Booking{
		ID:     "bk-1",
		Dates:  "01/01/2030 - 01/01/2030",
		Status: lifecycle.StatusCheckedIn,
	})

	assert.Equal(t, 1, res.Nights)
	assert.Equal(t, "checked-in", res.Status)
	assert.Equal(t, []lifecycle.Action{lifecycle.ActionCheckOut, lifecycle.ActionCheckOutByMistake, lifecycle.ActionCancel}, res.Actions)
}
