package expiry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodge/internal/domains/booking/expiry"
	"lodge/internal/lifecycle"
	"lodge/shared/timezone"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, timezone.GetLocation())
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		stay        expiry.Stay
		now         time.Time
		wantExpired bool
		wantElapsed int
	}{
		{
			name:        "default checkout time from dates range",
			stay:        expiry.Stay{Status: lifecycle.StatusCheckedIn, Dates: "01/01/2025 - 03/01/2025"},
			now:         at(2025, time.January, 3, 12, 0),
			wantExpired: true,
			wantElapsed: 60,
		},
		{
			name: "not yet due",
			stay: expiry.Stay{Status: lifecycle.StatusCheckedIn, Dates: "01/01/2025 - 03/01/2025"},
			now:  at(2025, time.January, 3, 10, 59),
		},
		{
			name: "exactly at checkout is not expired",
			stay: expiry.Stay{Status: lifecycle.StatusCheckedIn, Dates: "01/01/2025 - 03/01/2025"},
			now:  at(2025, time.January, 3, 11, 0),
		},
		{
			name: "explicit checkout wins over dates",
			stay: expiry.Stay{
				Status:   lifecycle.StatusCheckedIn,
				CheckOut: "2025-01-05",
				Dates:    "01/01/2025 - 03/01/2025",
			},
			now: at(2025, time.January, 3, 12, 0),
		},
		{
			name: "explicit checkout time",
			stay: expiry.Stay{
				Status:       lifecycle.StatusCheckedIn,
				CheckOut:     "2025-01-03",
				CheckOutTime: "09:30",
			},
			now:         at(2025, time.January, 3, 10, 0),
			wantExpired: true,
			wantElapsed: 30,
		},
		{
			name: "malformed checkout time falls back to 11:00",
			stay: expiry.Stay{
				Status:       lifecycle.StatusCheckedIn,
				CheckOut:     "2025-01-03",
				CheckOutTime: "9.30am",
			},
			now:         at(2025, time.January, 3, 11, 45),
			wantExpired: true,
			wantElapsed: 45,
		},
		{
			name: "unparseable explicit date falls back to dates",
			stay: expiry.Stay{
				Status:   lifecycle.StatusCheckedIn,
				CheckOut: "soon",
				Dates:    "01/01/2025 - 02/01/2025",
			},
			now:         at(2025, time.January, 2, 11, 1),
			wantExpired: true,
			wantElapsed: 1,
		},
		{
			name: "range end with month over 12 is rejected",
			stay: expiry.Stay{Status: lifecycle.StatusCheckedIn, Dates: "01/01/2025 - 03/13/2025"},
			now:  at(2026, time.January, 1, 0, 0),
		},
		{
			name: "range end year not after 2000 is rejected",
			stay: expiry.Stay{Status: lifecycle.StatusCheckedIn, Dates: "01/01/2000 - 03/01/2000"},
			now:  at(2025, time.January, 1, 0, 0),
		},
		{
			name: "nothing resolvable",
			stay: expiry.Stay{Status: lifecycle.StatusCheckedIn},
			now:  at(2025, time.January, 1, 0, 0),
		},
		{
			name:        "days overdue",
			stay:        expiry.Stay{Status: lifecycle.StatusCheckedIn, Dates: "01/01/2025 - 03/01/2025"},
			now:         at(2025, time.January, 4, 11, 0),
			wantExpired: true,
			wantElapsed: 24 * 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expiry.Evaluate(tt.stay, tt.now)

			assert.Equal(t, tt.wantExpired, got.Expired)

			if !tt.wantExpired {
				assert.Nil(t, got.ElapsedMinutes)

				return
			}

			require.NotNil(t, got.ElapsedMinutes)
			assert.Equal(t, tt.wantElapsed, *got.ElapsedMinutes)
		})
	}
}

func TestEvaluate_OnlyCheckedIn(t *testing.T) {
	now := at(2030, time.January, 1, 0, 0)

	for _, status := range lifecycle.Booking().Statuses() {
		if status == lifecycle.StatusCheckedIn {
			continue
		}

		t.Run(status.String(), func(t *testing.T) {
			got := expiry.Evaluate(expiry.Stay{Status: status, Dates: "01/01/2025 - 03/01/2025"}, now)

			assert.False(t, got.Expired)
			assert.Nil(t, got.ElapsedMinutes)
		})
	}
}

func TestCheckOutInstant(t *testing.T) {
	got, ok := expiry.CheckOutInstant(expiry.Stay{Dates: "01/01/2025 - 03/01/2025", CheckOutTime: "14:15"})

	require.True(t, ok)
	assert.Equal(t, at(2025, time.January, 3, 14, 15), got)

	_, ok = expiry.CheckOutInstant(expiry.Stay{Dates: "01/01/2025"})
	assert.False(t, ok)
}
