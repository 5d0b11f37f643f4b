// Package timezone pins every wall-clock reading to the property's timezone
// (APP_TIMEZONE). Booking dates carry no zone of their own, so they are
// always interpreted here.
package timezone

import (
	"time"

	"lodge/config"

	"github.com/rs/zerolog/log"
)

var appLocation = time.UTC

func init() {
	appLocation = load(config.Get().App.Timezone)
}

// load falls back to UTC when name is empty or not an IANA zone.
func load(name string) *time.Location {
	if name == "" {
		log.Warn().Msg("No timezone configured, using UTC")

		return time.UTC
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Error().Err(err).Str("timezone", name).Msg("Unknown timezone, using UTC")

		return time.UTC
	}

	log.Info().Str("timezone", loc.String()).Msg("Application timezone initialized")

	return loc
}

func Now() time.Time {
	return time.Now().In(appLocation)
}

func ToAppTime(t time.Time) time.Time {
	return t.In(appLocation)
}

func GetLocation() *time.Location {
	return appLocation
}

// Format renders t on the property's wall clock.
func Format(t time.Time, layout string) string {
	return ToAppTime(t).Format(layout)
}
