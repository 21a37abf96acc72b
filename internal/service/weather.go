package service

import (
	"context"
	"fmt"
	"strings"
)

// GetWeather resolves postalCode and fetches its forecast. On failure the
// returned error is a *LookupError and the location is returned when it was
// resolved before the forecast failed.
func GetWeather(ctx context.Context, provider WeatherProvider, postalCode, country string) (*Location, *Forecast, error) {
	postalCode = strings.TrimSpace(postalCode)

	loc, err := provider.ResolveLocation(ctx, postalCode, country)
	if err != nil || loc == nil {
		return nil, nil, &LookupError{
			Kind:    ErrLocationNotFound,
			Message: fmt.Sprintf("Could not find location for zipcode: %s", postalCode),
			Cause:   err,
		}
	}

	tz := loc.Timezone
	if tz == "" {
		tz = "auto"
	}

	forecast, err := provider.FetchForecast(ctx, loc.Latitude, loc.Longitude, tz)
	if err != nil || forecast.Days() == 0 {
		return loc, nil, &LookupError{
			Kind:    ErrForecastUnavailable,
			Message: "Could not fetch forecast for this location",
			Cause:   err,
		}
	}

	return loc, forecast, nil
}
