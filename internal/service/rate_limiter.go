package service

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a WeatherProvider with a token bucket shared by
// geocoding and forecast calls.
type RateLimitedProvider struct {
	provider WeatherProvider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider allows rps requests per second (fractional values are
// fine) with the given burst.
func NewRateLimitedProvider(provider WeatherProvider, rps float64, burst int) *RateLimitedProvider {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimitedProvider) ResolveLocation(ctx context.Context, postalCode, country string) (*Location, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait canceled: %v", ErrLocationNotFound, err)
	}
	return r.provider.ResolveLocation(ctx, postalCode, country)
}

func (r *RateLimitedProvider) FetchForecast(ctx context.Context, lat, lon float64, timezone string) (*Forecast, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait canceled: %v", ErrForecastUnavailable, err)
	}
	return r.provider.FetchForecast(ctx, lat, lon, timezone)
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}
