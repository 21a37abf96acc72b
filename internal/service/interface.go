package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vzahanych/weather-rag-app/internal/config"
	"github.com/vzahanych/weather-rag-app/pkg/telemetry"
	"go.uber.org/zap"
)

// WeatherProvider resolves postal codes and fetches daily forecasts.
type WeatherProvider interface {
	ResolveLocation(ctx context.Context, postalCode, country string) (*Location, error)
	FetchForecast(ctx context.Context, lat, lon float64, timezone string) (*Forecast, error)
	Name() string
}

// NewProvider builds the provider selected by cfg.Provider, rate limited when
// cfg.RateLimit is positive.
func NewProvider(cfg config.WeatherConfig, logger *zap.Logger, tele *telemetry.Telemetry) (WeatherProvider, error) {
	svcCfg, ok := cfg.ActiveService()
	if !ok {
		return nil, fmt.Errorf("weather provider %q is not configured or disabled", cfg.Provider)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var provider WeatherProvider
	switch svcCfg.Type {
	case "open-meteo":
		provider = NewOpenMeteoServiceWithConfig(svcCfg, timeout, logger, tele)
	case "weather-api":
		if svcCfg.APIKey == "" {
			return nil, fmt.Errorf("weather provider %q requires an api_key", cfg.Provider)
		}
		provider = NewWeatherAPIServiceWithConfig(svcCfg, timeout, logger, tele)
	default:
		return nil, fmt.Errorf("unknown weather service type %q", svcCfg.Type)
	}

	if cfg.RateLimit > 0 {
		provider = NewRateLimitedProvider(provider, cfg.RateLimit, cfg.RateBurst)
	}

	logger.Info("Registered weather provider",
		zap.String("provider", provider.Name()),
		zap.Duration("timeout", timeout))

	return provider, nil
}
