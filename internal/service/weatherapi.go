package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vzahanych/weather-rag-app/internal/config"
	"github.com/vzahanych/weather-rag-app/pkg/telemetry"
	"go.uber.org/zap"
)

// WeatherAPIService talks to weatherapi.com, which needs an API key but
// resolves postal codes of several countries natively.
type WeatherAPIService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	params  map[string]string
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

type weatherAPISearchResult struct {
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type weatherAPIForecastResponse struct {
	Forecast *struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC    *float64 `json:"maxtemp_c"`
				MinTempC    *float64 `json:"mintemp_c"`
				AvgHumidity *float64 `json:"avghumidity"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func NewWeatherAPIServiceWithConfig(cfg config.WeatherServiceConfig, timeout time.Duration, logger *zap.Logger, tele *telemetry.Telemetry) *WeatherAPIService {
	return &WeatherAPIService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  newHTTPClient(timeout),
		params:  cfg.Params,
		logger:  logger,
		tele:    tele,
	}
}

func (s *WeatherAPIService) Name() string {
	return "weather-api"
}

func (s *WeatherAPIService) ResolveLocation(ctx context.Context, postalCode, country string) (*Location, error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "weather-api.ResolveLocation")
	defer span.End()

	postalCode = strings.TrimSpace(postalCode)
	span.SetAttributes(
		attribute.String("postal_code", postalCode),
		attribute.String("country", country),
	)

	u, err := url.Parse(s.baseURL + "/search.json")
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for key, value := range s.params {
		q.Set(key, value)
	}
	q.Set("key", s.apiKey)
	q.Set("q", postalCode)
	u.RawQuery = q.Encode()

	var results []weatherAPISearchResult
	if err := getJSON(ctx, s.client, s.Name(), "search", u.String(), &results); err != nil {
		s.logger.Warn("WeatherAPI search failed",
			zap.String("postal_code", postalCode),
			zap.Error(err))
		s.tele.RecordError(ctx, err)
		return nil, fmt.Errorf("%w: %v", ErrLocationNotFound, err)
	}

	if len(results) == 0 {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, fmt.Errorf("%w: no search results for %q", ErrLocationNotFound, postalCode)
	}

	r := results[0]
	name := r.Name
	if name == "" {
		name = postalCode
	}

	span.SetAttributes(attribute.Bool("found", true))

	// search.json reports neither a timezone nor an ISO country code.
	return &Location{
		Name:        name,
		Latitude:    r.Lat,
		Longitude:   r.Lon,
		Timezone:    "auto",
		CountryCode: strings.ToUpper(country),
	}, nil
}

func (s *WeatherAPIService) FetchForecast(ctx context.Context, lat, lon float64, timezone string) (*Forecast, error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "weather-api.FetchForecast")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
	)

	u, err := url.Parse(s.baseURL + "/forecast.json")
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for key, value := range s.params {
		q.Set(key, value)
	}
	q.Set("key", s.apiKey)
	q.Set("q", fmt.Sprintf("%.6f,%.6f", lat, lon))
	q.Set("days", "7")
	u.RawQuery = q.Encode()

	var result weatherAPIForecastResponse
	if err := getJSON(ctx, s.client, s.Name(), "forecast", u.String(), &result); err != nil {
		s.logger.Warn("WeatherAPI forecast failed",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		s.tele.RecordError(ctx, err)
		return nil, fmt.Errorf("%w: %v", ErrForecastUnavailable, err)
	}

	if result.Forecast == nil || len(result.Forecast.ForecastDay) == 0 {
		return nil, fmt.Errorf("%w: response has no forecast days", ErrForecastUnavailable)
	}

	days := result.Forecast.ForecastDay
	forecast := &Forecast{
		Time:                 make([]string, len(days)),
		TemperatureMin:       make([]*float64, len(days)),
		TemperatureMax:       make([]*float64, len(days)),
		RelativeHumidityMean: make([]*float64, len(days)),
	}
	for i, d := range days {
		forecast.Time[i] = d.Date
		forecast.TemperatureMin[i] = d.Day.MinTempC
		forecast.TemperatureMax[i] = d.Day.MaxTempC
		forecast.RelativeHumidityMean[i] = d.Day.AvgHumidity
	}

	span.SetAttributes(attribute.Int("days", forecast.Days()))
	s.logger.Debug("WeatherAPI forecast completed",
		zap.Int("days_fetched", forecast.Days()),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon))

	return forecast, nil
}
