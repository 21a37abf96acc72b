package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vzahanych/weather-rag-app/internal/config"
	"github.com/vzahanych/weather-rag-app/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	openMeteoDaily        = "temperature_2m_min,temperature_2m_max,relative_humidity_mean"
	openMeteoForecastDays = 7
)

type OpenMeteoService struct {
	baseURL      string
	geocodingURL string
	client       *http.Client
	params       map[string]string
	logger       *zap.Logger
	tele         *telemetry.Telemetry
}

type openMeteoGeocodingResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Timezone    string  `json:"timezone"`
		CountryCode string  `json:"country_code"`
	} `json:"results"`
}

type openMeteoForecastResponse struct {
	Daily *struct {
		Time                 []string   `json:"time"`
		TemperatureMin       []*float64 `json:"temperature_2m_min"`
		TemperatureMax       []*float64 `json:"temperature_2m_max"`
		RelativeHumidityMean []*float64 `json:"relative_humidity_mean"`
	} `json:"daily"`
}

func NewOpenMeteoServiceWithConfig(cfg config.WeatherServiceConfig, timeout time.Duration, logger *zap.Logger, tele *telemetry.Telemetry) *OpenMeteoService {
	return &OpenMeteoService{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		geocodingURL: strings.TrimRight(cfg.GeocodingURL, "/"),
		client:       newHTTPClient(timeout),
		params:       cfg.Params,
		logger:       logger,
		tele:         tele,
	}
}

func (s *OpenMeteoService) Name() string {
	return "open-meteo"
}

func (s *OpenMeteoService) ResolveLocation(ctx context.Context, postalCode, country string) (*Location, error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "open-meteo.ResolveLocation")
	defer span.End()

	postalCode = strings.TrimSpace(postalCode)
	span.SetAttributes(
		attribute.String("postal_code", postalCode),
		attribute.String("country", country),
	)

	u, err := url.Parse(s.geocodingURL + "/search")
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("name", postalCode)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")
	if country != "" {
		q.Set("country", country)
	}
	u.RawQuery = q.Encode()

	var result openMeteoGeocodingResponse
	if err := getJSON(ctx, s.client, s.Name(), "geocoding", u.String(), &result); err != nil {
		s.logger.Warn("Geocoding request failed",
			zap.String("postal_code", postalCode),
			zap.Error(err))
		s.tele.RecordError(ctx, err)
		return nil, fmt.Errorf("%w: %v", ErrLocationNotFound, err)
	}

	if len(result.Results) == 0 {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, fmt.Errorf("%w: no geocoding results for %q", ErrLocationNotFound, postalCode)
	}

	r := result.Results[0]
	loc := &Location{
		Name:        r.Name,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Timezone:    r.Timezone,
		CountryCode: r.CountryCode,
	}
	if loc.Name == "" {
		loc.Name = postalCode
	}
	if loc.Timezone == "" {
		loc.Timezone = "auto"
	}

	span.SetAttributes(
		attribute.Bool("found", true),
		attribute.String("location", loc.Name),
	)
	s.logger.Debug("Resolved postal code",
		zap.String("postal_code", postalCode),
		zap.String("location", loc.Name),
		zap.Float64("lat", loc.Latitude),
		zap.Float64("lon", loc.Longitude))

	return loc, nil
}

func (s *OpenMeteoService) FetchForecast(ctx context.Context, lat, lon float64, timezone string) (*Forecast, error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "open-meteo.FetchForecast")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
	)

	if timezone == "" {
		timezone = "auto"
	}

	u, err := url.Parse(s.baseURL + "/forecast")
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for key, value := range s.params {
		q.Set(key, value)
	}
	q.Set("latitude", fmt.Sprintf("%.6f", lat))
	q.Set("longitude", fmt.Sprintf("%.6f", lon))
	q.Set("timezone", timezone)
	q.Set("daily", openMeteoDaily)
	q.Set("forecast_days", fmt.Sprintf("%d", openMeteoForecastDays))
	u.RawQuery = q.Encode()

	var result openMeteoForecastResponse
	if err := getJSON(ctx, s.client, s.Name(), "forecast", u.String(), &result); err != nil {
		s.logger.Warn("Forecast request failed",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		s.tele.RecordError(ctx, err)
		return nil, fmt.Errorf("%w: %v", ErrForecastUnavailable, err)
	}

	if result.Daily == nil || result.Daily.TemperatureMin == nil || len(result.Daily.Time) == 0 {
		return nil, fmt.Errorf("%w: response has no daily data", ErrForecastUnavailable)
	}

	forecast := &Forecast{
		Time:                 result.Daily.Time,
		TemperatureMin:       result.Daily.TemperatureMin,
		TemperatureMax:       result.Daily.TemperatureMax,
		RelativeHumidityMean: result.Daily.RelativeHumidityMean,
	}

	span.SetAttributes(attribute.Int("days", forecast.Days()))

	return forecast, nil
}
