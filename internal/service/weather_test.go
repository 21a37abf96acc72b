package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-rag-app/internal/config"
	"go.uber.org/zap/zaptest"
)

type stubProvider struct {
	loc         *Location
	locErr      error
	forecast    *Forecast
	forecastErr error

	resolveCalls  int
	forecastCalls int
	gotTimezone   string
}

func (s *stubProvider) ResolveLocation(ctx context.Context, postalCode, country string) (*Location, error) {
	s.resolveCalls++
	return s.loc, s.locErr
}

func (s *stubProvider) FetchForecast(ctx context.Context, lat, lon float64, timezone string) (*Forecast, error) {
	s.forecastCalls++
	s.gotTimezone = timezone
	return s.forecast, s.forecastErr
}

func (s *stubProvider) Name() string { return "stub" }

func TestGetWeatherSuccess(t *testing.T) {
	p := &stubProvider{
		loc: &Location{Name: "Beverly Hills", Latitude: 34.09, Longitude: -118.4},
		forecast: &Forecast{
			Time:           []string{"2024-06-01"},
			TemperatureMin: Floats(10),
		},
	}

	loc, fc, err := GetWeather(context.Background(), p, "90210", "US")
	require.NoError(t, err)
	assert.Equal(t, "Beverly Hills", loc.Name)
	assert.Equal(t, 1, fc.Days())
	assert.Equal(t, "auto", p.gotTimezone)
}

func TestGetWeatherLocationNotFound(t *testing.T) {
	p := &stubProvider{locErr: ErrLocationNotFound}

	loc, fc, err := GetWeather(context.Background(), p, " 00000 ", "US")
	assert.Nil(t, loc)
	assert.Nil(t, fc)
	require.Error(t, err)
	assert.Equal(t, "Could not find location for zipcode: 00000", err.Error())
	assert.True(t, errors.Is(err, ErrLocationNotFound))
	assert.Equal(t, 0, p.forecastCalls, "forecast must not be fetched without a location")

	var lookupErr *LookupError
	assert.True(t, errors.As(err, &lookupErr))
}

func TestGetWeatherForecastUnavailable(t *testing.T) {
	tests := []struct {
		name string
		p    *stubProvider
	}{
		{
			name: "provider error",
			p: &stubProvider{
				loc:         &Location{Name: "Somewhere"},
				forecastErr: errors.New("boom"),
			},
		},
		{
			name: "empty forecast",
			p: &stubProvider{
				loc:      &Location{Name: "Somewhere"},
				forecast: &Forecast{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, fc, err := GetWeather(context.Background(), tt.p, "12345", "US")
			require.NotNil(t, loc)
			assert.Equal(t, "Somewhere", loc.Name)
			assert.Nil(t, fc)
			assert.Equal(t, "Could not fetch forecast for this location", err.Error())
			assert.True(t, errors.Is(err, ErrForecastUnavailable))
		})
	}
}

func TestWeatherAPIService(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "90210", r.URL.Query().Get("q"))
		w.Write([]byte(`[{"name":"Beverly Hills","region":"California","country":"United States of America","lat":34.09,"lon":-118.41}]`))
	})
	mux.HandleFunc("/forecast.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		w.Write([]byte(`{"forecast":{"forecastday":[
			{"date":"2024-06-01","day":{"maxtemp_c":20,"mintemp_c":10,"avghumidity":55}},
			{"date":"2024-06-02","day":{"maxtemp_c":22,"mintemp_c":12,"avghumidity":60}}
		]}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := NewWeatherAPIServiceWithConfig(config.WeatherServiceConfig{
		BaseURL: srv.URL,
		APIKey:  "secret",
	}, time.Second, zaptest.NewLogger(t), nil)

	loc, fc, err := GetWeather(context.Background(), svc, "90210", "us")
	require.NoError(t, err)
	assert.Equal(t, "Beverly Hills", loc.Name)
	assert.Equal(t, "US", loc.CountryCode)
	require.Equal(t, 2, fc.Days())

	v, ok := Value(fc.RelativeHumidityMean, 1)
	assert.True(t, ok)
	assert.Equal(t, 60.0, v)
}

func TestWeatherAPIServiceEmptySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	svc := NewWeatherAPIServiceWithConfig(config.WeatherServiceConfig{BaseURL: srv.URL, APIKey: "k"},
		time.Second, zaptest.NewLogger(t), nil)

	_, err := svc.ResolveLocation(context.Background(), "nowhere", "")
	assert.True(t, errors.Is(err, ErrLocationNotFound))
}

func TestRateLimitedProvider(t *testing.T) {
	p := &stubProvider{
		loc:      &Location{Name: "X"},
		forecast: &Forecast{Time: []string{"2024-06-01"}},
	}
	limited := NewRateLimitedProvider(p, 1000, 0)
	assert.Equal(t, "stub", limited.Name())

	_, _, err := GetWeather(context.Background(), limited, "1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, p.resolveCalls)
	assert.Equal(t, 1, p.forecastCalls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewRateLimitedProvider(p, 0.001, 1)
	_, _ = slow.ResolveLocation(context.Background(), "1", "") // drains the burst
	_, err = slow.ResolveLocation(ctx, "1", "")
	assert.True(t, errors.Is(err, ErrLocationNotFound))
}

func TestNewProvider(t *testing.T) {
	logger := zaptest.NewLogger(t)

	cfg := config.NewDefaultConfig().Weather
	p, err := NewProvider(cfg, logger, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenMeteoService{}, p)

	cfg.RateLimit = 5
	p, err = NewProvider(cfg, logger, nil)
	require.NoError(t, err)
	assert.IsType(t, &RateLimitedProvider{}, p)

	cfg = config.NewDefaultConfig().Weather
	cfg.Provider = "weather-api"
	svc := cfg.Services["weather-api"]
	svc.Enabled = true
	cfg.Services["weather-api"] = svc
	_, err = NewProvider(cfg, logger, nil)
	assert.Error(t, err, "weather-api without key must be rejected")

	cfg.Provider = "missing"
	_, err = NewProvider(cfg, logger, nil)
	assert.Error(t, err)
}
